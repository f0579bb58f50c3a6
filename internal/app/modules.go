package app

import (
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/modules/archive"
	"github.com/vk/pipegridgo/modules/csv"
	"github.com/vk/pipegridgo/modules/http_file"
	"github.com/vk/pipegridgo/modules/local_file"
	"github.com/vk/pipegridgo/modules/print"
	"github.com/vk/pipegridgo/modules/sheet"
	"github.com/vk/pipegridgo/modules/socketio"
	"github.com/vk/pipegridgo/modules/yaml_file"
)

// CoreModules is the definitive list of all modules that are compiled into
// the pipegridgo binary.
var CoreModules = []registry.Module{
	registry.Builtins{},
	&local_file.Module{},
	&http_file.Module{},
	&archive.Module{},
	&csv.Module{},
	&sheet.Module{},
	&print.Module{},
	&yaml_file.Module{},
	&socketio.Module{},
}
