package archive

import (
	"context"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
)

// FilePicker is the FilePicker block kind.
type FilePicker struct{}

func (*FilePicker) Kind() string { return "FilePicker" }

func (*FilePicker) Definition() registry.Definition {
	return registry.Definition{
		Description: "Selects one file of a file system by its path.",
		Input:       iotype.FileSystem,
		Output:      iotype.File,
		Properties: schema.Properties{
			{Name: "path", Type: valuetype.Text, Description: "Absolute path inside the file system, e.g. /data/cars.csv.",
				Validate: schema.NotEmpty},
		},
	}
}

func (*FilePicker) Run(_ context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	fs := input.(*artifact.FileSystem)
	p := ec.GetText("path")
	f, ok := fs.GetFile(p)
	if !ok {
		ec.LogDebug("Available files", "paths", fs.Paths())
		return nil, ec.PropertyErrorf("path", "File %q not found in the file system", p)
	}
	return f, nil
}
