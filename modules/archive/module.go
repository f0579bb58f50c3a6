// Package archive provides blocks that unpack archives into an in-memory
// file system and pick single files out of it.
package archive

import (
	"github.com/vk/pipegridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegisterBlock(&Interpreter{})
	r.MustRegisterBlock(&FilePicker{})
}
