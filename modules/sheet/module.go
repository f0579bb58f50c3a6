// Package sheet provides blocks that reshape sheets and interpret them as
// typed tables.
package sheet

import (
	"github.com/vk/pipegridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegisterBlock(&CellRangeSelector{})
	r.MustRegisterBlock(&ColumnDeleter{})
	r.MustRegisterBlock(&RowDeleter{})
	r.MustRegisterBlock(&TableInterpreter{})
}
