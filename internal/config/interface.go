package config

import (
	"context"

	"github.com/vk/pipegridgo/internal/diag"
)

// Loader is the interface for a format-specific pipeline loader.
type Loader interface {
	// Load reads every pipeline file found at paths and translates them into
	// a single model. Syntax errors are returned as diagnostics; a model is
	// returned whenever the files could be read at all.
	Load(ctx context.Context, paths ...string) (*Model, diag.Diagnostics)
}
