// Package local_file provides a block that reads a file from the local disk.
package local_file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegisterBlock(&Extractor{})
}

// Extractor is the LocalFileExtractor block kind.
type Extractor struct{}

func (*Extractor) Kind() string { return "LocalFileExtractor" }

func (*Extractor) Definition() registry.Definition {
	return registry.Definition{
		Description: "Reads a file from the local file system.",
		Input:       iotype.None,
		Output:      iotype.File,
		Properties: schema.Properties{
			{
				Name:        "filePath",
				Type:        valuetype.Text,
				Description: "Path of the file, relative to the working directory.",
				Validate:    schema.NotEmpty,
			},
		},
	}
}

func (*Extractor) Run(ctx context.Context, _ artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	path := ec.GetText("filePath")
	ec.LogDebug("Reading local file", "path", path)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, ec.PropertyErrorf("filePath", "Cannot read file %q: %s", path, err)
	}
	if info.IsDir() {
		return nil, ec.PropertyErrorf("filePath", "%q is a directory, not a file", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ec.LogInfo("Read local file", "path", path, "bytes", len(content))
	return artifact.NewFile(filepath.Base(path), content, ""), nil
}
