// Package yaml_file provides a loader that writes tables into YAML files.
package yaml_file

import (
	"bytes"
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
	"gopkg.in/yaml.v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegisterBlock(&Loader{})
}

// Loader is the YAMLLoader block kind.
type Loader struct{}

func (*Loader) Kind() string { return "YAMLLoader" }

func (*Loader) Definition() registry.Definition {
	return registry.Definition{
		Description: "Writes a table as a YAML list of records. Existing files are overwritten.",
		Input:       iotype.Table,
		Output:      iotype.None,
		Properties: schema.Properties{
			{Name: "file", Type: valuetype.Text, Validate: schema.NotEmpty,
				Description: "Path of the YAML file. Missing parent directories are created."},
		},
	}
}

func (*Loader) Run(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	t := input.(*artifact.Table)
	path := ec.GetText("file")

	doc, err := Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode table: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ec.PropertyErrorf("file", "Cannot create the directory of %q: %s", path, err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return nil, ec.PropertyErrorf("file", "Cannot write %q: %s", path, err)
	}

	ec.LogInfo("Wrote YAML file", "path", path, "rows", t.NumRows())
	return nil, nil
}

// Marshal encodes t as a sequence of mappings. Keys keep the column order.
func Marshal(t *artifact.Table) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i := 0; i < t.NumRows(); i++ {
		record := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for j, v := range t.Row(i) {
			var value yaml.Node
			if err := value.Encode(artifact.Native(v)); err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i+1, t.Columns[j].Name, err)
			}
			record.Content = append(record.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Columns[j].Name},
				&value,
			)
		}
		seq.Content = append(seq.Content, record)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{seq}}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
