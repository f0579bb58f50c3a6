// Package registrytest provides configurable block kinds for tests of the
// packages that build, validate and run pipelines.
package registrytest

import (
	"context"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
)

// RunFunc is the behavior of a Block.
type RunFunc func(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error)

// Block is a block kind whose shape and behavior are set by the test.
type Block struct {
	Name  string
	In    iotype.IOType
	Out   iotype.IOType
	Props schema.Properties
	RunFn RunFunc
}

func (b *Block) Kind() string { return b.Name }

func (b *Block) Definition() registry.Definition {
	return registry.Definition{
		Description: "test block " + b.Name,
		Input:       b.In,
		Output:      b.Out,
		Properties:  b.Props,
	}
}

// Run calls RunFn, or returns an empty artifact of the output type.
func (b *Block) Run(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	if b.RunFn != nil {
		return b.RunFn(ctx, input, ec)
	}
	return Empty(b.Out), nil
}

// Empty returns an empty artifact of the given IOType, or nil for None.
func Empty(t iotype.IOType) artifact.Artifact {
	switch t {
	case iotype.Sheet:
		return artifact.NewSheet(nil)
	case iotype.Table:
		return artifact.NewTable()
	case iotype.File:
		return artifact.NewFile("empty.txt", nil, "")
	case iotype.FileSystem:
		return artifact.NewFileSystem()
	case iotype.Primitive:
		return &artifact.Scalar{}
	}
	return nil
}

// Extractor, Transformer, Interpreter and Loader form the chain
// None -> Sheet -> Sheet -> Table -> None.
func Extractor() *Block   { return &Block{Name: "TestExtractor", In: iotype.None, Out: iotype.Sheet} }
func Transformer() *Block { return &Block{Name: "TestTransformer", In: iotype.Sheet, Out: iotype.Sheet} }
func Interpreter() *Block { return &Block{Name: "TestInterpreter", In: iotype.Sheet, Out: iotype.Table} }
func Loader() *Block      { return &Block{Name: "TestLoader", In: iotype.Table, Out: iotype.None} }

// NewRegistry returns a registry with the builtin constraints and blocks.
// Without blocks it registers Extractor, Transformer, Interpreter and Loader.
func NewRegistry(blocks ...registry.BlockExecutor) *registry.Registry {
	if len(blocks) == 0 {
		blocks = []registry.BlockExecutor{Extractor(), Transformer(), Interpreter(), Loader()}
	}
	r := registry.NewWithModules(registry.Builtins{})
	for _, b := range blocks {
		r.MustRegisterBlock(b)
	}
	return r
}
