package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/constraint"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/schema"
)

// ErrDuplicate is returned when a kind name is registered twice.
var ErrDuplicate = errors.New("kind already registered")

// Definition describes the static shape of a block kind.
type Definition struct {
	Description string
	// Input is iotype.None for extractors.
	Input iotype.IOType
	// Output is iotype.None for loaders.
	Output     iotype.IOType
	Properties schema.Properties
}

// BlockExecutor implements one block kind.
type BlockExecutor interface {
	Kind() string
	Definition() Definition
	// Run processes the parent's output. input is nil for blocks without an
	// input. A failing run returns a *diag.Diagnostic, or a plain error that
	// the executor wraps into one.
	Run(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error)
}

// Module is the interface that all block modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the block kinds and constraint kinds of one application
// instance.
type Registry struct {
	blocks      map[string]BlockExecutor
	constraints map[string]constraint.Constraint
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		blocks:      make(map[string]BlockExecutor),
		constraints: make(map[string]constraint.Constraint),
	}
}

// RegisterBlock adds a block kind.
func (r *Registry) RegisterBlock(b BlockExecutor) error {
	kind := b.Kind()
	if kind == "" {
		return fmt.Errorf("block executor %T has an empty kind", b)
	}
	if _, exists := r.blocks[kind]; exists {
		return fmt.Errorf("block kind '%s': %w", kind, ErrDuplicate)
	}
	b.Definition().Properties.Check("block kind " + kind)
	slog.Debug("Registering block kind.", "kind", kind)
	r.blocks[kind] = b
	return nil
}

// MustRegisterBlock is like RegisterBlock but panics on error.
func (r *Registry) MustRegisterBlock(b BlockExecutor) {
	if err := r.RegisterBlock(b); err != nil {
		panic(err.Error())
	}
}

// RegisterConstraint adds a constraint kind.
func (r *Registry) RegisterConstraint(c constraint.Constraint) error {
	kind := c.Kind()
	if kind == "" {
		return fmt.Errorf("constraint %T has an empty kind", c)
	}
	if _, exists := r.constraints[kind]; exists {
		return fmt.Errorf("constraint kind '%s': %w", kind, ErrDuplicate)
	}
	c.Properties().Check("constraint kind " + kind)
	slog.Debug("Registering constraint kind.", "kind", kind)
	r.constraints[kind] = c
	return nil
}

// MustRegisterConstraint is like RegisterConstraint but panics on error.
func (r *Registry) MustRegisterConstraint(c constraint.Constraint) {
	if err := r.RegisterConstraint(c); err != nil {
		panic(err.Error())
	}
}

// Block looks up a block kind.
func (r *Registry) Block(kind string) (BlockExecutor, bool) {
	b, ok := r.blocks[kind]
	return b, ok
}

// Constraint looks up a constraint kind.
func (r *Registry) Constraint(kind string) (constraint.Constraint, bool) {
	c, ok := r.constraints[kind]
	return c, ok
}

// BlockKinds returns every registered block kind in lexical order.
func (r *Registry) BlockKinds() []string {
	return sortedKeys(r.blocks)
}

// ConstraintKinds returns every registered constraint kind in lexical order.
func (r *Registry) ConstraintKinds() []string {
	return sortedKeys(r.constraints)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
