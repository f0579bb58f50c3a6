package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pipegridgo/internal/expr"
)

// Model is the unified, format-agnostic representation of every declaration
// found in the loaded pipeline files.
type Model struct {
	Pipelines   []*Pipeline
	Valuetypes  []*Valuetype
	Constraints []*Constraint
	Variables   []*Variable
}

// Pipeline is a named network of blocks and pipes.
type Pipeline struct {
	Name     string
	Blocks   []*Block
	Pipes    []*PipeChain
	DefRange hcl.Range
}

// Block is one block instance inside a pipeline.
type Block struct {
	Name       string
	Kind       string
	Properties []*Property
	DefRange   hcl.Range
	KindRange  hcl.Range
}

// Property is a single property assignment of a block or constraint.
type Property struct {
	Name      string
	Expr      expr.Expression
	NameRange hcl.Range
}

// PipeChain connects two or more blocks in order: a chain of A, B and C
// stands for the pipes A to B and B to C.
type PipeChain struct {
	Blocks   []Ref
	DefRange hcl.Range
}

// Ref is a name used to refer to another declaration.
type Ref struct {
	Name  string
	Range hcl.Range
}

// Constraint is a named, parameterized instance of a constraint kind.
type Constraint struct {
	Name       string
	Kind       string
	Properties []*Property
	DefRange   hcl.Range
	KindRange  hcl.Range
}

// Valuetype declares a value type refining Base with Constraints.
type Valuetype struct {
	Name        string
	Base        Ref
	Constraints []Ref
	DefRange    hcl.Range
}

// Variable declares a runtime parameter property expressions may refer to.
type Variable struct {
	Name        string
	Type        Ref
	Description string
	// Default is nil for variables that must be set when running.
	Default  expr.Expression
	DefRange hcl.Range
}

// Pipeline finds a pipeline by name.
func (m *Model) Pipeline(name string) (*Pipeline, bool) {
	for _, p := range m.Pipelines {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Merge appends every declaration of other to m.
func (m *Model) Merge(other *Model) {
	m.Pipelines = append(m.Pipelines, other.Pipelines...)
	m.Valuetypes = append(m.Valuetypes, other.Valuetypes...)
	m.Constraints = append(m.Constraints, other.Constraints...)
	m.Variables = append(m.Variables, other.Variables...)
}

// Property finds a property assignment by name.
func (b *Block) Property(name string) (*Property, bool) {
	return findProperty(b.Properties, name)
}

// Property finds a property assignment by name.
func (c *Constraint) Property(name string) (*Property, bool) {
	return findProperty(c.Properties, name)
}

func findProperty(props []*Property, name string) (*Property, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
