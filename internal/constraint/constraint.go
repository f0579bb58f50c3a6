// Package constraint implements the predicates constrained value types are
// refined with.
//
// A constraint kind is an implementation of Constraint registered under its
// Kind name. A pipeline declares constraint instances of a kind, sets the
// kind's properties, and attaches the instances to value types. At run time
// every value of such a type is checked with IsValid.
package constraint

import (
	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// PropertyReader gives typed access to the properties of one constraint
// instance. Asking for an undeclared property panics.
type PropertyReader interface {
	GetDecimal(name string) float64
	GetInteger(name string) int64
	GetBoolean(name string) bool
	GetText(name string) string
	GetCellRange(name string) cellrange.Range
	GetCollection(name string) []cty.Value
	GetTextCollection(name string) []string
}

// Constraint is a constraint kind.
type Constraint interface {
	// Kind is the unique name the kind is registered and referenced under.
	Kind() string
	// CompatibleType is the value type the constraint can be attached to,
	// including every type convertible to it.
	CompatibleType() *valuetype.Valuetype
	Properties() schema.Properties
	// IsValid checks a single value. It never panics on values of an
	// unexpected type; such values are invalid.
	IsValid(value cty.Value, props PropertyReader) bool
}

// PropertiesValidator is implemented by kinds whose properties depend on each
// other, such as a lower bound that must not exceed an upper bound.
type PropertiesValidator interface {
	ValidateProperties(props PropertyReader) error
}

// Builtins returns a fresh instance of every builtin constraint kind.
func Builtins() []Constraint {
	return []Constraint{
		&Range{},
		&Length{},
		&Regex{},
		&Allowlist{},
		&Denylist{},
	}
}

// numeric converts a value to a float, parsing text. ok is false for values
// that are neither numbers nor numeric text.
func numeric(v cty.Value) (float64, bool) {
	if v.IsNull() || !v.IsKnown() {
		return 0, false
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, true
	case cty.String:
		f, err := valuetype.ParseDecimal(v.AsString())
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// text returns the string held by v, or false if v is not text.
func text(v cty.Value) (string, bool) {
	if v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
		return "", false
	}
	return v.AsString(), true
}
