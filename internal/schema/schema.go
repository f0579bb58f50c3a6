// Package schema describes the properties a block kind or constraint kind
// accepts: their value types, defaults and extra validation rules.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// ValidateFunc checks a property value beyond its value type. It is called
// only with values that already conform to the property's type.
type ValidateFunc func(v cty.Value) error

// Property defines a single property of a block kind or constraint kind.
type Property struct {
	Name        string
	Type        *valuetype.Valuetype
	Description string
	// Default is used when the property is omitted. A property without a
	// default is required.
	Default  cty.Value
	Validate ValidateFunc
}

// Required reports whether the property must be set explicitly.
func (p *Property) Required() bool {
	return p.Default == cty.NilVal
}

// Properties is the ordered property schema of one kind.
type Properties []*Property

// Lookup finds a property by name.
func (ps Properties) Lookup(name string) (*Property, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Names returns every property name in declaration order.
func (ps Properties) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// Missing returns the required properties absent from set, in declaration
// order.
func (ps Properties) Missing(set map[string]bool) []string {
	var missing []string
	for _, p := range ps {
		if p.Required() && !set[p.Name] {
			missing = append(missing, p.Name)
		}
	}
	return missing
}

// Check panics if the schema is malformed. Modules call it at registration.
func (ps Properties) Check(owner string) {
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if p.Name == "" || p.Type == nil {
			panic(fmt.Sprintf("%s: property definition needs a name and a type", owner))
		}
		if seen[p.Name] {
			panic(fmt.Sprintf("%s: property '%s' defined twice", owner, p.Name))
		}
		seen[p.Name] = true
		if !p.Required() && !p.Type.Conforms(p.Default) {
			panic(fmt.Sprintf("%s: default of property '%s' is not a %s", owner, p.Name, p.Type))
		}
	}
}

// OneOf accepts text values from a fixed set.
func OneOf(allowed ...string) ValidateFunc {
	return func(v cty.Value) error {
		s := v.AsString()
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		sorted := append([]string(nil), allowed...)
		sort.Strings(sorted)
		return fmt.Errorf("must be one of %s", quoteAll(sorted))
	}
}

// NotNegative accepts numbers greater or equal to zero.
func NotNegative(v cty.Value) error {
	if v.AsBigFloat().Sign() < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// NotEmpty accepts non-empty text.
func NotEmpty(v cty.Value) error {
	if strings.TrimSpace(v.AsString()) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return strings.Join(quoted, ", ")
}
