package execution

import (
	"fmt"
	"sort"

	"github.com/vk/pipegridgo/internal/constraint"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// ConstraintInstance is a declared constraint with its resolved properties.
type ConstraintInstance struct {
	Name       string
	Constraint constraint.Constraint
	Properties *schema.Values
}

// IsValid checks v against the instance.
func (ci *ConstraintInstance) IsValid(v cty.Value) bool {
	return ci.Constraint.IsValid(v, ci.Properties)
}

// Catalog holds the value types and constraint instances a pipeline file
// declares, next to the builtin primitives.
type Catalog struct {
	valuetypes  map[string]*valuetype.Valuetype
	constraints map[string]*ConstraintInstance
}

// NewCatalog creates a catalog that knows the primitives only.
func NewCatalog() *Catalog {
	c := &Catalog{
		valuetypes:  make(map[string]*valuetype.Valuetype),
		constraints: make(map[string]*ConstraintInstance),
	}
	for _, p := range valuetype.Primitives() {
		c.valuetypes[p.Name()] = p
	}
	return c
}

// AddValuetype registers a declared value type. Its constraints must already
// be in the catalog.
func (c *Catalog) AddValuetype(vt *valuetype.Valuetype) error {
	if _, exists := c.valuetypes[vt.Name()]; exists {
		return fmt.Errorf("value type %q is already defined", vt.Name())
	}
	for _, name := range vt.Constraints() {
		if _, ok := c.constraints[name]; !ok {
			return fmt.Errorf("value type %q references unknown constraint %q", vt.Name(), name)
		}
	}
	c.valuetypes[vt.Name()] = vt
	return nil
}

// AddConstraint registers a declared constraint instance.
func (c *Catalog) AddConstraint(ci *ConstraintInstance) error {
	if _, exists := c.constraints[ci.Name]; exists {
		return fmt.Errorf("constraint %q is already defined", ci.Name)
	}
	c.constraints[ci.Name] = ci
	return nil
}

// Valuetype resolves a value type by name.
func (c *Catalog) Valuetype(name string) (*valuetype.Valuetype, bool) {
	vt, ok := c.valuetypes[name]
	return vt, ok
}

// Constraint resolves a constraint instance by name.
func (c *Catalog) Constraint(name string) (*ConstraintInstance, bool) {
	ci, ok := c.constraints[name]
	return ci, ok
}

// ValuetypeNames lists every known value type name in lexical order.
func (c *Catalog) ValuetypeNames() []string {
	names := make([]string, 0, len(c.valuetypes))
	for n := range c.valuetypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Check reports whether v is a value of vt: it must conform to the primitive
// at the end of the chain and satisfy every constraint along the chain.
func (c *Catalog) Check(v cty.Value, vt *valuetype.Valuetype) error {
	if !vt.Conforms(v) {
		return fmt.Errorf("value is not a %s", vt.Primitive())
	}
	for _, t := range vt.Chain() {
		for _, name := range t.Constraints() {
			ci, ok := c.constraints[name]
			if !ok {
				panic(fmt.Sprintf("execution: value type %q references constraint %q missing from the catalog", t.Name(), name))
			}
			if !ci.IsValid(v) {
				return fmt.Errorf("value does not satisfy constraint %q of value type %q", name, t.Name())
			}
		}
	}
	return nil
}
