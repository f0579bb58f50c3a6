package schema

import (
	"fmt"
	"math/big"

	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/zclconf/go-cty/cty"
)

// Values gives typed access to the resolved properties of one block or
// constraint instance. Omitted properties fall back to their defaults.
//
// The getters panic when asked for a property the schema does not declare,
// or when the stored value does not have the requested type; both are
// programming errors in the calling block or constraint.
type Values struct {
	owner  string
	props  Properties
	values map[string]cty.Value
}

// NewValues binds resolved values to a schema. owner names the instance in
// panic messages.
func NewValues(owner string, props Properties, values map[string]cty.Value) *Values {
	vs := &Values{owner: owner, props: props, values: make(map[string]cty.Value, len(values))}
	for k, v := range values {
		vs.values[k] = v
	}
	return vs
}

// Get returns the raw value of a declared property and whether it holds one.
func (vs *Values) Get(name string) (cty.Value, bool) {
	p, ok := vs.props.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("%s: property '%s' is not declared", vs.owner, name))
	}
	if v, ok := vs.values[name]; ok {
		return v, true
	}
	if !p.Required() {
		return p.Default, true
	}
	return cty.NilVal, false
}

// Has reports whether the property was set explicitly.
func (vs *Values) Has(name string) bool {
	_, ok := vs.values[name]
	return ok
}

func (vs *Values) must(name string, want cty.Type) cty.Value {
	v, ok := vs.Get(name)
	if !ok {
		panic(fmt.Sprintf("%s: required property '%s' has no value", vs.owner, name))
	}
	if v.IsNull() || !v.Type().Equals(want) {
		panic(fmt.Sprintf("%s: property '%s' is not a %s", vs.owner, name, want.FriendlyName()))
	}
	return v
}

func (vs *Values) GetDecimal(name string) float64 {
	f, _ := vs.must(name, cty.Number).AsBigFloat().Float64()
	return f
}

func (vs *Values) GetInteger(name string) int64 {
	i, acc := vs.must(name, cty.Number).AsBigFloat().Int64()
	if acc != big.Exact {
		panic(fmt.Sprintf("%s: property '%s' does not fit into an integer", vs.owner, name))
	}
	return i
}

func (vs *Values) GetBoolean(name string) bool {
	return vs.must(name, cty.Bool).True()
}

func (vs *Values) GetText(name string) string {
	return vs.must(name, cty.String).AsString()
}

func (vs *Values) GetCellRange(name string) cellrange.Range {
	r, _ := cellrange.FromVal(vs.must(name, cellrange.CtyType))
	return r
}

// GetCollection returns the items of a collection property.
func (vs *Values) GetCollection(name string) []cty.Value {
	v, ok := vs.Get(name)
	if !ok {
		panic(fmt.Sprintf("%s: required property '%s' has no value", vs.owner, name))
	}
	ty := v.Type()
	if v.IsNull() || !(ty.IsTupleType() || ty.IsListType() || ty.IsSetType()) {
		panic(fmt.Sprintf("%s: property '%s' is not a collection", vs.owner, name))
	}
	if v.LengthInt() == 0 {
		return nil
	}
	return v.AsValueSlice()
}

// GetTextCollection returns the items of a collection of text.
func (vs *Values) GetTextCollection(name string) []string {
	items := vs.GetCollection(name)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.Type() != cty.String {
			panic(fmt.Sprintf("%s: property '%s' holds a non-text item", vs.owner, name))
		}
		out = append(out, it.AsString())
	}
	return out
}

// GetCellRangeCollection returns the items of a collection of cell ranges.
func (vs *Values) GetCellRangeCollection(name string) []cellrange.Range {
	items := vs.GetCollection(name)
	out := make([]cellrange.Range, 0, len(items))
	for _, it := range items {
		r, ok := cellrange.FromVal(it)
		if !ok {
			panic(fmt.Sprintf("%s: property '%s' holds a non cell range item", vs.owner, name))
		}
		out = append(out, r)
	}
	return out
}
