package config

import (
	"errors"
	"sort"

	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/expr"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Valuetype resolves the declared type of the variable. Only primitive types
// are allowed.
func (v *Variable) Valuetype() (*valuetype.Valuetype, bool) {
	vt, ok := valuetype.LookupPrimitive(v.Type.Name)
	if !ok || !vt.IsPrimitive() {
		return nil, false
	}
	return vt, true
}

// DefaultValue evaluates the variable's default. ok is false for variables
// without a default.
func (v *Variable) DefaultValue() (val cty.Value, ok bool, err error) {
	if v.Default == nil {
		return cty.NilVal, false, nil
	}
	val, err = expr.Evaluate(v.Default, expr.NewEvaluationContext(nil), expr.Exhaustive)
	if err != nil {
		return cty.NilVal, true, err
	}
	return val, true, nil
}

// ResolveVariables computes the value of every declared variable. overrides,
// keyed by variable name, hold textual values given on the command line and
// take precedence over defaults.
func (m *Model) ResolveVariables(overrides map[string]string) (map[string]cty.Value, diag.Diagnostics) {
	var diags diag.Diagnostics
	values := make(map[string]cty.Value, len(m.Variables))
	declared := make(map[string]bool, len(m.Variables))

	for _, v := range m.Variables {
		declared[v.Name] = true
		vt, ok := v.Valuetype()
		if !ok {
			diags = append(diags, diag.Errorf("Variable %q has unknown type %q", v.Name, v.Type.Name).At(v.Type.Range))
			continue
		}

		if raw, ok := overrides[v.Name]; ok {
			val, err := convert.Convert(cty.StringVal(raw), vt.CtyType())
			if err != nil || !vt.Conforms(val) {
				diags = append(diags, diag.Errorf("Value %q for variable %q is not a valid %s", raw, v.Name, vt).At(v.DefRange))
				continue
			}
			values[v.Name] = val
			continue
		}

		val, hasDefault, err := v.DefaultValue()
		switch {
		case !hasDefault:
			diags = append(diags, diag.Errorf("No value given for variable %q; set it with --var %s=...", v.Name, v.Name).At(v.DefRange))
		case err != nil:
			msg := err.Error()
			if errors.Is(err, expr.ErrUnresolved) {
				msg = "defaults cannot refer to other values"
			}
			diags = append(diags, diag.Errorf("Invalid default for variable %q: %s", v.Name, msg).At(v.Default.Range()))
		case !vt.Conforms(val):
			diags = append(diags, diag.Errorf("Default for variable %q is not a valid %s", v.Name, vt).At(v.Default.Range()))
		default:
			values[v.Name] = val
		}
	}

	var unknown []string
	for name := range overrides {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		diags = append(diags, diag.Errorf("Value given for undeclared variable %q", name))
	}
	return values, diags
}
