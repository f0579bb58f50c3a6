package validation

import (
	"errors"
	"sort"
	"strings"

	"github.com/vk/pipegridgo/internal/config"
	"github.com/vk/pipegridgo/internal/constraint"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/expr"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// BuildCatalog resolves the constraint and value type declarations of m.
// Declarations with errors are left out of the returned catalog.
func BuildCatalog(m *config.Model, reg *registry.Registry) (*execution.Catalog, diag.Diagnostics) {
	cat := execution.NewCatalog()
	var diags diag.Diagnostics
	for _, c := range m.Constraints {
		diags = append(diags, addConstraint(cat, c, reg)...)
	}
	diags = append(diags, addValuetypes(cat, m.Valuetypes)...)
	return cat, diags
}

func addConstraint(cat *execution.Catalog, c *config.Constraint, reg *registry.Registry) diag.Diagnostics {
	if _, exists := cat.Constraint(c.Name); exists {
		return diag.Diagnostics{diag.Errorf("The constraint name %q is already used", c.Name).At(c.DefRange)}
	}
	kind, ok := reg.Constraint(c.Kind)
	if !ok {
		return diag.Diagnostics{diag.Errorf("Unknown constraint kind %q.%s", c.Kind, didYouMean(c.Kind, reg.ConstraintKinds())).
			At(c.KindRange).OnBlock("", c.Name)}
	}

	owner := propertyOwner{name: c.Name, kindRange: c.KindRange}
	diags := checkPropertyBody(owner, c.Properties, kind.Properties(), nil)
	if diags.HasErrors() {
		return diags
	}

	values := make(map[string]cty.Value, len(c.Properties))
	for _, p := range c.Properties {
		v, err := expr.Evaluate(p.Expr, expr.NewEvaluationContext(nil), expr.Exhaustive)
		if err != nil {
			return append(diags, owner.locate(diag.Errorf("Constraint properties must be constant: %s", err), p.Expr.Range(), p.Name))
		}
		values[p.Name] = v
	}
	props := schema.NewValues("constraint "+c.Name, kind.Properties(), values)
	if pv, ok := kind.(constraint.PropertiesValidator); ok {
		if err := pv.ValidateProperties(props); err != nil {
			return append(diags, diag.Errorf("Invalid properties of constraint %q: %s", c.Name, err).
				At(c.DefRange).OnBlock("", c.Name))
		}
	}

	if err := cat.AddConstraint(&execution.ConstraintInstance{Name: c.Name, Constraint: kind, Properties: props}); err != nil {
		panic(err.Error())
	}
	return diags
}

// addValuetypes resolves declared value types in base-first order. A
// declaration may use another declared type as its base, in any file order.
func addValuetypes(cat *execution.Catalog, decls []*config.Valuetype) diag.Diagnostics {
	var diags diag.Diagnostics
	byName := make(map[string]*config.Valuetype, len(decls))
	var names []string
	for _, d := range decls {
		if _, isPrimitive := valuetype.LookupPrimitive(d.Name); isPrimitive {
			diags = append(diags, diag.Errorf("The value type name %q is reserved for a builtin type", d.Name).At(d.DefRange))
			continue
		}
		if _, exists := byName[d.Name]; exists {
			diags = append(diags, diag.Errorf("The value type name %q is already used", d.Name).At(d.DefRange))
			continue
		}
		byName[d.Name] = d
		names = append(names, d.Name)
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(byName))
	var resolve func(name string, path []string) (*valuetype.Valuetype, bool)
	resolve = func(name string, path []string) (*valuetype.Valuetype, bool) {
		if vt, ok := cat.Valuetype(name); ok {
			return vt, true
		}
		d, declared := byName[name]
		if !declared {
			return nil, false
		}
		switch state[name] {
		case visiting:
			cycle := append(path, name)
			diags = append(diags, diag.Errorf("The value types form a cyclic base chain: %s", strings.Join(cycle, " -> ")).At(d.DefRange))
			return nil, false
		case done:
			return nil, false
		}
		state[name] = visiting
		defer func() { state[name] = done }()

		base, ok := resolveBase(d, path, resolve)
		if !ok {
			if _, declared := byName[d.Base.Name]; !declared {
				if _, prim := valuetype.LookupPrimitive(d.Base.Name); !prim {
					candidates := append(cat.ValuetypeNames(), names...)
					diags = append(diags, diag.Errorf("Unknown value type %q.%s", d.Base.Name, didYouMean(d.Base.Name, candidates)).At(d.Base.Range))
				}
			}
			return nil, false
		}

		var constraints []string
		failed := false
		for _, ref := range d.Constraints {
			ci, ok := cat.Constraint(ref.Name)
			if !ok {
				diags = append(diags, diag.Errorf("Unknown constraint %q", ref.Name).At(ref.Range))
				failed = true
				continue
			}
			if compatible := ci.Constraint.CompatibleType(); !base.IsConvertibleTo(compatible) {
				diags = append(diags, diag.Errorf("Constraint %q of kind %s can only be applied to value type %s, not %s",
					ref.Name, ci.Constraint.Kind(), compatible, base).At(ref.Range))
				failed = true
				continue
			}
			constraints = append(constraints, ref.Name)
		}
		if failed {
			return nil, false
		}

		vt, err := valuetype.NewConstrained(d.Name, base, constraints...)
		if err != nil {
			diags = append(diags, diag.Errorf("Invalid value type %q: %s", d.Name, err).At(d.DefRange))
			return nil, false
		}
		if err := cat.AddValuetype(vt); err != nil {
			panic(err.Error())
		}
		return vt, true
	}

	sort.Strings(names)
	for _, name := range names {
		resolve(name, nil)
	}
	return diags
}

func resolveBase(d *config.Valuetype, path []string, resolve func(string, []string) (*valuetype.Valuetype, bool)) (*valuetype.Valuetype, bool) {
	if prim, ok := valuetype.LookupPrimitive(d.Base.Name); ok {
		return prim, true
	}
	return resolve(d.Base.Name, append(path, d.Name))
}

// checkVariables validates variable declarations and returns the type
// environment of the well-formed ones.
func checkVariables(vars []*config.Variable) (expr.TypeEnv, diag.Diagnostics) {
	var diags diag.Diagnostics
	env := make(expr.TypeEnv, len(vars))
	for _, v := range vars {
		if _, exists := env[v.Name]; exists {
			diags = append(diags, diag.Errorf("The variable name %q is already used", v.Name).At(v.DefRange))
			continue
		}
		vt, ok := v.Valuetype()
		if !ok {
			var prims []string
			for _, p := range valuetype.Primitives() {
				prims = append(prims, p.Name())
			}
			diags = append(diags, diag.Errorf("Variable %q has unknown type %q.%s", v.Name, v.Type.Name, didYouMean(v.Type.Name, prims)).At(v.Type.Range))
			continue
		}
		env[v.Name] = vt

		if v.Default == nil {
			continue
		}
		if refs := expr.References(v.Default); len(refs) > 0 {
			diags = append(diags, diag.Errorf("The default of variable %q cannot refer to other values: %s",
				v.Name, quoteAll(refs)).At(v.Default.Range()))
			continue
		}
		dt, typeDiags := expr.Infer(v.Default, nil)
		diags = append(diags, typeDiags...)
		if dt != nil && !dt.IsConvertibleTo(vt) {
			diags = append(diags, diag.Errorf("The default of variable %q needs to be of type %s but is of type %s", v.Name, vt, dt).At(v.Default.Range()))
			continue
		}
		if dt != nil {
			if _, err := expr.Evaluate(v.Default, expr.NewEvaluationContext(nil), expr.Exhaustive); err != nil && !errors.Is(err, expr.ErrUnresolved) {
				diags = append(diags, diag.Errorf("Invalid default for variable %q: %s", v.Name, err).At(v.Default.Range()))
			}
		}
	}
	return env, diags
}
