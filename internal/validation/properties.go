package validation

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pipegridgo/internal/config"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/expr"
	"github.com/vk/pipegridgo/internal/schema"
)

// propertyOwner is the block or constraint a property body belongs to.
type propertyOwner struct {
	pipeline  string
	name      string
	kindRange hcl.Range
}

func (o propertyOwner) locate(d *diag.Diagnostic, rng hcl.Range, property string) *diag.Diagnostic {
	return d.At(rng).OnBlock(o.pipeline, o.name).OnProperty(property)
}

// checkPropertyBody validates assignments against the schema of their kind.
// Custom property validators only run when the body is otherwise free of
// errors.
func checkPropertyBody(owner propertyOwner, body []*config.Property, props schema.Properties, env expr.TypeEnv) diag.Diagnostics {
	var diags diag.Diagnostics
	present := make(map[string]bool, len(body))

	for _, p := range body {
		present[p.Name] = true
		decl, ok := props.Lookup(p.Name)
		if !ok {
			diags = append(diags, owner.locate(
				diag.Errorf("Invalid property name %q.%s", p.Name, didYouMean(p.Name, props.Names())),
				p.NameRange, p.Name))
			continue
		}
		diags = append(diags, checkAssignment(owner, p, decl, env)...)
	}

	if missing := props.Missing(present); len(missing) > 0 {
		diags = append(diags, owner.locate(
			diag.Errorf("The following required properties are missing: %s", quoteAll(missing)),
			owner.kindRange, ""))
	}

	if diags.HasErrors() {
		return diags
	}
	for _, p := range body {
		decl, _ := props.Lookup(p.Name)
		v, err := expr.Evaluate(p.Expr, expr.NewEvaluationContext(nil), expr.Lazy)
		switch {
		case errors.Is(err, expr.ErrUnresolved):
			// Depends on a variable; checked again at run time.
			continue
		case err == nil && !decl.Type.Conforms(v):
			err = fmt.Errorf("%s is not a valid %s", expr.FormatValue(v), decl.Type)
		case err == nil && decl.Validate != nil:
			err = decl.Validate(v)
		case decl.Validate == nil:
			continue
		}
		if err != nil {
			diags = append(diags, owner.locate(
				diag.Errorf("Invalid value for property %q: %s", p.Name, err),
				p.Expr.Range(), p.Name))
		}
	}
	return diags
}

// checkAssignment infers the type of a single assignment, compares it to the
// declared type and offers a simplification hint.
func checkAssignment(owner propertyOwner, p *config.Property, decl *schema.Property, env expr.TypeEnv) diag.Diagnostics {
	inferred, typeDiags := expr.Infer(p.Expr, env)
	var diags diag.Diagnostics
	for _, d := range typeDiags {
		d.OnBlock(owner.pipeline, owner.name).OnProperty(p.Name)
		diags = append(diags, d)
	}
	if inferred == nil {
		return diags
	}
	if !inferred.IsConvertibleTo(decl.Type) {
		diags = append(diags, owner.locate(
			diag.Errorf("The value of property %q needs to be of type %s but is of type %s", p.Name, decl.Type, inferred),
			p.Expr.Range(), p.Name))
		return diags
	}
	if v, ok := expr.Simplify(p.Expr); ok {
		diags = append(diags, owner.locate(
			diag.Infof("The expression can be simplified to %s", expr.FormatValue(v)),
			p.Expr.Range(), p.Name))
	} else if !expr.IsLiteral(p.Expr) {
		_, err := expr.Evaluate(p.Expr, expr.NewEvaluationContext(nil), expr.Lazy)
		if err != nil && !errors.Is(err, expr.ErrUnresolved) {
			diags = append(diags, owner.locate(
				diag.Errorf("The expression cannot be evaluated: %s", err),
				p.Expr.Range(), p.Name))
		}
	}
	return diags
}
