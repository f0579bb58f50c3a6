package executor

import (
	"errors"

	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/expr"
	"github.com/vk/pipegridgo/internal/pipeline"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// resolveProperties evaluates every property expression of b exhaustively,
// with the runtime variables bound, and checks the values against the
// schema. Values depending on variables are only known here, so type and
// custom validation run again.
func (e *Executor) resolveProperties(pipelineName string, b *pipeline.BlockInstance) (*schema.Values, error) {
	props := b.Definition().Properties
	evalCtx := expr.NewEvaluationContext(e.cfg.Variables)
	values := make(map[string]cty.Value, len(b.Config.Properties))

	for _, p := range b.Config.Properties {
		fail := func(format string, args ...any) error {
			return diag.Errorf(format, args...).At(p.Expr.Range()).OnBlock(pipelineName, b.Name).OnProperty(p.Name)
		}
		decl, ok := props.Lookup(p.Name)
		if !ok {
			return nil, fail("Invalid property name %q", p.Name)
		}

		v, err := expr.Evaluate(p.Expr, evalCtx, expr.Exhaustive)
		switch {
		case errors.Is(err, expr.ErrUnresolved):
			return nil, fail("Could not resolve the value of property %q: %s", p.Name, err)
		case err != nil:
			return nil, fail("Evaluating property %q failed: %s", p.Name, err)
		}
		if !decl.Type.Conforms(v) {
			return nil, fail("The value %s of property %q is not a valid %s", expr.FormatValue(v), p.Name, decl.Type)
		}
		if decl.Validate != nil {
			if err := decl.Validate(v); err != nil {
				return nil, fail("Invalid value for property %q: %s", p.Name, err)
			}
		}
		values[p.Name] = v
	}

	if missing := props.Missing(presentNames(values)); len(missing) > 0 {
		return nil, diag.Errorf("Required properties are missing: %v", missing).OnBlock(pipelineName, b.Name)
	}
	return schema.NewValues("block "+b.Name, props, values), nil
}

func presentNames(values map[string]cty.Value) map[string]bool {
	set := make(map[string]bool, len(values))
	for k := range values {
		set[k] = true
	}
	return set
}
