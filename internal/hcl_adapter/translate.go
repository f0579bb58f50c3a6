// This file translates the HCL schema structs into the format-agnostic
// configuration model of the config package.

package hcl_adapter

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pipegridgo/internal/config"
	"github.com/vk/pipegridgo/internal/ctxlog"
)

// translator accumulates diagnostics while translating one file.
type translator struct {
	src   []byte
	diags hcl.Diagnostics
}

func (t *translator) translateRoot(ctx context.Context, root *fileRoot) *config.Model {
	m := &config.Model{}
	for _, v := range root.Variables {
		m.Variables = append(m.Variables, t.translateVariable(ctx, v))
	}
	for _, c := range root.Constraints {
		m.Constraints = append(m.Constraints, t.translateConstraint(c))
	}
	for _, vt := range root.Valuetypes {
		m.Valuetypes = append(m.Valuetypes, t.translateValuetype(ctx, vt))
	}
	for _, p := range root.Pipelines {
		m.Pipelines = append(m.Pipelines, t.translatePipeline(ctx, p))
	}
	return m
}

func (t *translator) translatePipeline(ctx context.Context, p *pipelineBlock) *config.Pipeline {
	logger := ctxlog.FromContext(ctx).With("pipeline", p.Name)
	logger.Debug("Translating HCL pipeline to internal config model.",
		"blocks", len(p.Blocks), "pipes", len(p.Pipes))

	out := &config.Pipeline{Name: p.Name, DefRange: p.DefRange}
	for _, b := range p.Blocks {
		out.Blocks = append(out.Blocks, &config.Block{
			Name:       b.Name,
			Kind:       b.Kind,
			Properties: t.translateProperties(b.Body),
			DefRange:   b.DefRange,
			KindRange:  b.KindRange,
		})
	}
	for _, pipe := range p.Pipes {
		names, ranges, diags := nameList(pipe.Chain, "block")
		t.diags = append(t.diags, diags...)
		if diags.HasErrors() {
			continue
		}
		if len(names) < 2 {
			t.diags = append(t.diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid pipe",
				Detail:   "A pipe chain needs to connect at least two blocks.",
				Subject:  pipe.Chain.Range().Ptr(),
			})
			continue
		}
		chain := &config.PipeChain{DefRange: pipe.DefRange}
		for i, name := range names {
			chain.Blocks = append(chain.Blocks, config.Ref{Name: name, Range: ranges[i]})
		}
		out.Pipes = append(out.Pipes, chain)
	}
	return out
}

func (t *translator) translateConstraint(c *constraintBlock) *config.Constraint {
	return &config.Constraint{
		Name:       c.Name,
		Kind:       c.Kind,
		Properties: t.translateProperties(c.Body),
		DefRange:   c.DefRange,
		KindRange:  c.KindRange,
	}
}

func (t *translator) translateValuetype(ctx context.Context, vt *valuetypeBlock) *config.Valuetype {
	out := &config.Valuetype{Name: vt.Name, DefRange: vt.DefRange}
	base, diags := singleName(vt.Base, "value type")
	t.diags = append(t.diags, diags...)
	out.Base = config.Ref{Name: base, Range: vt.Base.Range()}

	if isExprDefined(ctx, vt.Constraints, "constraints") {
		names, ranges, diags := nameList(vt.Constraints, "constraint")
		t.diags = append(t.diags, diags...)
		for i, name := range names {
			out.Constraints = append(out.Constraints, config.Ref{Name: name, Range: ranges[i]})
		}
	}
	return out
}

func (t *translator) translateVariable(ctx context.Context, v *variableBlock) *config.Variable {
	out := &config.Variable{Name: v.Name, Description: v.Description, DefRange: v.DefRange}
	typeName, diags := singleName(v.Type, "value type")
	t.diags = append(t.diags, diags...)
	out.Type = config.Ref{Name: typeName, Range: v.Type.Range()}

	if isExprDefined(ctx, v.Default, "default") {
		out.Default = t.translateExpr(v.Default)
	}
	return out
}

func (t *translator) translateProperties(body hcl.Body) []*config.Property {
	attrs, diags := bodyAttributes(body)
	t.diags = append(t.diags, diags...)
	props := make([]*config.Property, 0, len(attrs))
	for _, attr := range attrs {
		e := t.translateExpr(attr.Expr)
		if e == nil {
			continue
		}
		props = append(props, &config.Property{Name: attr.Name, Expr: e, NameRange: attr.NameRange})
	}
	return props
}
