package hcl_adapter

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/vk/pipegridgo/internal/expr"
	"github.com/zclconf/go-cty/cty"
)

// variablePrefix is the root name references to variables are written with.
const variablePrefix = "var"

var binaryOps = map[*hclsyntax.Operation]expr.BinaryOperator{
	hclsyntax.OpLogicalOr:          expr.OpOr,
	hclsyntax.OpLogicalAnd:         expr.OpAnd,
	hclsyntax.OpEqual:              expr.OpEq,
	hclsyntax.OpNotEqual:           expr.OpNe,
	hclsyntax.OpGreaterThan:        expr.OpGT,
	hclsyntax.OpGreaterThanOrEqual: expr.OpGE,
	hclsyntax.OpLessThan:           expr.OpLT,
	hclsyntax.OpLessThanOrEqual:    expr.OpLE,
	hclsyntax.OpAdd:                expr.OpAdd,
	hclsyntax.OpSubtract:           expr.OpSub,
	hclsyntax.OpMultiply:           expr.OpMul,
	hclsyntax.OpDivide:             expr.OpDiv,
	hclsyntax.OpModulo:             expr.OpMod,
}

var unaryFuncs = map[string]expr.UnaryOperator{
	"sqrt":      expr.OpSqrt,
	"floor":     expr.OpFloor,
	"ceil":      expr.OpCeil,
	"round":     expr.OpRound,
	"lowercase": expr.OpLowercase,
	"uppercase": expr.OpUppercase,
}

var binaryFuncs = map[string]expr.BinaryOperator{
	"pow":     expr.OpPow,
	"root":    expr.OpRoot,
	"matches": expr.OpMatches,
	"in":      expr.OpIn,
	"xor":     expr.OpXor,
}

// cellRangeFuncs maps each cell range function to the keyword the cell range
// parser expects in front of its argument.
var cellRangeFuncs = map[string]string{
	"range":  "",
	"column": "column ",
	"row":    "row ",
	"cell":   "cell ",
}

// translateExpr converts a native HCL expression into an expression tree.
// It returns nil after recording a diagnostic when e uses syntax pipelines
// do not support.
func (t *translator) translateExpr(e hcl.Expression) expr.Expression {
	out, diags := t.convert(e)
	t.diags = append(t.diags, diags...)
	if diags.HasErrors() {
		return nil
	}
	return out
}

func (t *translator) convert(e hcl.Expression) (expr.Expression, hcl.Diagnostics) {
	switch n := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		return t.convertLiteral(n.Val, n.SrcRange, "")
	case *hclsyntax.TemplateExpr:
		return t.convertTemplate(n)
	case *hclsyntax.TemplateWrapExpr:
		return t.convert(n.Wrapped)
	case *hclsyntax.ParenthesesExpr:
		return t.convert(n.Expression)
	case *hclsyntax.ScopeTraversalExpr:
		return t.convertTraversal(n)
	case *hclsyntax.UnaryOpExpr:
		return t.convertUnary(n)
	case *hclsyntax.BinaryOpExpr:
		op, ok := binaryOps[n.Op]
		if !ok {
			return nil, hcl.Diagnostics{unsupported(n.SrcRange, "This operator is not supported in pipelines.")}
		}
		left, diags := t.convert(n.LHS)
		right, rdiags := t.convert(n.RHS)
		diags = append(diags, rdiags...)
		if diags.HasErrors() {
			return nil, diags
		}
		return &expr.BinaryOp{Op: op, Left: left, Right: right, SrcRange: n.SrcRange}, diags
	case *hclsyntax.TupleConsExpr:
		var diags hcl.Diagnostics
		items := make([]expr.Expression, 0, len(n.Exprs))
		for _, item := range n.Exprs {
			ie, d := t.convert(item)
			diags = append(diags, d...)
			items = append(items, ie)
		}
		if diags.HasErrors() {
			return nil, diags
		}
		return &expr.Collection{Items: items, SrcRange: n.SrcRange}, nil
	case *hclsyntax.FunctionCallExpr:
		return t.convertCall(n)
	default:
		return nil, hcl.Diagnostics{unsupported(e.Range(), "Only literals, lists, operators, variable references and pipeline functions are allowed in property values.")}
	}
}

func (t *translator) convertLiteral(v cty.Value, rng hcl.Range, sign string) (expr.Expression, hcl.Diagnostics) {
	if v.IsNull() {
		return nil, hcl.Diagnostics{unsupported(rng, "The null value is not supported in pipelines.")}
	}
	var lit *expr.Literal
	switch v.Type() {
	case cty.Bool:
		lit = expr.Bool(v.True())
	case cty.String:
		lit = expr.Text(v.AsString())
	case cty.Number:
		if sign != "" {
			v = v.Negate()
		}
		var err error
		lit, err = expr.Number(sign+sourceText(t.src, rng), v)
		if err != nil {
			return nil, hcl.Diagnostics{unsupported(rng, "%s", err)}
		}
	default:
		return nil, hcl.Diagnostics{unsupported(rng, "Values of type %s are not supported.", v.Type().FriendlyName())}
	}
	lit.SrcRange = rng
	return lit, nil
}

// convertTemplate accepts plain quoted strings and heredocs without
// interpolation.
func (t *translator) convertTemplate(n *hclsyntax.TemplateExpr) (expr.Expression, hcl.Diagnostics) {
	var sb strings.Builder
	for _, part := range n.Parts {
		lit, ok := part.(*hclsyntax.LiteralValueExpr)
		if !ok || lit.Val.Type() != cty.String {
			return nil, hcl.Diagnostics{unsupported(part.Range(), "String interpolation is not supported.")}
		}
		sb.WriteString(lit.Val.AsString())
	}
	out := expr.Text(sb.String())
	out.SrcRange = n.SrcRange
	return out, nil
}

func (t *translator) convertTraversal(n *hclsyntax.ScopeTraversalExpr) (expr.Expression, hcl.Diagnostics) {
	trav := n.Traversal
	if trav.RootName() == variablePrefix && len(trav) == 2 {
		if attr, ok := trav[1].(hcl.TraverseAttr); ok {
			return &expr.Reference{Name: attr.Name, SrcRange: n.SrcRange}, nil
		}
	}
	return nil, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid reference",
		Detail:   "Only variables can be referenced, written as var.<name>.",
		Subject:  n.SrcRange.Ptr(),
	}}
}

func (t *translator) convertUnary(n *hclsyntax.UnaryOpExpr) (expr.Expression, hcl.Diagnostics) {
	if n.Op == hclsyntax.OpNegate {
		if lit, ok := n.Val.(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.Number {
			return t.convertLiteral(lit.Val, n.SrcRange, "-")
		}
	}
	operand, diags := t.convert(n.Val)
	if diags.HasErrors() {
		return nil, diags
	}
	var op expr.UnaryOperator
	switch n.Op {
	case hclsyntax.OpLogicalNot:
		op = expr.OpNot
	case hclsyntax.OpNegate:
		op = expr.OpNeg
	default:
		return nil, hcl.Diagnostics{unsupported(n.SrcRange, "This operator is not supported in pipelines.")}
	}
	return &expr.UnaryOp{Op: op, Operand: operand, SrcRange: n.SrcRange}, nil
}

func (t *translator) convertCall(n *hclsyntax.FunctionCallExpr) (expr.Expression, hcl.Diagnostics) {
	rng := n.Range()
	if n.ExpandFinal {
		return nil, hcl.Diagnostics{unsupported(rng, "Argument expansion is not supported.")}
	}

	if prefix, ok := cellRangeFuncs[n.Name]; ok {
		return t.convertCellRange(n, prefix)
	}

	want := 0
	if _, ok := unaryFuncs[n.Name]; ok {
		want = 1
	} else if _, ok := binaryFuncs[n.Name]; ok {
		want = 2
	} else {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Call to unknown function",
			Detail:   "There is no function named \"" + n.Name + "\".",
			Subject:  n.NameRange.Ptr(),
		}}
	}
	if len(n.Args) != want {
		return nil, hcl.Diagnostics{argCount(n, want)}
	}

	var diags hcl.Diagnostics
	args := make([]expr.Expression, len(n.Args))
	for i, a := range n.Args {
		var d hcl.Diagnostics
		args[i], d = t.convert(a)
		diags = append(diags, d...)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	if want == 1 {
		return &expr.UnaryOp{Op: unaryFuncs[n.Name], Operand: args[0], SrcRange: rng}, nil
	}
	return &expr.BinaryOp{Op: binaryFuncs[n.Name], Left: args[0], Right: args[1], SrcRange: rng}, nil
}

func (t *translator) convertCellRange(n *hclsyntax.FunctionCallExpr, prefix string) (expr.Expression, hcl.Diagnostics) {
	rng := n.Range()
	if len(n.Args) != 1 {
		return nil, hcl.Diagnostics{argCount(n, 1)}
	}
	arg, diags := t.convert(n.Args[0])
	if diags.HasErrors() {
		return nil, diags
	}
	lit, ok := arg.(*expr.Literal)
	if !ok {
		return nil, hcl.Diagnostics{unsupported(n.Args[0].Range(), "The argument of %s() must be a literal.", n.Name)}
	}
	var text string
	switch lit.Value.Type() {
	case cty.String:
		text = lit.Value.AsString()
	case cty.Number:
		text = expr.FormatValue(lit.Value)
	default:
		return nil, hcl.Diagnostics{unsupported(lit.SrcRange, "The argument of %s() must be text or a number.", n.Name)}
	}

	r, err := cellrange.Parse(prefix + text)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid cell range",
			Detail:   err.Error(),
			Subject:  rng.Ptr(),
		}}
	}
	out := expr.CellRange(r)
	out.SrcRange = rng
	return out, nil
}

func argCount(n *hclsyntax.FunctionCallExpr, want int) *hcl.Diagnostic {
	noun := "arguments"
	if want == 1 {
		noun = "argument"
	}
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Wrong number of arguments",
		Detail:   fmt.Sprintf("%s() takes %d %s, got %d.", n.Name, want, noun, len(n.Args)),
		Subject:  n.Range().Ptr(),
	}
}
