package hcl_adapter

import (
	"context"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pipegridgo/internal/ctxlog"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with non-nil,
// zero-width expressions, so a nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// bodyAttributes returns the attributes of a block body in source order.
func bodyAttributes(body hcl.Body) ([]*hcl.Attribute, hcl.Diagnostics) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NameRange.Start.Byte < out[j].NameRange.Start.Byte
	})
	return out, diags
}

// singleName extracts a bare identifier such as `decimal` or `Extractor`
// from expr.
func singleName(expr hcl.Expression, what string) (string, hcl.Diagnostics) {
	trav, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   "A " + what + " name is required here.",
			Subject:  expr.Range().Ptr(),
		}}
	}
	if len(trav) != 1 {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   "A single " + what + " name is required here, without attribute access.",
			Subject:  expr.Range().Ptr(),
		}}
	}
	return trav.RootName(), nil
}

// nameList extracts a list of bare identifiers such as `[A, B, C]`.
func nameList(expr hcl.Expression, what string) ([]string, []hcl.Range, hcl.Diagnostics) {
	items, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, nil, diags
	}
	names := make([]string, 0, len(items))
	ranges := make([]hcl.Range, 0, len(items))
	for _, item := range items {
		name, d := singleName(item, what)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		names = append(names, name)
		ranges = append(ranges, item.Range())
	}
	return names, ranges, diags
}
