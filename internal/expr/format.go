package expr

import (
	"strconv"
	"strings"

	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/zclconf/go-cty/cty"
)

// FormatValue renders a value the way it would be written in a pipeline file.
func FormatValue(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return "null"
	}
	if !v.IsKnown() {
		return "(unknown)"
	}
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return strconv.FormatBool(v.True())
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			return bf.Text('f', 0)
		}
		f, _ := bf.Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case ty == cty.String:
		return strconv.Quote(v.AsString())
	case ty == cellrange.CtyType:
		r, _ := cellrange.FromVal(v)
		return r.String()
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var items []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			items = append(items, FormatValue(ev))
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return v.GoString()
}

// Simplify evaluates e lazily without any bound references. It reports the
// value e folds into, or false if e is already a literal or depends on
// references.
func Simplify(e Expression) (cty.Value, bool) {
	if IsLiteral(e) {
		return cty.NilVal, false
	}
	v, err := Evaluate(e, NewEvaluationContext(nil), Lazy)
	if err != nil {
		return cty.NilVal, false
	}
	return v, true
}
