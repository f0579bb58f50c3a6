// internal/cellrange/types.go
package cellrange

import (
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// Last marks a wildcard column or row that resolves to the last one of a
// sheet during Bind.
const Last = -1

// Index addresses a single cell. Col and Row are zero-based.
type Index struct {
	Col int
	Row int
}

// Range is a rectangular selection between two cells, both inclusive.
type Range struct {
	Start Index
	End   Index
}

// CtyType is the capsule type cell ranges travel in as property values.
var CtyType = cty.Capsule("cellRange", reflect.TypeOf(Range{}))

// Val wraps r into a cty value of CtyType.
func Val(r Range) cty.Value {
	return cty.CapsuleVal(CtyType, &r)
}

// FromVal unwraps a value created with Val.
func FromVal(v cty.Value) (Range, bool) {
	if v.IsNull() || !v.IsKnown() || v.Type() != CtyType {
		return Range{}, false
	}
	r, ok := v.EncapsulatedValue().(*Range)
	if !ok {
		return Range{}, false
	}
	return *r, true
}

// Column selects every cell of the zero-based column col.
func Column(col int) Range {
	return Range{Start: Index{Col: col, Row: 0}, End: Index{Col: col, Row: Last}}
}

// Row selects every cell of the zero-based row row.
func Row(row int) Range {
	return Range{Start: Index{Col: 0, Row: row}, End: Index{Col: Last, Row: row}}
}

// Cell selects the single cell at i.
func Cell(i Index) Range {
	return Range{Start: i, End: i}
}
