package valuetype

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/zclconf/go-cty/cty"
)

// CtyType returns the cty type values of v are carried in.
func (v *Valuetype) CtyType() cty.Type {
	switch v.Primitive().kind {
	case KindBoolean:
		return cty.Bool
	case KindDecimal, KindInteger:
		return cty.Number
	case KindText:
		return cty.String
	case KindCellRange:
		return cellrange.CtyType
	default:
		return cty.DynamicPseudoType
	}
}

// Conforms reports whether val is a known, non-null value of type v.
// Constraints attached to constrained types are not evaluated here.
func (v *Valuetype) Conforms(val cty.Value) bool {
	if val.IsNull() || !val.IsKnown() {
		return false
	}
	ty := val.Type()
	switch v.kind {
	case KindBoolean:
		return ty == cty.Bool
	case KindDecimal:
		return ty == cty.Number
	case KindInteger:
		return ty == cty.Number && isInt64(val)
	case KindText:
		return ty == cty.String
	case KindCellRange:
		return ty == cellrange.CtyType
	case KindCollection:
		if !ty.IsTupleType() && !ty.IsListType() && !ty.IsSetType() {
			return false
		}
		if val.LengthInt() == 0 {
			return true
		}
		if v.elem == nil {
			return false
		}
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if !v.elem.Conforms(ev) {
				return false
			}
		}
		return true
	case KindConstrained:
		return v.base.Conforms(val)
	}
	return false
}

// isInt64 reports whether a number is whole and fits into an int64.
func isInt64(val cty.Value) bool {
	bf := val.AsBigFloat()
	if !bf.IsInt() {
		return false
	}
	_, acc := bf.Int64()
	return acc == big.Exact
}

// Of infers the value type of a runtime value. Whole numbers are reported as
// Integer.
func Of(val cty.Value) (*Valuetype, bool) {
	if val.IsNull() || !val.IsKnown() {
		return nil, false
	}
	ty := val.Type()
	switch {
	case ty == cty.Bool:
		return Boolean, true
	case ty == cty.Number:
		if isInt64(val) {
			return Integer, true
		}
		return Decimal, true
	case ty == cty.String:
		return Text, true
	case ty == cellrange.CtyType:
		return CellRange, true
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var elem *Valuetype
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			et, ok := Of(ev)
			if !ok {
				return nil, false
			}
			if elem == nil {
				elem = et
				continue
			}
			common, ok := CommonType(elem, et)
			if !ok {
				return nil, false
			}
			elem = common
		}
		return Collection(elem), true
	}
	return nil, false
}

// ParseText parses the textual form of a value, as found in sheet cells, into
// a value of the primitive at the end of v's chain.
func (v *Valuetype) ParseText(s string) (cty.Value, error) {
	s = strings.TrimSpace(s)
	switch p := v.Primitive(); p.kind {
	case KindBoolean:
		switch strings.ToLower(s) {
		case "true":
			return cty.True, nil
		case "false":
			return cty.False, nil
		}
		return cty.NilVal, fmt.Errorf("%q is not a boolean", s)
	case KindInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return cty.NilVal, fmt.Errorf("%q is not an integer", s)
		}
		return cty.NumberIntVal(i), nil
	case KindDecimal:
		f, err := ParseDecimal(s)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(f), nil
	case KindText:
		return cty.StringVal(s), nil
	default:
		return cty.NilVal, fmt.Errorf("values of type %s cannot be parsed from text", v)
	}
}

// ParseDecimal parses s as a finite decimal number.
func ParseDecimal(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a decimal", s)
	}
	return f, nil
}
