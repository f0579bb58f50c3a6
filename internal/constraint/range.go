package constraint

import (
	"fmt"

	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Range accepts numbers between two bounds. Each bound is inclusive unless its
// inclusivity flag is set to false.
type Range struct{}

func (*Range) Kind() string { return "RangeConstraint" }

func (*Range) CompatibleType() *valuetype.Valuetype { return valuetype.Decimal }

func (*Range) Properties() schema.Properties {
	return schema.Properties{
		{Name: "lowerBound", Type: valuetype.Decimal, Description: "The lowest value in the range."},
		{Name: "lowerBoundInclusive", Type: valuetype.Boolean, Default: cty.True, Description: "Whether the lower bound itself is valid."},
		{Name: "upperBound", Type: valuetype.Decimal, Description: "The highest value in the range."},
		{Name: "upperBoundInclusive", Type: valuetype.Boolean, Default: cty.True, Description: "Whether the upper bound itself is valid."},
	}
}

func (*Range) IsValid(value cty.Value, props PropertyReader) bool {
	n, ok := numeric(value)
	if !ok {
		return false
	}

	lower := props.GetDecimal("lowerBound")
	upper := props.GetDecimal("upperBound")

	lowerOK := lower < n
	if props.GetBoolean("lowerBoundInclusive") {
		lowerOK = lower <= n
	}
	upperOK := n < upper
	if props.GetBoolean("upperBoundInclusive") {
		upperOK = n <= upper
	}
	return lowerOK && upperOK
}

func (*Range) ValidateProperties(props PropertyReader) error {
	lower, upper := props.GetDecimal("lowerBound"), props.GetDecimal("upperBound")
	if lower > upper {
		return fmt.Errorf("the lower bound %g is greater than the upper bound %g", lower, upper)
	}
	if lower == upper && (!props.GetBoolean("lowerBoundInclusive") || !props.GetBoolean("upperBoundInclusive")) {
		return fmt.Errorf("lower and upper bound are both %g, so both need to be inclusive", lower)
	}
	return nil
}
