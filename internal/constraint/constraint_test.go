package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func propsFor(t *testing.T, c Constraint, values map[string]cty.Value) PropertyReader {
	t.Helper()
	c.Properties().Check(c.Kind())
	return schema.NewValues("constraint "+c.Kind(), c.Properties(), values)
}

func TestRange_HalfOpen(t *testing.T) {
	c := &Range{}
	props := propsFor(t, c, map[string]cty.Value{
		"lowerBound":          cty.NumberIntVal(0),
		"lowerBoundInclusive": cty.True,
		"upperBound":          cty.NumberIntVal(10),
		"upperBoundInclusive": cty.False,
	})

	for _, v := range []float64{0, 5, 9.999} {
		assert.True(t, c.IsValid(cty.NumberFloatVal(v), props), "%g should be valid", v)
	}
	for _, v := range []float64{-0.001, 10} {
		assert.False(t, c.IsValid(cty.NumberFloatVal(v), props), "%g should be invalid", v)
	}
}

func TestRange_Inclusivity(t *testing.T) {
	testCases := []struct {
		name           string
		lowerInclusive bool
		upperInclusive bool
		atLower        bool
		atUpper        bool
	}{
		{"closed", true, true, true, true},
		{"open", false, false, false, false},
		{"left open", false, true, false, true},
		{"right open", true, false, true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Range{}
			props := propsFor(t, c, map[string]cty.Value{
				"lowerBound":          cty.NumberIntVal(1),
				"lowerBoundInclusive": cty.BoolVal(tc.lowerInclusive),
				"upperBound":          cty.NumberIntVal(3),
				"upperBoundInclusive": cty.BoolVal(tc.upperInclusive),
			})
			assert.Equal(t, tc.atLower, c.IsValid(cty.NumberIntVal(1), props))
			assert.Equal(t, tc.atUpper, c.IsValid(cty.NumberIntVal(3), props))
			assert.True(t, c.IsValid(cty.NumberIntVal(2), props))
			assert.False(t, c.IsValid(cty.NumberIntVal(0), props))
			assert.False(t, c.IsValid(cty.NumberIntVal(4), props))
		})
	}
}

func TestRange_Contiguous(t *testing.T) {
	c := &Range{}
	props := propsFor(t, c, map[string]cty.Value{
		"lowerBound": cty.NumberFloatVal(-2.5),
		"upperBound": cty.NumberFloatVal(7.25),
	})

	transitions := 0
	prev := false
	for x := -10.0; x <= 10; x += 0.25 {
		cur := c.IsValid(cty.NumberFloatVal(x), props)
		if cur != prev {
			transitions++
		}
		prev = cur
	}
	assert.Equal(t, 2, transitions, "valid region is a single interval")
}

func TestRange_TextAndGarbage(t *testing.T) {
	c := &Range{}
	props := propsFor(t, c, map[string]cty.Value{
		"lowerBound": cty.NumberIntVal(0),
		"upperBound": cty.NumberIntVal(10),
	})

	assert.True(t, c.IsValid(cty.StringVal("4.5"), props))
	assert.False(t, c.IsValid(cty.StringVal("11"), props))
	assert.NotPanics(t, func() {
		assert.False(t, c.IsValid(cty.StringVal("four"), props))
		assert.False(t, c.IsValid(cty.True, props))
		assert.False(t, c.IsValid(cty.NullVal(cty.Number), props))
	})
}

func TestRange_ValidateProperties(t *testing.T) {
	c := &Range{}
	err := c.ValidateProperties(propsFor(t, c, map[string]cty.Value{
		"lowerBound": cty.NumberIntVal(5),
		"upperBound": cty.NumberIntVal(1),
	}))
	assert.ErrorContains(t, err, "greater than the upper bound")

	err = c.ValidateProperties(propsFor(t, c, map[string]cty.Value{
		"lowerBound":          cty.NumberIntVal(1),
		"upperBound":          cty.NumberIntVal(1),
		"upperBoundInclusive": cty.False,
	}))
	assert.ErrorContains(t, err, "both need to be inclusive")

	err = c.ValidateProperties(propsFor(t, c, map[string]cty.Value{
		"lowerBound": cty.NumberIntVal(1),
		"upperBound": cty.NumberIntVal(1),
	}))
	assert.NoError(t, err)
}

func TestLength(t *testing.T) {
	c := &Length{}
	props := propsFor(t, c, map[string]cty.Value{
		"minLength": cty.NumberIntVal(2),
		"maxLength": cty.NumberIntVal(3),
	})
	assert.False(t, c.IsValid(cty.StringVal("a"), props))
	assert.True(t, c.IsValid(cty.StringVal("äö"), props), "length counts characters")
	assert.True(t, c.IsValid(cty.StringVal("abc"), props))
	assert.False(t, c.IsValid(cty.StringVal("abcd"), props))
	assert.False(t, c.IsValid(cty.NumberIntVal(12), props))

	err := c.ValidateProperties(propsFor(t, c, map[string]cty.Value{
		"minLength": cty.NumberIntVal(4),
		"maxLength": cty.NumberIntVal(3),
	}))
	assert.Error(t, err)
}

func TestRegex(t *testing.T) {
	c := &Regex{}
	props := propsFor(t, c, map[string]cty.Value{"regex": cty.StringVal(`^[A-Z]{2}$`)})
	assert.True(t, c.IsValid(cty.StringVal("DE"), props))
	assert.False(t, c.IsValid(cty.StringVal("DEU"), props))

	first, err := c.compile(`^[A-Z]{2}$`)
	require.NoError(t, err)
	second, err := c.compile(`^[A-Z]{2}$`)
	require.NoError(t, err)
	assert.Same(t, first, second)
	_, err = c.compile("(")
	assert.Error(t, err)

	p, ok := c.Properties().Lookup("regex")
	require.True(t, ok)
	assert.Error(t, p.Validate(cty.StringVal("(")))
}

func TestLists(t *testing.T) {
	list := cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")})

	allow := &Allowlist{}
	allowProps := propsFor(t, allow, map[string]cty.Value{"allowlist": list})
	assert.True(t, allow.IsValid(cty.StringVal("a"), allowProps))
	assert.False(t, allow.IsValid(cty.StringVal("c"), allowProps))

	deny := &Denylist{}
	denyProps := propsFor(t, deny, map[string]cty.Value{"denylist": list})
	assert.False(t, deny.IsValid(cty.StringVal("a"), denyProps))
	assert.True(t, deny.IsValid(cty.StringVal("c"), denyProps))
	assert.False(t, deny.IsValid(cty.NumberIntVal(1), denyProps))
}

func TestBuiltins_UniqueKinds(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Builtins() {
		assert.False(t, seen[c.Kind()], "duplicate kind %s", c.Kind())
		seen[c.Kind()] = true
		assert.NotPanics(t, func() { c.Properties().Check(c.Kind()) })
	}
	assert.Len(t, seen, 5)
}
