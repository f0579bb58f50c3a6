package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

func TestValues_Getters(t *testing.T) {
	props := Properties{
		{Name: "bound", Type: valuetype.Decimal},
		{Name: "count", Type: valuetype.Integer, Default: cty.NumberIntVal(3)},
		{Name: "flag", Type: valuetype.Boolean, Default: cty.True},
		{Name: "name", Type: valuetype.Text},
		{Name: "select", Type: valuetype.CellRange},
		{Name: "names", Type: valuetype.Collection(valuetype.Text)},
		{Name: "ranges", Type: valuetype.Collection(valuetype.CellRange)},
	}
	vs := NewValues("block Test", props, map[string]cty.Value{
		"bound":  cty.NumberFloatVal(1.5),
		"name":   cty.StringVal("x"),
		"select": cellrange.Val(cellrange.Column(1)),
		"names":  cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
		"ranges": cty.EmptyTupleVal,
	})

	assert.Equal(t, 1.5, vs.GetDecimal("bound"))
	assert.Equal(t, int64(3), vs.GetInteger("count"), "falls back to default")
	assert.True(t, vs.GetBoolean("flag"))
	assert.Equal(t, "x", vs.GetText("name"))
	assert.Equal(t, cellrange.Column(1), vs.GetCellRange("select"))
	assert.Equal(t, []string{"a", "b"}, vs.GetTextCollection("names"))
	assert.Empty(t, vs.GetCellRangeCollection("ranges"))
	assert.True(t, vs.Has("bound"))
	assert.False(t, vs.Has("count"))
}

func TestValues_Panics(t *testing.T) {
	props := Properties{
		{Name: "url", Type: valuetype.Text},
		{Name: "n", Type: valuetype.Integer},
	}
	vs := NewValues("block Test", props, map[string]cty.Value{"n": cty.StringVal("x")})

	assert.PanicsWithValue(t, "block Test: property 'nope' is not declared", func() { vs.GetText("nope") })
	assert.PanicsWithValue(t, "block Test: required property 'url' has no value", func() { vs.GetText("url") })
	assert.PanicsWithValue(t, "block Test: property 'n' is not a number", func() { vs.GetInteger("n") })

	huge := NewValues("block Test", props, map[string]cty.Value{"n": cty.MustParseNumberVal("1e30")})
	assert.PanicsWithValue(t, "block Test: property 'n' does not fit into an integer", func() { huge.GetInteger("n") })
}
