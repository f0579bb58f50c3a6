package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

func testProperties() Properties {
	return Properties{
		{Name: "url", Type: valuetype.Text},
		{Name: "retries", Type: valuetype.Integer, Default: cty.NumberIntVal(0), Validate: NotNegative},
		{Name: "mode", Type: valuetype.Text, Default: cty.StringVal("zip"), Validate: OneOf("zip", "gz")},
		{Name: "token", Type: valuetype.Text},
	}
}

func TestProperties_Lookup(t *testing.T) {
	ps := testProperties()
	p, ok := ps.Lookup("retries")
	require.True(t, ok)
	assert.False(t, p.Required())

	p, ok = ps.Lookup("url")
	require.True(t, ok)
	assert.True(t, p.Required())

	_, ok = ps.Lookup("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"url", "retries", "mode", "token"}, ps.Names())
}

func TestProperties_Missing(t *testing.T) {
	ps := testProperties()
	assert.Equal(t, []string{"url", "token"}, ps.Missing(map[string]bool{}))
	assert.Equal(t, []string{"token"}, ps.Missing(map[string]bool{"url": true}))
	assert.Empty(t, ps.Missing(map[string]bool{"url": true, "token": true}))
}

func TestProperties_Check(t *testing.T) {
	assert.NotPanics(t, func() { testProperties().Check("test") })

	dup := Properties{{Name: "a", Type: valuetype.Text}, {Name: "a", Type: valuetype.Text}}
	assert.PanicsWithValue(t, "test: property 'a' defined twice", func() { dup.Check("test") })

	badDefault := Properties{{Name: "a", Type: valuetype.Integer, Default: cty.StringVal("x")}}
	assert.Panics(t, func() { badDefault.Check("test") })
}

func TestValidators(t *testing.T) {
	oneOf := OneOf("zip", "gz")
	assert.NoError(t, oneOf(cty.StringVal("gz")))
	assert.EqualError(t, oneOf(cty.StringVal("rar")), `must be one of "gz", "zip"`)

	assert.NoError(t, NotNegative(cty.NumberIntVal(0)))
	assert.Error(t, NotNegative(cty.NumberIntVal(-1)))

	assert.NoError(t, NotEmpty(cty.StringVal("x")))
	assert.Error(t, NotEmpty(cty.StringVal("  ")))
}
