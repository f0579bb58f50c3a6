package execution

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/constraint"
	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/testutil"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

func testCatalog(t *testing.T) (*Catalog, *valuetype.Valuetype, *valuetype.Valuetype) {
	t.Helper()
	cat := NewCatalog()

	rng := &constraint.Range{}
	require.NoError(t, cat.AddConstraint(&ConstraintInstance{
		Name:       "ZeroToHundred",
		Constraint: rng,
		Properties: schema.NewValues("ZeroToHundred", rng.Properties(), map[string]cty.Value{
			"lowerBound": cty.NumberIntVal(0),
			"upperBound": cty.NumberIntVal(100),
		}),
	}))
	require.NoError(t, cat.AddConstraint(&ConstraintInstance{
		Name:       "BelowTen",
		Constraint: rng,
		Properties: schema.NewValues("BelowTen", rng.Properties(), map[string]cty.Value{
			"lowerBound":          cty.NumberIntVal(-10),
			"upperBound":          cty.NumberIntVal(10),
			"upperBoundInclusive": cty.False,
		}),
	}))

	percent, err := valuetype.NewConstrained("Percent", valuetype.Decimal, "ZeroToHundred")
	require.NoError(t, err)
	small, err := valuetype.NewConstrained("SmallPercent", percent, "BelowTen")
	require.NoError(t, err)
	require.NoError(t, cat.AddValuetype(percent))
	require.NoError(t, cat.AddValuetype(small))
	return cat, percent, small
}

func TestCatalog(t *testing.T) {
	cat, percent, small := testCatalog(t)

	vt, ok := cat.Valuetype("Percent")
	require.True(t, ok)
	assert.Same(t, percent, vt)
	_, ok = cat.Valuetype("integer")
	assert.True(t, ok, "primitives are always known")
	assert.Contains(t, cat.ValuetypeNames(), "SmallPercent")

	assert.Error(t, cat.AddValuetype(percent), "duplicate value type")
	broken, err := valuetype.NewConstrained("Broken", valuetype.Text, "Nope")
	require.NoError(t, err)
	assert.ErrorContains(t, cat.AddValuetype(broken), `unknown constraint "Nope"`)

	assert.NoError(t, cat.Check(cty.NumberIntVal(50), percent))
	assert.ErrorContains(t, cat.Check(cty.NumberIntVal(150), percent), `constraint "ZeroToHundred"`)
	assert.ErrorContains(t, cat.Check(cty.StringVal("50"), percent), "not a decimal")

	assert.NoError(t, cat.Check(cty.NumberIntVal(5), small))
	assert.ErrorContains(t, cat.Check(cty.NumberIntVal(50), small), `constraint "BelowTen"`)
	assert.ErrorContains(t, cat.Check(cty.NumberIntVal(-5), small), "ZeroToHundred", "supertype constraints apply as well")
}

func TestContext(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)
	cat, percent, _ := testCatalog(t)

	props := schema.Properties{{Name: "url", Type: valuetype.Text}}
	values := schema.NewValues("block Extractor", props, map[string]cty.Value{"url": cty.StringVal("http://x")})
	ec := NewContext(ctx, "Cars", "Extractor", "HttpExtractor", values, cat)

	assert.Equal(t, "http://x", ec.GetText("url"))
	assert.Panics(t, func() { ec.GetText("nope") })
	assert.Equal(t, "Extractor", ec.Block())
	assert.Equal(t, "HttpExtractor", ec.Kind())

	ec.LogInfo("fetching", "attempt", 1)
	ec.LogDebug("details")
	out := buf.String()
	assert.Contains(t, out, "block=Extractor")
	assert.Contains(t, out, "kind=HttpExtractor")
	assert.Contains(t, out, "msg=details")
	assert.Same(t, ec.Logger(), ctxlog.FromContext(ec.Context()))

	ec.Report(diag.Warningf("slow server"))
	ds := ec.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, "Extractor", ds[0].Block)

	err := error(ec.PropertyErrorf("url", "unreachable"))
	var d *diag.Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, "url", d.Property)
	assert.Equal(t, "Cars", d.Pipeline)

	assert.NoError(t, ec.CheckValue(cty.NumberIntVal(3), percent))
	assert.ErrorContains(t, ec.CheckValue(cty.NumberIntVal(300), percent), "Percent:")
	_, ok := ec.Valuetype("Percent")
	assert.True(t, ok)
}
