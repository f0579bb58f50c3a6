package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/vk/pipegridgo/internal/constraint"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/testutil"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

func newContext(t *testing.T, b registry.BlockExecutor, props map[string]cty.Value, cat *execution.Catalog) *execution.Context {
	t.Helper()
	ctx, _ := testutil.Context(t)
	values := schema.NewValues("test", b.Definition().Properties, props)
	return execution.NewContext(ctx, "P", "B", b.Kind(), values, cat)
}

func mustRange(t *testing.T, raw string) cty.Value {
	t.Helper()
	r, err := cellrange.Parse(raw)
	require.NoError(t, err)
	return cellrange.Val(r)
}

var cars = artifact.NewSheet([][]string{
	{"name", "mpg", "cyl"},
	{"Pinto", "21", "4"},
	{"Mustang", "15.5", "8"},
	{"Beetle", "n/a", "4"},
})

func TestCellRangeSelector(t *testing.T) {
	b := &CellRangeSelector{}
	ec := newContext(t, b, map[string]cty.Value{"select": mustRange(t, "B2:C*")}, nil)

	out, err := b.Run(ec.Context(), cars, ec)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"21", "4"}, {"15.5", "8"}, {"n/a", "4"}}, out.(*artifact.Sheet).Rows())

	ec = newContext(t, b, map[string]cty.Value{"select": mustRange(t, "A1:Z2")}, nil)
	_, err = b.Run(ec.Context(), cars, ec)
	var d *diag.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, "select", d.Property)
	assert.Contains(t, d.Message, "out of bounds")
}

func TestColumnDeleter(t *testing.T) {
	b := &ColumnDeleter{}
	ec := newContext(t, b, map[string]cty.Value{
		"delete": cty.TupleVal([]cty.Value{mustRange(t, "column B"), mustRange(t, "column A")}),
	}, nil)

	out, err := b.Run(ec.Context(), cars, ec)
	require.NoError(t, err)
	assert.Equal(t, []string{"cyl"}, out.(*artifact.Sheet).Row(0))
	assert.Equal(t, 1, out.(*artifact.Sheet).Width())
}

func TestRowDeleter(t *testing.T) {
	b := &RowDeleter{}
	ec := newContext(t, b, map[string]cty.Value{
		"delete": cty.TupleVal([]cty.Value{mustRange(t, "row 4"), mustRange(t, "row 2")}),
	}, nil)

	out, err := b.Run(ec.Context(), cars, ec)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "mpg", "cyl"}, {"Mustang", "15.5", "8"}}, out.(*artifact.Sheet).Rows())

	ec = newContext(t, b, map[string]cty.Value{
		"delete": cty.TupleVal([]cty.Value{mustRange(t, "row 9")}),
	}, nil)
	_, err = b.Run(ec.Context(), cars, ec)
	require.Error(t, err)
}

func TestWholeRangeValidation(t *testing.T) {
	validate := (&ColumnDeleter{}).Definition().Properties[0].Validate

	assert.NoError(t, validate(cty.TupleVal([]cty.Value{mustRange(t, "column C")})))
	assert.ErrorContains(t, validate(cty.EmptyTupleVal), "at least one column")
	err := validate(cty.TupleVal([]cty.Value{mustRange(t, "A1:B2"), mustRange(t, "row 1")}))
	assert.ErrorContains(t, err, "an entire column needs to be selected, but A1:B2 is not one")

	validate = (&RowDeleter{}).Definition().Properties[0].Validate
	assert.NoError(t, validate(cty.TupleVal([]cty.Value{mustRange(t, "row 2")})))
	assert.Error(t, validate(cty.TupleVal([]cty.Value{mustRange(t, "column A")})))
}

func percentCatalog(t *testing.T) *execution.Catalog {
	t.Helper()
	cat := execution.NewCatalog()
	rng := &constraint.Range{}
	require.NoError(t, cat.AddConstraint(&execution.ConstraintInstance{
		Name:       "LowMpg",
		Constraint: rng,
		Properties: schema.NewValues("LowMpg", rng.Properties(), map[string]cty.Value{
			"lowerBound": cty.NumberIntVal(0),
			"upperBound": cty.NumberIntVal(20),
		}),
	}))
	vt, err := valuetype.NewConstrained("Mpg", valuetype.Decimal, "LowMpg")
	require.NoError(t, err)
	require.NoError(t, cat.AddValuetype(vt))
	return cat
}

func columns(specs ...string) cty.Value {
	vals := make([]cty.Value, len(specs))
	for i, s := range specs {
		vals[i] = cty.StringVal(s)
	}
	return cty.TupleVal(vals)
}

func TestTableInterpreter_Header(t *testing.T) {
	b := &TableInterpreter{}
	ec := newContext(t, b, map[string]cty.Value{
		"columns": columns("cyl: integer", "name: text", "mpg: decimal"),
	}, nil)

	out, err := b.Run(ec.Context(), cars, ec)
	require.NoError(t, err)

	table := out.(*artifact.Table)
	assert.Equal(t, []string{"cyl", "name", "mpg"}, table.ColumnNames())
	require.Equal(t, 2, table.NumRows(), "the Beetle row has no numeric mpg")
	assert.Equal(t, []any{int64(4), "Pinto", int64(21)}, natives(table.Row(0)))
	assert.Equal(t, []any{int64(8), "Mustang", 15.5}, natives(table.Row(1)))

	require.Len(t, ec.Diagnostics(), 1)
	assert.Equal(t, diag.SeverityWarning, ec.Diagnostics()[0].Severity)
	assert.Contains(t, ec.Diagnostics()[0].Message, "1 of 3 rows were dropped")
}

func TestTableInterpreter_ConstrainedTypeWithoutHeader(t *testing.T) {
	b := &TableInterpreter{}
	ec := newContext(t, b, map[string]cty.Value{
		"header":  cty.False,
		"columns": columns("car: text", "mpg: Mpg"),
	}, percentCatalog(t))

	out, err := b.Run(ec.Context(), cars, ec)
	require.NoError(t, err)

	table := out.(*artifact.Table)
	require.Equal(t, 1, table.NumRows(), "only the Mustang satisfies LowMpg")
	assert.Equal(t, "Mustang", table.Row(0)[0].AsString())
	assert.Equal(t, "Mpg", table.Columns[1].Type.Name())
}

func TestTableInterpreter_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		props   map[string]cty.Value
		input   *artifact.Sheet
		wantMsg string
	}{
		{"unknown type", map[string]cty.Value{"columns": columns("name: Name")}, cars, `Unknown value type "Name" of column "name"`},
		{"missing header column", map[string]cty.Value{"columns": columns("hp: integer")}, cars, `Column "hp" not found in the header row`},
		{"empty sheet", map[string]cty.Value{"columns": columns("a: text")}, artifact.NewSheet(nil), "has no header row"},
		{"too many columns", map[string]cty.Value{"header": cty.False, "columns": columns("a: text", "b: text", "c: text", "d: text")}, cars, `Column "d" is number 4`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := &TableInterpreter{}
			ec := newContext(t, b, tc.props, nil)
			_, err := b.Run(ec.Context(), tc.input, ec)
			var d *diag.Diagnostic
			require.ErrorAs(t, err, &d)
			assert.Contains(t, d.Message, tc.wantMsg)
		})
	}
}

func TestValidColumnSpecs(t *testing.T) {
	assert.NoError(t, validColumnSpecs(columns("a: text", "b:integer")))
	assert.ErrorContains(t, validColumnSpecs(cty.EmptyTupleVal), "at least one column")
	assert.ErrorContains(t, validColumnSpecs(columns("a")), `"a" must be written as "name: type"`)
	assert.ErrorContains(t, validColumnSpecs(columns("a: text", "a: integer")), `column "a" is defined twice`)
}

func natives(row []cty.Value) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = artifact.Native(v)
	}
	return out
}
