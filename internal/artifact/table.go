package artifact

import (
	"fmt"
	"math/big"

	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Column is a named, typed table column.
type Column struct {
	Name string
	Type *valuetype.Valuetype
}

// Table is a list of typed rows sharing one column layout.
type Table struct {
	Columns []Column
	rows    [][]cty.Value
}

func (*Table) IOType() iotype.IOType { return iotype.Table }

// NewTable creates an empty table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{Columns: append([]Column(nil), columns...)}
}

// AddRow appends a row after checking it against the column types.
func (t *Table) AddRow(row []cty.Value) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.Columns))
	}
	for i, c := range t.Columns {
		if !c.Type.Conforms(row[i]) {
			return fmt.Errorf("value for column %q is not a %s", c.Name, c.Type)
		}
	}
	t.rows = append(t.rows, append([]cty.Value(nil), row...))
	return nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Row returns the values of one row.
func (t *Table) Row(i int) []cty.Value { return t.rows[i] }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Records converts every row into a map of plain Go values keyed by column
// name, ready for encoding.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.rows))
	for i, row := range t.rows {
		rec := make(map[string]any, len(row))
		for j, v := range row {
			rec[t.Columns[j].Name] = Native(v)
		}
		out[i] = rec
	}
	return out
}

// Native converts a primitive cty value into bool, int64, float64 or string.
func Native(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	switch v.Type() {
	case cty.Bool:
		return v.True()
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case cty.String:
		return v.AsString()
	}
	return v.GoString()
}

// Format renders a primitive value for text output.
func Format(v cty.Value) string {
	switch n := Native(v).(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%g", n)
	default:
		return fmt.Sprint(n)
	}
}
