package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// columnSpec is one parsed "name: type" item of the columns property.
type columnSpec struct {
	name     string
	typeName string
}

func parseColumnSpec(s string) (columnSpec, error) {
	name, typeName, ok := strings.Cut(s, ":")
	spec := columnSpec{name: strings.TrimSpace(name), typeName: strings.TrimSpace(typeName)}
	if !ok || spec.name == "" || spec.typeName == "" {
		return columnSpec{}, fmt.Errorf("%q must be written as \"name: type\"", s)
	}
	return spec, nil
}

func validColumnSpecs(v cty.Value) error {
	if v.LengthInt() == 0 {
		return errors.New("at least one column is required")
	}
	seen := make(map[string]bool)
	var errs []error
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if ev.Type() != cty.String {
			errs = append(errs, errors.New("only text items are allowed in this collection"))
			continue
		}
		spec, err := parseColumnSpec(ev.AsString())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[spec.name] {
			errs = append(errs, fmt.Errorf("column %q is defined twice", spec.name))
		}
		seen[spec.name] = true
	}
	return errors.Join(errs...)
}

// TableInterpreter is the TableInterpreter block kind.
type TableInterpreter struct{}

func (*TableInterpreter) Kind() string { return "TableInterpreter" }

func (*TableInterpreter) Definition() registry.Definition {
	return registry.Definition{
		Description: "Interprets a sheet as a table with typed columns. Rows holding invalid values are dropped.",
		Input:       iotype.Sheet,
		Output:      iotype.Table,
		Properties: schema.Properties{
			{Name: "header", Type: valuetype.Boolean, Default: cty.True,
				Description: "Whether the first row holds the column names. Columns are then matched by name."},
			{Name: "columns", Type: valuetype.Collection(valuetype.Text),
				Description: "The columns of the table, e.g. [\"name: text\", \"mpg: decimal\"].",
				Validate:    validColumnSpecs},
		},
	}
}

// boundColumn is a table column together with the sheet column it is read
// from.
type boundColumn struct {
	artifact.Column
	source int
}

func (*TableInterpreter) Run(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	sheet := input.(*artifact.Sheet)
	header := ec.GetBoolean("header")

	columns, err := bindColumns(sheet, header, ec)
	if err != nil {
		return nil, err
	}

	tableColumns := make([]artifact.Column, len(columns))
	for i, c := range columns {
		tableColumns[i] = c.Column
	}
	table := artifact.NewTable(tableColumns...)

	first := 0
	if header {
		first = 1
	}
	dropped := 0
	for y := first; y < sheet.Height(); y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := readRow(sheet.Row(y), columns, ec)
		if err == nil {
			err = table.AddRow(row)
		}
		if err != nil {
			ec.LogDebug("Dropping row", "row", y+1, "reason", err)
			dropped++
		}
	}

	if dropped > 0 {
		ec.Report(diag.Warningf("%d of %d rows were dropped because they hold invalid values", dropped, sheet.Height()-first))
	}
	ec.LogInfo("Interpreted table", "rows", table.NumRows(), "columns", len(columns), "dropped", dropped)
	return table, nil
}

func bindColumns(sheet *artifact.Sheet, header bool, ec *execution.Context) ([]boundColumn, error) {
	var headerRow []string
	if header {
		if sheet.Height() == 0 {
			return nil, ec.PropertyErrorf("header", "The sheet is empty, so it has no header row")
		}
		headerRow = sheet.Row(0)
	}

	var columns []boundColumn
	for i, raw := range ec.GetTextCollection("columns") {
		spec, err := parseColumnSpec(raw)
		if err != nil {
			return nil, ec.PropertyErrorf("columns", "%s", err)
		}
		vt, ok := ec.Valuetype(spec.typeName)
		if !ok {
			return nil, ec.PropertyErrorf("columns", "Unknown value type %q of column %q", spec.typeName, spec.name)
		}

		source := i
		if header {
			source = indexOf(headerRow, spec.name)
			if source < 0 {
				return nil, ec.PropertyErrorf("columns", "Column %q not found in the header row", spec.name)
			}
		} else if source >= sheet.Width() {
			return nil, ec.PropertyErrorf("columns", "Column %q is number %d, but the sheet has only %d columns", spec.name, i+1, sheet.Width())
		}
		columns = append(columns, boundColumn{Column: artifact.Column{Name: spec.name, Type: vt}, source: source})
	}
	return columns, nil
}

// readRow parses the cells of one sheet row and checks them against the
// value types of their columns.
func readRow(cells []string, columns []boundColumn, ec *execution.Context) ([]cty.Value, error) {
	row := make([]cty.Value, len(columns))
	for i, c := range columns {
		v, err := c.Type.ParseText(cells[c.source])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		if err := ec.CheckValue(v, c.Type); err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func indexOf(items []string, want string) int {
	for i, it := range items {
		if strings.TrimSpace(it) == want {
			return i
		}
	}
	return -1
}
