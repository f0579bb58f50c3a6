package sheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// wholeRanges builds a validator accepting non-empty collections of cell
// ranges that each span one entire column or row.
func wholeRanges(what string, isWhole func(cellrange.Range) bool) schema.ValidateFunc {
	return func(v cty.Value) error {
		if v.LengthInt() == 0 {
			return fmt.Errorf("you need to specify at least one %s", what)
		}
		var errs []error
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			r, ok := cellrange.FromVal(ev)
			if !ok {
				errs = append(errs, errors.New("only cell ranges are allowed in this collection"))
				continue
			}
			if !isWhole(r) {
				errs = append(errs, fmt.Errorf("an entire %s needs to be selected, but %s is not one", what, r))
			}
		}
		return errors.Join(errs...)
	}
}

// ColumnDeleter is the ColumnDeleter block kind.
type ColumnDeleter struct{}

func (*ColumnDeleter) Kind() string { return "ColumnDeleter" }

func (*ColumnDeleter) Definition() registry.Definition {
	return registry.Definition{
		Description: "Deletes columns from a sheet. Subsequent columns shift left.",
		Input:       iotype.Sheet,
		Output:      iotype.Sheet,
		Properties: schema.Properties{
			{Name: "delete", Type: valuetype.Collection(valuetype.CellRange),
				Description: "The columns to delete, e.g. [column(\"B\")].",
				Validate:    wholeRanges("column", cellrange.Range.IsColumn)},
		},
	}
}

func (*ColumnDeleter) Run(_ context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	sheet := input.(*artifact.Sheet)
	var cols []int
	for _, r := range ec.GetCellRangeCollection("delete") {
		bound, err := r.Bind(sheet.Width(), sheet.Height())
		if err != nil {
			return nil, ec.PropertyErrorf("delete", "Cannot delete %s: %s", r, err)
		}
		cols = append(cols, bound.Start.Col)
	}
	out, err := sheet.DeleteColumns(cols...)
	if err != nil {
		return nil, ec.PropertyErrorf("delete", "%s", err)
	}
	ec.LogDebug("Deleted columns", "count", len(cols), "width", out.Width())
	return out, nil
}

// RowDeleter is the RowDeleter block kind.
type RowDeleter struct{}

func (*RowDeleter) Kind() string { return "RowDeleter" }

func (*RowDeleter) Definition() registry.Definition {
	return registry.Definition{
		Description: "Deletes rows from a sheet. Subsequent rows shift up.",
		Input:       iotype.Sheet,
		Output:      iotype.Sheet,
		Properties: schema.Properties{
			{Name: "delete", Type: valuetype.Collection(valuetype.CellRange),
				Description: "The rows to delete, e.g. [row(1)].",
				Validate:    wholeRanges("row", cellrange.Range.IsRow)},
		},
	}
}

func (*RowDeleter) Run(_ context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	sheet := input.(*artifact.Sheet)
	var rows []int
	for _, r := range ec.GetCellRangeCollection("delete") {
		bound, err := r.Bind(sheet.Width(), sheet.Height())
		if err != nil {
			return nil, ec.PropertyErrorf("delete", "Cannot delete %s: %s", r, err)
		}
		rows = append(rows, bound.Start.Row)
	}
	out, err := sheet.DeleteRows(rows...)
	if err != nil {
		return nil, ec.PropertyErrorf("delete", "%s", err)
	}
	ec.LogDebug("Deleted rows", "count", len(rows), "height", out.Height())
	return out, nil
}
