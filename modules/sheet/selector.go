package sheet

import (
	"context"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
)

// CellRangeSelector is the CellRangeSelector block kind.
type CellRangeSelector struct{}

func (*CellRangeSelector) Kind() string { return "CellRangeSelector" }

func (*CellRangeSelector) Definition() registry.Definition {
	return registry.Definition{
		Description: "Keeps only the cells inside a range, e.g. range(\"A1:C*\").",
		Input:       iotype.Sheet,
		Output:      iotype.Sheet,
		Properties: schema.Properties{
			{Name: "select", Type: valuetype.CellRange, Description: "The cells to keep."},
		},
	}
}

func (*CellRangeSelector) Run(_ context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	sheet := input.(*artifact.Sheet)
	r := ec.GetCellRange("select")
	out, err := sheet.Select(r)
	if err != nil {
		return nil, ec.PropertyErrorf("select", "Cannot select %s: %s", r, err)
	}
	ec.LogDebug("Selected cell range", "range", r.String(), "width", out.Width(), "height", out.Height())
	return out, nil
}
