// Package print provides a loader that renders tables to the terminal.
package print

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the rendered tables. Nil means standard output.
	Out io.Writer
}

// Register registers the block kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	r.MustRegisterBlock(&TablePrinter{out: out})
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TablePrinter is the TablePrinter block kind.
type TablePrinter struct {
	out io.Writer
}

func (*TablePrinter) Kind() string { return "TablePrinter" }

func (*TablePrinter) Definition() registry.Definition {
	return registry.Definition{
		Description: "Prints a table to the terminal.",
		Input:       iotype.Table,
		Output:      iotype.None,
		Properties: schema.Properties{
			{Name: "maxRows", Type: valuetype.Integer, Default: cty.NumberIntVal(0), Validate: schema.NotNegative,
				Description: "Print at most this many rows. 0 prints every row."},
		},
	}
}

func (p *TablePrinter) Run(_ context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	t := input.(*artifact.Table)

	n := t.NumRows()
	if limit := int(ec.GetInteger("maxRows")); limit > 0 && limit < n {
		n = limit
	}

	fmt.Fprintln(p.out, render(t, n))
	if n < t.NumRows() {
		fmt.Fprintf(p.out, "... %d more rows\n", t.NumRows()-n)
	}
	ec.LogDebug("Printed table", "rows", n, "total", t.NumRows())
	return nil, nil
}

// render lays out the first n rows of t. Headers show the column types.
func render(t *artifact.Table, n int) string {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = fmt.Sprintf("%s (%s)", c.Name, c.Type)
	}

	lt := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i := 0; i < n; i++ {
		row := t.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = artifact.Format(v)
		}
		lt.Row(cells...)
	}
	return lt.Render()
}
