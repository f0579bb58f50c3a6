// internal/cellrange/cellrange.go
package cellrange

import (
	"fmt"
	"strconv"
)

// IsColumn reports whether r spans exactly one entire column.
func (r Range) IsColumn() bool {
	return r.Start.Col == r.End.Col && r.Start.Col != Last &&
		r.Start.Row == 0 && r.End.Row == Last
}

// IsRow reports whether r spans exactly one entire row.
func (r Range) IsRow() bool {
	return r.Start.Row == r.End.Row && r.Start.Row != Last &&
		r.Start.Col == 0 && r.End.Col == Last
}

// IsCell reports whether r selects exactly one cell.
func (r Range) IsCell() bool {
	return r.Start == r.End
}

// Bind resolves wildcards against a sheet of the given size and checks that
// the result lies inside it.
func (r Range) Bind(width, height int) (Range, error) {
	bound := Range{
		Start: Index{Col: resolve(r.Start.Col, width), Row: resolve(r.Start.Row, height)},
		End:   Index{Col: resolve(r.End.Col, width), Row: resolve(r.End.Row, height)},
	}
	if width == 0 || height == 0 {
		return Range{}, fmt.Errorf("cell range %s does not fit into an empty sheet", r)
	}
	if bound.Start.Col > bound.End.Col || bound.Start.Row > bound.End.Row {
		return Range{}, fmt.Errorf("cell range %s is empty for a sheet of %dx%d", r, width, height)
	}
	if bound.Start.Col < 0 || bound.Start.Row < 0 || bound.End.Col >= width || bound.End.Row >= height {
		return Range{}, fmt.Errorf("cell range %s is out of bounds for a sheet of %dx%d", r, width, height)
	}
	return bound, nil
}

func resolve(i, size int) int {
	if i == Last {
		return size - 1
	}
	return i
}

// Contains reports whether the cell at i lies in r. Both must be bound.
func (r Range) Contains(i Index) bool {
	return i.Col >= r.Start.Col && i.Col <= r.End.Col &&
		i.Row >= r.Start.Row && i.Row <= r.End.Row
}

// String serializes r into the form Parse accepts.
func (r Range) String() string {
	switch {
	case r.IsColumn():
		return "column " + ColumnName(r.Start.Col)
	case r.IsRow():
		return "row " + rowName(r.Start.Row)
	case r.IsCell():
		return r.Start.String()
	}
	return r.Start.String() + ":" + r.End.String()
}

// String renders the cell in A1 notation.
func (i Index) String() string {
	return ColumnName(i.Col) + rowName(i.Row)
}

// ColumnName converts a zero-based column index into its letters.
func ColumnName(col int) string {
	if col == Last {
		return "*"
	}
	name := ""
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

func rowName(row int) string {
	if row == Last {
		return "*"
	}
	return strconv.Itoa(row + 1)
}
