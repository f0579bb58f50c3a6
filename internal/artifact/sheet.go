package artifact

import (
	"fmt"
	"sort"

	"github.com/vk/pipegridgo/internal/cellrange"
	"github.com/vk/pipegridgo/internal/iotype"
)

// Sheet is a rectangular grid of text cells. Rows shorter than the widest row
// are padded with empty cells.
type Sheet struct {
	data  [][]string
	width int
}

func (*Sheet) IOType() iotype.IOType { return iotype.Sheet }

// NewSheet copies rows into a new sheet.
func NewSheet(rows [][]string) *Sheet {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	data := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		data[i] = row
	}
	return &Sheet{data: data, width: width}
}

// Width returns the number of columns.
func (s *Sheet) Width() int { return s.width }

// Height returns the number of rows.
func (s *Sheet) Height() int { return len(s.data) }

// Cell returns the text at i. The index must be inside the sheet.
func (s *Sheet) Cell(i cellrange.Index) string {
	return s.data[i.Row][i.Col]
}

// Row returns a copy of one row.
func (s *Sheet) Row(row int) []string {
	return append([]string(nil), s.data[row]...)
}

// Rows returns a copy of all rows.
func (s *Sheet) Rows() [][]string {
	out := make([][]string, len(s.data))
	for i := range s.data {
		out[i] = s.Row(i)
	}
	return out
}

// Select returns the part of the sheet covered by r.
func (s *Sheet) Select(r cellrange.Range) (*Sheet, error) {
	bound, err := r.Bind(s.Width(), s.Height())
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, bound.End.Row-bound.Start.Row+1)
	for y := bound.Start.Row; y <= bound.End.Row; y++ {
		rows = append(rows, s.data[y][bound.Start.Col:bound.End.Col+1])
	}
	return NewSheet(rows), nil
}

// DeleteColumns returns a sheet without the given zero-based columns.
func (s *Sheet) DeleteColumns(cols ...int) (*Sheet, error) {
	drop, err := indexSet(cols, s.Width(), "column")
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(s.data))
	for y, r := range s.data {
		kept := make([]string, 0, len(r)-len(drop))
		for x, cell := range r {
			if !drop[x] {
				kept = append(kept, cell)
			}
		}
		rows[y] = kept
	}
	out := NewSheet(rows)
	out.width = s.width - len(drop)
	return out, nil
}

// DeleteRows returns a sheet without the given zero-based rows.
func (s *Sheet) DeleteRows(rowsToDelete ...int) (*Sheet, error) {
	drop, err := indexSet(rowsToDelete, s.Height(), "row")
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(s.data)-len(drop))
	for y, r := range s.data {
		if !drop[y] {
			rows = append(rows, r)
		}
	}
	out := NewSheet(rows)
	out.width = s.width
	if len(rows) > 0 {
		out.width = len(rows[0])
	}
	return out, nil
}

func indexSet(idx []int, size int, what string) (map[int]bool, error) {
	set := make(map[int]bool, len(idx))
	sorted := append([]int(nil), idx...)
	sort.Ints(sorted)
	for _, i := range sorted {
		if i < 0 || i >= size {
			return nil, fmt.Errorf("%s %d is out of bounds for a sheet with %d %ss", what, i+1, size, what)
		}
		set[i] = true
	}
	return set, nil
}
