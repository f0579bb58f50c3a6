// internal/cellrange/parser.go
package cellrange

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	columnRegex = regexp.MustCompile(`^([A-Z]+|\*)$`)
	rowRegex    = regexp.MustCompile(`^([1-9][0-9]*|\*)$`)
	cellRegex   = regexp.MustCompile(`^([A-Z]+|\*)([1-9][0-9]*|\*)$`)
)

// Parse creates a Range from its textual form.
func Parse(raw string) (Range, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Range{}, fmt.Errorf("cell range cannot be empty")
	}

	keyword, rest, hasKeyword := strings.Cut(s, " ")
	if hasKeyword {
		rest = strings.TrimSpace(rest)
		switch strings.ToLower(keyword) {
		case "column":
			col, err := parseColumn(rest)
			if err != nil {
				return Range{}, err
			}
			return Column(col), nil
		case "row":
			row, err := parseRow(rest)
			if err != nil {
				return Range{}, err
			}
			return Row(row), nil
		case "cell":
			idx, err := parseIndex(rest)
			if err != nil {
				return Range{}, err
			}
			return Cell(idx), nil
		case "range":
			s = rest
		default:
			return Range{}, fmt.Errorf("unknown cell range keyword %q", keyword)
		}
	}

	from, to, isRange := strings.Cut(s, ":")
	if !isRange {
		idx, err := parseIndex(s)
		if err != nil {
			return Range{}, err
		}
		return Cell(idx), nil
	}

	start, err := parseIndex(from)
	if err != nil {
		return Range{}, err
	}
	end, err := parseIndex(to)
	if err != nil {
		return Range{}, err
	}
	r := Range{Start: start, End: end}
	if !ordered(start.Col, end.Col) || !ordered(start.Row, end.Row) {
		return Range{}, fmt.Errorf("cell range %q ends before it starts", raw)
	}
	return r, nil
}

// ordered reports whether a <= b, treating Last as the largest index.
func ordered(a, b int) bool {
	switch {
	case b == Last:
		return true
	case a == Last:
		return false
	}
	return a <= b
}

func parseIndex(s string) (Index, error) {
	m := cellRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Index{}, fmt.Errorf("invalid cell reference %q", s)
	}
	col, err := parseColumn(m[1])
	if err != nil {
		return Index{}, err
	}
	row, err := parseRow(m[2])
	if err != nil {
		return Index{}, err
	}
	return Index{Col: col, Row: row}, nil
}

func parseColumn(s string) (int, error) {
	if !columnRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid column %q", s)
	}
	if s == "*" {
		return Last, nil
	}
	col := 0
	for _, r := range s {
		col = col*26 + int(r-'A'+1)
	}
	return col - 1, nil
}

func parseRow(s string) (int, error) {
	if !rowRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid row %q", s)
	}
	if s == "*" {
		return Last, nil
	}
	row, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid row %q: %w", s, err)
	}
	return row - 1, nil
}
