// Package csv provides a block that interprets CSV files as sheets.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegisterBlock(&Interpreter{})
}

// Interpreter is the CSVInterpreter block kind.
type Interpreter struct{}

func (*Interpreter) Kind() string { return "CSVInterpreter" }

func (*Interpreter) Definition() registry.Definition {
	return registry.Definition{
		Description: "Parses a CSV file into a sheet.",
		Input:       iotype.File,
		Output:      iotype.Sheet,
		Properties: schema.Properties{
			{Name: "delimiter", Type: valuetype.Text, Default: cty.StringVal(","), Validate: singleRune},
			{Name: "trimLeadingSpace", Type: valuetype.Boolean, Default: cty.False},
		},
	}
}

func singleRune(v cty.Value) error {
	s := v.AsString()
	if utf8.RuneCountInString(s) != 1 {
		return errors.New("must be exactly one character")
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' {
		return fmt.Errorf("%q cannot be used as a delimiter", r)
	}
	return nil
}

func (*Interpreter) Run(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	file := input.(*artifact.File)
	delimiter, _ := utf8.DecodeRuneInString(ec.GetText("delimiter"))

	if !utf8.Valid(file.Content) {
		return nil, ec.Errorf("File %q is not valid UTF-8 text", file.Name)
	}

	r := csv.NewReader(bytes.NewReader(file.Content))
	r.Comma = delimiter
	r.TrimLeadingSpace = ec.GetBoolean("trimLeadingSpace")
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ec.Errorf("Cannot parse %q as CSV: %s", file.Name, err)
		}
		rows = append(rows, record)
	}

	sheet := artifact.NewSheet(rows)
	ec.LogInfo("Parsed CSV file", "file", file.Name, "rows", sheet.Height(), "columns", sheet.Width())
	return sheet, nil
}
