package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vk/pipegridgo/internal/app"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/expr"
	"github.com/vk/pipegridgo/internal/inmemorystore"
	"github.com/vk/pipegridgo/internal/registry"
	"gopkg.in/yaml.v3"
)

var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleFaint   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleHeader  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
)

type diagnosticView struct {
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column   int    `json:"column,omitempty" yaml:"column,omitempty"`
	Pipeline string `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
	Block    string `json:"block,omitempty" yaml:"block,omitempty"`
	Property string `json:"property,omitempty" yaml:"property,omitempty"`
}

type runView struct {
	Pipeline   string   `json:"pipeline" yaml:"pipeline"`
	Succeeded  bool     `json:"succeeded" yaml:"succeeded"`
	DurationMS int64    `json:"duration_ms" yaml:"duration_ms"`
	Completed  []string `json:"completed_blocks" yaml:"completed_blocks"`
	Skipped    []string `json:"skipped_blocks,omitempty" yaml:"skipped_blocks,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type reportView struct {
	Valid       bool             `json:"valid" yaml:"valid"`
	Errors      int              `json:"errors" yaml:"errors"`
	Warnings    int              `json:"warnings" yaml:"warnings"`
	Diagnostics []diagnosticView `json:"diagnostics" yaml:"diagnostics"`
	Runs        []runView        `json:"runs,omitempty" yaml:"runs,omitempty"`
}

func newReportView(report *app.Report) reportView {
	v := reportView{
		Valid:       !report.Diagnostics.HasErrors(),
		Errors:      report.Diagnostics.Count(diag.SeverityError),
		Warnings:    report.Diagnostics.Count(diag.SeverityWarning),
		Diagnostics: make([]diagnosticView, 0, len(report.Diagnostics)),
	}
	for _, d := range report.Diagnostics {
		dv := diagnosticView{
			Severity: d.Severity.String(),
			Message:  d.Message,
			Pipeline: d.Pipeline,
			Block:    d.Block,
			Property: d.Property,
		}
		if d.Subject != nil {
			dv.File = d.Subject.Filename
			dv.Line = d.Subject.Start.Line
			dv.Column = d.Subject.Start.Column
		}
		v.Diagnostics = append(v.Diagnostics, dv)
	}
	for _, r := range report.Runs {
		rv := runView{Pipeline: r.Pipeline, Succeeded: r.Err == nil}
		if r.Result != nil {
			rv.DurationMS = r.Result.Duration.Milliseconds()
			rv.Completed = append([]string(nil), r.Result.Completed...)
			sort.Strings(rv.Completed)
			for name, status := range r.Result.Statuses {
				if status == inmemorystore.StatusSkipped {
					rv.Skipped = append(rv.Skipped, name)
				}
			}
			sort.Strings(rv.Skipped)
		}
		if r.Err != nil {
			rv.Error = r.Err.Error()
		}
		v.Runs = append(v.Runs, rv)
	}
	return v
}

// printReport writes a validation or run report in the given format. runErr
// is the error the application returned alongside the report.
func printReport(w io.Writer, format string, report *app.Report, runErr error) error {
	view := newReportView(report)
	if format != app.OutputText {
		return encode(w, format, view)
	}

	for _, d := range report.Diagnostics {
		fmt.Fprintln(w, formatDiagnostic(d))
	}
	for _, r := range view.Runs {
		if r.Succeeded {
			fmt.Fprintf(w, "%s %s: %d blocks in %dms\n", styleOK.Render("✅"), r.Pipeline, len(r.Completed), r.DurationMS)
		} else {
			fmt.Fprintf(w, "%s %s: %s\n", styleError.Render("❌"), r.Pipeline, r.Error)
		}
	}

	summary := fmt.Sprintf("%d %s, %d %s", view.Errors, plural(view.Errors, "error"), view.Warnings, plural(view.Warnings, "warning"))
	switch {
	case view.Errors > 0:
		fmt.Fprintln(w, styleError.Render("✖ "+summary))
	case runErr != nil:
		fmt.Fprintln(w, styleError.Render("✖ "+runErr.Error()))
	default:
		fmt.Fprintln(w, styleOK.Render("✔ "+summary))
	}
	return nil
}

func formatDiagnostic(d *diag.Diagnostic) string {
	var label string
	switch d.Severity {
	case diag.SeverityError:
		label = styleError.Render("error")
	case diag.SeverityWarning:
		label = styleWarning.Render("warning")
	default:
		label = styleInfo.Render("info")
	}
	line := label + ": " + d.Message
	if loc := d.Location(); loc != "" {
		line += "\n  " + styleFaint.Render("--> "+loc)
	}
	return line
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

type propertyView struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type blockView struct {
	Kind        string         `json:"kind" yaml:"kind"`
	Input       string         `json:"input" yaml:"input"`
	Output      string         `json:"output" yaml:"output"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  []propertyView `json:"properties" yaml:"properties"`
}

func newBlockViews(reg *registry.Registry) []blockView {
	var views []blockView
	for _, kind := range reg.BlockKinds() {
		b, _ := reg.Block(kind)
		def := b.Definition()
		bv := blockView{
			Kind:        kind,
			Input:       def.Input.String(),
			Output:      def.Output.String(),
			Description: def.Description,
			Properties:  make([]propertyView, 0, len(def.Properties)),
		}
		for _, p := range def.Properties {
			pv := propertyView{Name: p.Name, Type: p.Type.String(), Required: p.Required(), Description: p.Description}
			if !p.Required() {
				pv.Default = expr.FormatValue(p.Default)
			}
			bv.Properties = append(bv.Properties, pv)
		}
		views = append(views, bv)
	}
	return views
}

// printBlocks lists every registered block kind.
func printBlocks(w io.Writer, format string, reg *registry.Registry) error {
	views := newBlockViews(reg)
	if format != app.OutputText {
		return encode(w, format, views)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleFaint).
		Headers("KIND", "INPUT", "OUTPUT", "PROPERTIES").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
	for _, bv := range views {
		props := make([]string, len(bv.Properties))
		for i, p := range bv.Properties {
			props[i] = p.Name + ": " + p.Type
			if !p.Required {
				props[i] += " = " + p.Default
			}
		}
		t.Row(bv.Kind, bv.Input, bv.Output, strings.Join(props, "\n"))
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func encode(w io.Writer, format string, data any) error {
	switch format {
	case app.OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case app.OutputYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
