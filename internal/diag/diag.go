// Package diag defines the diagnostic shape shared by pipeline validation and
// pipeline execution.
//
// Validation collects diagnostics instead of failing fast, so a single pass
// reports every problem in a pipeline file. Execution failures use the same
// shape so the CLI renders both tiers identically.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Severity ranks a diagnostic. Only SeverityError blocks execution.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText renders the severity for JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a single finding, located at a block and optionally one of
// its properties.
type Diagnostic struct {
	Severity Severity
	Message  string
	// Subject points into the source file when the finding came from one.
	Subject  *hcl.Range
	Pipeline string
	Block    string
	Property string
}

// Errorf creates an error diagnostic.
func Errorf(format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// Warningf creates a warning diagnostic.
func Warningf(format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// Infof creates an info diagnostic.
func Infof(format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)}
}

// At sets the source range and returns d.
func (d *Diagnostic) At(rng hcl.Range) *Diagnostic {
	d.Subject = rng.Ptr()
	return d
}

// OnBlock sets the block location and returns d.
func (d *Diagnostic) OnBlock(pipeline, block string) *Diagnostic {
	d.Pipeline = pipeline
	d.Block = block
	return d
}

// OnProperty sets the property location and returns d.
func (d *Diagnostic) OnProperty(property string) *Diagnostic {
	d.Property = property
	return d
}

// Location renders where the diagnostic points to, or an empty string.
func (d *Diagnostic) Location() string {
	var parts []string
	if d.Subject != nil && d.Subject.Filename != "" {
		parts = append(parts, fmt.Sprintf("%s:%d,%d", d.Subject.Filename, d.Subject.Start.Line, d.Subject.Start.Column))
	}
	if d.Block != "" {
		loc := "block " + d.Block
		if d.Property != "" {
			loc += "." + d.Property
		}
		parts = append(parts, loc)
	}
	return strings.Join(parts, " ")
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if loc := d.Location(); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// FromError turns an arbitrary error returned by a block run into an error
// diagnostic. Diagnostics found in err's chain are kept as they are.
func FromError(err error) *Diagnostic {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d
	}
	return &Diagnostic{Severity: SeverityError, Message: err.Error()}
}

// Diagnostics is an ordered collection of findings.
type Diagnostics []*Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics of the given severity.
func (ds Diagnostics) Filter(sev Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of diagnostics of the given severity.
func (ds Diagnostics) Count(sev Severity) int {
	return len(ds.Filter(sev))
}

// Error implements the error interface by joining every error message.
func (ds Diagnostics) Error() string {
	errs := ds.Filter(SeverityError)
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, d := range errs {
		msgs[i] = d.Error()
	}
	return fmt.Sprintf("%d errors:\n  %s", len(errs), strings.Join(msgs, "\n  "))
}

// Err returns ds as an error if it holds at least one error, nil otherwise.
func (ds Diagnostics) Err() error {
	if ds.HasErrors() {
		return ds
	}
	return nil
}

// Sort orders diagnostics by file and position, keeping the insertion order of
// diagnostics without a source range.
func (ds Diagnostics) Sort() {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i].Subject, ds[j].Subject
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		case a.Filename != b.Filename:
			return a.Filename < b.Filename
		}
		return a.Start.Byte < b.Start.Byte
	})
}

// FromHCL converts parser diagnostics.
func FromHCL(hds hcl.Diagnostics) Diagnostics {
	out := make(Diagnostics, 0, len(hds))
	for _, hd := range hds {
		sev := SeverityError
		if hd.Severity == hcl.DiagWarning {
			sev = SeverityWarning
		}
		msg := hd.Summary
		if hd.Detail != "" {
			msg += "; " + hd.Detail
		}
		out = append(out, &Diagnostic{Severity: sev, Message: msg, Subject: hd.Subject})
	}
	return out
}
