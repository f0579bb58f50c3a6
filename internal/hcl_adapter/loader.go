package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/pipegridgo/internal/config"
	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/fsutil"
)

// Extension is the file extension pipeline files are discovered by.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found at paths, in lexical order, and merges
// their declarations into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, diag.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, diags := l.findAllHCLFiles(paths)
	if diags.HasErrors() {
		return nil, diags
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()
	for _, file := range files {
		m, fileDiags := l.loadFile(ctx, parser, file)
		diags = append(diags, fileDiags...)
		if m != nil {
			model.Merge(m)
		}
	}

	logger.Debug("HCL loading complete.",
		"pipelines", len(model.Pipelines),
		"valuetypes", len(model.Valuetypes),
		"constraints", len(model.Constraints),
		"variables", len(model.Variables),
	)
	return model, diags
}

// LoadSource parses a single in-memory pipeline file. filename is only used
// in source ranges.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*config.Model, diag.Diagnostics) {
	parser := hclparse.NewParser()
	file, hdiags := parser.ParseHCL(src, filename)
	if hdiags.HasErrors() {
		return nil, diag.FromHCL(hdiags)
	}
	return l.translateFile(ctx, file, src)
}

func (l *Loader) loadFile(ctx context.Context, parser *hclparse.Parser, path string) (*config.Model, diag.Diagnostics) {
	file, hdiags := parser.ParseHCLFile(path)
	if hdiags.HasErrors() {
		return nil, diag.FromHCL(hdiags)
	}
	ctxlog.FromContext(ctx).Debug("Parsed HCL file.", "file", path)
	return l.translateFile(ctx, file, file.Bytes)
}

func (l *Loader) translateFile(ctx context.Context, file *hcl.File, src []byte) (*config.Model, diag.Diagnostics) {
	var root fileRoot
	if hdiags := gohcl.DecodeBody(file.Body, nil, &root); hdiags.HasErrors() {
		return nil, diag.FromHCL(hdiags)
	}
	t := &translator{src: src}
	model := t.translateRoot(ctx, &root)
	return model, diag.FromHCL(t.diags)
}

// findAllHCLFiles expands directories into the .hcl files below them.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, diag.Diagnostics) {
	var diags diag.Diagnostics
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			diags = append(diags, diag.Errorf("Cannot read pipeline path %s: %s", path, err))
			continue
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, Extension)
		if err != nil {
			diags = append(diags, diag.Errorf("Cannot walk pipeline directory %s: %s", path, err))
			continue
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	if len(all) == 0 && !diags.HasErrors() {
		diags = append(diags, diag.Errorf("No %s files found in %v", Extension, paths))
	}
	return all, diags
}

// sourceText returns the bytes rng covers, or an empty string if rng lies
// outside src.
func sourceText(src []byte, rng hcl.Range) string {
	if rng.Start.Byte < 0 || rng.End.Byte > len(src) || rng.Start.Byte > rng.End.Byte {
		return ""
	}
	return string(src[rng.Start.Byte:rng.End.Byte])
}

var _ config.Loader = (*Loader)(nil)

func unsupported(rng hcl.Range, format string, args ...any) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unsupported expression",
		Detail:   fmt.Sprintf(format, args...),
		Subject:  rng.Ptr(),
	}
}
