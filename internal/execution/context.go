package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Context is owned by exactly one block run. The embedded Values provide the
// typed property getters, which panic for properties the block kind does not
// declare.
type Context struct {
	*schema.Values

	ctx      context.Context
	pipeline string
	block    string
	kind     string
	logger   *slog.Logger
	catalog  *Catalog

	mu    sync.Mutex
	diags diag.Diagnostics
}

// NewContext creates the handle for one run of block. The logger is taken
// from ctx and scoped to the block.
func NewContext(ctx context.Context, pipeline, block, kind string, values *schema.Values, catalog *Catalog) *Context {
	if catalog == nil {
		catalog = NewCatalog()
	}
	logger := ctxlog.FromContext(ctx).With("pipeline", pipeline, "block", block, "kind", kind)
	return &Context{
		Values:   values,
		ctx:      ctxlog.WithLogger(ctx, logger),
		pipeline: pipeline,
		block:    block,
		kind:     kind,
		logger:   logger,
		catalog:  catalog,
	}
}

// Context returns the run's context.Context, carrying the scoped logger.
func (c *Context) Context() context.Context { return c.ctx }

// Block returns the name of the running block.
func (c *Context) Block() string { return c.block }

// Kind returns the block kind of the running block.
func (c *Context) Kind() string { return c.kind }

// Logger returns the logger scoped to the running block.
func (c *Context) Logger() *slog.Logger { return c.logger }

func (c *Context) LogDebug(msg string, args ...any) { c.logger.Debug(msg, args...) }

func (c *Context) LogInfo(msg string, args ...any) { c.logger.Info(msg, args...) }

func (c *Context) LogWarn(msg string, args ...any) { c.logger.Warn(msg, args...) }

// Errorf creates an error diagnostic located at the running block. Executors
// return it to fail the run.
func (c *Context) Errorf(format string, args ...any) *diag.Diagnostic {
	return diag.Errorf(format, args...).OnBlock(c.pipeline, c.block)
}

// PropertyErrorf creates an error diagnostic located at one property of the
// running block.
func (c *Context) PropertyErrorf(property, format string, args ...any) *diag.Diagnostic {
	return c.Errorf(format, args...).OnProperty(property)
}

// Report records a non-fatal diagnostic for the run.
func (c *Context) Report(d *diag.Diagnostic) {
	if d.Block == "" {
		d.OnBlock(c.pipeline, c.block)
	}
	c.mu.Lock()
	c.diags = append(c.diags, d)
	c.mu.Unlock()
}

// Diagnostics returns every diagnostic reported so far.
func (c *Context) Diagnostics() diag.Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(diag.Diagnostics(nil), c.diags...)
}

// Valuetype resolves a primitive or declared value type by name.
func (c *Context) Valuetype(name string) (*valuetype.Valuetype, bool) {
	return c.catalog.Valuetype(name)
}

// CheckValue reports whether v is a valid value of vt, evaluating every
// constraint along vt's supertype chain.
func (c *Context) CheckValue(v cty.Value, vt *valuetype.Valuetype) error {
	if err := c.catalog.Check(v, vt); err != nil {
		return fmt.Errorf("%s: %w", vt, err)
	}
	return nil
}
