package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/inmemorystore"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/pipeline"
	"github.com/zclconf/go-cty/cty"
)

// Config holds the settings of an Executor.
type Config struct {
	// Workers is the number of blocks that may run at once. Values below 2
	// select sequential execution.
	Workers int
	// Variables hold the resolved runtime parameters by name.
	Variables map[string]cty.Value
	// Catalog holds the declared value types blocks may check values against.
	Catalog *execution.Catalog
}

// Executor runs pipeline graphs. It is safe to run several graphs with one
// Executor concurrently.
type Executor struct {
	cfg Config
}

// New creates an Executor.
func New(cfg Config) *Executor {
	if cfg.Catalog == nil {
		cfg.Catalog = execution.NewCatalog()
	}
	return &Executor{cfg: cfg}
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Outputs holds the output artifact of every block that completed and
	// produced one.
	Outputs map[string]artifact.Artifact
	// Completed lists the blocks that finished, in completion order.
	Completed []string
	// Statuses holds the final state of every block the run scheduled.
	Statuses map[string]inmemorystore.Status
	// Diagnostics holds the non-fatal diagnostics blocks reported.
	Diagnostics diag.Diagnostics
	// Duration is the wall time of the run.
	Duration time.Duration
}

// Run executes g, which must have passed validation. A failing block turns
// into a returned *diag.Diagnostic; a canceled ctx is returned as is.
func (e *Executor) Run(ctx context.Context, g *pipeline.Graph) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("pipeline", g.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("▶️ Starting pipeline", "workers", e.cfg.Workers)

	start := time.Now()
	res := &result{store: inmemorystore.New()}
	for _, b := range g.TopologicalOrder() {
		res.store.SetStatus(b.Name, inmemorystore.StatusPending)
	}
	var err error
	if e.cfg.Workers > 1 {
		err = e.runParallel(ctx, g, res)
	} else {
		err = e.runSequential(ctx, g, res)
	}

	out := &Result{
		Outputs:     res.store.Outputs(),
		Completed:   res.completed,
		Statuses:    res.store.Statuses(),
		Diagnostics: res.diags,
		Duration:    time.Since(start),
	}
	if err != nil {
		logger.Error("❌ Pipeline failed", "error", err, "duration", out.Duration)
		return out, err
	}
	logger.Info("✅ Finished pipeline", "blocks", len(res.completed), "duration", out.Duration)
	return out, nil
}

// result collects block state and diagnostics across workers.
type result struct {
	store *inmemorystore.Store

	mu        sync.Mutex
	completed []string
	diags     diag.Diagnostics
}

func (r *result) complete(b *pipeline.BlockInstance, out artifact.Artifact, diags diag.Diagnostics) {
	if out != nil {
		r.store.SetOutput(b.Name, out)
	}
	r.store.SetStatus(b.Name, inmemorystore.StatusCompleted)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, b.Name)
	r.diags = append(r.diags, diags...)
}

func (r *result) output(b *pipeline.BlockInstance) artifact.Artifact {
	return r.store.Output(b.Name)
}

// runBlock resolves the properties of b and calls its executor with input.
func (e *Executor) runBlock(ctx context.Context, g *pipeline.Graph, b *pipeline.BlockInstance, input artifact.Artifact, res *result) error {
	logger := ctxlog.FromContext(ctx).With("block", b.Name, "kind", b.Kind)
	logger.Info("▶️ Starting block")
	start := time.Now()
	res.store.SetStatus(b.Name, inmemorystore.StatusRunning)

	err := e.execBlock(ctx, g, b, input, res)
	switch {
	case err == nil:
		logger.Info("✅ Finished block", "duration", time.Since(start))
	case ctx.Err() != nil:
		res.store.Skip(b.Name)
	default:
		res.store.Fail(b.Name, err)
	}
	return err
}

func (e *Executor) execBlock(ctx context.Context, g *pipeline.Graph, b *pipeline.BlockInstance, input artifact.Artifact, res *result) error {
	if b.Executor == nil {
		panic(fmt.Sprintf("executor: block %q has unknown kind %q; validation must reject it", b.Name, b.Kind))
	}
	def := b.Definition()

	values, err := e.resolveProperties(g.Name, b)
	if err != nil {
		return err
	}
	ec := execution.NewContext(ctx, g.Name, b.Name, b.Kind, values, e.cfg.Catalog)

	out, err := b.Executor.Run(ec.Context(), input, ec)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d := diag.FromError(err)
		if d.Block == "" {
			d.OnBlock(g.Name, b.Name)
		}
		return d
	}

	if def.Output == iotype.None {
		out = nil
	} else if out == nil || out.IOType() != def.Output {
		got := "nothing"
		if out != nil {
			got = out.IOType().String()
		}
		return diag.Errorf("Block kind %s must produce an output of type %s but produced %s", b.Kind, def.Output, got).
			OnBlock(g.Name, b.Name)
	}

	res.complete(b, out, ec.Diagnostics())
	return nil
}
