package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/executor"
	"github.com/vk/pipegridgo/internal/pipeline"
)

// ErrExecution is returned when at least one pipeline failed.
var ErrExecution = errors.New("pipeline execution failed")

// PipelineRun is the outcome of executing one pipeline.
type PipelineRun struct {
	Pipeline string
	Result   *executor.Result
	Err      error
}

// Report is everything a run produced, for printing by the caller.
type Report struct {
	Diagnostics diag.Diagnostics
	Runs        []*PipelineRun
}

// Run validates the pipeline files and executes the selected pipeline, or
// every pipeline when none is selected. Pipelines run one after another; a
// failing pipeline does not stop the following ones.
func (a *App) Run(ctx context.Context) (*Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.startHealthcheckServer(ctx)
	defer func() {
		if err := a.closeHealthcheckServer(ctx); err != nil {
			a.logger.Warn("Health check server did not shut down cleanly", "error", err)
		}
	}()

	v, err := a.Validate(ctx)
	report := &Report{Diagnostics: v.Diagnostics}
	if err != nil {
		return report, err
	}

	graphs, err := a.selectGraphs(v)
	if err != nil {
		return report, err
	}

	vars, vdiags := v.Model.ResolveVariables(a.cfg.Variables)
	report.Diagnostics = append(report.Diagnostics, vdiags...)
	if vdiags.HasErrors() {
		report.Diagnostics.Sort()
		return report, ErrInvalid
	}

	exec := executor.New(executor.Config{
		Workers:   a.cfg.WorkerCount,
		Variables: vars,
		Catalog:   v.Result.Catalog,
	})

	a.logger.Info("🚀 Starting execution...", "pipelines", len(graphs))
	start := time.Now()
	failed := 0
	for _, g := range graphs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := exec.Run(ctx, g)
		run := &PipelineRun{Pipeline: g.Name, Result: res, Err: err}
		report.Runs = append(report.Runs, run)
		if res != nil {
			report.Diagnostics = append(report.Diagnostics, res.Diagnostics...)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			report.Diagnostics = append(report.Diagnostics, diag.FromError(err))
			failed++
		}
	}
	report.Diagnostics.Sort()
	a.logger.Info("🏁 Execution finished.", "pipelines", len(graphs), "failed", failed, "duration", time.Since(start))

	if failed > 0 {
		return report, fmt.Errorf("%w: %d of %d pipelines failed", ErrExecution, failed, len(graphs))
	}
	a.logger.Debug("App.Run method finished.")
	return report, nil
}

func (a *App) selectGraphs(v *Validation) ([]*pipeline.Graph, error) {
	if a.cfg.PipelineName == "" {
		if len(v.Result.Graphs) == 0 {
			a.logger.Warn("No pipelines found, execution not required.")
		}
		return v.Result.Graphs, nil
	}
	g, ok := v.Result.Graph(a.cfg.PipelineName)
	if !ok {
		return nil, fmt.Errorf("pipeline %q is not defined in %s", a.cfg.PipelineName, a.cfg.PipelinePath)
	}
	return []*pipeline.Graph{g}, nil
}
