package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/pipegridgo/internal/config"
	"github.com/vk/pipegridgo/internal/ctxlog"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/validation"
)

// ErrInvalid is returned when loading or validating the pipeline files
// produced error diagnostics.
var ErrInvalid = errors.New("pipeline files are invalid")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	cfg        *Config
	loader     config.Loader
	registry   *registry.Registry
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Without modules, CoreModules are registered.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg, outW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = CoreModules
	}
	reg := registry.NewWithModules(modules...)
	logger.Debug("All Go modules registered.",
		"count", len(modules),
		"block_kinds", len(reg.BlockKinds()),
		"constraint_kinds", len(reg.ConstraintKinds()),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		loader:   loader,
		registry: reg,
	}
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Validation is the outcome of loading and validating the pipeline files.
type Validation struct {
	Model       *config.Model
	Result      *validation.Result
	Diagnostics diag.Diagnostics
}

// Validate loads the configured pipeline files and checks them. The returned
// error wraps ErrInvalid when the diagnostics contain errors.
func (a *App) Validate(ctx context.Context) (*Validation, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Loading pipeline files.", "path", a.cfg.PipelinePath)

	model, diags := a.loader.Load(ctx, a.cfg.PipelinePath)
	v := &Validation{Model: model, Diagnostics: diags}
	if diags.HasErrors() || model == nil {
		v.Diagnostics.Sort()
		return v, ErrInvalid
	}
	a.logger.Debug("Pipeline files loaded.",
		"pipelines", len(model.Pipelines),
		"valuetypes", len(model.Valuetypes),
		"constraints", len(model.Constraints),
		"variables", len(model.Variables),
	)

	res, vdiags := validation.New(a.registry).Validate(ctx, model)
	v.Result = res
	v.Diagnostics = append(v.Diagnostics, vdiags...)
	v.Diagnostics.Sort()
	if v.Diagnostics.HasErrors() {
		a.logger.Debug("Validation failed.", "errors", v.Diagnostics.Count(diag.SeverityError))
		return v, ErrInvalid
	}
	a.logger.Info("✅ Pipeline files are valid", "pipelines", len(res.Graphs))
	return v, nil
}
