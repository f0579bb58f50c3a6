// Package ctxlog carries the run's slog.Logger through context.Context.
//
// Every component below the application layer takes its logger from the
// context it was handed. A missing logger is a wiring bug, so FromContext
// panics instead of silently falling back to the global logger.
package ctxlog

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// With returns a copy of ctx whose logger has the given attributes added.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// Lookup returns the logger carried by ctx, if any.
func Lookup(ctx context.Context) (*slog.Logger, bool) {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	return logger, ok && logger != nil
}

// FromContext returns the logger carried by ctx and panics if there is none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := Lookup(ctx); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}
