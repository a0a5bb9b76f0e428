// Package appcontext carries the logger and the sync run id through a context.
package appcontext

import (
	"context"
	"log/slog"
)

type contextKey struct{}

type runIDKey struct{}

// WithLogger creates a new context with the provided logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// LoggerFromContext retrieves the logger from the context.
// It returns a default logger if no logger is found.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}

	return slog.Default()
}

// WithRunID stores the sync run id and tags the context logger with it.
func WithRunID(ctx context.Context, runID string) context.Context {
	logger := LoggerFromContext(ctx).With("runID", runID)
	ctx = WithLogger(ctx, logger)

	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the sync run id, or an empty string outside a run.
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey{}).(string); ok {
		return runID
	}

	return ""
}
