package appcontext_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"sheetsync/dataloader/appcontext"
)

func TestLoggerFromContext_Default(t *testing.T) {
	if appcontext.LoggerFromContext(context.Background()) != slog.Default() {
		t.Error("expected slog.Default() when no logger is stored")
	}
}

func TestWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := appcontext.WithLogger(context.Background(), logger)
	if appcontext.LoggerFromContext(ctx) != logger {
		t.Error("LoggerFromContext did not return the stored logger")
	}
}

func TestWithRunID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := appcontext.WithLogger(context.Background(), logger)
	ctx = appcontext.WithRunID(ctx, "run-1")

	if got := appcontext.RunIDFromContext(ctx); got != "run-1" {
		t.Errorf("RunIDFromContext got %q, want %q", got, "run-1")
	}
	if appcontext.LoggerFromContext(ctx) == logger {
		t.Error("expected the run id to be attached to a derived logger")
	}
	if got := appcontext.RunIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty run id outside a run, got %q", got)
	}
}
