package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"sheetsync/dataloader/appcontext"
)

// cronLogger adapts a slog.Logger to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}

// Schedule runs job on the cron expression expr until ctx is cancelled. A run
// that comes due while the previous one is still going is skipped.
func Schedule(ctx context.Context, expr string, job func(ctx context.Context)) error {
	logger := appcontext.LoggerFromContext(ctx)
	cl := cronLogger{logger: logger}

	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(expr, func() { job(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	logger.InfoContext(ctx, "Starting scheduler", "schedule", expr)
	c.Start()
	<-ctx.Done()

	logger.InfoContext(ctx, "Stopping scheduler, waiting for the running pass")
	<-c.Stop().Done()
	return nil
}
