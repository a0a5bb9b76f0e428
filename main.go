// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sheetsync/dataloader/appcontext"
	"sheetsync/dataloader/config"
	"sheetsync/dataloader/ingest"
	"sheetsync/dataloader/synthetic"
)

const envLogLevel = "LOG_LEVEL"

func main() {
	// stdout carries the message stream, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	if len(os.Args) < 2 {
		logger.Error("Usage: dataloader <sync|schedule|generate-synthetic-data|serve-synthetic> [options]")
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if err := run(logger, command, args); err != nil {
		logger.Error("Application terminated with an error", "error", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	level := slog.LevelInfo
	if v := os.Getenv(envLogLevel); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			level = slog.LevelInfo
		}
	}
	return level
}

func run(logger *slog.Logger, command string, args []string) error {
	ctx, stop := signal.NotifyContext(
		appcontext.WithLogger(context.Background(), logger),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	switch command {
	case "sync":
		cfg, err := loadSyncConfig(ctx, logger, command, args)
		if err != nil {
			return err
		}
		return runSync(ctx, logger, cfg)
	case "schedule":
		cfg, err := loadSyncConfig(ctx, logger, command, args)
		if err != nil {
			return err
		}
		return runSchedule(ctx, logger, cfg)
	case "generate-synthetic-data", "serve-synthetic":
		cfg, err := config.Load(ctx, logger, os.Getenv("CONFIG_PATH"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if command == "serve-synthetic" {
			return synthetic.RunServe(ctx, logger, args, cfg)
		}
		return synthetic.RunGenerateSyntheticData(ctx, logger, args, cfg)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func loadSyncConfig(ctx context.Context, logger *slog.Logger, command string, args []string) (*config.Config, error) {
	flagSet := flag.NewFlagSet(command, flag.ContinueOnError)
	configPath := flagSet.String("config", os.Getenv("CONFIG_PATH"), "Path to the JSON config file")
	if err := flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg, err := config.LoadConfig(ctx, logger, *configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runSync(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	rt, err := ingest.Setup(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if deferErr := rt.Close(context.WithoutCancel(ctx)); deferErr != nil {
			logger.Error("Error releasing resources", "error", deferErr)
		}
	}()

	stats, err := rt.RunOnce(ctx)
	if stats != nil {
		stats.Log(logger)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	logger.Info("Sync process completed successfully.")
	return nil
}

func runSchedule(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	rt, err := ingest.Setup(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if deferErr := rt.Close(context.WithoutCancel(ctx)); deferErr != nil {
			logger.Error("Error releasing resources", "error", deferErr)
		}
	}()

	return ingest.Schedule(ctx, cfg.Schedule, func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		stats, err := rt.RunOnce(ctx)
		if stats != nil {
			stats.Log(logger)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Scheduled sync failed", "error", err)
		}
	})
}
