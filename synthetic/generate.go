package synthetic

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sheetsync/dataloader/config"
)

const defaultSpreadsheetID = "synthetic-spreadsheet"

// RunGenerateSyntheticData writes a synthetic spreadsheet fixture.
func RunGenerateSyntheticData(ctx context.Context, logger *slog.Logger, args []string, cfg *config.Config) error {
	genFlagSet := flag.NewFlagSet("generate-synthetic-data", flag.ContinueOnError)
	rows := genFlagSet.Int("rows", cfg.SyntheticDataRows, "Number of rows to generate")
	dir := genFlagSet.String("dir", cfg.SyntheticDataDir, "Directory to write synthetic data to")
	seed := genFlagSet.Int64("seed", 1, "Random seed")
	id := genFlagSet.String("id", spreadsheetID(cfg), "Spreadsheet id of the fixture")
	if err := genFlagSet.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	logger.InfoContext(ctx, "Generating synthetic data", "rows", *rows, "dir", *dir)
	path, err := WriteFixture(GenerateSpreadsheet(*id, *rows, *seed), *dir)
	if err != nil {
		return fmt.Errorf("failed to generate synthetic data: %w", err)
	}
	logger.InfoContext(ctx, "Synthetic data generated successfully", "path", path)
	return nil
}

// RunServe serves a fixture over HTTP until ctx is cancelled. Point
// sheets_base_url at <addr>/v4 and drive_base_url at <addr>/drive/v3.
func RunServe(ctx context.Context, logger *slog.Logger, args []string, cfg *config.Config) error {
	serveFlagSet := flag.NewFlagSet("serve-synthetic", flag.ContinueOnError)
	addr := serveFlagSet.String("addr", "127.0.0.1:8089", "Listen address")
	fixture := serveFlagSet.String("fixture", "", "Fixture written by generate-synthetic-data; generated in memory if empty")
	rows := serveFlagSet.Int("rows", cfg.SyntheticDataRows, "Rows to generate when no fixture is given")
	if err := serveFlagSet.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	var sp *Spreadsheet
	if *fixture != "" {
		loaded, err := LoadFixture(*fixture)
		if err != nil {
			return err
		}
		sp = loaded
	} else {
		sp = GenerateSpreadsheet(spreadsheetID(cfg), *rows, 1)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           NewServer(sp),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down synthetic server", "error", err)
		}
	}()

	logger.InfoContext(ctx, "Serving synthetic spreadsheet", "addr", *addr, "spreadsheet_id", sp.ID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("synthetic server failed: %w", err)
	}
	return nil
}

func spreadsheetID(cfg *config.Config) string {
	if cfg.SpreadsheetID != "" {
		return cfg.SpreadsheetID
	}
	return defaultSpreadsheetID
}
