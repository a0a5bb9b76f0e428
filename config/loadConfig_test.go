package config_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"sheetsync/dataloader/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_HOST", "")
	t.Setenv("MONGO_USER", "")
	t.Setenv("STATE_BACKEND", "")
	t.Setenv("SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_ACCESS_TOKEN", "tok")

	path := writeConfig(t, `{"spreadsheet_id": "ss1", "start_date": "2019-01-01T00:00:00Z"}`)
	cfg, err := config.LoadConfig(context.Background(), testLogger(), path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.StateBackend != config.StateBackendFile || cfg.StatePath != "state.json" {
		t.Errorf("Expected file backend at state.json, got %s at %s", cfg.StateBackend, cfg.StatePath)
	}
	if cfg.StateKey != "ss1" {
		t.Errorf("Expected state key ss1, got %s", cfg.StateKey)
	}
	if cfg.AccessToken != "tok" {
		t.Errorf("Expected access token from environment, got %q", cfg.AccessToken)
	}
	if cfg.MaxRetries != 5 || cfg.RequestTimeoutSeconds != 300 {
		t.Errorf("Unexpected retry defaults %d %d", cfg.MaxRetries, cfg.RequestTimeoutSeconds)
	}
	if cfg.MongoURI != "mongodb://localhost:27017/sheetsync" {
		t.Errorf("Unexpected MongoURI %s", cfg.MongoURI)
	}
	if !cfg.Selected("anything") {
		t.Error("Expected empty selection to select every stream")
	}
}

func TestLoadConfig_MongoFromParts(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_HOST", "db")
	t.Setenv("MONGO_USER", "u")
	t.Setenv("MONGO_PASSWORD", "p")

	path := writeConfig(t, `{"spreadsheet_id": "ss1", "start_date": "2019-01-01T00:00:00Z", "state_backend": "mongo"}`)
	cfg, err := config.LoadConfig(context.Background(), testLogger(), path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MongoURI != "mongodb://u:p@db:27017/sheetsync?authSource=admin" {
		t.Errorf("Unexpected MongoURI %s", cfg.MongoURI)
	}
	if !cfg.UsesMongo() {
		t.Error("Expected mongo backend to require a connection")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing spreadsheet": `{"start_date": "2019-01-01T00:00:00Z"}`,
		"bad start date":      `{"spreadsheet_id": "ss1", "start_date": "yesterday"}`,
		"bad backend":         `{"spreadsheet_id": "ss1", "start_date": "2019-01-01T00:00:00Z", "state_backend": "redis"}`,
		"s3 without bucket":   `{"spreadsheet_id": "ss1", "start_date": "2019-01-01T00:00:00Z", "state_backend": "s3"}`,
		"malformed json":      `{"spreadsheet_id": `,
	}

	t.Setenv("SPREADSHEET_ID", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("STATE_BACKEND", "")
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadConfig(context.Background(), testLogger(), writeConfig(t, body))
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSelected(t *testing.T) {
	cfg := &config.Config{SelectedStreams: []string{"Orders", "file_metadata"}}
	if !cfg.Selected("Orders") || cfg.Selected("Returns") {
		t.Error("Unexpected selection result")
	}
}

func TestLoad_SkipsValidation(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "")
	t.Setenv("STATE_BACKEND", "")

	cfg, err := config.Load(context.Background(), testLogger(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SyntheticDataRows != 100 || cfg.SyntheticDataDir != "tmp/synthetic" {
		t.Errorf("Unexpected synthetic defaults %d %s", cfg.SyntheticDataRows, cfg.SyntheticDataDir)
	}
	if cfg.Schedule != "@every 1h" {
		t.Errorf("Unexpected schedule %s", cfg.Schedule)
	}
}
