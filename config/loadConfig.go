package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// InvalidConfigError is a error wrapper.
func InvalidConfigError(baseErr error) error {
	return fmt.Errorf("%w: %w", ErrInvalidConfig, baseErr)
}

// Default values.
const (
	defaultTimeoutSeconds        = 3600
	defaultRequestTimeoutSeconds = 300
	defaultMaxRetries            = 5
	defaultUserAgent             = "sheetsync-dataloader"
	defaultStateBackend          = StateBackendFile
	defaultStatePath             = "state.json"
	defaultSQLiteStatePath       = "tmp/state.db"
	defaultS3Region              = "us-east-1"
	defaultMongoURI              = "mongodb://localhost:27017/sheetsync"
	defaultMongoHost             = "localhost"
	defaultMongoPort             = "27017"
	defaultMongoDatabase         = "sheetsync"
	defaultSchedule              = "@every 1h"
	defaultSyntheticDataDir      = "tmp/synthetic"
	defaultSyntheticDataRows     = 100
	envAccessToken               = "GOOGLE_ACCESS_TOKEN"
	envSpreadsheetID             = "SPREADSHEET_ID"
	envStateBackend              = "STATE_BACKEND"
	envMirrorToMongo             = "MIRROR_TO_MONGO"
	envMongoURI                  = "MONGO_URI"
	envMongoHost                 = "MONGO_HOST"
	envMongoUser                 = "MONGO_USER"
	envMongoPassword             = "MONGO_PASSWORD"
	envS3Bucket                  = "S3_BUCKET"
	envS3Endpoint                = "S3_ENDPOINT"
	envAWSRegion                 = "AWS_DEFAULT_REGION"
)

// LoadConfig reads the JSON config file at path (if any), applies
// environment overrides and defaults, and validates the result.
func LoadConfig(ctx context.Context, logger *slog.Logger, path string) (*Config, error) {
	cfg, err := Load(ctx, logger, path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is LoadConfig without validation, for commands that do not sync.
func Load(ctx context.Context, logger *slog.Logger, path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, InvalidConfigError(fmt.Errorf("parsing %s: %w", path, err))
		}
		logger.DebugContext(ctx, "Loaded config file", "path", path)
	}

	applyEnv(ctx, cfg, logger)
	applyDefaults(ctx, cfg, logger)

	return cfg, nil
}

// Validate checks cfg's field constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return InvalidConfigError(err)
	}
	if _, err := time.Parse(time.RFC3339, cfg.StartDate); err != nil {
		return InvalidConfigError(fmt.Errorf("start_date: %w", err))
	}
	return nil
}

func applyEnv(ctx context.Context, cfg *Config, logger *slog.Logger) {
	setFromEnv(ctx, logger, &cfg.AccessToken, envAccessToken, true)
	setFromEnv(ctx, logger, &cfg.SpreadsheetID, envSpreadsheetID, false)
	setFromEnv(ctx, logger, &cfg.StateBackend, envStateBackend, false)
	setFromEnv(ctx, logger, &cfg.S3Bucket, envS3Bucket, false)
	setFromEnv(ctx, logger, &cfg.S3Endpoint, envS3Endpoint, false)
	setFromEnv(ctx, logger, &cfg.S3Region, envAWSRegion, false)

	if v := os.Getenv(envMirrorToMongo); v != "" {
		parsedBool, err := strconv.ParseBool(v)
		if err != nil {
			logger.WarnContext(ctx, "Invalid value for MIRROR_TO_MONGO, ignoring", "value", v, "error", err)
		} else {
			cfg.MirrorToMongo = parsedBool
			logger.DebugContext(ctx, "Set mirrorToMongo from environment variable", "value", parsedBool)
		}
	}

	if cfg.MongoURI == "" {
		cfg.MongoURI = formatMongoURI(ctx, os.Getenv(envMongoURI), logger)
	}
}

func setFromEnv(ctx context.Context, logger *slog.Logger, field *string, env string, secret bool) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	*field = v
	if secret {
		logger.DebugContext(ctx, "Using value from environment variable", "env", env)
	} else {
		logger.DebugContext(ctx, "Using value from environment variable", "env", env, "value", v)
	}
}

func applyDefaults(ctx context.Context, cfg *Config, logger *slog.Logger) {
	defaultString(ctx, logger, &cfg.UserAgent, "user_agent", defaultUserAgent)
	defaultString(ctx, logger, &cfg.StateBackend, "state_backend", defaultStateBackend)
	cfg.StateBackend = strings.ToLower(cfg.StateBackend)

	switch cfg.StateBackend {
	case StateBackendSQLite:
		defaultString(ctx, logger, &cfg.StatePath, "state_path", defaultSQLiteStatePath)
	case StateBackendFile:
		defaultString(ctx, logger, &cfg.StatePath, "state_path", defaultStatePath)
	}
	defaultString(ctx, logger, &cfg.StateKey, "state_key", cfg.SpreadsheetID)
	defaultString(ctx, logger, &cfg.S3Region, "s3_region", defaultS3Region)
	defaultString(ctx, logger, &cfg.MongoDatabase, "mongo_database", defaultMongoDatabase)
	defaultString(ctx, logger, &cfg.Schedule, "schedule", defaultSchedule)
	defaultString(ctx, logger, &cfg.SyntheticDataDir, "synthetic_data_dir", defaultSyntheticDataDir)

	defaultInt(ctx, logger, &cfg.RequestTimeoutSeconds, "request_timeout_seconds", defaultRequestTimeoutSeconds)
	defaultInt(ctx, logger, &cfg.MaxRetries, "max_retries", defaultMaxRetries)
	defaultInt(ctx, logger, &cfg.SyntheticDataRows, "synthetic_data_rows", defaultSyntheticDataRows)

	cfg.Timeout = defaultTimeoutSeconds * time.Second
}

func defaultString(ctx context.Context, logger *slog.Logger, field *string, name, def string) {
	if *field != "" {
		return
	}
	*field = def
	logger.DebugContext(ctx, "Using default value", "field", name, "value", def)
}

func defaultInt(ctx context.Context, logger *slog.Logger, field *int, name string, def int) {
	if *field != 0 {
		return
	}
	*field = def
	logger.DebugContext(ctx, "Using default value", "field", name, "value", def)
}

// formatMongoURI formats mongo settings to a url and return the result.
func formatMongoURI(
	ctx context.Context,
	mongoURI string,
	logger *slog.Logger,
) string {
	if mongoURI != "" {
		logger.DebugContext(ctx, "Using MongoDB URI from environment variable")
		return mongoURI
	}

	mongoHost := os.Getenv(envMongoHost)
	if mongoHost == "" {
		mongoHost = defaultMongoHost
		logger.DebugContext(ctx, "Using default MongoDB host", "host", mongoHost)
	} else {
		logger.DebugContext(ctx, "Using MongoDB host from environment variable", "host", mongoHost)
	}

	mongoUser := os.Getenv(envMongoUser)
	mongoPassword := os.Getenv(envMongoPassword)

	if mongoUser != "" && mongoPassword != "" {
		hostPort := net.JoinHostPort(mongoHost, defaultMongoPort)
		mongoURI = fmt.Sprintf(
			"mongodb://%s:%s@%s/%s?authSource=admin",
			mongoUser,
			mongoPassword,
			hostPort,
			defaultMongoDatabase,
		)
		logger.DebugContext(ctx, "Created MongoDB URI from user, password, and host", "host", hostPort)
	} else {
		mongoURI = defaultMongoURI
		logger.DebugContext(ctx, "Using default MongoDB URI", "uri", mongoURI)
	}
	return mongoURI
}
