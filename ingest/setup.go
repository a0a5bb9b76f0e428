package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	apiclient "sheetsync/dataloader/apiClient"
	"sheetsync/dataloader/appcontext"
	"sheetsync/dataloader/config"
	"sheetsync/dataloader/datalake"
	"sheetsync/dataloader/output"
	"sheetsync/dataloader/state"
	"sheetsync/dataloader/storage"
)

var errUnknownStateBackend = errors.New("unknown state backend")

// Runtime holds the resources built from a Config for one or more passes.
type Runtime struct {
	Syncer *Syncer
	// Loader is nil unless records are mirrored to MongoDB.
	Loader  *datalake.Loader
	closers []func(ctx context.Context) error
}

// Setup connects every backend cfg selects and builds a Syncer writing
// messages to stdout.
func Setup(ctx context.Context, cfg *config.Config, stdout io.Writer) (*Runtime, error) {
	logger := appcontext.LoggerFromContext(ctx)
	rt := &Runtime{}

	client, err := apiclient.NewAPIClient(nil, apiclient.Options{
		SheetsBasePath: cfg.SheetsBaseURL,
		DriveBasePath:  cfg.DriveBaseURL,
		AccessToken:    cfg.AccessToken,
		UserAgent:      cfg.UserAgent,
		MaxRetries:     cfg.MaxRetries,
		Timeout:        cfg.RequestTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	var provider storage.CollectionProvider
	if cfg.UsesMongo() {
		mongoClient, err := storage.ConnectToMongoDBFunc(ctx, cfg.MongoURI)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to connect to MongoDB", "error", err)
			return nil, fmt.Errorf("connection to MongoDB failed: %w", err)
		}
		rt.closers = append(rt.closers, mongoClient.Disconnect)
		provider = storage.NewMongoProvider(mongoClient, cfg.MongoDatabase)
	}

	store, err := rt.openStore(cfg, provider)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	logger.InfoContext(ctx, "Using state backend", "backend", cfg.StateBackend)

	var sink output.Sink = output.NewJSONLinesSink(stdout)
	if cfg.MirrorToMongo {
		rt.Loader = datalake.NewLoader(storage.NewMongoRepository(provider))
		sink = output.Tee{sink, rt.Loader}
		logger.InfoContext(ctx, "Mirroring records to MongoDB", "database", cfg.MongoDatabase)
	}

	rt.Syncer = NewSyncer(SyncDependencies{
		Config: cfg,
		Client: client,
		Store:  store,
		Sink:   sink,
	})

	return rt, nil
}

func (rt *Runtime) openStore(cfg *config.Config, provider storage.CollectionProvider) (state.Store, error) {
	switch cfg.StateBackend {
	case config.StateBackendFile:
		return state.NewFileStore(cfg.StatePath), nil
	case config.StateBackendSQLite:
		store, err := state.OpenSQLiteStore(cfg.StatePath, cfg.StateKey)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite state store: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) error { return store.Close() })
		return store, nil
	case config.StateBackendS3:
		return state.NewS3Store(cfg.S3Region, cfg.S3Endpoint, cfg.S3Bucket, cfg.StateKey+".json")
	case config.StateBackendMongo:
		return storage.NewMongoStateStore(provider, cfg.StateKey), nil
	default:
		return nil, fmt.Errorf("%w, %s", errUnknownStateBackend, cfg.StateBackend)
	}
}

// RunOnce runs one pass and, when mirroring, finalizes the datalake load.
func (rt *Runtime) RunOnce(ctx context.Context) (*Stats, error) {
	stats, err := rt.Syncer.Run(ctx)
	if err != nil {
		return stats, err
	}
	if rt.Loader != nil {
		if err := rt.Loader.Close(appcontext.WithRunID(ctx, stats.RunID)); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// Close releases every resource in reverse order of creation.
func (rt *Runtime) Close(ctx context.Context) error {
	logger := appcontext.LoggerFromContext(ctx)
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			logger.ErrorContext(ctx, "Error releasing resource", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
