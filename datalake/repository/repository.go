package repository

import (
	"context"

	"sheetsync/dataloader/datalake/model"
)

// Repository defines the interface for data storage operations.
type Repository interface {
	// UpsertRecords writes records keyed by keyProperties into the stream's collection.
	UpsertRecords(ctx context.Context, stream string, keyProperties []string, records []model.Record) error
	// DeleteStale removes records of stream not written by runID.
	DeleteStale(ctx context.Context, stream, runID string) (int64, error)
	InsertSyncLog(ctx context.Context, log model.SyncLog) error
}
