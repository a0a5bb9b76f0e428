// Package datalake mirrors sync output into the datalake repository.
package datalake

import (
	"context"
	"time"

	"sheetsync/dataloader/appcontext"
	"sheetsync/dataloader/datalake/model"
	"sheetsync/dataloader/datalake/repository"
	"sheetsync/dataloader/output"
	"sheetsync/dataloader/state"
)

// DefaultBatchSize is the number of records buffered per stream before an
// upsert.
const DefaultBatchSize = 500

// Loader is an output.Sink that upserts records into a Repository. Records
// are buffered per stream and flushed when the buffer fills, on every state
// message and on version activation. Activation also removes records the
// current run did not write and appends a sync log entry.
type Loader struct {
	repo      repository.Repository
	BatchSize int
	now       func() time.Time

	keys     map[string][]string
	buffers  map[string][]model.Record
	uploaded map[string]int64
}

var _ output.Sink = (*Loader)(nil)

// NewLoader creates a Loader writing to repo.
func NewLoader(repo repository.Repository) *Loader {
	return &Loader{
		repo:      repo,
		BatchSize: DefaultBatchSize,
		now:       time.Now,
		keys:      map[string][]string{},
		buffers:   map[string][]model.Record{},
		uploaded:  map[string]int64{},
	}
}

func (l *Loader) WriteSchema(_ context.Context, stream string, _ map[string]any, keyProperties []string) error {
	l.keys[stream] = keyProperties
	return nil
}

func (l *Loader) WriteRecord(ctx context.Context, stream string, record map[string]any, extracted time.Time) error {
	l.buffers[stream] = append(l.buffers[stream], model.Record{
		Stream:      stream,
		RunID:       appcontext.RunIDFromContext(ctx),
		ExtractedAt: extracted.UTC(),
		LoadedAt:    l.now().UTC(),
		Data:        record,
	})

	if len(l.buffers[stream]) >= l.BatchSize {
		return l.flush(ctx, stream)
	}
	return nil
}

// WriteState flushes every buffered stream so the datalake never lags the
// persisted checkpoint.
func (l *Loader) WriteState(ctx context.Context, _ state.SyncState) error {
	return l.Flush(ctx)
}

func (l *Loader) WriteActivateVersion(ctx context.Context, stream string, version int64) error {
	logger := appcontext.LoggerFromContext(ctx)

	if err := l.flush(ctx, stream); err != nil {
		return err
	}

	runID := appcontext.RunIDFromContext(ctx)
	var deleted int64
	if runID == "" {
		logger.WarnContext(ctx, "No run id on context, skipping stale record cleanup", "stream", stream)
	} else {
		var err error
		deleted, err = l.repo.DeleteStale(ctx, stream, runID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to delete stale records", "stream", stream, "error", err)
			return output.SinkWriteError(output.TypeActivateVersion, stream, err)
		}
	}

	return l.logSync(ctx, stream, version, deleted)
}

// Flush upserts every buffered record.
func (l *Loader) Flush(ctx context.Context) error {
	for stream := range l.buffers {
		if err := l.flush(ctx, stream); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered records and writes a sync log for each stream with
// unlogged uploads.
func (l *Loader) Close(ctx context.Context) error {
	if err := l.Flush(ctx); err != nil {
		return err
	}
	for stream, n := range l.uploaded {
		if n == 0 {
			continue
		}
		if err := l.logSync(ctx, stream, 0, 0); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) flush(ctx context.Context, stream string) error {
	records := l.buffers[stream]
	if len(records) == 0 {
		return nil
	}

	if err := l.repo.UpsertRecords(ctx, stream, l.keys[stream], records); err != nil {
		appcontext.LoggerFromContext(ctx).ErrorContext(ctx, "Failed to upsert records", "stream", stream, "records", len(records), "error", err)
		return output.SinkWriteError(output.TypeRecord, stream, err)
	}

	l.uploaded[stream] += int64(len(records))
	l.buffers[stream] = nil
	return nil
}

func (l *Loader) logSync(ctx context.Context, stream string, version, deleted int64) error {
	entry := model.SyncLog{
		Stream:          stream,
		RunID:           appcontext.RunIDFromContext(ctx),
		Version:         version,
		SyncTimestamp:   l.now(),
		RecordsUploaded: l.uploaded[stream],
		RecordsDeleted:  deleted,
	}
	if err := l.repo.InsertSyncLog(ctx, entry); err != nil {
		return output.SinkWriteError(output.TypeActivateVersion, stream, err)
	}

	appcontext.LoggerFromContext(ctx).InfoContext(ctx, "Mirrored stream to datalake", "stream", stream, "uploaded", entry.RecordsUploaded, "deleted", deleted)
	l.uploaded[stream] = 0
	return nil
}
