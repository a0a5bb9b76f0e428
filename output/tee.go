package output

import (
	"context"
	"time"

	"sheetsync/dataloader/state"
)

// Tee forwards every message to each sink in order and stops at the first
// error.
type Tee []Sink

func (t Tee) WriteSchema(ctx context.Context, stream string, schema map[string]any, keyProperties []string) error {
	return t.each(func(s Sink) error { return s.WriteSchema(ctx, stream, schema, keyProperties) })
}

func (t Tee) WriteRecord(ctx context.Context, stream string, record map[string]any, extracted time.Time) error {
	return t.each(func(s Sink) error { return s.WriteRecord(ctx, stream, record, extracted) })
}

func (t Tee) WriteState(ctx context.Context, st state.SyncState) error {
	return t.each(func(s Sink) error { return s.WriteState(ctx, st) })
}

func (t Tee) WriteActivateVersion(ctx context.Context, stream string, version int64) error {
	return t.each(func(s Sink) error { return s.WriteActivateVersion(ctx, stream, version) })
}

func (t Tee) each(fn func(s Sink) error) error {
	for _, s := range t {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}
