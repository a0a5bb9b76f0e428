package state

import (
	"context"
	"errors"
	"fmt"

	"sheetsync/dataloader/appcontext"
)

var errCheckpointFailed = errors.New("checkpoint is unusable after a failed write")

// Emitter receives a copy of the state after every successful write, for
// forwarding to the output stream as a STATE message.
type Emitter func(ctx context.Context, s SyncState) error

// Checkpoint is the Idle/Syncing state machine. Every mutation is written
// through to the store before it returns. After a failed write the in-memory
// state is rolled back and all further mutations fail.
type Checkpoint struct {
	store  Store
	emit   Emitter
	state  SyncState
	failed error
}

// NewCheckpoint loads the persisted state from store.
func NewCheckpoint(ctx context.Context, store Store, emit Emitter) (*Checkpoint, error) {
	s, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading sync state: %w", err)
	}
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]string{}
	}

	if s.CurrentlySyncing != "" {
		appcontext.LoggerFromContext(ctx).WarnContext(ctx, "Previous sync was interrupted", "stream", s.CurrentlySyncing)
	}

	return &Checkpoint{store: store, emit: emit, state: s}, nil
}

// BeginStream marks name as the stream in progress.
func (c *Checkpoint) BeginStream(ctx context.Context, name string) error {
	return c.mutate(ctx, func(s *SyncState) { s.CurrentlySyncing = name })
}

// EndStream clears the stream in progress. It persists even when already
// idle.
func (c *Checkpoint) EndStream(ctx context.Context) error {
	return c.mutate(ctx, func(s *SyncState) { s.CurrentlySyncing = "" })
}

// SetBookmark records value as the bookmark for stream.
func (c *Checkpoint) SetBookmark(ctx context.Context, stream, value string) error {
	return c.mutate(ctx, func(s *SyncState) { s.Bookmarks[stream] = value })
}

// Bookmark returns the bookmark for stream, or def when none is stored.
func (c *Checkpoint) Bookmark(stream, def string) string {
	if v, ok := c.state.Bookmarks[stream]; ok {
		return v
	}

	return def
}

// CurrentlySyncing returns the stream in progress, or "" when idle.
func (c *Checkpoint) CurrentlySyncing() string {
	return c.state.CurrentlySyncing
}

// Snapshot returns a copy of the current state.
func (c *Checkpoint) Snapshot() SyncState {
	return c.state.Clone()
}

func (c *Checkpoint) mutate(ctx context.Context, apply func(s *SyncState)) error {
	if c.failed != nil {
		return fmt.Errorf("%w: %w", errCheckpointFailed, c.failed)
	}

	prev := c.state.Clone()
	apply(&c.state)

	if err := c.store.Save(ctx, c.state.Clone()); err != nil {
		c.state = prev
		c.failed = persistError(err)
		appcontext.LoggerFromContext(ctx).ErrorContext(ctx, "Failed to persist sync state", "error", err, "currentlySyncing", prev.CurrentlySyncing)
		return c.failed
	}

	if c.emit != nil {
		if err := c.emit(ctx, c.state.Clone()); err != nil {
			return fmt.Errorf("emitting sync state: %w", err)
		}
	}

	return nil
}
