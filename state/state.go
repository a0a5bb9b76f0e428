// Package state holds the persisted sync checkpoint and the stores it is
// written through to.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// ErrPersist is returned when a checkpoint could not be written to its store.
var ErrPersist = errors.New("failed to persist sync state")

// SyncState is the process-wide checkpoint. CurrentlySyncing is empty when
// no stream is in progress; a missing bookmark means the stream was never
// synced.
type SyncState struct {
	Bookmarks        map[string]string `json:"bookmarks,omitempty" bson:"bookmarks,omitempty"`
	CurrentlySyncing string            `json:"currently_syncing,omitempty" bson:"currently_syncing,omitempty"`
}

// Clone returns a deep copy of s.
func (s SyncState) Clone() SyncState {
	out := SyncState{CurrentlySyncing: s.CurrentlySyncing}
	if s.Bookmarks != nil {
		out.Bookmarks = maps.Clone(s.Bookmarks)
	}

	return out
}

// Store loads and saves a SyncState. Save must be durable before it returns.
type Store interface {
	Load(ctx context.Context) (SyncState, error)
	Save(ctx context.Context, s SyncState) error
}

// Decode parses a persisted state document. Empty input yields an empty state.
func Decode(data []byte) (SyncState, error) {
	var s SyncState
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return SyncState{}, fmt.Errorf("decoding sync state: %w", err)
	}

	return s, nil
}

// Encode renders s in its persisted layout.
func Encode(s SyncState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding sync state: %w", err)
	}

	return data, nil
}

func persistError(err error) error {
	return fmt.Errorf("%w: %w", ErrPersist, err)
}
