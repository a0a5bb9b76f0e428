package state

import (
	"context"
	"sync"
)

// MemoryStore keeps the state in memory. Saves counts successful writes.
type MemoryStore struct {
	mu    sync.Mutex
	state SyncState
	Saves int
	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

func NewMemoryStore(initial SyncState) *MemoryStore {
	return &MemoryStore{state: initial.Clone()}
}

func (m *MemoryStore) Load(_ context.Context) (SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s SyncState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = s.Clone()
	m.Saves++
	return nil
}
