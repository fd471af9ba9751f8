package dialog

import (
	"context"
	"sync"
)

// MemoryStateStore keeps snapshots in process memory. Suitable for tests
// and single-node development; production uses the Redis store.
type MemoryStateStore struct {
	mu        sync.Mutex
	snapshots map[string]*Snapshot
}

// NewMemoryStateStore constructs the store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{snapshots: map[string]*Snapshot{}}
}

// Load fetches the active snapshot, or nil when none exists.
func (s *MemoryStateStore) Load(_ context.Context, conversationID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.snapshots[conversationID]
	if !ok {
		return nil, nil
	}
	copied := *snapshot
	return &copied, nil
}

// Save stores the snapshot under the conversation key.
func (s *MemoryStateStore) Save(_ context.Context, conversationID string, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *snapshot
	s.snapshots[conversationID] = &copied
	return nil
}

// Clear tears down the conversation's dialog state.
func (s *MemoryStateStore) Clear(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, conversationID)
	return nil
}
