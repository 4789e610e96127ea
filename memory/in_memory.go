package memory

import (
	"context"
	"sync"
)

// InMemoryStore keeps conversation records in process memory, keyed by the
// actor/session namespace. Suitable for tests and single-process demos.
//
// Concurrency: protected by RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string][]Record),
	}
}

// LoadRecent implements Store. It returns the last limit records for the
// scope in chronological order; limit <= 0 returns the full history.
func (s *InMemoryStore) LoadRecent(_ context.Context, actorID, sessionID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.records[Namespace(actorID, sessionID)]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]Record, len(history))
	copy(out, history)

	return out, nil
}

// Append implements Store.
func (s *InMemoryStore) Append(_ context.Context, actorID, sessionID string, records ...Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := Namespace(actorID, sessionID)
	s.records[ns] = append(s.records[ns], records...)

	return nil
}

// Len returns the number of records stored for the scope.
func (s *InMemoryStore) Len(actorID, sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records[Namespace(actorID, sessionID)])
}
