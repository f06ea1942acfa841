package quota

import (
	"context"
	"sync"
	"time"
)

// memoryStore is a process-local Store for tests and redis-less deployments.
type memoryStore struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryStore creates an in-memory usage store.
func NewMemoryStore() Store {
	return &memoryStore{counts: make(map[string]int)}
}

func (s *memoryStore) Usage(_ context.Context, userID string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[usageKey(userID, day)], nil
}

func (s *memoryStore) Increment(_ context.Context, userID string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := usageKey(userID, day)
	s.counts[key]++
	return s.counts[key], nil
}

var _ Store = (*memoryStore)(nil)
