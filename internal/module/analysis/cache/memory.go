package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

type memoryEntry struct {
	est       meal.Estimate
	writtenAt time.Time
}

// memoryStore is a process-local Store for tests and redis-less deployments.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory result cache with lazy TTL expiry.
func NewMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (*meal.Estimate, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(entry.writtenAt) > s.ttl {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	est := entry.est
	return &est, true, nil
}

func (s *memoryStore) Put(_ context.Context, key string, est *meal.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; exists {
		// First write wins.
		return nil
	}
	s.entries[key] = memoryEntry{est: *est, writtenAt: s.now()}
	return nil
}

var _ Store = (*memoryStore)(nil)
