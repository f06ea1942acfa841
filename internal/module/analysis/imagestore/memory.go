package imagestore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	images map[string][]byte
}

// NewMemoryStore creates an empty in-memory image store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{images: make(map[string][]byte)}
}

// Add registers image bytes under a ref.
func (s *MemoryStore) Add(ref string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[ref] = data
}

// Fetch returns the bytes for a ref.
func (s *MemoryStore) Fetch(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.images[ref]
	if !ok {
		return nil, fmt.Errorf("image %q not found", ref)
	}
	return data, nil
}

var _ Store = (*MemoryStore)(nil)
