package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store implementation for tests
// and single-process development. Locators take the form "mem-<hex>".
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Store implements Store.
func (s *MemoryStore) Store(_ context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	locator := "mem-" + hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[locator]; !ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		s.objects[locator] = cp
	}
	return locator, nil
}

// Fetch implements Store.
func (s *MemoryStore) Fetch(_ context.Context, locator string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[locator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Len returns the number of distinct stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
