package docindex

import (
	"context"
	"fmt"
	"sync"

	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
)

// MemoryIndex is an in-memory, thread-safe Index implementation for tests
// and single-process development.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[fingerprint.Fingerprint]string
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[fingerprint.Fingerprint]string)}
}

// Put implements Index.
func (i *MemoryIndex) Put(_ context.Context, fp fingerprint.Fingerprint, locator string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if existing, ok := i.entries[fp]; ok {
		if existing == locator {
			return nil
		}
		return fmt.Errorf("%w: %s already maps to %s", ErrConflict, fp, existing)
	}
	i.entries[fp] = locator
	return nil
}

// Get implements Index.
func (i *MemoryIndex) Get(_ context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	locator, ok := i.entries[fp]
	return locator, ok, nil
}

// Len returns the number of entries.
func (i *MemoryIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}
