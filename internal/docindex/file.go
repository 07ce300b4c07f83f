package docindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
)

// FileIndex persists the bridge table as an append-only JSONL file, one
// entry per line, so operators can audit the mapping with standard text
// tools. The full table is replayed into memory at open; writes append a
// line and fsync before acknowledging.
type FileIndex struct {
	path    string
	mu      sync.Mutex
	f       *os.File
	entries map[fingerprint.Fingerprint]string
}

type fileIndexEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Locator     string    `json:"locator"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewFileIndex opens or creates the index file at path, creating parent
// directories as needed, and replays existing entries.
func NewFileIndex(path string) (*FileIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty index path", ErrUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create index dir: %v", ErrUnavailable, err)
	}

	entries := make(map[fingerprint.Fingerprint]string)
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: read index: %v", ErrUnavailable, err)
	}
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		var e fileIndexEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("%w: corrupt index line: %v", ErrUnavailable, err)
		}
		fp, err := fingerprint.Parse(e.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt index line: %v", ErrUnavailable, err)
		}
		if existing, ok := entries[fp]; ok && existing != e.Locator {
			// Two different locators on disk for one fingerprint means
			// the file was tampered with or merged badly. Refuse to
			// serve from it.
			return nil, fmt.Errorf("%w: %s maps to both %s and %s", ErrConflict, e.Fingerprint, existing, e.Locator)
		}
		entries[fp] = e.Locator
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open index: %v", ErrUnavailable, err)
	}
	return &FileIndex{path: path, f: f, entries: entries}, nil
}

// Put implements Index.
func (i *FileIndex) Put(_ context.Context, fp fingerprint.Fingerprint, locator string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if existing, ok := i.entries[fp]; ok {
		if existing == locator {
			return nil
		}
		return fmt.Errorf("%w: %s already maps to %s", ErrConflict, fp, existing)
	}

	line, err := json.Marshal(fileIndexEntry{
		Fingerprint: fp.String(),
		Locator:     locator,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	line = append(line, '\n')

	if _, err := i.f.Write(line); err != nil {
		return fmt.Errorf("%w: append index entry: %v", ErrUnavailable, err)
	}
	if err := i.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync index: %v", ErrUnavailable, err)
	}
	i.entries[fp] = locator
	return nil
}

// Get implements Index.
func (i *FileIndex) Get(_ context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	locator, ok := i.entries[fp]
	return locator, ok, nil
}

// Close closes the underlying file.
func (i *FileIndex) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.f == nil {
		return nil
	}
	err := i.f.Close()
	i.f = nil
	return err
}
