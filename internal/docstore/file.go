package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fileLocatorPrefix distinguishes FileStore locators from other schemes.
const fileLocatorPrefix = "sha256-"

// FileStore is a digest-sharded on-disk content store for deployments
// without an IPFS daemon. Locators take the form "sha256-<hex>"; objects
// live at <root>/<first two hex chars>/<remaining hex>.
type FileStore struct {
	root string
}

// NewFileStore creates the store root if needed and returns a FileStore.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create store root: %v", ErrUnavailable, err)
	}
	return &FileStore{root: root}, nil
}

// Store implements Store. Re-storing existing bytes is a no-op that
// returns the same locator.
func (s *FileStore) Store(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	locator := fileLocatorPrefix + digest
	path := s.objectPath(digest)

	if _, err := os.Stat(path); err == nil {
		return locator, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Write to a temp file and rename so a crashed write never leaves a
	// partial object under its final name.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".partial-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrWriteRejected, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return locator, nil
}

// Fetch implements Store.
func (s *FileStore) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	digest, ok := strings.CutPrefix(locator, fileLocatorPrefix)
	if !ok || len(digest) != sha256.Size*2 {
		return nil, fmt.Errorf("%w: malformed locator %q", ErrNotFound, locator)
	}

	data, err := os.ReadFile(s.objectPath(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// objectPath shards objects by the first digest byte to keep directory
// fan-out bounded.
func (s *FileStore) objectPath(digest string) string {
	return filepath.Join(s.root, digest[:2], digest[2:])
}
