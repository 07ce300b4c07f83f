// Package docindex implements the fingerprint→locator bridge table.
//
// Ledger records carry no locator, so this index is the only way to turn
// a verified fingerprint back into retrievable bytes. It is the one piece
// of durable state the service owns directly. An entry is written exactly
// once per fingerprint; deterministic hashing means a re-submission of
// identical bytes reproduces the same pair and is a safe no-op, while a
// different locator for an existing fingerprint is an integrity violation
// that must surface loudly, never be overwritten.
//
// Three implementations of the Index interface are provided:
//   - PostgresIndex: durable, for production use.
//   - FileIndex: append-only JSONL file, human-inspectable for audit.
//   - MemoryIndex: in-process, for testing.
package docindex

import (
	"context"
	"errors"

	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
)

var (
	// ErrUnavailable means the index storage failed. Transient; callers
	// may retry. A missing key is never reported as this error.
	ErrUnavailable = errors.New("document index unavailable")

	// ErrConflict means the fingerprint is already mapped to a different
	// locator. A conflicting put would let a client confuse a validator
	// about which bytes back a fingerprint, so it is always rejected.
	ErrConflict = errors.New("document index conflict")
)

// Index durably maps document fingerprints to content-store locators.
type Index interface {
	// Put records fp→locator. Re-putting the identical pair succeeds as
	// a no-op; a different locator for an existing fingerprint fails
	// with ErrConflict. The conflict check and the write are atomic with
	// respect to concurrent puts of the same fingerprint.
	Put(ctx context.Context, fp fingerprint.Fingerprint, locator string) error

	// Get returns the locator for fp. A missing key is (_, false, nil),
	// not an error; ErrUnavailable is reserved for genuine I/O failure.
	Get(ctx context.Context, fp fingerprint.Fingerprint) (string, bool, error)
}
