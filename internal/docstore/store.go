// Package docstore adapts the external content-addressed store that holds
// the actual document bytes. The ledger never stores bytes or locators —
// only fingerprints — so this adapter plus the docindex bridge is the only
// path from a verified fingerprint back to a document.
//
// Three implementations of the Store interface are provided:
//   - IPFSStore: talks to an IPFS node over its HTTP RPC, for production.
//   - FileStore: digest-sharded on-disk store, for daemonless deployments.
//   - MemoryStore: in-process, for testing.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the backing service could not be reached or
	// failed mid-operation. Transient; callers may retry.
	ErrUnavailable = errors.New("document store unavailable")

	// ErrWriteRejected means the service refused the write (quota,
	// malformed request). Permanent for this input; do not blindly retry.
	ErrWriteRejected = errors.New("document store rejected write")

	// ErrNotFound means the locator is unknown to the store.
	ErrNotFound = errors.New("document not found in store")
)

// Store persists document bytes in a content-addressed backend. The
// locator is a deterministic function of the stored bytes under a scheme
// the backend controls — it is not assumed equal to the document
// fingerprint used as the ledger key.
type Store interface {
	// Store persists data and returns its locator. Storing identical
	// bytes again returns the same locator without duplicating data;
	// the adapter relies on the backend's content addressing for this
	// rather than re-implementing it.
	Store(ctx context.Context, data []byte) (string, error)

	// Fetch returns the exact bytes previously stored under locator.
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// GatewayURLer is implemented by backends that can render a locator as a
// publicly retrievable URL for receipts and verification results.
type GatewayURLer interface {
	GatewayURL(locator string) string
}
