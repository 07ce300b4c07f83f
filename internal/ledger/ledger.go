// Package ledger adapts the shared append-only trade ledger.
//
// The ledger is the source of truth binding a document fingerprint to the
// declared value and market reference it was submitted with. A
// fingerprint is written at most once; a successful Commit is the
// durability point of record and cannot be altered by either the
// submitter or the validator afterwards.
//
// Two implementations of the Ledger interface are provided:
//   - MemoryLedger: in-process, for testing and development.
//   - PostgresLedger: durable, for production use.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/GangaMannan/CustomsClearnace/internal/risk"
	"github.com/google/uuid"
)

var (
	// ErrUnreachable means the ledger backend could not be reached.
	// Transient; the caller may retry the commit or lookup.
	ErrUnreachable = errors.New("ledger unreachable")

	// ErrRejected means the ledger refused the commit: the fingerprint
	// is already recorded with different values, the submitter lacks
	// authorization, or the record is malformed. Permanent for this
	// input; retrying without change will fail again.
	ErrRejected = errors.New("ledger rejected commit")
)

// Record is one immutable ledger row, keyed by document fingerprint.
// Declared values and market references are integer currency units; no
// fractional precision, so an immutable record never suffers float drift.
type Record struct {
	Fingerprint     fingerprint.Fingerprint `json:"fingerprint"`
	DeclaredValue   int64                   `json:"declared_value"`
	MarketReference int64                   `json:"market_reference"`
	Status          risk.Channel            `json:"status"`
	Submitter       string                  `json:"submitter,omitempty"`
	RecordedAt      time.Time               `json:"recorded_at"`
}

// Receipt proves a commit was durably recorded.
type Receipt struct {
	ID          uuid.UUID               `json:"id"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	RecordedAt  time.Time               `json:"recorded_at"`

	// Reused is true when an identical record already existed and the
	// commit was absorbed as an idempotent retry.
	Reused bool `json:"reused"`
}

// Ledger is the capability interface over the shared trade ledger.
type Ledger interface {
	// Commit appends rec. First writer wins: committing a fingerprint
	// that already exists succeeds idempotently when declared value and
	// market reference match the stored record, and fails with
	// ErrRejected when they differ.
	Commit(ctx context.Context, rec Record) (*Receipt, error)

	// Lookup returns the record for fp, or ok=false when the fingerprint
	// was never committed. Absence is an expected outcome — an
	// unregistered or fraudulent document — and is never an error.
	Lookup(ctx context.Context, fp fingerprint.Fingerprint) (*Record, bool, error)

	// Len returns the total number of records.
	Len(ctx context.Context) (int, error)
}
