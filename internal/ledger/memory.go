package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/google/uuid"
)

// MemoryLedger is an in-memory, thread-safe Ledger implementation. It is
// primarily useful for testing and for single-process deployments that do
// not require durable persistence across restarts.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[fingerprint.Fingerprint]*Record
}

// New creates an empty MemoryLedger.
func New() *MemoryLedger {
	return &MemoryLedger{records: make(map[fingerprint.Fingerprint]*Record)}
}

// Commit implements Ledger.
func (l *MemoryLedger) Commit(_ context.Context, rec Record) (*Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.records[rec.Fingerprint]; ok {
		if existing.DeclaredValue != rec.DeclaredValue || existing.MarketReference != rec.MarketReference {
			return nil, fmt.Errorf("%w: fingerprint %s already recorded with different values", ErrRejected, rec.Fingerprint)
		}
		return &Receipt{
			ID:          uuid.New(),
			Fingerprint: rec.Fingerprint,
			RecordedAt:  existing.RecordedAt,
			Reused:      true,
		}, nil
	}

	rec.RecordedAt = time.Now().UTC()
	stored := rec
	l.records[rec.Fingerprint] = &stored

	return &Receipt{
		ID:          uuid.New(),
		Fingerprint: rec.Fingerprint,
		RecordedAt:  rec.RecordedAt,
	}, nil
}

// Lookup implements Ledger.
func (l *MemoryLedger) Lookup(_ context.Context, fp fingerprint.Fingerprint) (*Record, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[fp]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	return &cp, true, nil
}

// Len implements Ledger.
func (l *MemoryLedger) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records), nil
}
