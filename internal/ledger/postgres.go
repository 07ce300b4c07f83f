package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/GangaMannan/CustomsClearnace/internal/risk"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresLedger persists ledger records to PostgreSQL. The fingerprint
// is the primary key and rows are never updated or deleted, so the table
// behaves as the append-only keyed store the protocol assumes. Duplicate
// commits are decided by ON CONFLICT DO NOTHING plus a re-read of the
// winning row, which is race-safe without explicit locking because rows
// are immutable once written.
type PostgresLedger struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresLedger creates a PostgresLedger backed by the given pool.
func NewPostgresLedger(db *pgxpool.Pool, logger *zap.Logger) *PostgresLedger {
	return &PostgresLedger{db: db, logger: logger}
}

// Commit implements Ledger.
func (l *PostgresLedger) Commit(ctx context.Context, rec Record) (*Receipt, error) {
	rec.RecordedAt = time.Now().UTC()

	tag, err := l.db.Exec(ctx,
		`INSERT INTO ledger_records (fingerprint, declared_value, market_reference, status, submitter, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (fingerprint) DO NOTHING`,
		rec.Fingerprint.String(), rec.DeclaredValue, rec.MarketReference,
		string(rec.Status), rec.Submitter, rec.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert record: %v", ErrUnreachable, err)
	}

	if tag.RowsAffected() == 0 {
		existing, ok, err := l.Lookup(ctx, rec.Fingerprint)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Rows are never deleted, so a lost insert always leaves a
			// row to read.
			return nil, fmt.Errorf("%w: record for %s vanished", ErrUnreachable, rec.Fingerprint)
		}
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

	l.logger.Debug("ledger record committed",
		zap.String("fingerprint", rec.Fingerprint.String()),
		zap.Int64("declared_value", rec.DeclaredValue),
		zap.String("status", string(rec.Status)),
	)
	return &Receipt{
		ID:          uuid.New(),
		Fingerprint: rec.Fingerprint,
		RecordedAt:  rec.RecordedAt,
	}, nil
}

// Lookup implements Ledger.
func (l *PostgresLedger) Lookup(ctx context.Context, fp fingerprint.Fingerprint) (*Record, bool, error) {
	rec := &Record{}
	var fpHex, status string
	err := l.db.QueryRow(ctx,
		`SELECT fingerprint, declared_value, market_reference, status, submitter, recorded_at
		 FROM ledger_records WHERE fingerprint = $1`, fp.String(),
	).Scan(&fpHex, &rec.DeclaredValue, &rec.MarketReference, &status, &rec.Submitter, &rec.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: lookup record: %v", ErrUnreachable, err)
	}

	parsed, err := fingerprint.Parse(fpHex)
	if err != nil {
		return nil, false, fmt.Errorf("%w: corrupt fingerprint column: %v", ErrUnreachable, err)
	}
	rec.Fingerprint = parsed
	rec.Status = risk.Channel(status)
	return rec, true, nil
}

// Len implements Ledger.
func (l *PostgresLedger) Len(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count records: %v", ErrUnreachable, err)
	}
	return n, nil
}
