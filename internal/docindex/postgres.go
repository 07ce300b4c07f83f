package docindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresIndex persists the bridge table to PostgreSQL. Rows are never
// updated or deleted; the fingerprint primary key plus ON CONFLICT DO
// NOTHING makes the conflict-check-then-write race-safe — when two
// submitters race on the same fingerprint, exactly one insert wins and
// the loser re-reads the winning row to decide no-op versus conflict.
type PostgresIndex struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresIndex creates a PostgresIndex backed by the given pool.
func NewPostgresIndex(db *pgxpool.Pool, logger *zap.Logger) *PostgresIndex {
	return &PostgresIndex{db: db, logger: logger}
}

// Put implements Index.
func (i *PostgresIndex) Put(ctx context.Context, fp fingerprint.Fingerprint, locator string) error {
	tag, err := i.db.Exec(ctx,
		`INSERT INTO document_index (fingerprint, locator, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (fingerprint) DO NOTHING`,
		fp.String(), locator, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert index entry: %v", ErrUnavailable, err)
	}
	if tag.RowsAffected() == 1 {
		i.logger.Debug("index entry written",
			zap.String("fingerprint", fp.String()),
			zap.String("locator", locator),
		)
		return nil
	}

	// Insert lost to an existing row; entries are immutable so the read
	// below sees the row that won.
	var existing string
	if err := i.db.QueryRow(ctx,
		`SELECT locator FROM document_index WHERE fingerprint = $1`, fp.String(),
	).Scan(&existing); err != nil {
		return fmt.Errorf("%w: read existing index entry: %v", ErrUnavailable, err)
	}
	if existing != locator {
		return fmt.Errorf("%w: %s already maps to %s", ErrConflict, fp, existing)
	}
	return nil
}

// Get implements Index.
func (i *PostgresIndex) Get(ctx context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	var locator string
	err := i.db.QueryRow(ctx,
		`SELECT locator FROM document_index WHERE fingerprint = $1`, fp.String(),
	).Scan(&locator)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read index entry: %v", ErrUnavailable, err)
	}
	return locator, true, nil
}
