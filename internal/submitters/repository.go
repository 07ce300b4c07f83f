package submitters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the storage interface consumed by Service.
type Repository interface {
	Create(ctx context.Context, s *Submitter) error
	GetByName(ctx context.Context, name string) (*Submitter, error)
	List(ctx context.Context) ([]*Submitter, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// PostgresRepository stores submitter accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new submitter account. Sets ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, s *Submitter) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()

	q := `
		INSERT INTO submitters (id, name, secret_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, q, s.ID, s.Name, s.SecretHash, s.Active, s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return fmt.Errorf("create submitter: %w", err)
	}
	return nil
}

// GetByName retrieves a submitter account by its unique name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Submitter, error) {
	q := `SELECT id, name, secret_hash, active, created_at FROM submitters WHERE name = $1`
	var s Submitter
	err := r.db.QueryRow(ctx, q, name).Scan(&s.ID, &s.Name, &s.SecretHash, &s.Active, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get submitter: %w", err)
	}
	return &s, nil
}

// List returns all submitter accounts ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Submitter, error) {
	q := `SELECT id, name, secret_hash, active, created_at FROM submitters ORDER BY name`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list submitters: %w", err)
	}
	defer rows.Close()

	var out []*Submitter
	for rows.Next() {
		var s Submitter
		if err := rows.Scan(&s.ID, &s.Name, &s.SecretHash, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submitter: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// SetActive enables or disables an account.
func (r *PostgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.db.Exec(ctx, `UPDATE submitters SET active = $2 WHERE id = $1`, id, active)
	return err
}

// MemoryRepository is an in-memory Repository for tests and standalone mode.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*Submitter
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*Submitter)}
}

func (r *MemoryRepository) Create(_ context.Context, s *Submitter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[s.Name]; ok {
		return ErrDuplicateName
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	cp := *s
	r.accounts[s.Name] = &cp
	return nil
}

func (r *MemoryRepository) GetByName(_ context.Context, name string) (*Submitter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.accounts[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*Submitter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Submitter, 0, len(r.accounts))
	for _, s := range r.accounts {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.accounts {
		if s.ID == id {
			s.Active = active
			return nil
		}
	}
	return ErrNotFound
}
