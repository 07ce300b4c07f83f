package submitters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GangaMannan/CustomsClearnace/internal/identity"
)

// ErrInvalidCredentials is returned when the name or secret is wrong, or
// the account is disabled. The caller cannot tell which, on purpose.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service implements account management and token exchange for submitters.
type Service struct {
	repo   Repository
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(repo Repository, tokens *identity.TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Register creates a new active submitter account with the given API secret.
func (s *Service) Register(ctx context.Context, name, secret string) (*Submitter, error) {
	if name == "" || secret == "" {
		return nil, fmt.Errorf("name and secret are required")
	}
	if len(secret) < 12 {
		return nil, fmt.Errorf("secret must be at least 12 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	acct := &Submitter{
		Name:       name,
		SecretHash: string(hash),
		Active:     true,
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("submitter account registered",
		zap.String("submitter", acct.Name),
		zap.String("id", acct.ID.String()),
	)
	return acct, nil
}

// Authenticate verifies a name/secret pair and returns a signed submitter
// token with its expiry. Disabled accounts fail the same way as bad secrets.
func (s *Service) Authenticate(ctx context.Context, name, secret string) (string, time.Time, error) {
	acct, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("lookup account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.SecretHash), []byte(secret)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if !acct.Active {
		return "", time.Time{}, ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(acct.Name)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return tok, time.Now().UTC().Add(s.tokens.TTL()), nil
}

// List returns all submitter accounts.
func (s *Service) List(ctx context.Context) ([]*Submitter, error) {
	return s.repo.List(ctx)
}
