// Package submitters manages the exporter accounts allowed to anchor
// documents. An account authenticates with its API secret and receives a
// short-lived submitter token for the submission endpoints.
package submitters

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a submitter account does not exist.
	ErrNotFound = errors.New("submitter not found")

	// ErrDuplicateName is returned when an account name is taken.
	ErrDuplicateName = errors.New("submitter name already registered")
)

// Submitter is one exporter account.
type Submitter struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SecretHash string    `json:"-"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
