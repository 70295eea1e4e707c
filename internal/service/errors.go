// Package service holds the use cases that span more than one repository: review
// submission with aggregate recomputation and movie lifecycle.
package service

import (
	"errors"

	"github.com/Clark-Hu/cinemateca/internal/repository"
)

var (
	// ErrNotFound is returned when the target entity, or a parent it references, is missing.
	ErrNotFound = repository.ErrNotFound
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = repository.ErrConflict
	// ErrForbidden is returned when the actor does not own the entity.
	ErrForbidden = errors.New("service: forbidden")
	// ErrInvalidInput wraps input that passed decoding but violates a domain rule.
	ErrInvalidInput = errors.New("service: invalid input")
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID  string
	IsStaff bool
}
