package repository

import (
	"context"
	"errors"

	"auth-ms/internal/identity/domain"
)

// ErrDuplicateKey is returned by Create when an identity with the same email already exists.
// Callers treat it exactly like a pre-existing user found by FindByEmail.
var ErrDuplicateKey = errors.New("duplicate key")

// Repository is the user directory: durable identities keyed by email.
// Any error other than ErrDuplicateKey is a storage failure.
type Repository interface {
	// FindByEmail returns the identity with the given email, or nil if none exists.
	// It returns an error only for storage failures, not for missing rows.
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	// Create persists the identity if its email is not taken; otherwise it returns ErrDuplicateKey.
	// The identity must have ID set; it is not assigned by this method.
	Create(ctx context.Context, i *domain.Identity) error
}
