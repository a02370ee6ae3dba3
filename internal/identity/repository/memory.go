package repository

import (
	"context"
	"sync"

	"auth-ms/internal/identity/domain"
)

// MemoryRepository is an in-process user directory for local development and tests.
// Email uniqueness is enforced under the lock, so concurrent Creates for one email
// see exactly one success and ErrDuplicateKey for the rest.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Identity
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]domain.Identity)}
}

// FindByEmail returns a copy of the identity with the given email, or nil if not found.
func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

// Create stores a copy of the identity, or returns ErrDuplicateKey if the email is taken.
func (r *MemoryRepository) Create(ctx context.Context, i *domain.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := i.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[i.Email]; ok {
		return ErrDuplicateKey
	}
	r.byEmail[i.Email] = *i
	return nil
}

// Len returns the number of stored identities.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}
