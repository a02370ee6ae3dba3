package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedHash is returned by Verify and Cost when the stored hash is not a bcrypt hash.
var ErrMalformedHash = errors.New("malformed password hash")

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Zero or negative
// selects bcrypt.DefaultCost; out-of-range values are clamped.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the work factor new hashes are produced with.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of password with a fresh random salt. The result
// embeds salt and cost, so Verify needs nothing else. Passwords longer than 72
// bytes are rejected by bcrypt.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash using bcrypt's constant-time
// comparison. A mismatch is (false, nil); only a hash that is not a valid bcrypt
// hash yields an error. Passwords over 72 bytes never match: Hash refuses them, and
// bcrypt would otherwise compare only their first 72 bytes.
func (h *Hasher) Verify(password, hash string) (bool, error) {
	if len(password) > maxPasswordBytes {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// HashCost returns the cost embedded in a stored bcrypt hash.
func HashCost(hash string) (int, error) {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return c, nil
}
