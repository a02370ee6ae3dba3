package domain

import (
	"errors"
	"time"
)

// Identity is a registered user as stored in the user directory.
// PasswordHash is never serialized outward; use Claims for anything leaving the service.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Claims holds the non-secret identity fields embedded in a token.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResult is the response of Register, Login, and VerifyAndRefresh.
type AuthResult struct {
	User  Claims `json:"user"`
	Token string `json:"token"`
}

// Claims returns the identity without its password hash.
func (i *Identity) Claims() Claims {
	return Claims{ID: i.ID, Email: i.Email, Name: i.Name}
}

// Validate validates the identity for persistence. Returns an error describing the first validation failure.
func (i *Identity) Validate() error {
	if i.ID == "" {
		return errors.New("id is required")
	}
	if i.Email == "" {
		return errors.New("email is required")
	}
	if i.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
