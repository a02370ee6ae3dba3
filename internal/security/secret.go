package security

import (
	"errors"
	"os"
	"strings"
)

// ErrInvalidSecret is returned when the signing secret is empty or unreadable.
var ErrInvalidSecret = errors.New("invalid signing secret")

// LoadSecret returns the HS256 signing secret. s is either the secret itself or
// "file:" followed by a path whose trimmed contents are the secret.
func LoadSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidSecret
	}
	path, ok := strings.CutPrefix(s, "file:")
	if !ok {
		return []byte(s), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	secret := []byte(strings.TrimSpace(string(b)))
	if len(secret) == 0 {
		return nil, ErrInvalidSecret
	}
	return secret, nil
}
