package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenFingerprint returns a short, hex-encoded SHA-256 prefix of token.
// Used to correlate tokens in logs and events without recording the raw token.
func TokenFingerprint(token string) string {
	if token == "" {
		return ""
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:8])
}
