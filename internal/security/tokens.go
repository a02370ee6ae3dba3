package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-ms/internal/identity/domain"
)

var (
	// ErrInvalidToken is returned when a token is malformed, badly signed, or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSigning is returned when a token cannot be produced (missing secret, serialization failure).
	ErrSigning = errors.New("token signing failed")
)

// IdentityClaims holds the JWT claims for an identity token.
type IdentityClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithIssuer sets the iss claim on issued tokens and requires it on verification.
func WithIssuer(issuer string) TokenOption {
	return func(p *TokenIssuer) { p.issuer = issuer }
}

// WithClock overrides the time source used for iat/exp and for expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(p *TokenIssuer) {
		if now != nil {
			p.now = now
		}
	}
}

// TokenIssuer issues and validates stateless HS256 identity tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer returns a TokenIssuer that signs with secret and stamps exp = iat + ttl.
func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...TokenOption) *TokenIssuer {
	p := &TokenIssuer{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TTL returns the configured token lifetime.
func (p *TokenIssuer) TTL() time.Duration {
	return p.ttl
}

// Issue signs claims into a token with issued-at = now and expiry = now + TTL,
// rounded up to the next whole second.
func (p *TokenIssuer) Issue(claims domain.Claims) (string, error) {
	if len(p.secret) == 0 {
		return "", fmt.Errorf("%w: secret is not configured", ErrSigning)
	}
	jti, err := generateJTI()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	// NumericDate has one-second precision: iat rounds down, exp rounds up, so the
	// token is valid for at least ttl.
	now := p.now().UTC()
	exp := now.Add(p.ttl)
	if whole := exp.Truncate(time.Second); whole.Before(exp) {
		exp = whole.Add(time.Second)
	}
	c := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   claims.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now.Truncate(time.Second)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: claims.ID,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return token, nil
}

// Verify parses and validates the token (signature, algorithm, exp, and iss when configured).
// Returns the identity claims without the temporal fields, or ErrInvalidToken.
func (p *TokenIssuer) Verify(tokenString string) (domain.Claims, error) {
	c, err := p.parse(tokenString)
	if err != nil {
		return domain.Claims{}, err
	}
	return domain.Claims{ID: c.UserID, Email: c.Email, Name: c.Name}, nil
}

// ExpiresAt returns the expiry of a valid token.
func (p *TokenIssuer) ExpiresAt(tokenString string) (time.Time, error) {
	c, err := p.parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return c.ExpiresAt.Time, nil
}

// parse checks signature and algorithm with the jwt library, then applies the
// temporal and issuer rules itself: a token is expired only once now > exp.
func (p *TokenIssuer) parse(tokenString string) (*IdentityClaims, error) {
	if len(p.secret) == 0 {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || p.now().After(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}
	if p.issuer != "" && claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
