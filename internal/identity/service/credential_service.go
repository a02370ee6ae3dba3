package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"auth-ms/internal/identity/domain"
	"auth-ms/internal/identity/repository"
	"auth-ms/internal/security"
	"auth-ms/internal/telemetry"
)

const eventSource = "credential_service"

// CredentialService implements register, login, and token refresh over a user directory.
// It holds no mutable state after construction and is safe for concurrent use.
type CredentialService struct {
	users   repository.Repository
	hasher  *security.Hasher
	tokens  *security.TokenIssuer
	emitter telemetry.EventEmitter
	newID   func() string
	now     func() time.Time
}

// Option configures a CredentialService.
type Option func(*CredentialService)

// WithEmitter sets the sink for auth events. Events are best-effort and never fail a request.
func WithEmitter(e telemetry.EventEmitter) Option {
	return func(s *CredentialService) { s.emitter = e }
}

// WithIDGenerator overrides how identity IDs are assigned (default: random UUIDv4).
func WithIDGenerator(gen func() string) Option {
	return func(s *CredentialService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewCredentialService returns a CredentialService with the given dependencies.
func NewCredentialService(users repository.Repository, hasher *security.Hasher, tokens *security.TokenIssuer, opts ...Option) *CredentialService {
	s := &CredentialService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an identity for email and returns its claims with a fresh token.
// An email that is already taken, whether seen up front or reported by the directory
// as a duplicate key on insert, yields ErrUserAlreadyExists.
func (s *CredentialService) Register(ctx context.Context, name, email, password string) (*domain.AuthResult, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.internal("register: find by email", err)
	}
	if existing != nil {
		s.emit(telemetry.EventRegisterConflict, existing.ID, email, nil)
		return nil, ErrUserAlreadyExists
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.internal("register: hash password", err)
	}
	identity := &domain.Identity{
		ID:           s.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.emit(telemetry.EventRegisterConflict, "", email, map[string]string{"detected_by": "directory"})
			return nil, wrap(ErrUserAlreadyExists, err)
		}
		return nil, s.internal("register: create identity", err)
	}
	result, err := s.issue(identity.Claims())
	if err != nil {
		return nil, s.internal("register: issue token", err)
	}
	s.emit(telemetry.EventUserRegistered, identity.ID, email, nil)
	return result, nil
}

// Login checks email and password and returns the identity's claims with a fresh token.
// An unknown email and a wrong password fail with the same ErrInvalidCredentials.
func (s *CredentialService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	identity, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.internal("login: find by email", err)
	}
	if identity == nil {
		s.emit(telemetry.EventLoginFailure, "", email, nil)
		return nil, ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		return nil, s.internal("login: verify password", err)
	}
	if !ok {
		s.emit(telemetry.EventLoginFailure, identity.ID, email, nil)
		return nil, ErrInvalidCredentials
	}
	result, err := s.issue(identity.Claims())
	if err != nil {
		return nil, s.internal("login: issue token", err)
	}
	s.emit(telemetry.EventLoginSuccess, identity.ID, email, nil)
	return result, nil
}

// VerifyAndRefresh validates token and returns its claims with a newly issued token.
// It is purely cryptographic and never reads the user directory, so every call to it
// slides the expiry forward.
func (s *CredentialService) VerifyAndRefresh(ctx context.Context, token string) (*domain.AuthResult, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.emit(telemetry.EventTokenRejected, "", "", map[string]string{"token_fp": security.TokenFingerprint(token)})
		return nil, wrap(ErrInvalidToken, err)
	}
	result, err := s.issue(claims)
	if err != nil {
		return nil, s.internal("refresh: issue token", err)
	}
	s.emit(telemetry.EventTokenRefreshed, claims.ID, claims.Email, map[string]string{
		"token_fp":     security.TokenFingerprint(token),
		"new_token_fp": security.TokenFingerprint(result.Token),
	})
	return result, nil
}

func (s *CredentialService) issue(claims domain.Claims) (*domain.AuthResult, error) {
	token, err := s.tokens.Issue(claims)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{User: claims, Token: token}, nil
}

// internal logs cause and returns ErrInternal wrapping it.
func (s *CredentialService) internal(op string, cause error) *Error {
	log.Printf("auth: %s: %v", op, cause)
	s.emit(telemetry.EventInternalError, "", "", map[string]string{"op": op})
	return wrap(ErrInternal, cause)
}

func (s *CredentialService) emit(eventType, userID, email string, meta map[string]string) {
	if s.emitter == nil {
		return
	}
	telemetry.EmitAsync(s.emitter, &telemetry.Event{
		Type:     eventType,
		UserID:   userID,
		Email:    email,
		Source:   eventSource,
		Metadata: meta,
	})
}
