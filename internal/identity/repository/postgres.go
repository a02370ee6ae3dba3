package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"auth-ms/internal/identity/domain"
)

// usersEmailKey is the unique constraint on users.email (see migrations).
const usersEmailKey = "users_email_key"

// Querier is the subset of *pgxpool.Pool used by PostgresRepository; pgxmock satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores identities in the users table.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository returns an identity repository that uses the given pool for persistence.
func NewPostgresRepository(p Querier) *PostgresRepository {
	return &PostgresRepository{pool: p}
}

// FindByEmail returns the identity with the given email, or nil if not found.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	var i domain.Identity
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users WHERE email = $1
	`, email).Scan(&i.ID, &i.Email, &i.Name, &i.PasswordHash, &i.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_FAILED").With("operation", "find user by email").Wrap(err)
	}
	return &i, nil
}

// Create inserts the identity. A unique violation on email is reported as ErrDuplicateKey.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	if err := i.Validate(); err != nil {
		return oops.Code("USER_CREATE_INVALID").Wrap(err)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, i.ID, i.Email, i.Name, i.PasswordHash, i.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation &&
			(pgErr.ConstraintName == "" || pgErr.ConstraintName == usersEmailKey) {
			return oops.Code("USER_DUPLICATE_EMAIL").
				With("constraint", pgErr.ConstraintName).
				Wrapf(ErrDuplicateKey, "user already exists")
		}
		return oops.Code("USER_CREATE_FAILED").With("id", i.ID).Wrap(err)
	}
	return nil
}
