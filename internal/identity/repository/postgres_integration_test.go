//go:build integration

package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"auth-ms/internal/db"
	"auth-ms/internal/db/migrate"
	"auth-ms/internal/identity/domain"
	"auth-ms/internal/identity/repository"
)

func setupPostgres(t *testing.T) *repository.PostgresRepository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("auth_test"),
		postgres.WithUsername("auth"),
		postgres.WithPassword("auth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migrate.Run(connStr, "up"))

	pool, err := db.Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return repository.NewPostgresRepository(pool)
}

func TestPostgresRepository_Integration(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	got, err := repo.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	ann := &domain.Identity{
		ID:           "u1",
		Email:        "ann@x.com",
		Name:         "Ann",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, ann))

	got, err = repo.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ann.ID, got.ID)
	assert.Equal(t, ann.PasswordHash, got.PasswordHash)
	assert.True(t, ann.CreatedAt.Equal(got.CreatedAt))

	// Emails are case-sensitive as stored.
	got, err = repo.FindByEmail(ctx, "ANN@x.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	dup := *ann
	dup.ID = "u2"
	err = repo.Create(ctx, &dup)
	assert.True(t, errors.Is(err, repository.ErrDuplicateKey), "err = %v", err)
}

func TestPostgresRepository_ConcurrentCreate(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &domain.Identity{
				ID:           string(rune('a' + i)),
				Email:        "race@x.com",
				PasswordHash: "$2a$10$hash",
				CreatedAt:    time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, errors.Is(err, repository.ErrDuplicateKey), "err = %v", err)
	}
	assert.Equal(t, 1, created)
}
