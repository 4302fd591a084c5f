package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
)

func setupPostgres(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	const (
		pgUser     = "test"
		pgPassword = "test"
		pgDB       = "shortlink"
	)

	pgCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDB,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := pgCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgCont.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", pgUser, pgPassword, host, port.Int(), pgDB)
}

func setupShortLinkRepository(t *testing.T) (*ShortLinkRepository, *sqlx.DB) {
	t.Helper()

	dsn := setupPostgres(t)

	if err := postgres.RunMigrations(dsn); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := postgres.New(context.Background(), dsn, postgres.Pool{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	return NewShortLinkRepository(db), db
}

func TestShortLinkRepository_Integration(t *testing.T) {
	repo, db := setupShortLinkRepository(t)
	ctx := context.Background()

	t.Cleanup(func() {
		db.Exec(`TRUNCATE TABLE short_links RESTART IDENTITY CASCADE`)
	})

	t.Run("create and find", func(t *testing.T) {
		created, err := repo.Create(ctx, "abcdefgh", "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "abcdefgh", created.ShortID)
		assert.False(t, created.CreatedAt.IsZero())

		byURL, err := repo.FindByURL(ctx, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "abcdefgh", byURL.ShortID)

		_, err = repo.FindByURL(ctx, "https://example.com/")
		assert.ErrorIs(t, err, entity.ErrShortLinkNotFound)
	})

	t.Run("constraints", func(t *testing.T) {
		_, err := repo.Create(ctx, "abcdefgh", "https://other.example.com")
		assert.ErrorIs(t, err, entity.ErrShortIDExists)

		_, err = repo.Create(ctx, "hgfedcba", "https://example.com")
		assert.ErrorIs(t, err, entity.ErrRedirectURLExists)
	})

	t.Run("append visits", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 1; i <= 20; i++ {
			wg.Add(1)
			go func(ts int64) {
				defer wg.Done()
				link, err := repo.FindAndAppendVisit(ctx, "abcdefgh", entity.Visit{Timestamp: ts})
				assert.NoError(t, err)
				assert.Equal(t, "https://example.com", link.RedirectURL)
			}(int64(i))
		}
		wg.Wait()

		link, err := repo.FindByShortID(ctx, "abcdefgh")
		require.NoError(t, err)
		assert.Len(t, link.Visits, 20)

		_, err = repo.FindAndAppendVisit(ctx, "zzzzzzzz", entity.Visit{Timestamp: 1})
		assert.ErrorIs(t, err, entity.ErrShortLinkNotFound)
	})
}
