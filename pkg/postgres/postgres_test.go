package postgres

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_apply(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { mockDB.Close() })

		db := sqlx.NewDb(mockDB, "sqlmock")
		Pool{}.apply(db)

		assert.Equal(t, defaultPool.MaxOpenConns, db.Stats().MaxOpenConnections)
	})

	t.Run("custom", func(t *testing.T) {
		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { mockDB.Close() })

		db := sqlx.NewDb(mockDB, "sqlmock")
		Pool{MaxOpenConns: 3, ConnMaxLifetime: time.Minute}.apply(db)

		assert.Equal(t, 3, db.Stats().MaxOpenConnections)
	})
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	assert.Contains(t, names, "000001_create_short_links.up.sql")
	assert.Contains(t, names, "000001_create_short_links.down.sql")
}
