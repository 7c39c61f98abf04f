package persistence

import (
	"testing"

	"github.com/clinicrx/backend/internal/infrastructure/config"
	"github.com/clinicrx/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("opens sqlite and creates the snapshot table", func(t *testing.T) {
		db := newSQLiteDatabase(t)

		assert.Equal(t, "sqlite", db.Driver)
		assert.NoError(t, db.Ping())
		assert.True(t, db.DB.Migrator().HasTable(&models.AppSnapshot{}))
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("postgres schema is left to migrations", func(t *testing.T) {
		gormDB, mock := newMockGormDB(t)
		db := &Database{DB: gormDB, Driver: "postgres"}

		require.NoError(t, db.EnsureSchema())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
