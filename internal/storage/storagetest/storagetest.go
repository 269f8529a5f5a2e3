// Package storagetest opens migrated SQLite databases for tests.
package storagetest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/coursebot/core/database"
)

// Open creates a fresh SQLite file under t.TempDir, applies the embedded
// migrations and returns a connected handle closed on cleanup.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := coredatabase.Config{
		Driver: coredatabase.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "coursebot.db"),
	}
	require.NoError(t, coredatabase.RunMigrations(cfg))
	db, err := coredatabase.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
