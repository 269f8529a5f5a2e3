package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/coursebot/migrations"
)

func TestListMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"sqlite/000002_b.up.sql":   {},
		"sqlite/000001_a.up.sql":   {},
		"sqlite/000001_a.down.sql": {},
		"sqlite/nested/x.up.sql":   {},
	}
	assert.Equal(t, []string{"000001_a.up.sql", "000002_b.up.sql"}, listMigrationFiles(fsys, "sqlite"))
	assert.Nil(t, listMigrationFiles(fsys, "postgres"))
}

func TestEmbeddedMigrationsPerDriver(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		files := listMigrationFiles(migrations.FS, driver)
		assert.Contains(t, files, "000001_init.up.sql", driver)
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}
	assert.Equal(t, []string{"000002_b.up.sql", "000003_c.up.sql"}, selectApplied(files, 1, 3))
	assert.Nil(t, selectApplied(files, 3, 3))
	assert.Equal(t, uint64(12), parseVersion("000012_x.up.sql"))
	assert.Equal(t, uint64(0), parseVersion("garbage"))
}

func TestApplyMigrationsSQLite(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "bot.db")}
	require.NoError(t, cfg.Normalize())

	first, err := ApplyMigrations(cfg, migrations.FS)
	require.NoError(t, err)
	assert.Zero(t, first.From)
	assert.Positive(t, first.To)
	assert.Contains(t, first.Applied, "000001_init.up.sql")

	again, err := ApplyMigrations(cfg, migrations.FS)
	require.NoError(t, err, "no pending migrations is not a failure")
	assert.Equal(t, first.To, again.From)
	assert.Equal(t, first.To, again.To)
	assert.Empty(t, again.Applied)
}

func TestApplyMigrationsMissingDir(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "bot.db")}
	_, err := ApplyMigrations(cfg, fstest.MapFS{})
	assert.Error(t, err)
}
