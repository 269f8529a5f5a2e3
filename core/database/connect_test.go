package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLite(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "bot.db")}
	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var fk int
	require.NoError(t, db.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestWaitReady(t *testing.T) {
	assert.NoError(t, WaitReady(Config{Driver: DriverSQLite, Path: "unused.db"}, 0, 0))
	assert.Error(t, WaitReady(Config{Driver: "mysql"}, 0, 0))

	unreachable := Config{Host: "127.0.0.1", Port: "1", User: "bot", Name: "bot"}
	err := WaitReady(unreachable, 0, time.Millisecond)
	assert.ErrorContains(t, err, "database not ready")
}

func TestLogAttrsOmitCredentials(t *testing.T) {
	cfg := Config{Driver: DriverPostgres, Host: "db", Port: "5432", User: "bot", Password: "secret", Name: "courses"}
	for _, a := range cfg.logAttrs() {
		assert.NotEqual(t, "secret", a.Value.String(), a.Key)
	}
	sqlite := Config{Driver: DriverSQLite, Path: "bot.db"}
	assert.Len(t, sqlite.logAttrs(), 2)
}
