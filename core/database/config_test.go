package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 10, cfg.MaxConnections)
}

func TestNormalizeSQLite(t *testing.T) {
	cfg := Config{Driver: " SQLite ", MaxConnections: 8}
	assert.Error(t, cfg.Normalize())

	cfg.Path = "/tmp/bot.db"
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, 1, cfg.MaxConnections)
	assert.Equal(t, "/tmp/bot.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.DSN())
	assert.Equal(t, "sqlite:///tmp/bot.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.MigrateURL())
}

func TestNormalizeUnknownDriver(t *testing.T) {
	cfg := Config{Driver: "mysql"}
	assert.Error(t, cfg.Normalize())
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{User: "bot", Password: "secret", Host: "db", Port: "5432", Name: "courses"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, "user=bot password=secret host=db port=5432 dbname=courses sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://bot:secret@db:5432/courses?sslmode=disable", cfg.MigrateURL())
}
