package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/migrations"
)

const readyTimeout = 30 * time.Second

// MigrationResult reports the schema version before and after a run and
// the up files applied in between.
type MigrationResult struct {
	From    uint64
	To      uint64
	Applied []string
	Took    time.Duration
}

// RunMigrations applies the embedded up migrations for cfg's driver.
func RunMigrations(cfg Config) error {
	_, err := ApplyMigrations(cfg, migrations.FS)
	return err
}

// ApplyMigrations applies the up migrations found under the driver's
// directory of fsys. No pending migration is not an error.
func ApplyMigrations(cfg Config, fsys fs.FS) (MigrationResult, error) {
	var res MigrationResult
	if err := cfg.Normalize(); err != nil {
		return res, err
	}
	if err := WaitReady(cfg, readyTimeout, readyInterval); err != nil {
		logger.MIG.Error("db not ready", slog.String("event", "db.migrate"), slog.String("err", err.Error()))
		return res, err
	}

	files := listMigrationFiles(fsys, cfg.Driver)
	logResolved(cfg.Driver, files)

	src, err := iofs.New(fsys, cfg.Driver)
	if err != nil {
		return res, fmt.Errorf("open %s migrations: %w", cfg.Driver, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
	if err != nil {
		logger.MIG.Error("init failed", slog.String("event", "db.migrate"), slog.String("err", err.Error()))
		return res, fmt.Errorf("init migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	res.From = currentVersion(m)
	start := time.Now()
	upErr := m.Up()
	res.Took = logger.RoundMS(time.Since(start))
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", res.Took),
		)
		return res, fmt.Errorf("apply migrations: %w", upErr)
	}
	res.To = currentVersion(m)
	res.Applied = selectApplied(files, res.From, res.To)

	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", res.From),
		slog.Uint64("to_ver", res.To),
		slog.Int("files", len(res.Applied)),
		slog.Duration("duration", res.Took),
	)
	return res, nil
}

// currentVersion is 0 for a database that has never been migrated.
func currentVersion(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

func logResolved(driver string, files []string) {
	attrs := []any{
		slog.String("event", "resolve"),
		slog.String("driver", driver),
		slog.Int("files_total", len(files)),
	}
	preview, truncated := logger.SummarizeStrings(files, 6)
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if truncated {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	logger.MIG.Debug("migrations resolved", attrs...)
}

// listMigrationFiles returns the sorted *.up.sql names directly under dir.
func listMigrationFiles(fsys fs.FS, dir string) []string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// parseVersion reads the numeric prefix of a migration file name.
func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	if to <= from {
		return nil
	}
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
