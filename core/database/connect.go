package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/coursebot/core/logger"
)

const (
	connectTimeout = 5 * time.Second
	readyInterval  = 2 * time.Second
)

// Connect opens a pool for cfg and pings it before returning.
func Connect(cfg Config) (*sqlx.DB, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	took := logger.RoundMS(time.Since(start))
	if err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelError, "db connect failed",
			append(cfg.logAttrs(), slog.String("event", "db.connect"),
				slog.Duration("duration", took),
				slog.String("err", err.Error()))...,
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.DB.LogAttrs(ctx, slog.LevelInfo, "db connected",
		append(cfg.logAttrs(), slog.String("event", "db.connect"),
			slog.Int("pool_open", cfg.MaxConnections),
			slog.Duration("duration", took))...,
	)
	return db, nil
}

// WaitReady pings cfg's database every interval until it answers or timeout
// passes. The embedded sqlite driver is always ready.
func WaitReady(cfg Config, timeout, interval time.Duration) error {
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if cfg.Driver == DriverSQLite {
		return nil
	}
	if interval <= 0 {
		interval = readyInterval
	}
	deadline := time.Now().Add(timeout)
	for {
		err := pingOnce(cfg)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database not ready after %s: %w", timeout, err)
		}
		time.Sleep(interval)
	}
}

func pingOnce(cfg Config) error {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

// logAttrs describes the target database without credentials.
func (c Config) logAttrs() []slog.Attr {
	if c.Driver == DriverSQLite {
		return []slog.Attr{slog.String("driver", c.Driver), slog.String("db", c.Path)}
	}
	return []slog.Attr{
		slog.String("driver", c.Driver),
		slog.String("host", c.Host),
		slog.String("port", c.Port),
		slog.String("db", c.Name),
	}
}
