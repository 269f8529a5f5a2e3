// Package bootstrap prepares the infrastructure a bot needs before it starts
// serving updates: logging, schema and the database pool.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	coredatabase "github.com/m3rciful/coursebot/core/database"
	"github.com/m3rciful/coursebot/core/logger"
)

// ErrNilConfig is returned when Run is called without core configuration.
var ErrNilConfig = errors.New("bootstrap: nil config provided")

// Stage names reported in StageError.
const (
	StageLogger   = "logger"
	StageDBConfig = "db_config"
	StageMigrate  = "migrate"
	StageConnect  = "connect"
)

// StageError reports which bootstrap stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("bootstrap: %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
	// Database is the normalized configuration the pool was opened with.
	Database coredatabase.Config
}

// Close releases the database pool.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, applies migrations and connects to the database.
// Migrations run before the pool is opened so a sqlite file is created with
// its schema in place before the store starts using it.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, ErrNilConfig
	}
	opts.defaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, &StageError{Stage: StageLogger, Err: err}
	}

	dbCfg := opts.Database
	if err := dbCfg.Normalize(); err != nil {
		return nil, &StageError{Stage: StageDBConfig, Err: err}
	}

	if !dbCfg.SkipMigrations {
		if err := timed(StageMigrate, dbCfg.Driver, func() error { return opts.Migrate(dbCfg) }); err != nil {
			return nil, err
		}
	}

	var db *sqlx.DB
	err := timed(StageConnect, dbCfg.Driver, func() (err error) {
		db, err = opts.Connect(dbCfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Result{DB: db, Database: dbCfg}, nil
}

func timed(stage, driver string, fn func() error) error {
	start := time.Now()
	err := fn()
	attrs := []slog.Attr{
		slog.String("stage", stage),
		slog.String("driver", driver),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.Error(logger.Background(), "bootstrap", "bootstrap.stage", attrs...)
		return &StageError{Stage: stage, Err: err}
	}
	logger.Debug(logger.Background(), "bootstrap", "bootstrap.stage", append(attrs, slog.String("status", "ok"))...)
	return nil
}
