// Package app wires configuration, storage, sessions and the router into a
// runnable Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/coursebot/core/bootstrap"
	corecmd "github.com/m3rciful/coursebot/core/cmd"
	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/metrics"
	coretelegram "github.com/m3rciful/coursebot/core/telegram"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	"github.com/m3rciful/coursebot/core/telegram/router"
	"github.com/m3rciful/coursebot/internal/bot"
	"github.com/m3rciful/coursebot/internal/config"
	"github.com/m3rciful/coursebot/internal/dialogue"
	"github.com/m3rciful/coursebot/internal/session"
	"github.com/m3rciful/coursebot/internal/storage"
)

const rateLimitedText = "You are sending messages too fast. Please wait a moment."

// App holds the long-lived dependencies of the bot.
type App struct {
	cfg *config.Config
	db  *sqlx.DB
	rdb *redis.Client

	store    *storage.SQLStore
	sessions session.Store
	memory   *session.MemoryStore
	locker   session.Locker
	router   *bot.Router

	stopBackground context.CancelFunc
}

// Bootstrap is the cmd.Options.Bootstrap hook: it initialises the logger,
// migrates and connects the database, then builds the App.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, res.DB)
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	return a, nil
}

// LoadConfig is the cmd.Options.LoadConfig hook.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// New builds the App on an open database handle.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	a := &App{cfg: cfg, db: db, store: storage.NewSQLStore(db)}

	switch cfg.Session.Backend {
	case config.SessionRedis:
		rdb, err := NewRedis(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("app: redis: %w", err)
		}
		a.rdb = rdb
		a.sessions = session.NewRedisStore(rdb, "", cfg.Session.TTL())
		a.locker = session.NewRedisLocker(rdb, cfg.Session.LockTimeout())
	default:
		a.memory = session.NewMemoryStore(cfg.Session.TTL())
		a.sessions = a.memory
		a.locker = session.NewMemoryLocker(cfg.Session.LockTimeout())
	}

	engine := dialogue.NewEngine(a.store, a.sessions)
	a.router = bot.NewRouter(engine, a.sessions, a.locker, cfg.Telegram.AdminID)

	logger.Sessions.Info("sessions ready",
		slog.String("event", "session.init"),
		slog.String("backend", cfg.Session.Backend),
		slog.Int("ttl_seconds", cfg.Session.TTLSeconds),
	)
	return a, nil
}

// Router exposes the message router.
func (a *App) Router() *bot.Router { return a.router }

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.router.RegisterCommands(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: register commands: %w", err)
	}

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.TextRoutes(a.router.TeleHandler(), router.TextOptions{
		HandlerName:     "dialogue",
		UnknownDocument: bot.UnknownDocument,
	})...)

	middlewares := coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), coretelegram.MiddlewareHooks{
		OnLimited: onRateLimited,
		OnPanic:   a.router.OnPanic,
	})

	return coretelegram.RunOptions{
		Config:       a.cfg.CoreConfig(),
		Registry:     reg,
		Middlewares:  middlewares,
		Routes:       routes,
		UpdateFilter: coretelegram.FromUsers,
		OnStart:      a.onStart,
		OnStop:       a.onStop,
	}, nil
}

func onRateLimited(c tele.Context) error {
	return tghelpers.SendText(c, rateLimitedText)
}

func (a *App) onStart(_ context.Context, _ coretelegram.Runtime) error {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopBackground = cancel

	if a.memory != nil {
		go a.memory.RunSweeper(ctx, time.Minute)
	}
	if listen := a.cfg.Metrics.Listen; listen != "" {
		go func() {
			if err := metrics.Serve(ctx, listen); err != nil {
				logger.Error(ctx, "metrics", "metrics.serve",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
		}()
	}
	return nil
}

func (a *App) onStop(_ context.Context, _ coretelegram.Runtime) error {
	return a.Close()
}

// Close stops background work and releases Redis and the database.
func (a *App) Close() error {
	if a.stopBackground != nil {
		a.stopBackground()
		a.stopBackground = nil
	}
	var errs []error
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		a.rdb = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
		a.db = nil
	}
	return errors.Join(errs...)
}
