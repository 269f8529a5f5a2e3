// Package cmd runs a Telegram application from config file to shutdown.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/logger"
	coretelegram "github.com/m3rciful/coursebot/core/telegram"
)

// DefaultConfigEnvVar names the variable holding the config file path.
const DefaultConfigEnvVar = "CONFIG_PATH"

var (
	// ErrMissingHook is returned when LoadConfig or Bootstrap is nil.
	ErrMissingHook = errors.New("cmd: LoadConfig and Bootstrap are required")
	// ErrNoConfigPath is returned when no source names a config file.
	ErrNoConfigPath = errors.New("cmd: no config path")
	// ErrNoCoreConfig is returned when the loaded config has no core section.
	ErrNoCoreConfig = errors.New("cmd: loaded config is missing core configuration")
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// ConfigPath wins over ConfigEnvVar, which wins over DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error

	// Context is the parent of the signal-aware run context. Defaults to context.Background.
	Context context.Context
}

func (o Options) configPath() (string, error) {
	env := o.ConfigEnvVar
	if env == "" {
		env = DefaultConfigEnvVar
	}
	for _, p := range []string{o.ConfigPath, os.Getenv(env), o.DefaultConfigPath} {
		if p = strings.TrimSpace(p); p != "" {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: set -config, %s or a default", ErrNoConfigPath, env)
}

// Run loads configuration, bootstraps the app and blocks in the Telegram
// runtime until SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return ErrMissingHook
	}
	path, err := opts.configPath()
	if err != nil {
		return err
	}

	log.Printf("loading config: %s", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: load config %s: %w", path, err)
	}
	if cfg == nil || cfg.CoreConfig() == nil {
		return ErrNoCoreConfig
	}

	application, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	withLifecycleLogs(&runOpts, time.Now())

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

// withLifecycleLogs logs "ready" after the app's OnStart hook succeeds and
// "shutdown" before its OnStop hook runs.
func withLifecycleLogs(opts *coretelegram.RunOptions, startedAt time.Time) {
	start, stop := opts.OnStart, opts.OnStop
	opts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if start != nil {
			if err := start(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready",
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}
	opts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if stop != nil {
			return stop(ctx, rt)
		}
		return nil
	}
}
