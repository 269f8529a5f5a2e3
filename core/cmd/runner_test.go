package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	coretelegram "github.com/m3rciful/coursebot/core/telegram"
)

type stubConfig struct{ core *coreconfig.Config }

func (s stubConfig) CoreConfig() *coreconfig.Config { return s.core }

type stubApp struct{ opts coretelegram.RunOptions }

func (a stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, nil }

func TestRunWiresLifecycle(t *testing.T) {
	t.Setenv(DefaultConfigEnvVar, "from-env.yaml")

	var (
		loadedFrom string
		calls      []string
	)
	core := &coreconfig.Config{}
	err := Run(Options{
		DefaultConfigPath: "default.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedFrom = path
			return stubConfig{core: core}, nil
		},
		Bootstrap: func(cfg ConfigCarrier) (TelegramApp, error) {
			return stubApp{opts: coretelegram.RunOptions{
				Config: cfg.CoreConfig(),
				OnStart: func(context.Context, coretelegram.Runtime) error {
					calls = append(calls, "start")
					return nil
				},
				OnStop: func(context.Context, coretelegram.Runtime) error {
					calls = append(calls, "stop")
					return nil
				},
			}}, nil
		},
		ShutdownLogger: func() error {
			calls = append(calls, "logger")
			return nil
		},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			assert.Same(t, core, opts.Config)
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", loadedFrom)
	assert.Equal(t, []string{"start", "stop", "logger"}, calls)
}

func TestRunErrors(t *testing.T) {
	t.Setenv(DefaultConfigEnvVar, "")

	assert.ErrorIs(t, Run(Options{}), ErrMissingHook)

	noPath := Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return stubConfig{}, nil },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return stubApp{}, nil },
	}
	assert.ErrorIs(t, Run(noPath), ErrNoConfigPath)

	boom := errors.New("boom")
	failing := noPath
	failing.DefaultConfigPath = "config.yaml"
	failing.LoadConfig = func(string) (ConfigCarrier, error) { return nil, boom }
	assert.ErrorIs(t, Run(failing), boom)

	missingCore := noPath
	missingCore.DefaultConfigPath = "config.yaml"
	assert.ErrorIs(t, Run(missingCore), ErrNoCoreConfig)

	badBoot := noPath
	badBoot.DefaultConfigPath = "config.yaml"
	badBoot.LoadConfig = func(string) (ConfigCarrier, error) { return stubConfig{core: &coreconfig.Config{}}, nil }
	badBoot.Bootstrap = func(ConfigCarrier) (TelegramApp, error) { return nil, boom }
	assert.ErrorIs(t, Run(badBoot), boom)
}

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv("COURSEBOT_CONFIG", "env.yaml")
	opts := Options{ConfigPath: "flag.yaml", ConfigEnvVar: "COURSEBOT_CONFIG", DefaultConfigPath: "default.yaml"}

	path, err := opts.configPath()
	require.NoError(t, err)
	assert.Equal(t, "flag.yaml", path)

	opts.ConfigPath = " "
	path, err = opts.configPath()
	require.NoError(t, err)
	assert.Equal(t, "env.yaml", path)

	t.Setenv("COURSEBOT_CONFIG", "")
	path, err = opts.configPath()
	require.NoError(t, err)
	assert.Equal(t, "default.yaml", path)
}

func TestStartHookErrorStopsReadyLog(t *testing.T) {
	boom := errors.New("boom")
	opts := coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { return boom },
	}
	withLifecycleLogs(&opts, time.Now())
	assert.ErrorIs(t, opts.OnStart(context.Background(), coretelegram.Runtime{}), boom)
	assert.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
}
