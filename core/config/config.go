package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// MetricsConfig configures the Prometheus exporter. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Load reads the core configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode fills dst from the YAML file at path, an optional .env file in the
// working directory, and environment variables (in that order of precedence,
// lowest first). dst must be a pointer to a struct.
func Decode(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// ErrInvalidConfig wraps every validation failure reported by Normalize.
var ErrInvalidConfig = errors.New("invalid config")

var (
	validate = validator.New()

	rateLimitUpdates = []string{UpdateCallback, UpdateMessage, UpdateInlineQuery}
)

// Normalize validates cfg and fills defaults. All problems are reported
// together, each wrapped in ErrInvalidConfig.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	return errors.Join(
		normalizeTelegram(cfg),
		normalizeRateLimit(&cfg.RateLimit),
		normalizeMetrics(&cfg.Metrics),
	)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}

func normalizeTelegram(cfg *Config) error {
	var errs []error
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		errs = append(errs, invalid("telegram token is required"))
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if mode == "" || mode == "polling" {
		mode = RunModeLongpoll
	}
	switch mode {
	case RunModeWebhook:
		wh := cfg.Webhook
		if validate.Var(wh.URL, "required,url") != nil {
			errs = append(errs, invalid("webhook.url must be an absolute URL when telegram.run_mode is 'webhook'"))
		}
		if strings.TrimSpace(wh.Listen) == "" {
			errs = append(errs, invalid("webhook.listen is required when telegram.run_mode is 'webhook'"))
		}
		if validate.Var(wh.Port, "gt=0,lte=65535") != nil {
			errs = append(errs, invalid("webhook.port must be in 1..65535 when telegram.run_mode is 'webhook'"))
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			errs = append(errs, invalid("telegram.longpoll_timeout_seconds must be >= 0"))
		}
	default:
		errs = append(errs, invalid("telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode))
	}
	cfg.Telegram.RunMode = mode
	return errors.Join(errs...)
}

func normalizeRateLimit(rl *RateLimitConfig) error {
	if rl.IntervalMS < 0 {
		return invalid("rate_limit.interval_ms must be >= 0")
	}
	kinds := rl.ExcludeUpdates[:0]
	for _, v := range rl.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if !slices.Contains(rateLimitUpdates, key) {
			return invalid("rate_limit.exclude_updates value %q; allowed: %s", v, strings.Join(rateLimitUpdates, ", "))
		}
		kinds = append(kinds, key)
	}
	rl.ExcludeUpdates = kinds
	return nil
}

func normalizeMetrics(m *MetricsConfig) error {
	m.Listen = strings.TrimSpace(m.Listen)
	if m.Listen != "" && validate.Var(m.Listen, "hostname_port") != nil {
		if !strings.HasPrefix(m.Listen, ":") || validate.Var(strings.TrimPrefix(m.Listen, ":"), "numeric") != nil {
			return invalid("metrics.listen %q must be host:port or :port", m.Listen)
		}
	}
	return nil
}
