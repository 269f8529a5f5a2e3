// Package config loads the course bot configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	coredatabase "github.com/m3rciful/coursebot/core/database"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

const (
	defaultSessionTTLSeconds = 1800
	defaultLockTimeoutMS     = 5000
)

// SessionConfig selects where dialogue sessions live.
type SessionConfig struct {
	Backend       string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTLSeconds    int    `yaml:"ttl_seconds" envconfig:"SESSION_TTL_SECONDS"`
	LockTimeoutMS int    `yaml:"lock_timeout_ms" envconfig:"SESSION_LOCK_TIMEOUT_MS"`
}

// TTL returns the session lifetime; zero disables expiry.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// LockTimeout bounds how long a message waits for the user's previous message.
func (s SessionConfig) LockTimeout() time.Duration {
	return time.Duration(s.LockTimeoutMS) * time.Millisecond
}

// RedisConfig holds the Redis connection used by the redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
	Redis    RedisConfig         `yaml:"redis"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads YAML and environment overrides, then validates every section.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	if c.Session.Backend == "" {
		c.Session.Backend = SessionMemory
	}
	switch c.Session.Backend {
	case SessionMemory:
	case SessionRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("%w: redis.addr is required when session.backend is 'redis'", coreconfig.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: session.backend %q; allowed: memory, redis", coreconfig.ErrInvalidConfig, c.Session.Backend)
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = defaultSessionTTLSeconds
	}
	if c.Session.TTLSeconds < 0 {
		return fmt.Errorf("%w: session.ttl_seconds must be >= 0", coreconfig.ErrInvalidConfig)
	}
	if c.Session.LockTimeoutMS <= 0 {
		c.Session.LockTimeoutMS = defaultLockTimeoutMS
	}
	return nil
}
