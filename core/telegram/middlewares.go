package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// RateLimitFrom maps the rate_limit section of cfg. It reports false when
// limiting is disabled.
func RateLimitFrom(cfg *coreconfig.Config, onLimited tele.HandlerFunc) (middleware.RateLimitOptions, bool) {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return middleware.RateLimitOptions{}, false
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		if kind = strings.ToLower(strings.TrimSpace(kind)); kind != "" {
			exclude[kind] = struct{}{}
		}
	}
	return middleware.RateLimitOptions{
		Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:   exclude,
		OnLimited: onLimited,
	}, true
}

// MiddlewareHooks are optional replies sent by the default chain.
type MiddlewareHooks struct {
	// OnLimited answers an update dropped by the rate limiter.
	OnLimited tele.HandlerFunc
	// OnPanic answers an update whose handler panicked.
	OnPanic tele.HandlerFunc
}

// DefaultMiddlewares returns the global chain: panic recovery, optional rate
// limiting, request logging and message metrics, in that order.
func DefaultMiddlewares(cfg *coreconfig.Config, hooks MiddlewareHooks) []Middleware {
	chain := []Middleware{{Name: "recover", Use: middleware.Recover(hooks.OnPanic)}}
	if opts, ok := RateLimitFrom(cfg, hooks.OnLimited); ok {
		chain = append(chain, Middleware{Name: "rate_limit", Use: middleware.RateLimitMiddleware(opts)})
	}
	return append(chain,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
