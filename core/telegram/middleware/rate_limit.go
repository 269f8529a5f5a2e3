package middleware

import (
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// pruneEvery is the number of admitted updates between sweeps of stale users.
const pruneEvery = 1024

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now is used by tests; defaults to time.Now.
	Now func() time.Time
}

// limiter admits at most one update per user within interval.
type limiter struct {
	interval time.Duration

	mu       sync.Mutex
	seen     map[int64]time.Time
	admitted int
}

func newLimiter(interval time.Duration) *limiter {
	return &limiter{interval: interval, seen: make(map[int64]time.Time)}
}

func (l *limiter) allow(userID int64, ts time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.seen[userID]; ok && ts.Sub(last) < l.interval {
		return false
	}
	l.seen[userID] = ts
	l.admitted++
	if l.admitted%pruneEvery == 0 {
		l.prune(ts)
	}
	return true
}

// prune forgets users whose last update is older than interval. l.mu is held.
func (l *limiter) prune(ts time.Time) {
	for id, last := range l.seen {
		if ts.Sub(last) >= l.interval {
			delete(l.seen, id)
		}
	}
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user. Limited updates are dropped after
// OnLimited runs.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	return rateLimit(opts, newLimiter(opts.Interval))
}

func rateLimit(opts RateLimitOptions, lim *limiter) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if lim.allow(user.ID, now()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.Int64("user_id", user.ID),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}
