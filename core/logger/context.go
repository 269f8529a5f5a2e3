package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	keyRID ctxKey = iota
	keyUpdateID
	keyUserID
	keyChatID
	keyLogger
	keyHandler
)

func withValue(ctx context.Context, key ctxKey, val any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, val)
}

func valueOf[T any](ctx context.Context, key ctxKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	if v, ok := ctx.Value(key).(T); ok {
		return v
	}
	return zero
}

// WithLogger stores log in ctx. A nil logger leaves ctx untouched.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withValue(ctx, keyLogger, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if log := valueOf[*slog.Logger](ctx, keyLogger); log != nil {
		return log
	}
	return L
}

// WithRID attaches a correlation id to ctx.
func WithRID(ctx context.Context, rid string) context.Context {
	return withValue(ctx, keyRID, rid)
}

// RIDFrom returns the correlation id stored in ctx.
func RIDFrom(ctx context.Context) string {
	return valueOf[string](ctx, keyRID)
}

// WithUpdateMeta attaches the Telegram update, user and chat identifiers to ctx.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	ctx = withValue(ctx, keyUpdateID, updateID)
	ctx = withValue(ctx, keyUserID, userID)
	return withValue(ctx, keyChatID, chatID)
}

// WithUserID attaches only the Telegram user id, for work that runs outside an update.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return withValue(ctx, keyUserID, userID)
}

// UserIDFrom returns the Telegram user id stored in ctx.
func UserIDFrom(ctx context.Context) int64 {
	return valueOf[int64](ctx, keyUserID)
}

// ChatIDFrom returns the chat id stored in ctx.
func ChatIDFrom(ctx context.Context) int64 {
	return valueOf[int64](ctx, keyChatID)
}

// UpdateIDFrom returns the update id stored in ctx.
func UpdateIDFrom(ctx context.Context) int {
	return valueOf[int](ctx, keyUpdateID)
}

// WithHandler names the handler serving the current update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withValue(ctx, keyHandler, handler)
}

// HandlerFrom returns the handler name stored in ctx.
func HandlerFrom(ctx context.Context) string {
	return valueOf[string](ctx, keyHandler)
}
