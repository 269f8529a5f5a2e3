package helpers

import (
	"context"

	"github.com/m3rciful/coursebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	contextKey = "logger_ctx"
	ridKey     = "rid"
)

// Update identifies the sender and chat of a telebot update. Zero ids mean
// the update carried no sender or chat (channel posts, service messages).
type Update struct {
	ID     int
	UserID int64
	ChatID int64
}

// UpdateOf extracts the identifiers of the update behind c.
func UpdateOf(c tele.Context) Update {
	var u Update
	if c == nil {
		return u
	}
	u.ID = c.Update().ID
	if sender := c.Sender(); sender != nil {
		u.UserID = sender.ID
	}
	if chat := c.Chat(); chat != nil {
		u.ChatID = chat.ID
	}
	return u
}

// StoreContext caches ctx on c for the handlers further down the chain.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context cached by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the cached context of c, creating one on first use.
// A new context carries the rid, the update ids and the tg component logger.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	u := UpdateOf(c)
	rid, _ := c.Get(ridKey).(string)
	if rid == "" {
		rid = logger.BuildRID(u.ID, u.ChatID, u.UserID)
	}
	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, u.ID, u.UserID, u.ChatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler names the handler in the cached context of c.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
