// Package bot routes inbound messages to the dialogue engine.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/commands"
	"github.com/m3rciful/coursebot/internal/dialogue"
	"github.com/m3rciful/coursebot/internal/session"
)

// Slash commands understood by the router.
const (
	CommandStart  = "/start"
	CommandHelp   = "/help"
	CommandCancel = "/cancel"
	CommandStats  = "/stats"
)

var cancelTexts = map[string]struct{}{
	CommandCancel:        {},
	"Cancel":             {},
	dialogue.LabelCancel: {},
}

// Router picks exactly one handler per message: cancel, then the active
// dialogue, then entry triggers, then static labels.
type Router struct {
	engine   *dialogue.Engine
	sessions session.Store
	locker   session.Locker
	adminID  int64
}

// NewRouter constructs a router. adminID 0 disables /stats.
func NewRouter(engine *dialogue.Engine, sessions session.Store, locker session.Locker, adminID int64) *Router {
	return &Router{engine: engine, sessions: sessions, locker: locker, adminID: adminID}
}

// Handle processes one message from userID and always returns a reply.
func (r *Router) Handle(ctx context.Context, userID int64, text string) dialogue.Reply {
	unlock, err := r.locker.Lock(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "router", "router.lock",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return r.engine.Failure()
	}
	defer unlock()

	reply, err := r.route(ctx, userID, strings.TrimSpace(text))
	if err != nil {
		logger.Error(ctx, "router", "router.failed",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return r.engine.Failure()
	}
	return reply
}

func (r *Router) route(ctx context.Context, userID int64, text string) (dialogue.Reply, error) {
	sess, err := r.sessions.Get(ctx, userID)
	if err != nil {
		return dialogue.Reply{}, err
	}

	if _, ok := cancelTexts[commandName(text)]; ok {
		if sess == nil {
			return r.engine.NothingToCancel(ctx, userID)
		}
		return r.engine.Cancel(ctx, sess)
	}

	if sess != nil {
		return r.engine.Continue(ctx, sess, text)
	}

	switch text {
	case dialogue.TriggerTeacher:
		return r.engine.SelectRole(ctx, userID, true)
	case dialogue.TriggerStudent:
		return r.engine.SelectRole(ctx, userID, false)
	case dialogue.TriggerAddCourse:
		return r.engine.StartCourse(ctx, userID)
	case dialogue.TriggerAllCourses:
		return r.engine.StartSelection(ctx, userID)
	case dialogue.TriggerCompleteProfile:
		return r.engine.StartProfile(ctx, userID)
	case dialogue.LabelMyCourses:
		return r.engine.MyCourses(ctx, userID)
	case dialogue.LabelHelp:
		return r.engine.Help(ctx, userID)
	}

	switch commandName(text) {
	case CommandStart:
		return r.engine.Start(ctx, userID)
	case CommandHelp:
		return r.engine.Help(ctx, userID)
	case CommandStats:
		if r.adminID == 0 || userID != r.adminID {
			return r.engine.Forbidden(), nil
		}
		return r.engine.Stats(ctx)
	}

	return r.engine.Unrecognized(ctx, userID)
}

// commandName returns the bare command of a slash message ("/start@bot x" -> "/start").
// Other text is returned unchanged.
func commandName(text string) string {
	if name, ok := commands.Name(text); ok {
		return name
	}
	return text
}
