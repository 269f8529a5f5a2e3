package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/metrics"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	"github.com/m3rciful/coursebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

const (
	statusOK   = "ok"
	statusFail = "fail"
	statusSkip = "skip"
)

// summarized runs h under name and logs one handler.handled line with its
// status, duration and the number of messages it sent. A nil h is logged as
// skipped.
func summarized(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		tghelpers.WithHandler(c, name)
		if h == nil {
			logSummary(c, name, statusSkip, time.Since(start), nil)
			return nil
		}
		err := h(c)
		status := statusOK
		if err != nil {
			status = statusFail
		}
		logSummary(c, name, status, time.Since(start), err)
		return err
	}
}

func logSummary(c tele.Context, name, status string, took time.Duration, err error) {
	metrics.ObserveHandler(name, status, took)

	msgs, kb := middleware.GetCounters(c)
	outcome := statusOK
	if err != nil {
		outcome = statusFail
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", took),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	ctx := tghelpers.WithHandler(c, name)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

// handlerName turns a command such as "/Start" into "start".
func handlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// errorCode prefers an explicit Code() on err and falls back to its type name.
func errorCode(err error) string {
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		if code := strings.TrimSpace(coder.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	name := fmt.Sprintf("%T", err)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(strings.TrimLeft(name, "*"))
}
