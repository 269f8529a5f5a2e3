package telegram

import (
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
	// Filter drops updates for which it returns false before any handler runs.
	Filter func(*tele.Update) bool
}

// PollerOptionsFrom maps the telegram and webhook sections of cfg.
func PollerOptionsFrom(cfg *coreconfig.Config) PollerOptions {
	if cfg == nil {
		return PollerOptions{}
	}
	return PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	}
}

// BuildPoller returns a webhook or long poller for opts, wrapped with
// opts.Filter when one is set.
func BuildPoller(opts PollerOptions) tele.Poller {
	var p tele.Poller
	if strings.EqualFold(strings.TrimSpace(opts.RunMode), coreconfig.RunModeWebhook) {
		p = &tele.Webhook{
			Listen:   net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	} else {
		timeout := defaultLongPollTimeout
		if opts.LongPollTimeoutSeconds > 0 {
			timeout = time.Duration(opts.LongPollTimeoutSeconds) * time.Second
		}
		p = &tele.LongPoller{Timeout: timeout}
	}
	if opts.Filter != nil {
		return tele.NewMiddlewarePoller(p, opts.Filter)
	}
	return p
}

// FromUsers keeps updates sent by a user: messages, edits and callbacks.
// Channel posts and service updates without a sender are dropped.
func FromUsers(u *tele.Update) bool {
	switch {
	case u == nil:
		return false
	case u.Message != nil:
		return u.Message.Sender != nil
	case u.EditedMessage != nil:
		return u.EditedMessage.Sender != nil
	case u.Callback != nil:
		return u.Callback.Sender != nil
	}
	return false
}

// describePoller returns the log attributes announcing the run mode.
func describePoller(p tele.Poller) []slog.Attr {
	if mw, ok := p.(*tele.MiddlewarePoller); ok {
		attrs := describePoller(mw.Poller)
		return append(attrs, slog.Bool("filtered", true))
	}
	switch p := p.(type) {
	case *tele.Webhook:
		return []slog.Attr{
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		}
	case *tele.LongPoller:
		return []slog.Attr{
			slog.String("mode", "polling"),
			slog.Int("timeout_seconds", int(p.Timeout/time.Second)),
		}
	}
	return []slog.Attr{slog.String("mode", "custom")}
}
