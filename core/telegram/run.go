package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ErrNilConfig is returned by RunTelegram when RunOptions.Config is nil.
var ErrNilConfig = errors.New("telegram: nil config provided")

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool
	// UpdateFilter, when set, drops updates before they reach middlewares.
	UpdateFilter func(*tele.Update) bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Registry *Registry
}

// RunTelegram builds the bot, wires middlewares and routes, and serves
// updates until ctx is done. OnStop runs after the bot has stopped.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return ErrNilConfig
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(ctx, opts)
	if err != nil {
		return err
	}
	rt := Runtime{Bot: bot, Registry: opts.Registry}
	wire(bot, opts)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}
	runErr := serve(ctx, bot)
	if opts.OnStop != nil {
		if err := opts.OnStop(context.Background(), rt); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func newBot(ctx context.Context, opts RunOptions) (*tele.Bot, error) {
	cfg := opts.Config
	pollerOpts := PollerOptionsFrom(cfg)
	pollerOpts.Filter = opts.UpdateFilter
	poller := BuildPoller(pollerOpts)

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(),
		OnError: logBotError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	attrs := append(describePoller(poller),
		slog.String("event", "mode"),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "mode", attrs...)

	if _, webhook := poller.(*tele.Webhook); !webhook && !opts.DisableWebhookCleanup {
		if err := deleteWebhook(ctx, http.DefaultClient, apiURL(cfg.Telegram.Token), false); err != nil {
			logger.Warn(ctx, "tg", "delete_webhook",
				slog.String("mode", "polling"),
				slog.String("err", logger.SanitizeLimit(redactToken(err.Error()), 256)),
			)
		}
	}
	return bot, nil
}

// wire registers middlewares before routes; telebot binds the global chain
// when a route is added.
func wire(bot *tele.Bot, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	InitBotCommands(bot, opts.Registry)
}

// serve runs the poller until ctx is done or the bot stops on its own.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func logBotError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		if stored, ok := tghelpers.ContextFrom(c); ok {
			ctx = stored
		}
	}
	logger.Error(ctx, "tg", "bot.error", slog.String("err", logger.SanitizeLimit(redactToken(err.Error()), 256)))
}

func apiURL(token string) string {
	if strings.TrimSpace(token) == "" {
		return ""
	}
	return "https://api.telegram.org/bot" + token
}

// deleteWebhook clears a webhook left by a previous webhook deployment so
// long polling receives updates.
func deleteWebhook(parent context.Context, client *http.Client, base string, dropPending bool) error {
	if base == "" {
		return errors.New("empty token")
	}
	form := url.Values{"drop_pending_updates": {fmt.Sprint(dropPending)}}
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/deleteWebhook", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
