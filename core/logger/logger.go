// Package logger provides the process wide structured logger and the
// component loggers used by the bot.
package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/coursebot/core/buildinfo"
	coreconfig "github.com/m3rciful/coursebot/core/config"
)

var (
	initOnce sync.Once
	closeMu  sync.Mutex
	out      *fanout

	stdout io.Writer = os.Stdout

	levelVar     slog.LevelVar
	debugSampler = newSampler(1, 50)
	traceAll     bool

	// L is the base logger. It is slog.Default() until InitLogger runs.
	L *slog.Logger

	// DB logs database connection events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// Sessions logs dialogue session store events.
	Sessions *slog.Logger
)

func init() {
	L = slog.Default()
	wireComponents()
}

// settings is the resolved form of the logging section of the config.
type settings struct {
	level     slog.Level
	format    logFormat
	order     []string
	sampleNum int
	sampleDen int
	trace     bool
	profile   string
	file      string
}

func resolveSettings(cfg *coreconfig.Config, getenv func(string) string) settings {
	s := settings{
		level:     slog.LevelInfo,
		format:    formatJSON,
		order:     defaultKeyOrder,
		sampleNum: 1,
		sampleDen: 50,
		profile:   "prod",
	}
	if getenv != nil {
		s.trace = truthy(getenv("TRACE")) || truthy(getenv("LOG_TRACE"))
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}
	if order := splitKeys(lc.KeysOrder); len(order) > 0 {
		s.order = order
	}
	if num, den, ok := parseRatio(lc.DebugSample); ok {
		s.sampleNum, s.sampleDen = num, den
	}
	dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile)
	if dir != "" && name != "" {
		s.file = filepath.Join(dir, name)
	}
	return s
}

func splitKeys(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		if key := strings.TrimSpace(part); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// InitLogger installs the structured handler described by cfg as the slog
// default. Only the first call has any effect.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		s := resolveSettings(cfg, os.Getenv)
		levelVar.Set(s.level)
		debugSampler.Set(s.sampleNum, s.sampleDen)
		traceAll = s.trace

		writers := []io.Writer{stdout}
		var closers []io.Closer
		if f := openLogFile(s.file); f != nil {
			writers = append(writers, f)
			closers = append(closers, f)
		}
		out = newFanout(writers, closers)

		L = slog.New(newStructuredHandler(handlerOptions{
			level:  &levelVar,
			out:    out,
			format: s.format,
			order:  s.order,
		}))
		slog.SetDefault(L)
		wireComponents()
		logStartup(s)
	})
	return nil
}

// openLogFile returns nil when path is empty or cannot be opened; stdout
// logging continues either way.
func openLogFile(path string) *os.File {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("logger: create log dir for %s: %v", path, err)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: open log file %s: %v", path, err)
		return nil
	}
	return f
}

func wireComponents() {
	if L == nil {
		return
	}
	DB = L.With("component", "db")
	TG = L.With("component", "tg")
	MIG = L.With("component", "db.migrate")
	TWire = L.With("component", "tg.wire")
	Sessions = L.With("component", "sessions")
}

func logStartup(s settings) {
	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build", buildinfo.String()),
		slog.String("cfg_profile", s.profile),
		slog.Bool("trace", s.trace),
	)
}

// Shutdown syncs and closes the log sinks. Later calls are no-ops.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if out == nil {
		return nil
	}
	err := out.Close()
	out = nil
	return err
}

// Background returns context.Background().
func Background() context.Context {
	return context.Background()
}

// LogEvent logs attrs with the event attribute first. A nil logg is resolved from ctx.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component returns L scoped to the named component.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs event under component at level.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high volume debug event should be
// logged. TRACE=1 in the environment keeps all of them.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}
