package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

var errNoSink = errors.New("logger: sink not initialized")

type lineWriter interface {
	WriteLine(p []byte) error
}

type handlerOptions struct {
	level  slog.Leveler
	out    lineWriter
	format logFormat
	order  []string
}

// structuredHandler renders records as one flat line per event. Groups are
// folded into dotted keys and the layout follows a fixed key order.
type structuredHandler struct {
	opts   handlerOptions
	rank   map[string]int
	preset []field
	prefix string
}

func newStructuredHandler(opts handlerOptions) *structuredHandler {
	if opts.level == nil {
		opts.level = slog.LevelInfo
	}
	if len(opts.order) == 0 {
		opts.order = defaultKeyOrder
	}
	rank := make(map[string]int, len(opts.order))
	for i, key := range opts.order {
		if _, dup := rank[key]; !dup {
			rank[key] = i
		}
	}
	return &structuredHandler{opts: opts, rank: rank}
}

// Enabled reports whether level passes the configured threshold.
func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle renders r together with the correlation fields carried by ctx.
func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.opts.out == nil {
		return errNoSink
	}
	isJSON := h.opts.format == formatJSON

	fs := newFieldSet(len(h.preset) + r.NumAttrs() + 8)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	fs.set("ts", ts.Truncate(time.Millisecond).Format(timeFormatMillis))
	fs.set("level", normalizeLevel(r.Level.String()))
	if isJSON {
		fs.set("ts_unix_nano", ts.UnixNano())
	}
	for _, f := range h.preset {
		fs.set(f.key, f.val)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fs, h.prefix, a)
		return true
	})
	addContextFields(ctx, fs)
	finalize(fs, r.Message, isJSON)

	fields := fs.sorted(h.rank)
	var (
		line []byte
		err  error
	)
	if isJSON {
		line, err = encodeJSON(fields)
		if err != nil {
			return err
		}
	} else {
		line = encodeKV(fields)
	}
	return h.opts.out.WriteLine(append(line, '\n'))
}

// WithAttrs returns a handler that renders attrs on every record.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	fs := newFieldSet(len(h.preset) + len(attrs))
	for _, f := range h.preset {
		fs.set(f.key, f.val)
	}
	for _, a := range attrs {
		addAttr(fs, h.prefix, a)
	}
	clone := *h
	clone.preset = fs.list
	return &clone
}

// WithGroup returns a handler that prefixes later keys with name.
func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func addAttr(fs *fieldSet, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			addAttr(fs, key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, v, ok := normalizeValue(key, a.Value); ok {
		fs.set(k, v)
	}
}

func normalizeValue(key string, val slog.Value) (string, any, bool) {
	switch val.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(val.String()), true
	case slog.KindBool:
		return key, val.Bool(), true
	case slog.KindInt64:
		return key, val.Int64(), true
	case slog.KindUint64:
		if u := val.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, val.Uint64(), true
	case slog.KindFloat64:
		return key, val.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(val.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, val.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := val.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func addContextFields(ctx context.Context, fs *fieldSet) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		fs.setDefault("rid", rid)
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		fs.setDefault("update_id", int64(id))
	}
	if id := UserIDFrom(ctx); id != 0 {
		fs.setDefault("user_id", id)
	}
	if id := ChatIDFrom(ctx); id != 0 {
		fs.setDefault("chat_id", id)
	}
	if name := HandlerFrom(ctx); name != "" {
		fs.setDefault("handler", name)
	}
}

// finalize fills in event and component, compacts the rid and normalizes
// enumerated keys.
func finalize(fs *fieldSet, msg string, isJSON bool) {
	if rid := fs.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if isJSON {
				fs.setDefault("rid_full", rid)
			}
			fs.set("rid", compact)
		}
	}
	if fs.str("event") == "" {
		if msg == "" {
			msg = "unknown"
		}
		fs.set("event", msg)
	}
	if fs.str("component") == "" {
		fs.set("component", "app")
	}
	if status := fs.str("status"); status != "" {
		fs.set("status", strings.ToLower(status))
	}
	if _, present := fs.get("outcome"); present {
		if outcome, ok := normalizeOutcome(fs.str("outcome")); ok {
			fs.set("outcome", outcome)
		} else {
			fs.remove("outcome")
		}
	}
}
