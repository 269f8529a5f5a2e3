package middleware

import (
	"github.com/m3rciful/coursebot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

const sendStatsKey = "send_stats"

// sendStats counts what a handler sent while serving one update.
type sendStats struct {
	messages int
	keyboard bool
}

func statsOf(c tele.Context) *sendStats {
	s, _ := c.Get(sendStatsKey).(*sendStats)
	return s
}

// countingContext records every successful Send and Reply in sendStats.
type countingContext struct {
	tele.Context
	stats *sendStats
}

func (c countingContext) record(opts []interface{}) {
	c.stats.messages++
	if hasKeyboard(opts) {
		c.stats.keyboard = true
	}
	metrics.ObserveMessageSent()
}

// Send proxies tele.Context.Send while updating message counters.
func (c countingContext) Send(what interface{}, opts ...interface{}) error {
	err := c.Context.Send(what, opts...)
	if err == nil {
		c.record(opts)
	}
	return err
}

// Reply proxies tele.Context.Reply while updating message counters.
func (c countingContext) Reply(what interface{}, opts ...interface{}) error {
	err := c.Context.Reply(what, opts...)
	if err == nil {
		c.record(opts)
	}
	return err
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware counts the messages each update's handler sends
// and whether any of them carried a keyboard.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &sendStats{}
		c.Set(sendStatsKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// GetCounters returns the number of messages sent for the current update and
// whether one of them had a keyboard. Both are zero outside the middleware.
func GetCounters(c tele.Context) (int, bool) {
	if c == nil {
		return 0, false
	}
	s := statsOf(c)
	if s == nil {
		return 0, false
	}
	return s.messages, s.keyboard
}
