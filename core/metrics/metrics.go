// Package metrics exposes Prometheus instrumentation for the bot runtime.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/coursebot/core/logger"
)

const namespace = "coursebot"

var (
	registry = prometheus.NewRegistry()

	handlerTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_total",
		Help:      "Handled Telegram updates by handler and status.",
	}, []string{"handler", "status"})

	handlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handler_duration_seconds",
		Help:      "Time spent handling a Telegram update.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler"})

	messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Outbound messages sent to Telegram.",
	})

	dialogueTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dialogue_transitions_total",
		Help:      "Dialogue state machine transitions by dialogue and outcome.",
	}, []string{"dialogue", "outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		handlerTotal,
		handlerDuration,
		messagesSent,
		dialogueTransitions,
	)
}

// ObserveHandler records one handled update.
func ObserveHandler(handler, status string, took time.Duration) {
	handlerTotal.WithLabelValues(handler, status).Inc()
	handlerDuration.WithLabelValues(handler).Observe(took.Seconds())
}

// ObserveMessageSent counts one outbound message.
func ObserveMessageSent() {
	messagesSent.Inc()
}

// ObserveTransition records a dialogue transition such as "started" or "completed".
func ObserveTransition(dialogue, outcome string) {
	dialogueTransitions.WithLabelValues(dialogue, outcome).Inc()
}

// Handler returns the HTTP handler serving the registry in the exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve runs the exporter on listen until ctx is done. An empty listen is a no-op.
func Serve(ctx context.Context, listen string) error {
	if listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info(ctx, "metrics", "metrics.listen", slog.String("listen", listen))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
