package telegram

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/netutil"
)

// HTTPClientOptions tunes the client used for Bot API calls. Zero values use defaults.
type HTTPClientOptions struct {
	DialTimeout     time.Duration
	ResponseTimeout time.Duration
	ClientTimeout   time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
}

func (o HTTPClientOptions) withDefaults() HTTPClientOptions {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = 5 * time.Second
	}
	if o.ClientTimeout <= 0 {
		// Long polling holds the request open; keep this above the poll timeout.
		o.ClientTimeout = 30 * time.Second
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	} else if o.RetryAttempts == 0 {
		o.RetryAttempts = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	return o
}

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
func BuildHTTPClient(opts ...HTTPClientOptions) *http.Client {
	var o HTTPClientOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: o.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: o.ResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: o.ClientTimeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: o.RetryAttempts,
			backoff:    o.RetryBackoff,
		},
	}
}

// retryTransport retries requests that failed before a response arrived.
// Requests with a body are retried only when GetBody can rewind it.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		currReq := req
		if attempt > 1 {
			if req.Body != nil && req.GetBody == nil {
				return nil, lastErr
			}
			currReq = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				currReq.Body = body
			}
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := t.backoff * time.Duration(attempt)
		logger.Debug(context.Background(), "tg", "http.retry",
			slog.Int("attempts", attempt),
			slog.Duration("backoff", delay),
			slog.String("err", logger.SanitizeLimit(redactToken(err.Error()), 256)),
		)
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}
