// Package upstream provides a resilient HTTP client for one named
// upstream service. Calls pass through a circuit breaker and a bounded
// retry policy; every call ends in exactly one of: success, a 4xx
// passthrough, a breaker fail-fast, retry exhaustion, or a timeout.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hretheum/vectorwave.io-sub009/internal/pkg/clock"
	"github.com/hretheum/vectorwave.io-sub009/internal/resilience/breaker"
	"github.com/hretheum/vectorwave.io-sub009/internal/resilience/retry"
)

// maxErrorBodyBytes limits how much of an error response body is
// carried inside error values and logs.
const maxErrorBodyBytes = 4096

// Config holds the configuration for a Client.
type Config struct {
	// Name identifies the upstream target in errors, logs, and metrics.
	Name string

	// BaseURL is the upstream base URL; per-call paths are appended.
	BaseURL string

	// FailureThreshold and RecoveryTimeout configure the breaker.
	// Zero values fall back to the breaker defaults (5, 60s).
	FailureThreshold int
	RecoveryTimeout  time.Duration

	// Retry is the per-call retry policy. Zero value falls back to
	// retry.DefaultPolicy.
	Retry retry.Policy

	// RequestTimeout is the default overall timeout for a call when the
	// caller does not pass one. Default: 30s.
	RequestTimeout time.Duration

	// HTTPClient is the transport used for requests. Default:
	// http.DefaultClient. Its own Timeout is left to the overall
	// per-call deadline.
	HTTPClient *http.Client

	// Clock provides time abstraction for breaker testing.
	Clock clock.Clock

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Client performs requests against one upstream target, shielding
// callers from upstream unavailability. Safe for concurrent use.
type Client struct {
	name           string
	baseURL        string
	httpClient     *http.Client
	breaker        *breaker.Breaker
	policy         retry.Policy
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// New creates a resilient client for the given upstream target.
func New(cfg Config) *Client {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := breaker.New(breaker.Config{
		Name:             cfg.Name,
		FailureThreshold: cfg.FailureThreshold,
		RecoveryTimeout:  cfg.RecoveryTimeout,
		Clock:            cfg.Clock,
		OnStateChange: func(name string, _, to breaker.State) {
			recordBreakerState(name, to)
		},
	})

	return &Client{
		name:           cfg.Name,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     cfg.HTTPClient,
		breaker:        b,
		policy:         cfg.Retry,
		defaultTimeout: cfg.RequestTimeout,
		logger:         cfg.Logger,
	}
}

// Do performs one call against the upstream. The payload, when non-nil,
// is sent as a JSON body. A non-positive timeout falls back to the
// configured default. The returned error, when non-nil, is one of
// *UpstreamError, *BreakerOpenError, *RetryExhaustedError,
// *TimeoutError, or a context cancellation.
func (c *Client) Do(ctx context.Context, method, path string, payload []byte, timeout time.Duration) ([]byte, error) {
	if err := c.breaker.Acquire(); err != nil {
		var openErr *breaker.OpenError
		if errors.As(err, &openErr) {
			upstreamRequestsTotal.WithLabelValues(c.name, outcomeBreakerOpen).Inc()
			return nil, &BreakerOpenError{Target: c.name, RetryAfter: openErr.RetryAfter}
		}
		return nil, err
	}

	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()

	var body []byte
	err := retry.Do(callCtx, c.policy, func() error {
		data, attemptErr := c.attempt(callCtx, method, path, payload)
		if attemptErr != nil {
			return attemptErr
		}
		body = data
		return nil
	})

	// The breaker observes the call's final outcome, not each retry.
	switch {
	case err == nil:
		c.breaker.Record(true)
		upstreamRequestsTotal.WithLabelValues(c.name, outcomeSuccess).Inc()
		return body, nil

	case isUpstreamError(err):
		// The upstream answered; a 4xx is a caller problem, not an
		// availability failure.
		c.breaker.Record(true)
		upstreamRequestsTotal.WithLabelValues(c.name, outcomeUpstreamError).Inc()
		return nil, err

	case errors.Is(err, context.DeadlineExceeded):
		c.breaker.Record(false)
		upstreamRequestsTotal.WithLabelValues(c.name, outcomeTimeout).Inc()
		c.logger.Warn("upstream call timed out",
			slog.String("target", c.name),
			slog.String("path", path),
			slog.Duration("timeout", timeout))
		return nil, &TimeoutError{Target: c.name, Timeout: timeout}

	case errors.Is(err, context.Canceled):
		// Caller gave up; still a failure for breaker bookkeeping.
		c.breaker.Record(false)
		upstreamRequestsTotal.WithLabelValues(c.name, outcomeCanceled).Inc()
		return nil, err

	default:
		c.breaker.Record(false)
		upstreamRequestsTotal.WithLabelValues(c.name, outcomeRetryExhausted).Inc()
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			c.logger.Warn("upstream retries exhausted",
				slog.String("target", c.name),
				slog.String("path", path),
				slog.Int("attempts", exhausted.Attempts),
				slog.Any("error", exhausted.Last))
			return nil, &RetryExhaustedError{
				Target:   c.name,
				Attempts: exhausted.Attempts,
				Last:     exhausted.Last,
			}
		}
		return nil, err
	}
}

// attempt issues one HTTP request and classifies the response for the
// retry loop: success fills the body, 5xx/429 become retry.HTTPError,
// and other 4xx become a non-retryable *UpstreamError.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close upstream response body",
				slog.String("target", c.name),
				slog.Any("error", closeErr))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode >= 500 ||
		resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode == http.StatusRequestTimeout:
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(data), maxErrorBodyBytes),
		}
	default:
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(data), maxErrorBodyBytes),
		}
	}
}

// Snapshot returns the breaker state for health reporting.
func (c *Client) Snapshot() breaker.Snapshot {
	return c.breaker.Snapshot()
}

func isUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
