// Package generate provides the HTTP proxy in front of the upstream
// generation service, translating resilience failures into status codes
// callers can act on.
package generate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hretheum/vectorwave.io-sub009/internal/handler/http/respond"
	"github.com/hretheum/vectorwave.io-sub009/internal/upstream"
)

// maxRequestBody bounds proxied payloads.
const maxRequestBody = 1 << 20

// Caller issues requests through the resilient upstream client.
type Caller interface {
	Do(ctx context.Context, method, path string, payload []byte, timeout time.Duration) ([]byte, error)
}

// ProxyHandler forwards generation requests upstream. Circuit breaker
// rejections and exhausted retries surface as 503 with a Retry-After
// hint, timeouts as 504, and upstream HTTP errors pass through.
type ProxyHandler struct {
	Client Caller

	// Timeout overrides the client's per-call deadline when positive.
	Timeout time.Duration
}

func (h ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	body, err := h.Client.Do(r.Context(), http.MethodPost, "/generate", payload, h.Timeout)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// writeUpstreamError maps upstream client errors onto proxy responses.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var breakerErr *upstream.BreakerOpenError
	if errors.As(err, &breakerErr) {
		if secs := int(breakerErr.RetryAfter.Seconds()); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		respond.Error(w, http.StatusServiceUnavailable,
			errors.New("generation temporarily unavailable"))
		return
	}

	var exhaustedErr *upstream.RetryExhaustedError
	if errors.As(err, &exhaustedErr) {
		respond.Error(w, http.StatusServiceUnavailable,
			errors.New("generation failed after retries"))
		return
	}

	var timeoutErr *upstream.TimeoutError
	if errors.As(err, &timeoutErr) {
		respond.Error(w, http.StatusGatewayTimeout,
			errors.New("generation timed out"))
		return
	}

	var upstreamErr *upstream.UpstreamError
	if errors.As(err, &upstreamErr) {
		// Non-transient upstream responses pass through untouched so the
		// caller sees what the generation service said.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(upstreamErr.StatusCode)
		_, _ = w.Write([]byte(upstreamErr.Body))
		return
	}

	respond.SafeError(w, http.StatusBadGateway, err)
}
