package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hretheum/vectorwave.io-sub009/internal/pkg/clock"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestLogging_PassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	handler := Logging(logger)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/topics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRecover_CatchesPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	handler := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("scoring blew up")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/topics", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "scoring blew up")
}

func TestLimitRequestBody(t *testing.T) {
	handler := LimitRequestBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		if _, err := r.Body.Read(buf); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/topics", strings.NewReader(strings.Repeat("x", 100)))
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRateLimiter_EnforcesLimit(t *testing.T) {
	clk := clock.NewMock(time.Now())
	limiter := NewRateLimiterWithClock(3, time.Minute, clk)
	handler := limiter.Limit(okHandler())

	doReq := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/topics", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doReq(), "request %d within limit", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, doReq())
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	clk := clock.NewMock(time.Now())
	limiter := NewRateLimiterWithClock(1, time.Minute, clk)
	handler := limiter.Limit(okHandler())

	doReq := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/topics", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, doReq())
	assert.Equal(t, http.StatusTooManyRequests, doReq())

	clk.Advance(61 * time.Second)
	assert.Equal(t, http.StatusOK, doReq(), "stale timestamps roll out of the window")
}

func TestRateLimiter_PerIP(t *testing.T) {
	clk := clock.NewMock(time.Now())
	limiter := NewRateLimiterWithClock(1, time.Minute, clk)
	handler := limiter.Limit(okHandler())

	doReq := func(addr string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/topics", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, doReq("203.0.113.7:1000"))
	assert.Equal(t, http.StatusTooManyRequests, doReq("203.0.113.7:2000"), "same IP, different port")
	assert.Equal(t, http.StatusOK, doReq("198.51.100.9:1000"), "other IPs unaffected")
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		expected   string
	}{
		{name: "host port", remoteAddr: "192.0.2.1:8080", expected: "192.0.2.1"},
		{name: "forwarded wins", remoteAddr: "192.0.2.1:8080", forwarded: "203.0.113.5", expected: "203.0.113.5"},
		{name: "no port", remoteAddr: "192.0.2.1", expected: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.expected, extractIP(req))
		})
	}
}
