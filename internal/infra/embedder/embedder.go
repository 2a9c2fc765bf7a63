// Package embedder produces fixed-dimension vectors for candidate topic
// text. Two implementations exist: an OpenAI-backed embedder for
// production and a deterministic hash embedder for offline use and tests.
package embedder

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrUnavailable indicates the embedding provider is temporarily
// unreachable and the request should not be treated as a content error.
var ErrUnavailable = errors.New("embedding provider unavailable")

// ErrEmptyText indicates the input contained nothing to embed.
var ErrEmptyText = errors.New("text is empty")

// Embedder converts text into a vector suitable for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

var (
	embedderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedder_requests_total",
			Help: "Total number of embedding requests",
		},
		[]string{"provider", "status"},
	)

	embedderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedder_request_duration_seconds",
			Help:    "Embedding request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)
)
