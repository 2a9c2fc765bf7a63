package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hretheum/vectorwave.io-sub009/internal/resilience/breaker"
)

var (
	// upstreamRequestsTotal tracks upstream call outcomes per target.
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of upstream calls by final outcome",
		},
		[]string{"target", "outcome"},
	)

	// upstreamRequestDuration tracks upstream call latency.
	// Buckets cover fast API responses through slow generation runs.
	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"target"},
	)

	// upstreamBreakerState tracks the breaker state per target.
	// 0 = closed, 1 = open, 2 = half-open
	upstreamBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "upstream_circuit_breaker_state",
			Help: "Upstream circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"target"},
	)
)

// Call outcomes recorded in upstream_requests_total.
const (
	outcomeSuccess        = "success"
	outcomeUpstreamError  = "upstream_error"
	outcomeBreakerOpen    = "circuit_breaker_open"
	outcomeRetryExhausted = "retry_exhausted"
	outcomeTimeout        = "timeout"
	outcomeCanceled       = "canceled"
)

// recordBreakerState updates the breaker state gauge on transitions.
func recordBreakerState(target string, to breaker.State) {
	var value float64
	switch to {
	case breaker.StateClosed:
		value = 0
	case breaker.StateOpen:
		value = 1
	case breaker.StateHalfOpen:
		value = 2
	}
	upstreamBreakerState.WithLabelValues(target).Set(value)
}
