package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcome labels.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeReplayed = "replayed"
	outcomeInFlight = "in_flight"
	outcomeError    = "error"
)

var (
	gateSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_submissions_total",
			Help: "Total number of gate submissions by outcome",
		},
		[]string{"outcome"},
	)

	gateNoveltyScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gate_novelty_score",
			Help:    "Distribution of novelty scores for scored candidates",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)
