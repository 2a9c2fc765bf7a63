// Package http provides HTTP handlers and middleware for the topic gate
// API: submission and novelty-check handlers, the generation proxy,
// health check endpoints, metrics collection, and middleware components.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/hretheum/vectorwave.io-sub009/internal/resilience/breaker"
	"github.com/hretheum/vectorwave.io-sub009/internal/usecase/gate"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`            // "healthy" or "unhealthy"
	Message string         `json:"message,omitempty"` // Optional status message
	Details map[string]any `json:"details,omitempty"` // Optional additional details
}

// GateSnapshotter reports gate state for health checks.
type GateSnapshotter interface {
	Snapshot(ctx context.Context) (gate.Snapshot, error)
}

// UpstreamSnapshotter reports upstream circuit breaker state.
type UpstreamSnapshotter interface {
	Snapshot() breaker.Snapshot
}

// HealthHandler handles health check endpoint requests.
// It checks database connectivity when a database is configured and
// reports gate and upstream circuit breaker state for monitoring.
type HealthHandler struct {
	DB       *sql.DB // nil for the in-memory index backend
	Gate     GateSnapshotter
	Upstream UpstreamSnapshotter
	Version  string
}

// ServeHTTP performs health checks and returns the application health status.
// Returns 200 OK if healthy, or 503 Service Unavailable if any check fails.
// An open upstream circuit is reported but does not make the service
// unhealthy: the gate keeps working while generation degrades.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	allHealthy := true

	if h.DB != nil {
		dbCheck := h.checkDatabase(ctx)
		checks["database"] = dbCheck
		if dbCheck.Status == "unhealthy" {
			allHealthy = false
		}
	}

	if h.Gate != nil {
		gateCheck := h.checkGate(ctx)
		checks["gate"] = gateCheck
		if gateCheck.Status == "unhealthy" {
			allHealthy = false
		}
	}

	if h.Upstream != nil {
		checks["upstream"] = h.checkUpstream()
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// checkDatabase checks database connectivity and returns connection pool statistics.
func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}

	stats := h.DB.Stats()
	return CheckStatus{
		Status: "healthy",
		Details: map[string]any{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
		},
	}
}

// checkGate reports idempotency record and index counts. A failing index
// count means the gate cannot score submissions.
func (h *HealthHandler) checkGate(ctx context.Context) CheckStatus {
	snap, err := h.Gate.Snapshot(ctx)
	if err != nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}
	return CheckStatus{
		Status: "healthy",
		Details: map[string]any{
			"idempotency_records": snap.RecordCount,
			"index_size":          snap.IndexSize,
			"novelty_threshold":   snap.NoveltyThreshold,
		},
	}
}

// checkUpstream reports circuit breaker state without probing the
// upstream. An open circuit is operational information, not a failure of
// this service.
func (h *HealthHandler) checkUpstream() CheckStatus {
	snap := h.Upstream.Snapshot()
	details := map[string]any{
		"circuit_breaker":      snap.State,
		"consecutive_failures": snap.ConsecutiveFailures,
	}
	if snap.CircuitOpen {
		details["retry_after"] = snap.RetryAfter.String()
		return CheckStatus{
			Status:  "healthy",
			Message: "circuit breaker open, generation degraded",
			Details: details,
		}
	}
	return CheckStatus{
		Status:  "healthy",
		Details: details,
	}
}
