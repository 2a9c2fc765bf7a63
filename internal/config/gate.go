// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/hretheum/vectorwave.io-sub009/pkg/config"
)

// Index backend identifiers accepted by INDEX_BACKEND.
const (
	IndexBackendPostgres = "postgres"
	IndexBackendMemory   = "memory"
)

// GateConfig holds configuration for the novelty gate.
type GateConfig struct {
	// NoveltyThreshold is the acceptance cutoff for novelty scores.
	// Range: (0, 1]. Default: 0.30
	NoveltyThreshold float64

	// NeighborLimit bounds the similarity search per scoring.
	// Default: 10
	NeighborLimit int

	// IdempotencyTTL is how long a submission record deduplicates its
	// key. Default: 24h
	IdempotencyTTL time.Duration

	// SweepInterval is how often expired idempotency records are
	// reclaimed. Default: 1h
	SweepInterval time.Duration

	// IndexBackend selects the similarity index: "postgres" or "memory".
	// Default: "memory"
	IndexBackend string
}

// LoadGateConfig loads gate configuration from environment variables.
//
// Environment variables:
//   - GATE_NOVELTY_THRESHOLD: acceptance cutoff (default: 0.30)
//   - GATE_NEIGHBOR_LIMIT: similarity search bound (default: 10)
//   - GATE_IDEMPOTENCY_TTL: record lifetime (default: "24h")
//   - GATE_SWEEP_INTERVAL: expired record sweep cadence (default: "1h")
//   - INDEX_BACKEND: "postgres" or "memory" (default: "memory")
func LoadGateConfig() (*GateConfig, error) {
	cfg := &GateConfig{
		NoveltyThreshold: pkgconfig.GetEnvFloat("GATE_NOVELTY_THRESHOLD", 0.30),
		NeighborLimit:    pkgconfig.GetEnvInt("GATE_NEIGHBOR_LIMIT", 10),
		IdempotencyTTL:   pkgconfig.GetEnvDuration("GATE_IDEMPOTENCY_TTL", 24*time.Hour),
		SweepInterval:    pkgconfig.GetEnvDuration("GATE_SWEEP_INTERVAL", time.Hour),
		IndexBackend:     pkgconfig.GetEnvString("INDEX_BACKEND", IndexBackendMemory),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gate configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks all configuration fields for validity.
func (c *GateConfig) Validate() error {
	if c.NoveltyThreshold <= 0 || c.NoveltyThreshold > 1 {
		return fmt.Errorf("novelty threshold must be in (0, 1], got %v", c.NoveltyThreshold)
	}
	if c.NeighborLimit <= 0 {
		return fmt.Errorf("neighbor limit must be positive, got %d", c.NeighborLimit)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.IdempotencyTTL); err != nil {
		return fmt.Errorf("idempotency TTL: %w", err)
	}
	if err := pkgconfig.ValidateDurationRange(c.SweepInterval, time.Minute, 24*time.Hour); err != nil {
		return fmt.Errorf("sweep interval: %w", err)
	}
	switch c.IndexBackend {
	case IndexBackendPostgres, IndexBackendMemory:
	default:
		return fmt.Errorf("unknown index backend %q", c.IndexBackend)
	}
	return nil
}
