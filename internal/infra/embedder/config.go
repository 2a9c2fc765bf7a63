package embedder

import (
	"fmt"
	"time"

	pkgconfig "github.com/hretheum/vectorwave.io-sub009/pkg/config"
)

// Provider identifiers accepted by EMBEDDER_PROVIDER.
const (
	ProviderOpenAI        = "openai"
	ProviderDeterministic = "deterministic"
)

// Config holds embedder configuration loaded from environment variables.
type Config struct {
	// Provider selects the embedding backend.
	Provider string

	// Model is the OpenAI embedding model identifier.
	Model string

	// BaseURL overrides the OpenAI API endpoint. Empty means the default
	// endpoint. Tests point this at a local server.
	BaseURL string

	// Timeout is the maximum duration for a single embedding API call.
	Timeout time.Duration

	// RequestsPerSecond paces outbound API calls.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int

	// Dimension is the vector dimension used by the deterministic embedder.
	Dimension int
}

// LoadConfig loads embedder configuration from environment variables.
//
// Environment variables:
//   - EMBEDDER_PROVIDER: "openai" or "deterministic" (default: "deterministic")
//   - EMBEDDER_MODEL: OpenAI model name (default: "text-embedding-3-small")
//   - EMBEDDER_BASE_URL: API endpoint override (default: none)
//   - EMBEDDER_TIMEOUT: per-call timeout (default: "15s")
//   - EMBEDDER_RPS: requests per second (default: 5)
//   - EMBEDDER_BURST: rate limiter burst (default: 10)
//   - EMBEDDER_DIMENSION: deterministic vector dimension (default: 64)
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Provider:          pkgconfig.GetEnvString("EMBEDDER_PROVIDER", ProviderDeterministic),
		Model:             pkgconfig.GetEnvString("EMBEDDER_MODEL", "text-embedding-3-small"),
		BaseURL:           pkgconfig.GetEnvString("EMBEDDER_BASE_URL", ""),
		Timeout:           pkgconfig.GetEnvDuration("EMBEDDER_TIMEOUT", 15*time.Second),
		RequestsPerSecond: pkgconfig.GetEnvFloat("EMBEDDER_RPS", 5),
		Burst:             pkgconfig.GetEnvInt("EMBEDDER_BURST", 10),
		Dimension:         pkgconfig.GetEnvInt("EMBEDDER_DIMENSION", 64),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedder configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks all configuration fields for validity.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderDeterministic:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive, got %v", c.RequestsPerSecond)
	}

	if c.Burst <= 0 {
		return fmt.Errorf("burst must be positive, got %d", c.Burst)
	}

	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}

	return nil
}
