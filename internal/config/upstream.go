package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/hretheum/vectorwave.io-sub009/pkg/config"
)

// UpstreamConfig holds configuration for the resilient upstream client
// that fronts the generation service.
type UpstreamConfig struct {
	// BaseURL is the upstream service endpoint.
	BaseURL string

	// FailureThreshold is how many consecutive failures open the
	// circuit. Default: 5
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before a probe
	// is allowed. Default: 60s
	RecoveryTimeout time.Duration

	// RequestTimeout is the per-call deadline. Default: 30s
	RequestTimeout time.Duration

	// MaxRetryAttempts bounds retries within one call. Default: 3
	MaxRetryAttempts int

	// RetryBaseDelay is the first backoff delay. Default: 100ms
	RetryBaseDelay time.Duration
}

// LoadUpstreamConfig loads upstream client configuration from
// environment variables.
//
// Environment variables:
//   - UPSTREAM_BASE_URL: upstream endpoint (required)
//   - UPSTREAM_FAILURE_THRESHOLD: consecutive failures to open (default: 5)
//   - UPSTREAM_RECOVERY_TIMEOUT: open-state duration (default: "60s")
//   - UPSTREAM_REQUEST_TIMEOUT: per-call deadline (default: "30s")
//   - UPSTREAM_RETRY_MAX_ATTEMPTS: retry bound (default: 3)
//   - UPSTREAM_RETRY_BASE_DELAY: first backoff delay (default: "100ms")
func LoadUpstreamConfig() (*UpstreamConfig, error) {
	cfg := &UpstreamConfig{
		BaseURL:          pkgconfig.GetEnvString("UPSTREAM_BASE_URL", ""),
		FailureThreshold: pkgconfig.GetEnvInt("UPSTREAM_FAILURE_THRESHOLD", 5),
		RecoveryTimeout:  pkgconfig.GetEnvDuration("UPSTREAM_RECOVERY_TIMEOUT", 60*time.Second),
		RequestTimeout:   pkgconfig.GetEnvDuration("UPSTREAM_REQUEST_TIMEOUT", 30*time.Second),
		MaxRetryAttempts: pkgconfig.GetEnvInt("UPSTREAM_RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   pkgconfig.GetEnvDuration("UPSTREAM_RETRY_BASE_DELAY", 100*time.Millisecond),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid upstream configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks all configuration fields for validity.
func (c *UpstreamConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required (set UPSTREAM_BASE_URL)")
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("base URL %q is not a valid absolute URL", c.BaseURL)
	}
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("failure threshold must be positive, got %d", c.FailureThreshold)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.RecoveryTimeout); err != nil {
		return fmt.Errorf("recovery timeout: %w", err)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("request timeout: %w", err)
	}
	if c.MaxRetryAttempts <= 0 {
		return fmt.Errorf("max retry attempts must be positive, got %d", c.MaxRetryAttempts)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.RetryBaseDelay); err != nil {
		return fmt.Errorf("retry base delay: %w", err)
	}
	return nil
}
