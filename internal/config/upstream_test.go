package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hretheum/vectorwave.io-sub009/internal/config"
)

func TestLoadUpstreamConfig_Defaults(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://generation:8081")

	cfg, err := config.LoadUpstreamConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://generation:8081", cfg.BaseURL)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.RecoveryTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetryAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBaseDelay)
}

func TestLoadUpstreamConfig_MissingBaseURL(t *testing.T) {
	_, err := config.LoadUpstreamConfig()
	assert.Error(t, err)
}

func TestUpstreamConfig_Validate(t *testing.T) {
	valid := config.UpstreamConfig{
		BaseURL:          "http://generation:8081",
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		RequestTimeout:   30 * time.Second,
		MaxRetryAttempts: 3,
		RetryBaseDelay:   100 * time.Millisecond,
	}

	tests := []struct {
		name    string
		mutate  func(*config.UpstreamConfig)
		wantErr bool
	}{
		{"valid", func(c *config.UpstreamConfig) {}, false},
		{"empty base URL", func(c *config.UpstreamConfig) { c.BaseURL = "" }, true},
		{"relative base URL", func(c *config.UpstreamConfig) { c.BaseURL = "/generate" }, true},
		{"zero failure threshold", func(c *config.UpstreamConfig) { c.FailureThreshold = 0 }, true},
		{"zero recovery timeout", func(c *config.UpstreamConfig) { c.RecoveryTimeout = 0 }, true},
		{"zero request timeout", func(c *config.UpstreamConfig) { c.RequestTimeout = 0 }, true},
		{"zero retry attempts", func(c *config.UpstreamConfig) { c.MaxRetryAttempts = 0 }, true},
		{"zero retry base delay", func(c *config.UpstreamConfig) { c.RetryBaseDelay = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
