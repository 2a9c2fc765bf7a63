package embedder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hretheum/vectorwave.io-sub009/internal/infra/embedder"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := embedder.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, embedder.ProviderDeterministic, cfg.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 5.0, cfg.RequestsPerSecond)
	assert.Equal(t, 10, cfg.Burst)
	assert.Equal(t, 64, cfg.Dimension)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("EMBEDDER_PROVIDER", "openai")
	t.Setenv("EMBEDDER_MODEL", "text-embedding-3-large")
	t.Setenv("EMBEDDER_TIMEOUT", "30s")
	t.Setenv("EMBEDDER_RPS", "2.5")
	t.Setenv("EMBEDDER_BURST", "4")

	cfg, err := embedder.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, embedder.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "text-embedding-3-large", cfg.Model)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.Equal(t, 4, cfg.Burst)
}

func TestLoadConfig_UnknownProvider(t *testing.T) {
	t.Setenv("EMBEDDER_PROVIDER", "anthropic")

	_, err := embedder.LoadConfig()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := embedder.Config{
		Provider:          embedder.ProviderDeterministic,
		Model:             "text-embedding-3-small",
		Timeout:           time.Second,
		RequestsPerSecond: 1,
		Burst:             1,
		Dimension:         64,
	}

	tests := []struct {
		name    string
		mutate  func(*embedder.Config)
		wantErr bool
	}{
		{"valid", func(c *embedder.Config) {}, false},
		{"empty model", func(c *embedder.Config) { c.Model = "" }, true},
		{"zero timeout", func(c *embedder.Config) { c.Timeout = 0 }, true},
		{"negative rps", func(c *embedder.Config) { c.RequestsPerSecond = -1 }, true},
		{"zero burst", func(c *embedder.Config) { c.Burst = 0 }, true},
		{"zero dimension", func(c *embedder.Config) { c.Dimension = 0 }, true},
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
