package embedder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// OpenAI implements Embedder using the OpenAI embeddings API. Calls are
// paced by a rate limiter and guarded by a failure-ratio circuit breaker.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *gobreaker.CircuitBreaker
	limiter        *rate.Limiter
	model          openai.EmbeddingModel
	timeout        time.Duration
}

// NewOpenAI creates an OpenAI embedder from the given API key and config.
func NewOpenAI(apiKey string, cfg *Config) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	cbSettings := gobreaker.Settings{
		Name:    "openai-embedder",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Info("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	slog.Info("initialized openai embedder",
		slog.String("model", cfg.Model),
		slog.Float64("rps", cfg.RequestsPerSecond))

	return &OpenAI{
		client:         openai.NewClientWithConfig(clientConfig),
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		model:          openai.EmbeddingModel(cfg.Model),
		timeout:        cfg.Timeout,
	}, nil
}

// Embed generates an embedding vector for the given text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("Embed: rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		embedderRequestDuration.WithLabelValues(ProviderOpenAI).Observe(time.Since(start).Seconds())
	}()

	result, err := o.circuitBreaker.Execute(func() (any, error) {
		resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: o.model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings api: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("openai embeddings api: empty response")
		}
		return resp.Data[0].Embedding, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			slog.Warn("openai embedder circuit breaker open, request rejected",
				slog.String("state", o.circuitBreaker.State().String()))
			embedderRequestsTotal.WithLabelValues(ProviderOpenAI, "circuit_breaker_open").Inc()
			return nil, fmt.Errorf("Embed: %w: circuit breaker open", ErrUnavailable)
		}
		embedderRequestsTotal.WithLabelValues(ProviderOpenAI, "error").Inc()
		return nil, fmt.Errorf("Embed: %w", err)
	}

	embedderRequestsTotal.WithLabelValues(ProviderOpenAI, "success").Inc()
	return result.([]float32), nil
}
