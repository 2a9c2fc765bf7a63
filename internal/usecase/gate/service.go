package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/idempotency"
	"github.com/hretheum/vectorwave.io-sub009/internal/pkg/clock"
	"github.com/hretheum/vectorwave.io-sub009/internal/repository"
)

// Default configuration values.
const (
	// DefaultNoveltyThreshold is the minimum novelty score a candidate
	// needs to be accepted into the index.
	DefaultNoveltyThreshold = 0.30

	// DefaultNeighborLimit is how many nearest neighbors are considered
	// when scoring a candidate.
	DefaultNeighborLimit = 10
)

// Embedder converts candidate text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds gate service configuration.
type Config struct {
	// NoveltyThreshold is the acceptance cutoff. A candidate is accepted
	// when its novelty score is at or above this value.
	NoveltyThreshold float64

	// NeighborLimit bounds the similarity search.
	NeighborLimit int

	// Clock provides time abstraction for testing.
	Clock clock.Clock
}

// Service scores candidate topics against the accepted-topic index and
// admits them through idempotent submissions.
type Service struct {
	embedder Embedder
	index    repository.TopicIndexRepository
	store    *idempotency.Store
	cfg      Config
	clock    clock.Clock
	logger   *slog.Logger
}

// NewService creates a gate service. Zero config fields fall back to
// defaults.
func NewService(embedder Embedder, index repository.TopicIndexRepository, store *idempotency.Store, cfg Config) *Service {
	if cfg.NoveltyThreshold <= 0 {
		cfg.NoveltyThreshold = DefaultNoveltyThreshold
	}
	if cfg.NeighborLimit <= 0 {
		cfg.NeighborLimit = DefaultNeighborLimit
	}
	if cfg.Clock == nil {
		cfg.Clock = &clock.SystemClock{}
	}
	return &Service{
		embedder: embedder,
		index:    index,
		store:    store,
		cfg:      cfg,
		clock:    cfg.Clock,
		logger:   slog.Default(),
	}
}

// NoveltyReport is the outcome of scoring a candidate without
// submitting it.
type NoveltyReport struct {
	NoveltyScore  float64                   `json:"novelty_score"`
	MaxSimilarity float64                   `json:"max_similarity"`
	Neighbors     []repository.SimilarTopic `json:"neighbors"`
}

// SubmitResult is the outcome of a submission. Replaying a key returns
// the same result the original submission produced.
type SubmitResult struct {
	Key          string                  `json:"idempotency_key"`
	ID           string                  `json:"id,omitempty"`
	Status       entity.SubmissionStatus `json:"status"`
	Accepted     bool                    `json:"accepted"`
	NoveltyScore float64                 `json:"novelty_score"`
}

// CheckNovelty scores a candidate against the index without touching
// idempotency state or the index itself. Calling it any number of times
// has no observable side effects.
func (s *Service) CheckNovelty(ctx context.Context, candidate *entity.Candidate) (*NoveltyReport, error) {
	if candidate == nil {
		return nil, fmt.Errorf("check novelty: %w", entity.ErrInvalidInput)
	}
	if err := candidate.Validate(); err != nil {
		return nil, fmt.Errorf("check novelty: %w", err)
	}

	report, _, err := s.score(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("check novelty: %w", err)
	}
	return report, nil
}

// Submit runs a candidate through the gate under an idempotency key.
// The first submission for a key scores the candidate and commits an
// accepted or rejected outcome exactly once; later submissions with the
// same key replay that outcome without re-scoring. A concurrent
// submission for a key still being scored observes the queued record;
// callers retry once the first submission settles.
func (s *Service) Submit(ctx context.Context, key string, candidate *entity.Candidate) (*SubmitResult, error) {
	if candidate == nil {
		return nil, fmt.Errorf("submit: %w", entity.ErrInvalidInput)
	}
	// Validation runs before any key bookkeeping so an invalid payload
	// never consumes its key.
	if err := candidate.Validate(); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("submit: %w", ErrMissingIdempotencyKey)
	}

	rec, claimed := s.store.CreateOrClaim(key)
	if !claimed {
		if rec.Status.Terminal() {
			gateSubmissionsTotal.WithLabelValues(outcomeReplayed).Inc()
			s.logger.InfoContext(ctx, "submission replayed",
				slog.String("key", key),
				slog.String("status", string(rec.Status)))
			return resultFromRecord(rec), nil
		}
		gateSubmissionsTotal.WithLabelValues(outcomeInFlight).Inc()
		s.logger.InfoContext(ctx, "submission in flight",
			slog.String("key", key))
		return resultFromRecord(rec), nil
	}

	result, err := s.decide(ctx, key, candidate)
	if err != nil {
		// The claim is released so a retry with the same key can score
		// again; the record stays queued.
		s.store.Release(key)
		gateSubmissionsTotal.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("submit %q: %w", key, err)
	}
	return result, nil
}

// decide scores the candidate and commits the outcome for a claimed key.
func (s *Service) decide(ctx context.Context, key string, candidate *entity.Candidate) (*SubmitResult, error) {
	report, embedding, err := s.score(ctx, candidate)
	if err != nil {
		return nil, err
	}
	gateNoveltyScore.Observe(report.NoveltyScore)

	if report.NoveltyScore < s.cfg.NoveltyThreshold {
		if err := s.store.Complete(key, entity.StatusRejected, "", report.NoveltyScore); err != nil {
			return nil, fmt.Errorf("commit rejection: %w", err)
		}
		gateSubmissionsTotal.WithLabelValues(outcomeRejected).Inc()
		s.logger.InfoContext(ctx, "candidate rejected",
			slog.String("key", key),
			slog.Float64("novelty_score", report.NoveltyScore),
			slog.Float64("threshold", s.cfg.NoveltyThreshold))
		return &SubmitResult{
			Key:          key,
			Status:       entity.StatusRejected,
			NoveltyScore: report.NoveltyScore,
		}, nil
	}

	item := &entity.IndexedItem{
		ID:         uuid.NewString(),
		Title:      candidate.Title,
		Summary:    candidate.Summary,
		Source:     candidate.Source,
		Embedding:  embedding,
		AcceptedAt: s.clock.Now(),
	}
	if err := s.index.Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("index insert: %w", err)
	}
	if err := s.store.Complete(key, entity.StatusAccepted, item.ID, report.NoveltyScore); err != nil {
		return nil, fmt.Errorf("commit acceptance: %w", err)
	}

	gateSubmissionsTotal.WithLabelValues(outcomeAccepted).Inc()
	s.logger.InfoContext(ctx, "candidate accepted",
		slog.String("key", key),
		slog.String("id", item.ID),
		slog.Float64("novelty_score", report.NoveltyScore))
	return &SubmitResult{
		Key:          key,
		ID:           item.ID,
		Status:       entity.StatusAccepted,
		Accepted:     true,
		NoveltyScore: report.NoveltyScore,
	}, nil
}

// score embeds the candidate and derives its novelty from the nearest
// indexed neighbors. An empty index yields maximum novelty.
func (s *Service) score(ctx context.Context, candidate *entity.Candidate) (*NoveltyReport, []float32, error) {
	embedding, err := s.embedder.Embed(ctx, candidate.EmbeddingText())
	if err != nil {
		return nil, nil, fmt.Errorf("embed candidate: %w", err)
	}

	neighbors, err := s.index.SearchSimilar(ctx, embedding, s.cfg.NeighborLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("search similar: %w", err)
	}

	maxSimilarity := 0.0
	for _, n := range neighbors {
		if n.Similarity > maxSimilarity {
			maxSimilarity = n.Similarity
		}
	}
	if maxSimilarity > 1 {
		maxSimilarity = 1
	}

	return &NoveltyReport{
		NoveltyScore:  1 - maxSimilarity,
		MaxSimilarity: maxSimilarity,
		Neighbors:     neighbors,
	}, embedding, nil
}

// Snapshot reports gate state for health endpoints.
type Snapshot struct {
	RecordCount      int     `json:"idempotency_records"`
	IndexSize        int64   `json:"index_size"`
	NoveltyThreshold float64 `json:"novelty_threshold"`
}

// Snapshot returns current record and index counts.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	size, err := s.index.Count(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return Snapshot{
		RecordCount:      s.store.Len(),
		IndexSize:        size,
		NoveltyThreshold: s.cfg.NoveltyThreshold,
	}, nil
}

func resultFromRecord(rec idempotency.Record) *SubmitResult {
	return &SubmitResult{
		Key:          rec.Key,
		ID:           rec.AssignedID,
		Status:       rec.Status,
		Accepted:     rec.Status == entity.StatusAccepted,
		NoveltyScore: rec.NoveltyScore,
	}
}
