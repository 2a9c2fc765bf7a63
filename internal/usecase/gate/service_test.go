package gate_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/adapter/persistence/memory"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/embedder"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/idempotency"
	"github.com/hretheum/vectorwave.io-sub009/internal/pkg/clock"
	"github.com/hretheum/vectorwave.io-sub009/internal/usecase/gate"
	"github.com/hretheum/vectorwave.io-sub009/tests/fixtures"
)

// countingEmbedder wraps an embedder and counts calls.
type countingEmbedder struct {
	inner gate.Embedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}

// flakyEmbedder fails the first n calls, then delegates.
type flakyEmbedder struct {
	inner    gate.Embedder
	failures atomic.Int64
	failN    int64
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failures.Add(1) <= f.failN {
		return nil, errors.New("provider unreachable")
	}
	return f.inner.Embed(ctx, text)
}

func newTestService(t *testing.T) (*gate.Service, *memory.TopicIndexRepo, *idempotency.Store) {
	t.Helper()
	index := memory.NewTopicIndexRepo()
	store := idempotency.NewStore(idempotency.Config{Clock: clock.NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))})
	svc := gate.NewService(embedder.NewDeterministic(64), index, store, gate.Config{})
	return svc, index, store
}

func TestCheckNovelty_EmptyIndex(t *testing.T) {
	svc, index, store := newTestService(t)
	ctx := context.Background()

	report, err := svc.CheckNovelty(ctx, fixtures.NewTestCandidate())
	require.NoError(t, err)

	assert.Equal(t, 1.0, report.NoveltyScore)
	assert.Equal(t, 0.0, report.MaxSimilarity)
	assert.Empty(t, report.Neighbors)

	// A pure read must not create records or index entries.
	assert.Equal(t, 0, store.Len())
	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCheckNovelty_Idempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	candidate := fixtures.NewTestCandidate()

	_, err := svc.Submit(ctx, "seed-key", fixtures.NewTestCandidate(fixtures.WithTitle("Kafka consumer lag alerting")))
	require.NoError(t, err)

	first, err := svc.CheckNovelty(ctx, candidate)
	require.NoError(t, err)
	second, err := svc.CheckNovelty(ctx, candidate)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCheckNovelty_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CheckNovelty(context.Background(), nil)
	assert.Error(t, err)

	_, err = svc.CheckNovelty(context.Background(), fixtures.NewTestCandidate(fixtures.WithTitle("   ")))
	assert.True(t, errors.Is(err, entity.ErrValidationFailed))
}

func TestSubmit_AcceptsNovelCandidate(t *testing.T) {
	svc, index, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, entity.StatusAccepted, result.Status)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 1.0, result.NoveltyScore)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSubmit_RejectsDuplicateContent(t *testing.T) {
	svc, index, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.NoError(t, err)
	require.True(t, first.Accepted)

	// Same content under a different key scores zero novelty.
	second, err := svc.Submit(ctx, "key-2", fixtures.NewTestCandidate())
	require.NoError(t, err)

	assert.False(t, second.Accepted)
	assert.Equal(t, entity.StatusRejected, second.Status)
	assert.Empty(t, second.ID)
	assert.InDelta(t, 0.0, second.NoveltyScore, 1e-6)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSubmit_ReplayReturnsIdenticalResult(t *testing.T) {
	index := memory.NewTopicIndexRepo()
	store := idempotency.NewStore(idempotency.Config{Clock: clock.NewMock(time.Now())})
	counting := &countingEmbedder{inner: embedder.NewDeterministic(64)}
	svc := gate.NewService(counting, index, store, gate.Config{})
	ctx := context.Background()

	first, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.NoError(t, err)
	callsAfterFirst := counting.calls.Load()

	replay, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.NoError(t, err)

	assert.Equal(t, first, replay)
	assert.Equal(t, callsAfterFirst, counting.calls.Load(), "replay must not re-score")

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "replay must not re-index")
}

func TestSubmit_MissingKey(t *testing.T) {
	svc, _, store := newTestService(t)

	for _, key := range []string{"", "   "} {
		_, err := svc.Submit(context.Background(), key, fixtures.NewTestCandidate())
		assert.True(t, errors.Is(err, gate.ErrMissingIdempotencyKey), "key %q", key)
	}
	assert.Equal(t, 0, store.Len())
}

func TestSubmit_InvalidCandidateDoesNotConsumeKey(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate(fixtures.WithTitle("")))
	require.Error(t, err)
	assert.Equal(t, 0, store.Len(), "failed validation must not create a record")

	// The same key is still fresh for a valid payload.
	result, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestSubmit_EmbedderFailureLeavesKeyRetryable(t *testing.T) {
	index := memory.NewTopicIndexRepo()
	store := idempotency.NewStore(idempotency.Config{Clock: clock.NewMock(time.Now())})
	flaky := &flakyEmbedder{inner: embedder.NewDeterministic(64), failN: 1}
	svc := gate.NewService(flaky, index, store, gate.Config{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.Error(t, err)

	rec, ok := store.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, entity.StatusQueued, rec.Status)

	// The retry with the same key reclaims the record and completes it.
	result, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestSubmit_ConcurrentSameKey(t *testing.T) {
	svc, index, _ := newTestService(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var decided, queued atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Submit(ctx, "shared-key", fixtures.NewTestCandidate())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			switch result.Status {
			case entity.StatusAccepted:
				decided.Add(1)
			case entity.StatusQueued:
				// Lost the race; the record was still being scored.
				queued.Add(1)
			default:
				t.Errorf("unexpected status: %s", result.Status)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, decided.Load(), int64(1))
	assert.Equal(t, int64(workers), decided.Load()+queued.Load())

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "exactly one submission may index the candidate")
}

func TestSubmit_ThresholdBoundary(t *testing.T) {
	// With a threshold of exactly 1.0 only a completely novel candidate
	// passes, and a score at the threshold is accepted.
	index := memory.NewTopicIndexRepo()
	store := idempotency.NewStore(idempotency.Config{Clock: clock.NewMock(time.Now())})
	svc := gate.NewService(embedder.NewDeterministic(64), index, store, gate.Config{NoveltyThreshold: 1.0})
	ctx := context.Background()

	result, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.NoError(t, err)
	assert.True(t, result.Accepted, "score equal to threshold is accepted")
}

func TestSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "key-1", fixtures.NewTestCandidate())
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.RecordCount)
	assert.Equal(t, int64(1), snap.IndexSize)
	assert.Equal(t, gate.DefaultNoveltyThreshold, snap.NoveltyThreshold)
}
