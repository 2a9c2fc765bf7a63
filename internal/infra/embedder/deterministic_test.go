package embedder_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hretheum/vectorwave.io-sub009/internal/infra/embedder"
)

func TestDeterministic_SameTextSameVector(t *testing.T) {
	e := embedder.NewDeterministic(64)
	ctx := context.Background()

	first, err := e.Embed(ctx, "Zero-downtime schema migrations in Postgres")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "Zero-downtime schema migrations in Postgres")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDeterministic_Dimension(t *testing.T) {
	e := embedder.NewDeterministic(32)

	vec, err := e.Embed(context.Background(), "some candidate title")
	require.NoError(t, err)
	assert.Len(t, vec, 32)
}

func TestDeterministic_UnitLength(t *testing.T) {
	e := embedder.NewDeterministic(64)

	vec, err := e.Embed(context.Background(), "observability for vector databases")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestDeterministic_CaseAndPunctuationInsensitive(t *testing.T) {
	e := embedder.NewDeterministic(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Postgres Vacuum Tuning")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "postgres, vacuum... tuning!")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDeterministic_DifferentTextsDiffer(t *testing.T) {
	e := embedder.NewDeterministic(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "kafka consumer group rebalancing")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "terraform state locking pitfalls")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDeterministic_EmptyText(t *testing.T) {
	e := embedder.NewDeterministic(64)

	tests := []string{"", "   ", "...", "\t\n"}
	for _, text := range tests {
		_, err := e.Embed(context.Background(), text)
		assert.True(t, errors.Is(err, embedder.ErrEmptyText), "text %q", text)
	}
}

func TestDeterministic_InvalidDimensionFallsBack(t *testing.T) {
	e := embedder.NewDeterministic(0)

	vec, err := e.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}
