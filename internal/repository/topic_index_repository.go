// Package repository defines persistence interfaces consumed by the
// usecase layer.
package repository

import (
	"context"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
)

// SimilarTopic is one nearest-neighbor result from the similarity
// index, with a cosine similarity score in [0, 1].
type SimilarTopic struct {
	ID         string
	Title      string
	Similarity float64
}

// TopicIndexRepository is the similarity oracle: it persists accepted
// topics and answers nearest-neighbor queries against them. The vector
// search implementation is a black box behind this interface.
type TopicIndexRepository interface {
	// Insert persists an accepted topic into the index.
	// Returns an error if validation or the underlying store fails.
	Insert(ctx context.Context, item *entity.IndexedItem) error

	// SearchSimilar finds indexed topics nearest to the given embedding,
	// ordered most-similar-first. limit caps the neighbor set
	// (default 10, max 100). An empty index yields an empty slice.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]SimilarTopic, error)

	// Count returns the number of indexed topics.
	Count(ctx context.Context) (int64, error)
}
