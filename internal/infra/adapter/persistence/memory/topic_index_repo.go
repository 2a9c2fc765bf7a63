// Package memory provides an in-memory topic index for single-process
// deployments and tests. Similarity search is a brute-force cosine scan,
// which is fine for the index sizes this backend is meant for.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
	"github.com/hretheum/vectorwave.io-sub009/internal/repository"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// TopicIndexRepo implements repository.TopicIndexRepository with an
// in-process slice guarded by a mutex.
type TopicIndexRepo struct {
	mu    sync.RWMutex
	items []entity.IndexedItem
}

// NewTopicIndexRepo creates an empty in-memory index.
func NewTopicIndexRepo() *TopicIndexRepo {
	return &TopicIndexRepo{}
}

// Insert stores a copy of the item in the index.
func (r *TopicIndexRepo) Insert(_ context.Context, item *entity.IndexedItem) error {
	if item == nil {
		return fmt.Errorf("Insert: item is nil")
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	stored := *item
	stored.Embedding = append([]float32(nil), item.Embedding...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, stored)
	return nil
}

// SearchSimilar returns up to limit items ordered by descending cosine
// similarity to the query vector.
func (r *TopicIndexRepo) SearchSimilar(_ context.Context, embedding []float32, limit int) ([]repository.SimilarTopic, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("SearchSimilar: embedding is empty")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]repository.SimilarTopic, 0, len(r.items))
	for i := range r.items {
		item := &r.items[i]
		results = append(results, repository.SimilarTopic{
			ID:         item.ID,
			Title:      item.Title,
			Similarity: cosineSimilarity(embedding, item.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of indexed items.
func (r *TopicIndexRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

// cosineSimilarity returns 0 for mismatched dimensions or zero vectors
// so that degenerate entries never rank above real matches.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
