// Package fixtures provides reusable test data generators.
package fixtures

import (
	"time"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
)

// CandidateOption is a functional option for customizing test candidates.
type CandidateOption func(*entity.Candidate)

// NewTestCandidate creates a valid Candidate with sensible defaults.
// Use functional options to customize the candidate for specific test cases.
//
// Example:
//
//	c := NewTestCandidate()
//	c := NewTestCandidate(WithTitle("Tail latency in queue processors"))
func NewTestCandidate(opts ...CandidateOption) *entity.Candidate {
	c := &entity.Candidate{
		Title:   "Zero-downtime schema migrations in Postgres",
		Summary: "Practical strategies for rolling out breaking schema changes without taking writes offline.",
		Source:  "editorial-backlog",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTitle sets the Title of the candidate.
func WithTitle(title string) CandidateOption {
	return func(c *entity.Candidate) {
		c.Title = title
	}
}

// WithSummary sets the Summary of the candidate.
func WithSummary(summary string) CandidateOption {
	return func(c *entity.Candidate) {
		c.Summary = summary
	}
}

// WithSource sets the Source of the candidate.
func WithSource(source string) CandidateOption {
	return func(c *entity.Candidate) {
		c.Source = source
	}
}

// WithMetadata sets a metadata entry on the candidate.
func WithMetadata(key, value string) CandidateOption {
	return func(c *entity.Candidate) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		c.Metadata[key] = value
	}
}

// IndexedItemOption is a functional option for customizing test indexed items.
type IndexedItemOption func(*entity.IndexedItem)

// NewTestIndexedItem creates a valid IndexedItem with sensible defaults.
func NewTestIndexedItem(opts ...IndexedItemOption) *entity.IndexedItem {
	item := &entity.IndexedItem{
		ID:         "6f1f7b9c-8c2d-4f6e-9a3b-2d1e0c9b8a7f",
		Title:      "Zero-downtime schema migrations in Postgres",
		Summary:    "Practical strategies for rolling out breaking schema changes without taking writes offline.",
		Source:     "editorial-backlog",
		Embedding:  GenerateTestVector(64, 0.1),
		AcceptedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	for _, opt := range opts {
		opt(item)
	}

	return item
}

// WithItemID sets the ID of the indexed item.
func WithItemID(id string) IndexedItemOption {
	return func(i *entity.IndexedItem) {
		i.ID = id
	}
}

// WithItemTitle sets the Title of the indexed item.
func WithItemTitle(title string) IndexedItemOption {
	return func(i *entity.IndexedItem) {
		i.Title = title
	}
}

// WithItemEmbedding sets the Embedding of the indexed item.
func WithItemEmbedding(embedding []float32) IndexedItemOption {
	return func(i *entity.IndexedItem) {
		i.Embedding = embedding
	}
}

// WithAcceptedAt sets the AcceptedAt timestamp of the indexed item.
func WithAcceptedAt(ts time.Time) IndexedItemOption {
	return func(i *entity.IndexedItem) {
		i.AcceptedAt = ts
	}
}

// GenerateTestVector creates a deterministic vector of the specified dimension.
// The seed value is used to generate predictable but different vectors.
//
// Example:
//
//	vec := GenerateTestVector(64, 0.1) // [0.1, 0.101, 0.102, ...]
func GenerateTestVector(dimension int, seed float32) []float32 {
	vec := make([]float32, dimension)
	for i := 0; i < dimension; i++ {
		vec[i] = seed + float32(i)*0.001
	}
	return vec
}

// ZeroVector creates a vector of zeros with the specified dimension.
func ZeroVector(dimension int) []float32 {
	return make([]float32, dimension)
}
