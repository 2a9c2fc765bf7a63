// Package topic provides HTTP handlers for candidate topic submission
// and novelty checking.
package topic

import (
	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
)

// IdempotencyKeyHeader carries the caller-supplied submission key.
const IdempotencyKeyHeader = "Idempotency-Key"

type candidateRequest struct {
	Title    string            `json:"title"`
	Summary  string            `json:"summary,omitempty"`
	Source   string            `json:"source,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// IdempotencyKey is a fallback for clients that cannot set the
	// Idempotency-Key header. The header wins when both are present.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (r candidateRequest) toEntity() *entity.Candidate {
	return &entity.Candidate{
		Title:    r.Title,
		Summary:  r.Summary,
		Source:   r.Source,
		Metadata: r.Metadata,
	}
}
