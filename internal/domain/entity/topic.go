// Package entity defines the core domain objects for the topic gate:
// candidate submissions, indexed topics, and submission outcomes, along
// with their validation rules and domain errors.
package entity

import "time"

// SubmissionStatus is the lifecycle state of a submission under one
// idempotency key. A record starts as queued and transitions to exactly
// one terminal state (accepted or rejected).
type SubmissionStatus string

const (
	// StatusQueued means scoring has started but no terminal outcome
	// has been committed yet.
	StatusQueued SubmissionStatus = "queued"

	// StatusAccepted means the candidate cleared the novelty threshold
	// and was added to the index.
	StatusAccepted SubmissionStatus = "accepted"

	// StatusRejected means the candidate scored below the novelty
	// threshold and was not indexed.
	StatusRejected SubmissionStatus = "rejected"
)

// Terminal reports whether the status is a final outcome.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Candidate is a topic proposal submitted for novelty gating.
// Candidates are transient: they are only retained (as an IndexedItem)
// when accepted.
type Candidate struct {
	Title    string
	Summary  string
	Source   string
	Metadata map[string]string
}

// Validate checks the candidate against domain rules. Title is
// mandatory and must contain non-whitespace content; length caps guard
// against oversized payloads reaching the embedding provider.
func (c *Candidate) Validate() error {
	if err := ValidateTitle(c.Title); err != nil {
		return err
	}
	if len(c.Summary) > maxSummaryLength {
		return &ValidationError{
			Field:   "summary",
			Message: "summary exceeds maximum length",
		}
	}
	if len(c.Metadata) > maxMetadataEntries {
		return &ValidationError{
			Field:   "metadata",
			Message: "too many metadata entries",
		}
	}
	return nil
}

// EmbeddingText is the text representation of the candidate fed to the
// embedding provider. Title and summary contribute; metadata does not.
func (c *Candidate) EmbeddingText() string {
	if c.Summary == "" {
		return c.Title
	}
	return c.Title + "\n" + c.Summary
}

// IndexedItem is an accepted topic persisted into the similarity index.
type IndexedItem struct {
	ID         string
	Title      string
	Summary    string
	Source     string
	Embedding  []float32
	AcceptedAt time.Time
}

// Validate checks the invariants required before persisting the item.
func (i *IndexedItem) Validate() error {
	if i.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if err := ValidateTitle(i.Title); err != nil {
		return err
	}
	if len(i.Embedding) == 0 {
		return &ValidationError{Field: "embedding", Message: "embedding is required"}
	}
	return nil
}
