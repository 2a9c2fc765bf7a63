package entity

import "strings"

const (
	// maxTitleLength bounds titles before they reach the embedding provider.
	maxTitleLength = 500

	// maxSummaryLength bounds summaries; anything larger is almost
	// certainly pasted article content rather than a topic summary.
	maxSummaryLength = 10000

	// maxMetadataEntries caps caller-supplied metadata maps.
	maxMetadataEntries = 32
)

// ValidateTitle validates a candidate title. Empty and whitespace-only
// titles are rejected; this check runs before any idempotency
// bookkeeping so an invalid submission never consumes its key.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > maxTitleLength {
		return &ValidationError{Field: "title", Message: "title exceeds maximum length"}
	}
	return nil
}
