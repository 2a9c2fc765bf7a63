// Package gate provides the novelty gate use cases: scoring candidate
// topics against the accepted-topic index and admitting them through an
// idempotent submission pipeline.
package gate

import "errors"

// Sentinel errors for gate use case operations.
var (
	// ErrMissingIdempotencyKey indicates a submission arrived without an
	// idempotency key. Keys are caller-supplied and mandatory.
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
)
