// Package idempotency provides the in-process record store that makes
// submissions effectively exactly-once per caller-supplied key. The
// create-or-claim operation is atomic per key: concurrent submissions
// with the same key never both proceed to scoring.
package idempotency

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
	"github.com/hretheum/vectorwave.io-sub009/internal/pkg/clock"
)

// DefaultTTL is how long a record deduplicates its key after creation.
const DefaultTTL = 24 * time.Hour

// Record is the stored outcome for one idempotency key. For a given
// key at most one live record exists; it is immutable except for the
// single queued-to-terminal status transition.
type Record struct {
	Key          string
	Status       entity.SubmissionStatus
	AssignedID   string
	NoveltyScore float64
	CreatedAt    time.Time
}

// Store errors.
var (
	// ErrUnknownKey is returned when completing or releasing a key that
	// has no live record.
	ErrUnknownKey = errors.New("idempotency key has no record")

	// ErrAlreadyCompleted is returned when a record is driven to a
	// terminal status more than once.
	ErrAlreadyCompleted = errors.New("idempotency record already completed")
)

// Config holds configuration for a Store.
type Config struct {
	// TTL is the record lifetime; expired records are replaced on next
	// sight of the key. Default: 24h.
	TTL time.Duration

	// Clock provides time abstraction for testing.
	Clock clock.Clock
}

// Store is a thread-safe in-memory idempotency record store. Records
// are process-local; expiry is checked lazily at lookup time, and
// Sweep exists only as a memory-reclamation optimization.
type Store struct {
	ttl   time.Duration
	clock clock.Clock

	mu      sync.Mutex
	records map[string]*trackedRecord
}

// trackedRecord pairs a record with its scoring claim. claimed is true
// while one caller owns the right to drive the record to a terminal
// status; a queued record with no claim was abandoned by a failed
// attempt and may be reclaimed by a retry with the same key.
type trackedRecord struct {
	rec     Record
	claimed bool
}

// NewStore creates an idempotency store with the given configuration.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = &clock.SystemClock{}
	}
	return &Store{
		ttl:     cfg.TTL,
		clock:   cfg.Clock,
		records: make(map[string]*trackedRecord),
	}
}

// CreateOrClaim atomically creates a queued record for an unseen (or
// expired) key and claims it for scoring, or returns the existing
// record. The boolean is true when the caller now owns scoring: either
// the record is fresh, or it was left queued and unclaimed by an
// earlier attempt that failed before committing an outcome.
func (s *Store) CreateOrClaim(key string) (Record, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	tr, exists := s.records[key]
	if exists && !s.expired(tr.rec, now) {
		if tr.rec.Status == entity.StatusQueued && !tr.claimed {
			tr.claimed = true
			return tr.rec, true
		}
		return tr.rec, false
	}

	// Unseen key, or an expired record being replaced.
	tr = &trackedRecord{
		rec: Record{
			Key:       key,
			Status:    entity.StatusQueued,
			CreatedAt: now,
		},
		claimed: true,
	}
	s.records[key] = tr
	return tr.rec, true
}

// Complete drives a claimed queued record to its terminal status.
// The queued-to-terminal transition happens exactly once per record.
func (s *Store) Complete(key string, status entity.SubmissionStatus, assignedID string, noveltyScore float64) error {
	if !status.Terminal() {
		return fmt.Errorf("complete %q: status %q is not terminal", key, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tr, exists := s.records[key]
	if !exists {
		return fmt.Errorf("complete %q: %w", key, ErrUnknownKey)
	}
	if tr.rec.Status.Terminal() {
		return fmt.Errorf("complete %q: %w", key, ErrAlreadyCompleted)
	}

	tr.rec.Status = status
	tr.rec.AssignedID = assignedID
	tr.rec.NoveltyScore = noveltyScore
	tr.claimed = false
	return nil
}

// Release abandons a scoring claim without committing an outcome. The
// record stays queued so a legitimate retry with the same key can
// reclaim it.
func (s *Store) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tr, exists := s.records[key]; exists && tr.rec.Status == entity.StatusQueued {
		tr.claimed = false
	}
}

// Get returns the live record for a key, if any. Expired records are
// reported as absent.
func (s *Store) Get(key string) (Record, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	tr, exists := s.records[key]
	if !exists || s.expired(tr.rec, now) {
		return Record{}, false
	}
	return tr.rec, true
}

// Len returns the number of stored records, including expired ones not
// yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep removes expired records and returns how many were removed.
// Correctness does not depend on it; lazy expiry at lookup time already
// handles replacement.
func (s *Store) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, tr := range s.records {
		if s.expired(tr.rec, now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(rec Record, now time.Time) bool {
	return now.Sub(rec.CreatedAt) >= s.ttl
}
