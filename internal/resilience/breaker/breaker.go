// Package breaker implements a fail-fast circuit breaker for calls to a
// single upstream target. After a run of consecutive failures the
// circuit opens and callers fail immediately, with a retry-after hint,
// until a recovery timeout elapses; then exactly one probe call is
// admitted to test recovery.
package breaker

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hretheum/vectorwave.io-sub009/internal/pkg/clock"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed indicates normal operation; calls pass through.
	StateClosed State = iota

	// StateOpen indicates the upstream is considered down; calls fail
	// fast without touching the network.
	StateOpen

	// StateHalfOpen indicates the recovery timeout has elapsed and a
	// single probe call is testing whether the upstream recovered.
	StateHalfOpen
)

// String returns a string representation of the circuit state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// OpenError is returned by Acquire when the call must fail fast.
// RetryAfter is the estimated time until the breaker will admit a probe;
// it is zero when a probe is already in flight.
type OpenError struct {
	RetryAfter    time.Duration
	ProbeInFlight bool
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	if e.ProbeInFlight {
		return "circuit breaker is half-open: probe in flight"
	}
	return fmt.Sprintf("circuit breaker is open (retry after %v)", e.RetryAfter)
}

// Config holds configuration for a Breaker.
type Config struct {
	// Name identifies the protected upstream target in logs and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that opens
	// the circuit. Default: 5.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before a probe
	// is admitted. It never grows between open periods. Default: 60s.
	RecoveryTimeout time.Duration

	// Clock provides time abstraction for testing. Default: SystemClock.
	Clock clock.Clock

	// OnStateChange, when set, is called after every state transition.
	// It runs outside the breaker lock.
	OnStateChange func(name string, from, to State)
}

// Breaker is a per-target circuit breaker. It is process-local state,
// created once per upstream target and rebuilt on restart. All methods
// are safe for concurrent use.
type Breaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	clock            clock.Clock
	onStateChange    func(name string, from, to State)

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
	probeInFlight       bool
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = &clock.SystemClock{}
	}

	return &Breaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		clock:            cfg.Clock,
		onStateChange:    cfg.OnStateChange,
		state:            StateClosed,
	}
}

// Acquire reserves the right to issue one call against the upstream.
// It returns nil when the call may proceed, and *OpenError when the
// caller must fail fast. Every successful Acquire must be paired with
// exactly one Record reporting the call's final outcome.
func (b *Breaker) Acquire() error {
	b.mu.Lock()

	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return nil

	case StateOpen:
		elapsed := b.clock.Now().Sub(b.openedAt)
		if elapsed < b.recoveryTimeout {
			remaining := b.recoveryTimeout - elapsed
			b.mu.Unlock()
			return &OpenError{RetryAfter: remaining}
		}
		// Recovery window elapsed: admit this caller as the probe.
		transition := b.setState(StateHalfOpen)
		b.probeInFlight = true
		b.mu.Unlock()
		transition()
		return nil

	case StateHalfOpen:
		if b.probeInFlight {
			b.mu.Unlock()
			return &OpenError{ProbeInFlight: true}
		}
		b.probeInFlight = true
		b.mu.Unlock()
		return nil
	}

	b.mu.Unlock()
	return nil
}

// Record reports the final outcome of a call admitted by Acquire.
// The breaker observes one outcome per outer call, not per retry
// attempt.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()

	var transition func()
	switch b.state {
	case StateClosed:
		if success {
			b.consecutiveFailures = 0
			break
		}
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.openedAt = b.clock.Now()
			transition = b.setState(StateOpen)
		}

	case StateHalfOpen:
		b.probeInFlight = false
		if success {
			b.consecutiveFailures = 0
			transition = b.setState(StateClosed)
			break
		}
		// Probe failed: reopen with a fresh openedAt. The recovery
		// timeout itself never grows.
		b.consecutiveFailures++
		b.openedAt = b.clock.Now()
		transition = b.setState(StateOpen)

	case StateOpen:
		// A call admitted before the circuit opened is finishing late.
		// The open state already reflects the upstream's health.
	}

	b.mu.Unlock()
	if transition != nil {
		transition()
	}
}

// setState transitions the breaker and returns a function that performs
// logging and the state-change callback. The caller invokes it after
// releasing the lock.
func (b *Breaker) setState(to State) func() {
	from := b.state
	b.state = to
	failures := b.consecutiveFailures
	return func() {
		slog.Warn("circuit breaker state changed",
			slog.String("circuit", b.name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
			slog.Int("consecutive_failures", failures),
			slog.Duration("recovery_timeout", b.recoveryTimeout))
		if b.onStateChange != nil {
			b.onStateChange(b.name, from, to)
		}
	}
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot is a read-only view of the breaker for monitoring.
type Snapshot struct {
	Name                string        `json:"name"`
	State               string        `json:"state"`
	CircuitOpen         bool          `json:"circuit_open"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	FailureThreshold    int           `json:"failure_threshold"`
	RecoveryTimeout     time.Duration `json:"recovery_timeout"`
	RetryAfter          time.Duration `json:"retry_after,omitempty"`
}

// Snapshot returns the current breaker state for health reporting.
// It does not trigger the open-to-half-open transition.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		Name:                b.name,
		State:               b.state.String(),
		CircuitOpen:         b.state == StateOpen,
		ConsecutiveFailures: b.consecutiveFailures,
		FailureThreshold:    b.failureThreshold,
		RecoveryTimeout:     b.recoveryTimeout,
	}
	if b.state == StateOpen {
		if remaining := b.recoveryTimeout - b.clock.Now().Sub(b.openedAt); remaining > 0 {
			snap.RetryAfter = remaining
		}
	}
	return snap
}
