// Package clock provides a time abstraction so that time-dependent
// components (circuit breaker transitions, idempotency record expiry)
// can be tested with a controlled clock.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time. Production code uses SystemClock;
// tests inject a Mock to drive transitions deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current system time.
func (*SystemClock) Now() time.Time {
	return time.Now()
}

// Mock is a manually advanced Clock for tests. It is safe for
// concurrent use.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock creates a Mock clock frozen at the given time.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

// Now returns the mock's current time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set moves the mock clock to the given time.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
