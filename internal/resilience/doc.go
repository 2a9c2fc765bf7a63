// Package resilience provides fault tolerance building blocks for
// outbound calls to unreliable dependencies.
//
// It contains:
//   - breaker: a fail-fast circuit breaker with a single half-open probe
//   - retry: bounded exponential backoff with transient-error classification
//
// Usage example:
//
//	b := breaker.New(breaker.Config{Name: "generator"})
//	if err := b.Acquire(); err != nil {
//	    return err // circuit open, fail fast
//	}
//	err := retry.Do(ctx, retry.DefaultPolicy(), callUpstream)
//	b.Record(err == nil)
package resilience
