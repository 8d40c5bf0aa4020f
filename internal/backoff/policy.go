// Package backoff defines the bounded fixed-interval retry policy used for queue fetches.
package backoff

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default policy values: one initial attempt plus four retries, one second apart.
const (
	DefaultMaxAttempts = 5
	DefaultInterval    = time.Second
)

// Policy bounds retries of a transient operation.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	Interval    time.Duration // fixed wait between attempts
}

// Default returns the policy used by the queue reader unless overridden.
func Default() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Interval: DefaultInterval}
}

// normalized fills zero or negative fields with defaults.
func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	return p
}

// Backoff returns a go-retry backoff that stops after MaxAttempts-1 waits.
func (p Policy) Backoff() retry.Backoff {
	p = p.normalized()
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), retry.NewConstant(p.Interval))
}

// MaxWait is the longest total time the policy spends waiting between attempts.
func (p Policy) MaxWait() time.Duration {
	p = p.normalized()
	return time.Duration(p.MaxAttempts-1) * p.Interval
}

// Do runs fn until it returns nil, a non-retryable error, or the policy is exhausted.
// fn marks transient failures with retry.RetryableError. The attempt number passed
// to fn starts at 1. On exhaustion the last transient cause is returned unwrapped.
func Do[T any](ctx context.Context, b retry.Backoff, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempt := 0
	return retry.DoValue(ctx, b, func(ctx context.Context) (T, error) {
		attempt++
		return fn(ctx, attempt)
	})
}

// Recorder wraps b and records every wait it hands out.
type Recorder struct {
	next  retry.Backoff
	Waits []time.Duration
}

// NewRecorder wraps b.
func NewRecorder(b retry.Backoff) *Recorder { return &Recorder{next: b} }

// Next implements retry.Backoff.
func (r *Recorder) Next() (time.Duration, bool) {
	d, stop := r.next.Next()
	if !stop {
		r.Waits = append(r.Waits, d)
	}
	return d, stop
}

// Total returns the sum of recorded waits.
func (r *Recorder) Total() time.Duration {
	var sum time.Duration
	for _, d := range r.Waits {
		sum += d
	}
	return sum
}
