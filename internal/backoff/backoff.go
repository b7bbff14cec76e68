// Package backoff retries operations with exponential backoff and jitter.
package backoff

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrAttemptsExhausted is returned when every attempt failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy describes how delays grow between attempts.
type Policy struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	// Jitter adds up to this fraction of the delay at random.
	Jitter float64
}

// DefaultPolicy starts at 100ms and doubles up to 5s with 10% jitter.
func DefaultPolicy() Policy {
	return Policy{Initial: 100 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: 0.1}
}

// Delay returns the wait before the attempt following attempt (1-indexed).
// r is a random value in [0, 1).
func (p Policy) Delay(attempt int, r float64) time.Duration {
	exp := math.Max(float64(attempt-1), 0)
	base := float64(p.Initial) * math.Pow(p.Factor, exp)
	total := base + base*p.Jitter*r
	if p.Max > 0 {
		total = math.Min(float64(p.Max), total)
	}
	return time.Duration(total)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn up to attempts times, sleeping between failures. The last
// error is wrapped together with ErrAttemptsExhausted.
func Retry(ctx context.Context, p Policy, attempts int, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, last)
		}
		if last = fn(attempt); last == nil {
			return nil
		}
		if attempt < attempts {
			if err := Sleep(ctx, p.Delay(attempt, rand.Float64())); err != nil { // #nosec G404 -- jitter only
				return errors.Join(err, last)
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, last)
}
