// Package backoff provides the retry policy applied to every
// network-touching operation in the pipeline: bounded attempts with an
// exponentially increasing, jittered sleep between them.
package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes a bounded retry schedule. The zero value is not
// usable; construct with Default and override fields as needed.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// InitialInterval is the sleep before the second attempt.
	InitialInterval time.Duration
	// MaxInterval caps the grown interval.
	MaxInterval time.Duration
	// Multiplier grows the interval after each failed attempt.
	Multiplier float64
	// Jitter is the relative random spread applied to each sleep (0..1).
	Jitter float64
}

// Default returns the policy used across the pipeline: 3 attempts,
// 1s initial delay doubling up to 30s.
func Default() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Jitter:          0.1,
	}
}

// Retry runs fn until it succeeds, the attempt budget is exhausted, or
// ctx is cancelled. The last error is returned on exhaustion.
func (p Policy) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	interval := p.InitialInterval
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			sleep := interval
			if p.Jitter > 0 {
				spread := (rand.Float64()*2 - 1) * p.Jitter * float64(interval)
				sleep = time.Duration(float64(interval) + spread)
				if sleep < 0 {
					sleep = 0
				}
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}

			interval = time.Duration(float64(interval) * p.Multiplier)
			if p.MaxInterval > 0 && interval > p.MaxInterval {
				interval = p.MaxInterval
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}

// RetryWithData runs fn under policy p and returns its value.
func RetryWithData[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Retry(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
