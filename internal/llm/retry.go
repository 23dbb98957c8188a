package llm

import (
	"context"
	"math"
	"time"
)

// RetryPolicy runs an operation up to MaxAttempts times, waiting
// InitialWait * Multiplier^(n-1) after the n-th failure. With the defaults
// that is 1s, then 2s, then give up.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	Multiplier  float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialWait: time.Second, Multiplier: 2}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.InitialWait) * math.Pow(mult, float64(attempt-1)))
}

// Do calls fn until it succeeds or attempts run out. Only cancellation of ctx
// stops early; every other failure, including bad output, uses an attempt.
// Exhaustion returns a *GenerationError wrapping the last failure.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &GenerationError{Attempts: attempts, Err: lastErr}
}
