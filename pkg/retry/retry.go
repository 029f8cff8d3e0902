// Package retry repeats startup probes against infrastructure that may not
// be reachable yet.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// A Policy describes how often and how patiently an operation is repeated.
// The zero value runs the operation once.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Retryable reports whether err is worth another attempt. Nil means
	// every error is.
	Retryable func(error) bool
}

// Delay returns the wait before the attempt following attempt. It doubles
// from BaseDelay, adds up to 50% jitter and never exceeds MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	base := p.BaseDelay << (attempt - 1)
	if base <= 0 || (p.MaxDelay > 0 && base > p.MaxDelay) {
		base = p.MaxDelay
	}
	d := base + time.Duration(rand.Int64N(int64(base/2)+1))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func (p Policy) retryable(err error) bool {
	return p.Retryable == nil || p.Retryable(err)
}

// Do runs fn until it succeeds, the attempts run out, fn returns an error
// that is not retryable or ctx is done.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](
	ctx context.Context, p Policy, fn func(context.Context) (T, error),
) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	attempts := max(p.Attempts, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= attempts || !p.retryable(err) {
			return zero, fmt.Errorf("attempt %d/%d: %w", attempt, attempts, err)
		}

		wait := p.Delay(attempt)
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
