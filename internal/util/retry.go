// Package util holds small helpers shared by the generation client and the persistence sink.
package util

import (
	"context"
	"time"
)

// ExponentialBackoff returns the wait before retry number attempt (1-based):
// base, 2*base, 4*base, ...
func ExponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift
	if attempt > 30 {
		attempt = 30
	}
	return base * time.Duration(1<<uint(attempt-1))
}

// LinearBackoff returns attempt * base
func LinearBackoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return base * time.Duration(attempt)
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep blocks for d, returning early with ctx.Err() if ctx is cancelled
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
