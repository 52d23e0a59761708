package browser

import (
	"context"
	"time"
)

// Pause sleeps for d unless ctx ends first. The target site throttles
// clients that act faster than a person would, so interactions are spaced
// out with these pauses.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Millis converts a duration to the float milliseconds playwright expects.
func Millis(d time.Duration) *float64 {
	ms := float64(d.Milliseconds())
	return &ms
}
