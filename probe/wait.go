package probe

import (
	"context"
	"time"
)

// WaitFor polls condition every interval until it holds or timeout elapses.
// It returns false on timeout or cancellation; the caller decides what that means.
// A non-positive interval checks the condition once.
func WaitFor(ctx context.Context, condition func() bool, interval, timeout time.Duration) bool {
	if condition() {
		return true
	}
	if interval <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return condition()
		case <-ticker.C:
			if condition() {
				return true
			}
		}
	}
}
