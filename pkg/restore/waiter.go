package restore

import (
	"context"
	"time"
)

const (
	DefaultWaitTimeout = 10 * time.Second
	WaitPollInterval   = 50 * time.Millisecond
)

// WaitFor blocks until loading reports false, the timeout passes or ctx is
// done. It reports whether the flag settled. Callers go on either way: a list
// that is still loading just yields no matches.
func WaitFor(ctx context.Context, loading func() bool, timeout time.Duration) bool {
	if !loading() {
		return true
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(WaitPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return !loading()
		case <-ticker.C:
			if !loading() {
				return true
			}
		}
	}
}
