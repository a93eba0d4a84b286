// Helper functions that deal with atomic variables and their values
package atomics

import (
	"sync/atomic"
	"time"
)

const (
	zeroStreakRequired = 3
	pollStart          = 20 * time.Millisecond
	pollCap            = 500 * time.Millisecond
)

// Polls value until it reads zero on consecutive polls or timeout elapses.
// Workers that decrement and re-increment between polls do not count as settled.
func WaitUntilZero(value *atomic.Uint64, timeout time.Duration) (reachedZero bool, lastValue uint64) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	interval := pollStart
	streak := 0
	for {
		lastValue = value.Load()
		if lastValue != 0 {
			streak = 0
		} else if streak++; streak >= zeroStreakRequired {
			reachedZero = true
			return
		}

		poll := time.NewTimer(interval)
		select {
		case <-deadline.C:
			poll.Stop()
			lastValue = value.Load()
			return
		case <-poll.C:
		}

		interval = min(interval*2, pollCap)
	}
}
