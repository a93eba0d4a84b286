package atomics

import (
	"sync/atomic"
	"time"
)

// Saturating subtract: the source never wraps below zero. Success if already 0.
// Retries up to maxRetries times if the CAS fails due to contention, with exponential backoff.
func Subtract(source *atomic.Uint64, value uint64, maxRetries int) (remaining uint64, success bool) {
	retryInterval := time.Microsecond * 10

	for i := 0; i < maxRetries; i++ {
		current := source.Load()
		if current == 0 {
			success = true
			return
		}

		if value < current {
			remaining = current - value
		} else {
			remaining = 0
		}

		if source.CompareAndSwap(current, remaining) {
			success = true
			return
		}

		time.Sleep(retryInterval)
		retryInterval *= 2
	}

	remaining = source.Load()
	return
}

// Raises target to candidate if candidate is larger (high-water mark)
func StoreMax(target *atomic.Uint64, candidate uint64) {
	for {
		current := target.Load()
		if candidate <= current {
			return
		}
		if target.CompareAndSwap(current, candidate) {
			return
		}
	}
}
