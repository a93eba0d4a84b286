package atomics

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitUntilZero(t *testing.T) {
	tests := []struct {
		name        string
		initial     uint64
		release     time.Duration // zero keeps the value unchanged
		timeout     time.Duration
		wantSettled bool
	}{
		{"idle", 0, 0, 300 * time.Millisecond, true},
		{"workers finish", 4, 60 * time.Millisecond, time.Second, true},
		{"worker stuck", 2, 0, 150 * time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var running atomic.Uint64
			running.Store(tt.initial)
			if tt.release > 0 {
				time.AfterFunc(tt.release, func() { running.Store(0) })
			}

			start := time.Now()
			settled, last := WaitUntilZero(&running, tt.timeout)
			if settled != tt.wantSettled {
				t.Fatalf("expected settled=%v, got %v (last=%d)", tt.wantSettled, settled, last)
			}
			if settled && last != 0 {
				t.Fatalf("settled with non-zero value %d", last)
			}
			if !settled {
				if last != tt.initial {
					t.Fatalf("expected last value %d, got %d", tt.initial, last)
				}
				if time.Since(start) < tt.timeout {
					t.Fatalf("returned before timeout")
				}
			}
		})
	}
}
