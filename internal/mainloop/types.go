package mainloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrLoopStopped = errors.New("main loop is not accepting callbacks")

// Single goroutine cooperative event loop. All callbacks run on the goroutine executing Run.
type Loop struct {
	ctx context.Context // logging

	mu      sync.Mutex // protects timers, seq
	timers  timerHeap
	seq     uint64
	wake    chan struct{}
	stopped atomic.Bool
	loopID  atomic.Uint64 // goroutine id of the running loop, 0 when not running
	running atomic.Bool

	Metrics *MetricStorage
}

type MetricStorage struct {
	Executed atomic.Uint64 // Callbacks run
	Panics   atomic.Uint64 // Callbacks that panicked
	Pending  atomic.Uint64 // Callbacks waiting
	Lag      atomic.Int64  // Worst observed lateness of a due callback (ns) in the interval
}

type timer struct {
	when time.Time
	seq  uint64 // FIFO among equal deadlines
	fn   func()
}

type timerHeap []timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(timer))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = timer{}
	*h = old[:n-1]
	return x
}
