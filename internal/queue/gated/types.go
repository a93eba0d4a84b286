package gated

import (
	"sync"
	"sync/atomic"
)

// FIFO protected by a content mutex, gated by an active flag behind its own mutex.
// The two mutexes are never held at the same time.
type Queue[T any] struct {
	Namespace []string

	mu    sync.Mutex // protects items
	items []T

	activeMu sync.Mutex // protects active
	active   bool

	Metrics *MetricStorage
}

type MetricStorage struct {
	Depth    atomic.Uint64 // Current items in queue
	MaxDepth atomic.Uint64 // High-water mark for the interval

	PushAccepted atomic.Uint64 // Push calls made while active
	PushRejected atomic.Uint64 // Push calls made while inactive
	Pops         atomic.Uint64 // Items removed by consumers
	FrontMisses  atomic.Uint64 // Conditional pops that left the front in place
	Coalesced    atomic.Uint64 // Items collapsed into a preceding identical item
}
