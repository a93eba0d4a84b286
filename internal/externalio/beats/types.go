package beats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Subset of the lumberjack client used for delivery
type sink interface {
	Send(data []interface{}) (int, error)
	Close() error
}

// One drained read or write as shipped to the beats endpoint
type Event struct {
	UID      uint64
	Kind     string
	Filename string
	Targets  []string
	Failed   bool
	Time     time.Time
}

// Ships events in batches from a bounded buffer. Enqueue never blocks.
type OutModule struct {
	sink     sink
	events   chan Event
	batchMax int
	flush    time.Duration
	done     chan struct{}
	stopOnce sync.Once

	Metrics MetricStorage
}

type MetricStorage struct {
	Enqueued atomic.Uint64
	Dropped  atomic.Uint64
	Sent     atomic.Uint64
	Failed   atomic.Uint64
}
