package dataio

import (
	"context"
	"errors"
	"net/http"
	"slicerlogic/internal/cache"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/task"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrLowMemory         = errors.New("free memory below download floor")
	ErrUnsupportedScheme = errors.New("unsupported transfer scheme")
	ErrNoCache           = errors.New("scene has no cache manager")
)

// Scheduler surface the manager hands work to
type Scheduler interface {
	ScheduleTask(t task.Task) bool
	RequestReadData(nodeID, filename string, displayData, deleteFileAfter bool) (uint64, bool)
	RequestWriteData(nodeID, filename string, displayData, deleteFileAfter bool) (uint64, bool)
}

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusRunning
	StatusCompleted
	StatusCompletedWithErrors
	StatusCancelPending
	StatusCancelled
)

func (status Status) String() (name string) {
	switch status {
	case StatusIdle:
		name = "Idle"
	case StatusPending:
		name = "Pending"
	case StatusRunning:
		name = "Running"
	case StatusCompleted:
		name = "Completed"
	case StatusCompletedWithErrors:
		name = "CompletedWithErrors"
	case StatusCancelPending:
		name = "CancelPending"
	case StatusCancelled:
		name = "Cancelled"
	default:
		name = "Unknown"
	}
	return
}

// Done reports whether the transfer reached a final state
func (status Status) Done() bool {
	return status == StatusCompleted || status == StatusCompletedWithErrors || status == StatusCancelled
}

type Options struct {
	DownloadRate  float64 // downloads started per second
	DownloadBurst int
	MinFreeMemory uint64 // bytes
	Timeout       time.Duration
}

// One remote file moving into the cache
type Transfer struct {
	ID          uint64
	SourceURI   string
	Destination string
	NodeID      string
	DisplayData bool

	mu       sync.Mutex
	status   Status
	err      error
	bytes    int64
	started  time.Time
	finished time.Time
	cancel   context.CancelFunc
}

// Point in time copy of a transfer
type TransferInfo struct {
	ID          uint64        `json:"id"`
	SourceURI   string        `json:"sourceURI"`
	Destination string        `json:"destination"`
	NodeID      string        `json:"nodeID"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	Bytes       int64         `json:"bytes"`
	Duration    time.Duration `json:"duration"`
}

type Manager struct {
	ctx       context.Context
	scene     *scene.Scene
	cache     *cache.Manager
	scheduler Scheduler
	opts      Options

	client     *http.Client
	limiter    *rate.Limiter
	freeMemory func() uint64

	mu        sync.Mutex
	transfers map[uint64]*Transfer
	nextID    atomic.Uint64

	Metrics *MetricStorage
}

type MetricStorage struct {
	Queued        atomic.Uint64
	LocalReads    atomic.Uint64
	Started       atomic.Uint64
	Completed     atomic.Uint64
	Failed        atomic.Uint64
	Cancelled     atomic.Uint64
	RefusedMemory atomic.Uint64
	BytesReceived atomic.Uint64
}
