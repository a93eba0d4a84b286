package applogic

import (
	"context"
	"slicerlogic/internal/queue/gated"
	"slicerlogic/internal/request"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/script"
	"slicerlogic/internal/task"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Main loop timer facility the drains re-arm themselves through
type Timers interface {
	AfterFunc(delay time.Duration, fn func()) bool
}

// Creates the storage node able to load a file into a target node
type StorageFactory interface {
	ForTarget(target *scene.Node, fileName string) (scene.Storable, error)
}

// Reference counted payload accepted by RequestModified.
// Implementations must be pointer types so duplicates compare by identity.
type Modifiable interface {
	Register()
	Release()
	Modified()
}

type State int

const (
	StateIdle State = iota
	StateRunning
)

func (state State) String() string {
	if state == StateRunning {
		return "Running"
	}
	return "Idle"
}

type Options struct {
	NetworkingWorkers     int
	WorkerPollInterval    time.Duration
	DrainBusyDelay        time.Duration
	DrainIdleDelay        time.Duration
	DrainStartDelay       time.Duration
	WorkerShutdownTimeout time.Duration
	BackgroundPriority    bool
	BackgroundNice        int
}

// Outcome of one drained read or write request
type ProcessedEvent struct {
	UID      uint64
	Kind     request.Kind
	Filename string
	Targets  []string
	Failed   bool
	Time     time.Time
}

// Owns the four gated queues, the worker goroutines and the main loop drains.
// The scene is only touched from drain callbacks running on the main loop.
type Scheduler struct {
	ctx      context.Context
	scene    *scene.Scene
	storage  StorageFactory
	timers   Timers
	opts     Options
	interp   *script.Interpreter
	nextUID  atomic.Uint64
	tasks    *gated.Queue[task.Task]
	modified *gated.Queue[Modifiable]
	reads    *gated.Queue[request.Request]
	writes   *gated.Queue[request.Request]

	lifecycleMu sync.Mutex // serializes create/terminate
	workers     *workerGroup

	drainModified *drain
	drainRead     *drain
	drainWrite    *drain

	obsMu     sync.Mutex
	observers []func(ProcessedEvent)

	Metrics *MetricStorage
}

// Running worker goroutines of one create/terminate cycle
type workerGroup struct {
	group   *errgroup.Group
	cancel  context.CancelFunc
	running atomic.Uint64
}

// Main loop callback with at most one pending timer
type drain struct {
	name    string
	tick    func() (remaining int, active bool)
	pending atomic.Bool
}

type MetricStorage struct {
	ProcessingExecuted atomic.Uint64
	NetworkingExecuted atomic.Uint64
	TaskPanics         atomic.Uint64
	ModifiedApplied    atomic.Uint64
	ScriptErrors       atomic.Uint64
	ReadsProcessed     atomic.Uint64
	ReadFailures       atomic.Uint64
	WritesProcessed    atomic.Uint64
	SceneImports       atomic.Uint64
	NodeCopies         atomic.Uint64
	DrainTicks         atomic.Uint64
	AbandonedWorkers   atomic.Uint64
}
