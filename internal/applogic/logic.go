// Application task and data I/O scheduler
package applogic

import (
	"context"
	"errors"
	"slicerlogic/internal/atomics"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/queue/gated"
	"slicerlogic/internal/request"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/script"
	"slicerlogic/internal/task"
	"strconv"

	"golang.org/x/sync/errgroup"
)

func New(ctx context.Context, target *scene.Scene, storage StorageFactory, timers Timers, opts Options) (new *Scheduler) {
	ctx = logctx.AppendCtxTag(ctx, global.NSSched)
	opts.SetDefaults()

	namespace := logctx.GetTagList(ctx)
	queueNS := func(name string) []string {
		return append(append([]string(nil), namespace...), global.NSQueue, name)
	}

	new = &Scheduler{
		ctx:      ctx,
		scene:    target,
		storage:  storage,
		timers:   timers,
		opts:     opts,
		interp:   script.NewInterpreter(target),
		tasks:    gated.New[task.Task](queueNS(global.NSqTask)),
		modified: gated.New[Modifiable](queueNS(global.NSqModified)),
		reads:    gated.New[request.Request](queueNS(global.NSqRead)),
		writes:   gated.New[request.Request](queueNS(global.NSqWrite)),
		Metrics:  &MetricStorage{},
	}
	new.drainModified = &drain{name: global.NSModified, tick: new.tickModified}
	new.drainRead = &drain{name: global.NSRead, tick: new.tickRead}
	new.drainWrite = &drain{name: global.NSWrite, tick: new.tickWrite}
	return
}

func (opts *Options) SetDefaults() {
	if opts.NetworkingWorkers <= 0 {
		opts.NetworkingWorkers = global.DefaultNetworkingWorkers
	}
	if opts.WorkerPollInterval <= 0 {
		opts.WorkerPollInterval = global.DefaultWorkerPollInterval
	}
	if opts.DrainBusyDelay <= 0 {
		opts.DrainBusyDelay = global.DefaultDrainBusyDelay
	}
	if opts.DrainIdleDelay <= 0 {
		opts.DrainIdleDelay = global.DefaultDrainIdleDelay
	}
	if opts.DrainStartDelay <= 0 {
		opts.DrainStartDelay = global.DefaultDrainStartDelay
	}
	if opts.WorkerShutdownTimeout <= 0 {
		opts.WorkerShutdownTimeout = global.WorkerShutdownTimeout
	}
}

// Interpreter shared by every drained script batch
func (scheduler *Scheduler) Interpreter() *script.Interpreter { return scheduler.interp }

func (scheduler *Scheduler) State() (state State) {
	scheduler.lifecycleMu.Lock()
	defer scheduler.lifecycleMu.Unlock()
	if scheduler.workers != nil {
		state = StateRunning
	}
	return
}

// Activates all queues, starts the workers and arms the drains. No-op when already running.
func (scheduler *Scheduler) CreateProcessingThread() {
	scheduler.lifecycleMu.Lock()
	defer scheduler.lifecycleMu.Unlock()

	if scheduler.workers != nil {
		return
	}

	workerCtx, cancel := context.WithCancel(scheduler.ctx)
	group, workerCtx := errgroup.WithContext(workerCtx)
	workers := &workerGroup{group: group, cancel: cancel}

	// Workers exit as soon as they observe an inactive task queue
	scheduler.tasks.SetActive(true)

	scheduler.startWorker(workerCtx, workers, task.Processing, 0)
	for i := 0; i < scheduler.opts.NetworkingWorkers; i++ {
		scheduler.startWorker(workerCtx, workers, task.Networking, i)
	}

	scheduler.modified.SetActive(true)
	scheduler.reads.SetActive(true)
	scheduler.writes.SetActive(true)

	scheduler.workers = workers

	scheduler.schedule(scheduler.drainModified, scheduler.opts.DrainStartDelay)
	scheduler.schedule(scheduler.drainRead, scheduler.opts.DrainStartDelay)
	scheduler.schedule(scheduler.drainWrite, scheduler.opts.DrainStartDelay)

	logctx.LogEvent(scheduler.ctx, global.VerbosityProgress, global.InfoLog,
		"started 1 processing and %d networking workers\n", scheduler.opts.NetworkingWorkers)
}

// Deactivates all queues, signals the workers and waits a bounded time for them.
// No-op when already idle.
func (scheduler *Scheduler) TerminateProcessingThread() {
	scheduler.lifecycleMu.Lock()
	defer scheduler.lifecycleMu.Unlock()

	workers := scheduler.workers
	if workers == nil {
		return
	}

	scheduler.modified.SetActive(false)
	scheduler.reads.SetActive(false)
	scheduler.writes.SetActive(false)
	scheduler.tasks.SetActive(false)

	workers.cancel()

	stopped, remaining := atomics.WaitUntilZero(&workers.running, scheduler.opts.WorkerShutdownTimeout)
	if !stopped {
		// A task that ignores cancellation keeps its goroutine; it can no longer dequeue
		scheduler.Metrics.AbandonedWorkers.Add(remaining)
		logctx.LogEvent(scheduler.ctx, global.VerbosityStandard, global.ErrorLog,
			"%d worker(s) still executing a task after %s, abandoning them\n",
			remaining, scheduler.opts.WorkerShutdownTimeout)
	} else {
		err := workers.group.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			logctx.LogEvent(scheduler.ctx, global.VerbosityStandard, global.ErrorLog,
				"worker exited abnormally: %v\n", err)
		}
	}

	scheduler.workers = nil
	logctx.LogEvent(scheduler.ctx, global.VerbosityProgress, global.InfoLog, "workers stopped\n")
}

// Stops the scheduler and releases every object still held by the queues
func (scheduler *Scheduler) Close() {
	scheduler.TerminateProcessingThread()

	for _, obj := range scheduler.modified.Drain() {
		obj.Release()
	}
	dropped := len(scheduler.tasks.Drain()) + len(scheduler.reads.Drain()) + len(scheduler.writes.Drain())
	if dropped > 0 {
		logctx.LogEvent(scheduler.ctx, global.VerbosityStandard, global.WarnLog,
			"discarded %d unprocessed task(s) and request(s)\n", dropped)
	}
}

func workerNamespace(kind task.Type, index int) string {
	return global.NSWorker + "/" + kind.String() + "/" + strconv.Itoa(index)
}
