package applogic

import (
	"context"
	"fmt"
	"runtime/debug"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/task"
	"time"
)

func (scheduler *Scheduler) startWorker(ctx context.Context, workers *workerGroup, kind task.Type, index int) {
	ctx = logctx.AppendCtxTag(ctx, workerNamespace(kind, index))

	workers.running.Add(1)
	workers.group.Go(func() (err error) {
		defer workers.running.Add(^uint64(0))

		if scheduler.opts.BackgroundPriority {
			scheduler.lowerPriority(ctx)
		}
		err = scheduler.runWorker(ctx, kind)
		return
	})
}

// Polls the shared task queue. Only a front task of the worker's own category is
// taken; any other front leaves the queue untouched for this iteration.
func (scheduler *Scheduler) runWorker(ctx context.Context, kind task.Type) (err error) {
	poll := time.NewTicker(scheduler.opts.WorkerPollInterval)
	defer poll.Stop()

	// An abandoned worker whose stuck task returns must not dequeue again, even
	// when a newer worker set has reactivated the queue.
	matches := func(t task.Task) bool { return ctx.Err() == nil && t.Type() == kind }

	for {
		if ctx.Err() != nil {
			err = ctx.Err()
			return
		}
		if !scheduler.tasks.Active() {
			return
		}

		next, ok := scheduler.tasks.PopFrontIf(matches)
		if ok {
			scheduler.execute(ctx, kind, next)
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-poll.C:
		}
	}
}

func (scheduler *Scheduler) execute(ctx context.Context, kind task.Type, next task.Task) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			scheduler.Metrics.TaskPanics.Add(1)
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in task %s: %v\n%s", describe(next), fatalError, stack)
		}
	}()

	logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog, "executing task %s\n", describe(next))
	next.Execute(ctx)

	if kind == task.Processing {
		scheduler.Metrics.ProcessingExecuted.Add(1)
	} else {
		scheduler.Metrics.NetworkingExecuted.Add(1)
	}
}

func describe(t task.Task) string {
	if named, ok := t.(fmt.Stringer); ok {
		return named.String()
	}
	return t.Type().String()
}
