package applogic

import (
	"runtime/debug"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"time"
)

// Drain entry points. Each pops at most one item, then re-arms itself on the
// main loop: busy delay while the queue still holds work, idle delay otherwise.
// An inactive queue ends the chain until the next CreateProcessingThread.

func (scheduler *Scheduler) ProcessModified()  { scheduler.run(scheduler.drainModified) }
func (scheduler *Scheduler) ProcessReadData()  { scheduler.run(scheduler.drainRead) }
func (scheduler *Scheduler) ProcessWriteData() { scheduler.run(scheduler.drainWrite) }

func (scheduler *Scheduler) run(d *drain) {
	remaining, active := scheduler.safeTick(d)
	if !active {
		return
	}

	delay := scheduler.opts.DrainIdleDelay
	if remaining > 0 {
		delay = scheduler.opts.DrainBusyDelay
	}
	scheduler.schedule(d, delay)
}

func (scheduler *Scheduler) safeTick(d *drain) (remaining int, active bool) {
	ctx := logctx.AppendCtxTag(scheduler.ctx, d.name)
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in %s drain: %v\n%s", d.name, fatalError, stack)
			// Keep the chain alive; the failed item is already off the queue
			active = true
		}
	}()

	scheduler.Metrics.DrainTicks.Add(1)
	remaining, active = d.tick()
	return
}

// Arms d unless it already has a timer pending
func (scheduler *Scheduler) schedule(d *drain, delay time.Duration) {
	if scheduler.timers == nil || !d.pending.CompareAndSwap(false, true) {
		return
	}
	armed := scheduler.timers.AfterFunc(delay, func() {
		d.pending.Store(false)
		scheduler.run(d)
	})
	if !armed {
		d.pending.Store(false)
		logctx.LogEvent(scheduler.ctx, global.VerbosityProgress, global.WarnLog,
			"main loop refused %s drain timer\n", d.name)
	}
}
