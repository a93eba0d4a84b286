// Cooperative main loop owning scene mutation
package mainloop

import (
	"container/heap"
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"time"
)

func New(ctx context.Context) (new *Loop) {
	new = &Loop{
		ctx:     logctx.AppendCtxTag(ctx, global.NSLoop),
		timers:  make(timerHeap, 0),
		wake:    make(chan struct{}, 1),
		Metrics: &MetricStorage{},
	}
	return
}

// Runs fn on the loop after delay. Safe from any goroutine.
func (loop *Loop) AfterFunc(delay time.Duration, fn func()) (scheduled bool) {
	if fn == nil || loop.stopped.Load() {
		return
	}
	if delay < 0 {
		delay = 0
	}

	loop.mu.Lock()
	loop.seq++
	heap.Push(&loop.timers, timer{
		when: time.Now().Add(delay),
		seq:  loop.seq,
		fn:   fn,
	})
	loop.mu.Unlock()
	loop.Metrics.Pending.Add(1)

	loop.signal()
	scheduled = true
	return
}

// Runs fn on the loop as soon as possible
func (loop *Loop) Post(fn func()) (scheduled bool) {
	scheduled = loop.AfterFunc(0, fn)
	return
}

// Runs fn on the loop and waits for it to return.
// Called from the loop goroutine itself, fn runs inline.
func (loop *Loop) Do(ctx context.Context, fn func()) (err error) {
	if loop.IsLoopGoroutine() {
		fn()
		return
	}

	done := make(chan struct{})
	if !loop.Post(func() {
		defer close(done)
		fn()
	}) {
		err = ErrLoopStopped
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	return
}

// True only when called from the goroutine currently executing loop callbacks.
// Do needs it to run inline instead of deadlocking on its own queue, and the
// scene is only mutated where this holds.
func (loop *Loop) IsLoopGoroutine() bool {
	id := loop.loopID.Load()
	return id != 0 && id == goroutineID()
}

// Executes callbacks until ctx is done. Blocks the calling goroutine, which is locked to its OS thread.
func (loop *Loop) Run(ctx context.Context) (err error) {
	if !loop.running.CompareAndSwap(false, true) {
		err = fmt.Errorf("main loop already running")
		return
	}
	defer loop.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	loop.loopID.Store(goroutineID())
	defer loop.loopID.Store(0)

	logctx.LogEvent(loop.ctx, global.VerbosityProgress, global.InfoLog, "Main loop started\n")

	idle := time.NewTimer(time.Hour)
	defer idle.Stop()

	for {
		loop.runDue(time.Now())

		wait, pending := loop.nextWait(time.Now())
		if !pending {
			wait = time.Hour
		}
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(wait)

		select {
		case <-ctx.Done():
			loop.stopped.Store(true)
			logctx.LogEvent(loop.ctx, global.VerbosityProgress, global.InfoLog, "Main loop stopped\n")
			return
		case <-loop.wake:
		case <-idle.C:
		}
	}
}

// Executes all callbacks due at now on the calling goroutine, which acts as the loop for the duration.
// Returns number of callbacks executed.
func (loop *Loop) RunPending(now time.Time) (executed int) {
	if loop.running.Load() {
		return
	}
	loop.loopID.Store(goroutineID())
	defer loop.loopID.Store(0)

	executed = loop.runDue(now)
	return
}

// Stops accepting new callbacks. Already queued ones are dropped when Run returns.
func (loop *Loop) Stop() {
	loop.stopped.Store(true)
	loop.signal()
}

// True while Run is executing callbacks
func (loop *Loop) Running() bool { return loop.running.Load() }

func (loop *Loop) Len() (pending int) {
	loop.mu.Lock()
	pending = loop.timers.Len()
	loop.mu.Unlock()
	return
}

func (loop *Loop) runDue(now time.Time) (executed int) {
	for {
		loop.mu.Lock()
		if loop.timers.Len() == 0 || loop.timers[0].when.After(now) {
			loop.mu.Unlock()
			return
		}
		next := heap.Pop(&loop.timers).(timer)
		loop.mu.Unlock()

		loop.Metrics.Pending.Add(^uint64(0))
		lag := int64(now.Sub(next.when))
		if lag > loop.Metrics.Lag.Load() {
			loop.Metrics.Lag.Store(lag)
		}

		loop.safeExecute(next.fn)
		executed++
	}
}

func (loop *Loop) nextWait(now time.Time) (wait time.Duration, pending bool) {
	loop.mu.Lock()
	defer loop.mu.Unlock()

	if loop.timers.Len() == 0 {
		return
	}
	pending = true
	wait = loop.timers[0].when.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return
}

func (loop *Loop) safeExecute(fn func()) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			loop.Metrics.Panics.Add(1)
			logctx.LogEvent(loop.ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in main loop callback: %v\n%s", fatalError, debug.Stack())
		}
	}()
	loop.Metrics.Executed.Add(1)
	fn()
}

func (loop *Loop) signal() {
	select {
	case loop.wake <- struct{}{}:
	default:
	}
}

// Parses the current goroutine id from the stack header ("goroutine 123 [running]:").
// Callers reach the loop from arbitrary goroutines without a context to carry a
// token, so the stack header is the only identity available.
func goroutineID() (id uint64) {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return
}
