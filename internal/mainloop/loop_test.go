package mainloop

import (
	"context"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLoop(t *testing.T) (loop *Loop, ctx context.Context, cancel context.CancelFunc) {
	t.Helper()
	ctx, cancel = context.WithCancel(context.Background())
	ctx = logctx.New(ctx, global.NSTest, global.VerbosityStandard, ctx.Done())
	loop = New(ctx)
	return
}

func TestRunPending_OrderAndDeadline(t *testing.T) {
	loop, _, cancel := newTestLoop(t)
	defer cancel()

	var order []string
	base := time.Now()
	loop.AfterFunc(0, func() { order = append(order, "first") })
	loop.AfterFunc(0, func() { order = append(order, "second") })
	loop.AfterFunc(time.Hour, func() { order = append(order, "later") })

	executed := loop.RunPending(base.Add(time.Second))
	if executed != 2 {
		t.Fatalf("expected 2 callbacks, got %d", executed)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected execution order %v", order)
	}
	if loop.Len() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", loop.Len())
	}
}

func TestRunPending_IdentifiesLoopGoroutine(t *testing.T) {
	loop, _, cancel := newTestLoop(t)
	defer cancel()

	if loop.IsLoopGoroutine() {
		t.Fatal("no goroutine is the loop before it runs")
	}

	var inside bool
	loop.Post(func() { inside = loop.IsLoopGoroutine() })
	loop.RunPending(time.Now().Add(time.Millisecond))

	if !inside {
		t.Fatal("callback did not observe itself on the loop goroutine")
	}
}

func TestRun_ExecutesAndStops(t *testing.T) {
	loop, ctx, cancel := newTestLoop(t)

	finished := make(chan error, 1)
	go func() { finished <- loop.Run(ctx) }()

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		loop.AfterFunc(time.Duration(i)*time.Millisecond, func() { count.Add(1) })
	}

	var onLoop bool
	err := loop.Do(context.Background(), func() { onLoop = loop.IsLoopGoroutine() })
	if err != nil {
		t.Fatalf("unexpected Do error: %v", err)
	}
	if !onLoop {
		t.Fatal("Do callback did not run on the loop goroutine")
	}

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() != 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if count.Load() != 5 {
		t.Fatalf("expected 5 callbacks, got %d", count.Load())
	}

	cancel()
	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("unexpected Run error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}

	if loop.Post(func() {}) {
		t.Fatal("stopped loop accepted a callback")
	}
	if err := loop.Do(context.Background(), func() {}); err != ErrLoopStopped {
		t.Fatalf("expected ErrLoopStopped, got %v", err)
	}
}

func TestSafeExecute_RecoversPanic(t *testing.T) {
	loop, ctx, cancel := newTestLoop(t)
	defer cancel()

	ran := false
	loop.Post(func() { panic("bad callback") })
	loop.Post(func() { ran = true })
	loop.RunPending(time.Now().Add(time.Millisecond))

	if !ran {
		t.Fatal("callback after a panicking one did not run")
	}
	if loop.Metrics.Panics.Load() != 1 {
		t.Fatalf("expected 1 recorded panic, got %d", loop.Metrics.Panics.Load())
	}
	if logctx.GetLogger(ctx).Count(global.ErrorLog) != 1 {
		t.Fatal("expected the panic to be logged as an error")
	}
}
