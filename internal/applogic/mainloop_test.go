package applogic

import (
	"context"
	"slicerlogic/internal/mainloop"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/task"
	"sync/atomic"
	"testing"
	"time"
)

func TestSceneMutatedOnlyOnMainLoop(t *testing.T) {
	harness := newHarness(t)
	loop := mainloop.New(harness.ctx)
	loopCtx, stopLoop := context.WithCancel(harness.ctx)
	defer stopLoop()
	go loop.Run(loopCtx)

	scheduler := New(harness.ctx, harness.scene, harness.factory, loop, Options{
		NetworkingWorkers:  2,
		WorkerPollInterval: time.Millisecond,
		DrainStartDelay:    time.Millisecond,
	})
	t.Cleanup(scheduler.Close)

	var models []*scene.Node
	for i := 0; i < 4; i++ {
		models = append(models, harness.scene.AddNode(scene.NewNode(scene.Model, "model")))
	}

	var offLoop, mutations atomic.Int32
	harness.scene.SetMutationHook(func(scene.Mutation, string) {
		mutations.Add(1)
		if !loop.IsLoopGoroutine() {
			offLoop.Add(1)
		}
	})

	processed := make(chan ProcessedEvent, len(models))
	scheduler.AddProcessedObserver(func(event ProcessedEvent) { processed <- event })

	scheduler.CreateProcessingThread()

	// Networking tasks stand in for downloads finishing on worker goroutines
	for _, model := range models {
		nodeID := model.ID()
		file := writeTemp(t, "model.vtk", "surface")
		scheduler.ScheduleTask(task.New(task.Networking, "fetch", func(context.Context) {
			scheduler.RequestReadData(nodeID, file, false, true)
		}))
	}

	deadline := time.After(5 * time.Second)
	for range models {
		select {
		case event := <-processed:
			if event.Failed {
				t.Fatalf("read %d failed", event.UID)
			}
		case <-deadline:
			t.Fatal("reads were not drained in time")
		}
	}

	if mutations.Load() == 0 {
		t.Fatal("reads produced no scene mutations")
	}
	if got := offLoop.Load(); got != 0 {
		t.Fatalf("%d scene mutations happened off the main loop", got)
	}
	for _, model := range models {
		var loaded string
		if err := loop.Do(context.Background(), func() { loaded = model.Attributes["loaded"] }); err != nil {
			t.Fatalf("loop unavailable: %v", err)
		}
		if loaded != "surface" {
			t.Fatalf("model %s not loaded", model.ID())
		}
	}
}

func TestScheduleTask_RunsOffMainLoop(t *testing.T) {
	harness := newHarness(t)
	loop := mainloop.New(harness.ctx)
	loopCtx, stopLoop := context.WithCancel(harness.ctx)
	defer stopLoop()
	go loop.Run(loopCtx)

	scheduler := New(harness.ctx, harness.scene, harness.factory, loop, Options{
		WorkerPollInterval: time.Millisecond,
		DrainStartDelay:    time.Millisecond,
	})
	t.Cleanup(scheduler.Close)
	scheduler.CreateProcessingThread()

	var counter, onLoop atomic.Int32
	increment := func(context.Context) {
		if loop.IsLoopGoroutine() {
			onLoop.Add(1)
		}
		counter.Add(1)
	}

	// Scheduled from the main loop, as the application would
	err := loop.Do(context.Background(), func() {
		for i := 0; i < 3; i++ {
			if !scheduler.ScheduleTask(task.New(task.Processing, "increment", increment)) {
				t.Errorf("task %d rejected", i)
			}
		}
	})
	if err != nil {
		t.Fatalf("loop unavailable: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for counter.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	if got := counter.Load(); got != 3 {
		t.Fatalf("expected exactly 3 increments, got %d", got)
	}
	if got := onLoop.Load(); got != 0 {
		t.Fatalf("%d tasks executed on the main loop", got)
	}
}
