package applogic

import (
	"slicerlogic/internal/global"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/script"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDrainCadence(t *testing.T) {
	harness := newHarness(t)
	harness.start(t)
	scheduler := harness.scheduler

	idle := global.DefaultDrainIdleDelay
	busy := global.DefaultDrainBusyDelay

	// modified, read, write drains in arming order
	if diff := cmp.Diff([]time.Duration{idle, idle, idle}, harness.timers.delays()); diff != "" {
		t.Fatalf("empty queues must re-arm idle (-want +got):\n%s", diff)
	}

	scheduler.RequestReadData("missing1", "a.vtk", false, false)
	scheduler.RequestReadData("missing2", "b.vtk", false, false)

	harness.timers.fire()
	if diff := cmp.Diff([]time.Duration{idle, busy, idle}, harness.timers.delays()); diff != "" {
		t.Fatalf("read drain with work left must re-arm busy (-want +got):\n%s", diff)
	}

	harness.timers.fire()
	if diff := cmp.Diff([]time.Duration{idle, idle, idle}, harness.timers.delays()); diff != "" {
		t.Fatalf("drained read queue must re-arm idle (-want +got):\n%s", diff)
	}
	if got := scheduler.Metrics.ReadsProcessed.Load(); got != 2 {
		t.Fatalf("expected 2 processed reads, got %d", got)
	}
}

func TestDrain_InactiveEndsChain(t *testing.T) {
	harness := newHarness(t)
	harness.start(t)

	harness.scheduler.TerminateProcessingThread()
	if fired := harness.timers.fire(); fired != 3 {
		t.Fatalf("expected 3 armed drains, fired %d", fired)
	}
	if pending := harness.timers.delays(); len(pending) != 0 {
		t.Fatalf("inactive drains re-armed: %v", pending)
	}

	// Next create restarts the chain
	harness.scheduler.CreateProcessingThread()
	if pending := harness.timers.delays(); len(pending) != 3 {
		t.Fatalf("expected 3 drains armed after restart, got %v", pending)
	}
}

func TestDrain_AtMostOnePendingTimer(t *testing.T) {
	harness := newHarness(t)
	harness.start(t)

	// Direct invocations while a timer is armed must not stack further timers
	for i := 0; i < 5; i++ {
		harness.scheduler.ProcessModified()
		harness.scheduler.ProcessReadData()
		harness.scheduler.ProcessWriteData()
	}
	if pending := harness.timers.delays(); len(pending) != 3 {
		t.Fatalf("expected exactly 3 pending timers, got %d", len(pending))
	}
}

func TestDrain_RefusedTimer(t *testing.T) {
	harness := newHarness(t)
	harness.timers.refuse = true
	harness.scheduler.CreateProcessingThread()

	harness.timers.refuse = false
	harness.scheduler.ProcessReadData()
	if pending := harness.timers.delays(); len(pending) != 1 {
		t.Fatalf("drain must be re-armable after a refused timer, pending %v", pending)
	}
}

func TestDrain_PanicKeepsChain(t *testing.T) {
	harness := newHarness(t)
	harness.start(t)

	boom := &drain{name: "Boom", tick: func() (int, bool) { panic("tick failed") }}
	harness.scheduler.run(boom)

	if !boom.pending.Load() {
		t.Fatal("panicking drain must stay armed")
	}
	if got := harness.errorCount(); got != 1 {
		t.Fatalf("expected 1 logged error, got %d", got)
	}
}

func TestModified_Coalescing(t *testing.T) {
	harness := newHarness(t)
	harness.scheduler.CreateProcessingThread()

	a, b := &countingObject{}, &countingObject{}
	for _, obj := range []*countingObject{a, a, a, b} {
		if _, ok := harness.scheduler.RequestModified(obj); !ok {
			t.Fatal("modified request rejected")
		}
	}

	remaining, active := harness.scheduler.tickModified()
	if !active || remaining != 1 {
		t.Fatalf("expected active drain with 1 remaining, got %d %v", remaining, active)
	}
	remaining, _ = harness.scheduler.tickModified()
	if remaining != 0 {
		t.Fatalf("expected empty queue, %d remaining", remaining)
	}

	for name, obj := range map[string]*countingObject{"a": a, "b": b} {
		registers, releases, modified := obj.counts()
		if modified != 1 {
			t.Fatalf("%s: expected 1 Modified call, got %d", name, modified)
		}
		if registers != releases {
			t.Fatalf("%s: %d registers but %d releases", name, registers, releases)
		}
	}
	if _, releases, _ := a.counts(); releases != 3 {
		t.Fatalf("expected 3 releases of a, got %d", releases)
	}
}

func TestModified_NonAdjacentDuplicatesKept(t *testing.T) {
	harness := newHarness(t)
	harness.scheduler.CreateProcessingThread()

	a, b := &countingObject{}, &countingObject{}
	for _, obj := range []*countingObject{a, b, a} {
		harness.scheduler.RequestModified(obj)
	}
	for i := 0; i < 3; i++ {
		harness.scheduler.tickModified()
	}
	if _, _, modified := a.counts(); modified != 2 {
		t.Fatalf("expected 2 Modified calls for a, got %d", modified)
	}
}

func TestModified_ScriptBatch(t *testing.T) {
	harness := newHarness(t)
	harness.scheduler.CreateProcessingThread()
	model := harness.scene.AddNode(scene.NewNode(scene.Model, "skull"))

	batch := script.NewBatch("startup", "set m "+model.ID()+"\nhide $m\nbogus command\nname $m cranium\n")
	var notified int
	batch.AddObserver(func() { notified++ })

	harness.scheduler.RequestModified(batch)
	harness.scheduler.tickModified()

	if model.Visible || model.Name != "cranium" {
		t.Fatalf("lines after a failure must still run, got visible=%v name=%q", model.Visible, model.Name)
	}
	if got := harness.scheduler.Metrics.ScriptErrors.Load(); got != 1 {
		t.Fatalf("expected 1 script error, got %d", got)
	}
	if got := harness.errorCount(); got != 1 {
		t.Fatalf("expected 1 logged error, got %d", got)
	}
	if notified != 1 {
		t.Fatalf("expected batch observers notified once, got %d", notified)
	}
	if batch.RefCount() != 0 {
		t.Fatalf("batch reference leaked, count %d", batch.RefCount())
	}
}
