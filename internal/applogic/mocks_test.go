package applogic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slicerlogic/internal/cache"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/storage"
	"strings"
	"sync"
	"testing"
	"time"
)

// Records armed callbacks; tests fire them explicitly to act as the main loop
type fakeTimers struct {
	mu      sync.Mutex
	pending []fakeTimer
	refuse  bool
}

type fakeTimer struct {
	delay time.Duration
	fn    func()
}

func (timers *fakeTimers) AfterFunc(delay time.Duration, fn func()) bool {
	timers.mu.Lock()
	defer timers.mu.Unlock()
	if timers.refuse {
		return false
	}
	timers.pending = append(timers.pending, fakeTimer{delay: delay, fn: fn})
	return true
}

// Delays of the currently armed callbacks
func (timers *fakeTimers) delays() (delays []time.Duration) {
	timers.mu.Lock()
	defer timers.mu.Unlock()
	for _, timer := range timers.pending {
		delays = append(delays, timer.delay)
	}
	return
}

// Runs every armed callback once, in arming order
func (timers *fakeTimers) fire() (fired int) {
	timers.mu.Lock()
	due := timers.pending
	timers.pending = nil
	timers.mu.Unlock()

	for _, timer := range due {
		timer.fn()
	}
	fired = len(due)
	return
}

// Reads the file content into the "loaded" attribute. Content "corrupt" fails, "panic" panics.
type fakeStorable struct {
	kind     scene.Class
	fileName string
	uri      string
	reads    int
}

func (fake *fakeStorable) Kind() scene.Class             { return fake.kind }
func (fake *fakeStorable) FileName() string              { return fake.fileName }
func (fake *fakeStorable) SetFileName(name string)       { fake.fileName = name }
func (fake *fakeStorable) URI() string                   { return fake.uri }
func (fake *fakeStorable) SetURI(uri string)             { fake.uri = uri }
func (fake *fakeStorable) ReadState() string             { return storage.StateIdle }
func (fake *fakeStorable) SupportedFileType(string) bool { return true }
func (fake *fakeStorable) Clone() scene.Storable         { c := *fake; return &c }
func (fake *fakeStorable) WriteData(*scene.Node) error   { return nil }

func (fake *fakeStorable) ReadData(target *scene.Node) error {
	fake.reads++
	raw, err := os.ReadFile(fake.fileName)
	if err != nil {
		return &storage.ReadError{Kind: fake.kind, FileName: fake.fileName, Err: err}
	}
	content := strings.TrimSpace(string(raw))
	switch content {
	case "corrupt":
		return &storage.ReadError{Kind: fake.kind, FileName: fake.fileName, Err: errors.New("corrupt content")}
	case "panic":
		panic("reader exploded")
	}
	target.Attributes["loaded"] = content
	if target.Class.IsVolume() {
		target.Data = &scene.ImageData{Components: 1, Stats: scene.Stats{Low: 10, High: 110}}
	}
	return nil
}

type fakeFactory struct {
	created []*fakeStorable
}

func (factory *fakeFactory) ForTarget(target *scene.Node, fileName string) (scene.Storable, error) {
	if target.Class == scene.ColorTable {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnsupportedFile, fileName)
	}
	storable := &fakeStorable{kind: scene.ModelStorage}
	factory.created = append(factory.created, storable)
	return storable, nil
}

// Reference counted object recording every call
type countingObject struct {
	mu        sync.Mutex
	registers int
	releases  int
	modified  int
}

func (obj *countingObject) Register() { obj.mu.Lock(); obj.registers++; obj.mu.Unlock() }
func (obj *countingObject) Release()  { obj.mu.Lock(); obj.releases++; obj.mu.Unlock() }
func (obj *countingObject) Modified() { obj.mu.Lock(); obj.modified++; obj.mu.Unlock() }

func (obj *countingObject) counts() (registers, releases, modified int) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.registers, obj.releases, obj.modified
}

type testHarness struct {
	ctx       context.Context
	scene     *scene.Scene
	timers    *fakeTimers
	factory   *fakeFactory
	scheduler *Scheduler
}

func newHarness(t *testing.T) (harness *testHarness) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logctx.New(ctx, global.NSTest, global.VerbosityStandard, ctx.Done())

	cacheManager, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	harness = &testHarness{
		ctx:     ctx,
		scene:   scene.New(ctx, cacheManager),
		timers:  &fakeTimers{},
		factory: &fakeFactory{},
	}
	harness.scheduler = New(ctx, harness.scene, harness.factory, harness.timers, Options{
		NetworkingWorkers:     2,
		WorkerPollInterval:    2 * time.Millisecond,
		WorkerShutdownTimeout: time.Second,
	})
	t.Cleanup(func() {
		harness.scheduler.Close()
		cancel()
	})
	return
}

// Starts the scheduler and fires the start timers once
func (harness *testHarness) start(t *testing.T) {
	t.Helper()
	harness.scheduler.CreateProcessingThread()
	if fired := harness.timers.fire(); fired != 3 {
		t.Fatalf("expected 3 drain start timers, got %d", fired)
	}
}

func (harness *testHarness) errorCount() int {
	return logctx.GetLogger(harness.ctx).Count(global.ErrorLog)
}

func writeTemp(t *testing.T, name, content string) (path string) {
	t.Helper()
	path = t.TempDir() + "/" + name
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return
}
