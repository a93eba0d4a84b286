package dataio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slicerlogic/internal/cache"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/storage"
	"slicerlogic/internal/task"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readRequest struct {
	nodeID      string
	fileName    string
	displayData bool
}

// Records requests; scheduled tasks are held until run() is called
type fakeScheduler struct {
	mu     sync.Mutex
	reject bool
	tasks  []task.Task
	reads  []readRequest
	writes []readRequest
}

func (fake *fakeScheduler) ScheduleTask(t task.Task) bool {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.reject {
		return false
	}
	fake.tasks = append(fake.tasks, t)
	return true
}

func (fake *fakeScheduler) RequestReadData(nodeID, filename string, displayData, deleteFileAfter bool) (uint64, bool) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.reject {
		return 0, false
	}
	fake.reads = append(fake.reads, readRequest{nodeID, filename, displayData})
	return uint64(len(fake.reads)), true
}

func (fake *fakeScheduler) RequestWriteData(nodeID, filename string, displayData, deleteFileAfter bool) (uint64, bool) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.writes = append(fake.writes, readRequest{nodeID, filename, displayData})
	return uint64(len(fake.writes)), true
}

func (fake *fakeScheduler) run(ctx context.Context) (ran int) {
	fake.mu.Lock()
	due := fake.tasks
	fake.tasks = nil
	fake.mu.Unlock()
	for _, t := range due {
		t.Execute(ctx)
	}
	ran = len(due)
	return
}

type fixture struct {
	ctx       context.Context
	scene     *scene.Scene
	scheduler *fakeScheduler
	manager   *Manager
}

func newFixture(t *testing.T) (fix *fixture) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ctx = logctx.New(ctx, global.NSTest, global.VerbosityStandard, ctx.Done())

	cacheManager, err := cache.New(t.TempDir())
	require.NoError(t, err)

	fix = &fixture{
		ctx:       ctx,
		scene:     scene.New(ctx, cacheManager),
		scheduler: &fakeScheduler{},
	}
	fix.manager = New(ctx, fix.scene, fix.scheduler, Options{DownloadRate: 1000, DownloadBurst: 10})
	return
}

// Volume node with one NRRD storage node pointing at location
func (fix *fixture) volumeWithStorage(location string) (volume *scene.Node, storable scene.Storable) {
	storable = storage.NewNRRD()
	if cache.IsRemoteReference(location) {
		storable.SetURI(location)
	} else {
		storable.SetFileName(location)
	}
	storageNode := scene.NewNode(scene.NRRDStorage, "storage")
	storageNode.Storage = storable
	storageNode = fix.scene.AddNode(storageNode)

	volume = scene.NewNode(scene.ScalarVolume, "volume")
	volume.AddReference(scene.RoleStorage, storageNode.ID())
	volume = fix.scene.AddNode(volume)
	return
}

func TestQueueRead_LocalFile(t *testing.T) {
	fix := newFixture(t)
	volume, _ := fix.volumeWithStorage("/data/brain.nrrd")

	queued, err := fix.manager.QueueRead(volume, true)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	assert.Empty(t, fix.scheduler.tasks)
	assert.Equal(t, []readRequest{{volume.ID(), "/data/brain.nrrd", true}}, fix.scheduler.reads)
	assert.Equal(t, uint64(1), fix.manager.Metrics.LocalReads.Load())
}

func TestQueueRead_Download(t *testing.T) {
	payload := "NRRD0004\ntype: float\ndimension: 1\nsizes: 2\nencoding: ascii\n\n1 2\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	fix := newFixture(t)
	uri := server.URL + "/volumes/brain.nrrd"
	volume, storable := fix.volumeWithStorage(uri)

	queued, err := fix.manager.QueueRead(volume, false)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	destination := fix.scene.Cache().FilenameFromURI(uri)
	assert.Equal(t, destination, storable.FileName())
	assert.Empty(t, fix.scheduler.reads, "read must wait for the download")

	require.Equal(t, 1, len(fix.scheduler.tasks))
	assert.Equal(t, task.Networking, fix.scheduler.tasks[0].Type())
	fix.scheduler.run(fix.ctx)

	content, err := os.ReadFile(destination)
	require.NoError(t, err)
	assert.Equal(t, payload, string(content))

	mapped, found := fix.scene.Cache().FileFromURIMap(uri)
	assert.True(t, found)
	assert.Equal(t, destination, mapped)

	assert.Equal(t, []readRequest{{volume.ID(), destination, false}}, fix.scheduler.reads)

	infos := fix.manager.Transfers()
	require.Len(t, infos, 1)
	assert.Equal(t, StatusCompleted.String(), infos[0].Status)
	assert.Equal(t, int64(len(payload)), infos[0].Bytes)
	assert.Equal(t, uint64(len(payload)), fix.manager.Metrics.BytesReceived.Load())

	// Second request reuses the cached copy
	_, err = fix.manager.QueueRead(volume, false)
	require.NoError(t, err)
	assert.Empty(t, fix.scheduler.tasks)
	assert.Len(t, fix.scheduler.reads, 2)
}

func TestQueueRead_ForceRedownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	fix := newFixture(t)
	uri := server.URL + "/model.vtk"
	model, _ := fix.volumeWithStorage(uri)

	destination := fix.scene.Cache().FilenameFromURI(uri)
	require.NoError(t, os.MkdirAll(filepath.Dir(destination), 0o750))
	require.NoError(t, os.WriteFile(destination, []byte("stale"), 0o600))

	fix.scene.Cache().ForceRedownload = true
	_, err := fix.manager.QueueRead(model, false)
	require.NoError(t, err)
	require.Equal(t, 1, fix.scheduler.run(fix.ctx))

	content, err := os.ReadFile(destination)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(content))
}

func TestDownload_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	tests := []struct {
		name string
		uri  string
	}{
		{"http status", server.URL + "/missing.nrrd"},
		{"unsupported scheme", "ftp://example.org/brain.nrrd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := newFixture(t)
			volume, _ := fix.volumeWithStorage(tt.uri)

			_, err := fix.manager.QueueRead(volume, false)
			require.NoError(t, err)
			fix.scheduler.run(fix.ctx)

			infos := fix.manager.Transfers()
			require.Len(t, infos, 1)
			assert.Equal(t, StatusCompletedWithErrors.String(), infos[0].Status)
			assert.NotEmpty(t, infos[0].Error)
			assert.Empty(t, fix.scheduler.reads)
			assert.NoFileExists(t, fix.scene.Cache().FilenameFromURI(tt.uri))
			assert.Equal(t, 1, logctx.GetLogger(fix.ctx).Count(global.ErrorLog))
		})
	}
}

func TestCancelTransfer(t *testing.T) {
	fix := newFixture(t)
	volume, _ := fix.volumeWithStorage("http://example.invalid/brain.nrrd")

	_, err := fix.manager.QueueRead(volume, false)
	require.NoError(t, err)
	infos := fix.manager.Transfers()
	require.Len(t, infos, 1)

	assert.True(t, fix.manager.CancelTransfer(infos[0].ID))
	assert.False(t, fix.manager.CancelTransfer(999))

	fix.scheduler.run(fix.ctx)
	infos = fix.manager.Transfers()
	assert.Equal(t, StatusCancelled.String(), infos[0].Status)
	assert.False(t, fix.manager.CancelTransfer(infos[0].ID), "finished transfers cannot be cancelled")
	assert.Empty(t, fix.scheduler.reads)

	assert.Equal(t, 1, fix.manager.PruneFinished())
	assert.Empty(t, fix.manager.Transfers())
}

func TestCancelTransfer_Running(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	fix := newFixture(t)
	volume, _ := fix.volumeWithStorage(server.URL + "/slow.nrrd")
	_, err := fix.manager.QueueRead(volume, false)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		fix.scheduler.run(fix.ctx)
		close(done)
	}()
	<-started
	id := fix.manager.Transfers()[0].ID
	assert.True(t, fix.manager.CancelTransfer(id))
	<-done

	assert.Equal(t, StatusCancelled.String(), fix.manager.Transfers()[0].Status)
	assert.Equal(t, uint64(1), fix.manager.Metrics.Cancelled.Load())
}

func TestQueueRead_LowMemory(t *testing.T) {
	fix := newFixture(t)
	fix.manager.opts.MinFreeMemory = 1 << 30
	fix.manager.freeMemory = func() uint64 { return 1 << 20 }

	volume, _ := fix.volumeWithStorage("https://example.org/large.nrrd")
	_, err := fix.manager.QueueRead(volume, false)
	assert.ErrorIs(t, err, ErrLowMemory)
	assert.Empty(t, fix.scheduler.tasks)
	assert.Empty(t, fix.manager.Transfers())
}

func TestQueueRead_SchedulerStopped(t *testing.T) {
	fix := newFixture(t)
	fix.scheduler.reject = true
	volume, _ := fix.volumeWithStorage("https://example.org/brain.nrrd")

	_, err := fix.manager.QueueRead(volume, false)
	assert.Error(t, err)
	infos := fix.manager.Transfers()
	require.Len(t, infos, 1)
	assert.Equal(t, StatusCancelled.String(), infos[0].Status)
}

func TestClearCache_RefusedWhileActive(t *testing.T) {
	fix := newFixture(t)
	volume, _ := fix.volumeWithStorage("https://example.org/brain.nrrd")
	_, err := fix.manager.QueueRead(volume, false)
	require.NoError(t, err)

	assert.Error(t, fix.manager.ClearCache())

	fix.manager.CancelTransfer(fix.manager.Transfers()[0].ID)
	fix.scheduler.run(fix.ctx)
	assert.NoError(t, fix.manager.ClearCache())
}

func TestQueueWrite(t *testing.T) {
	fix := newFixture(t)
	local, _ := fix.volumeWithStorage("/data/out.nrrd")
	remote, _ := fix.volumeWithStorage("https://example.org/out.nrrd")

	assert.Equal(t, 1, fix.manager.QueueWrite(local))
	assert.Equal(t, 1, fix.manager.QueueWrite(remote))
	assert.Equal(t, 0, fix.manager.QueueWrite(nil))
	assert.Equal(t, []readRequest{
		{local.ID(), "/data/out.nrrd", false},
		{remote.ID(), "https://example.org/out.nrrd", false},
	}, fix.scheduler.writes)
}

func TestCollectMetrics(t *testing.T) {
	fix := newFixture(t)
	volume, _ := fix.volumeWithStorage("/data/brain.nrrd")
	_, err := fix.manager.QueueRead(volume, false)
	require.NoError(t, err)

	values := make(map[string]interface{})
	for _, metric := range fix.manager.CollectMetrics(0) {
		values[metric.Name] = metric.Value.Raw
	}
	assert.Equal(t, uint64(1), values["local_reads"])
	assert.Equal(t, uint64(0), values["transfers_active"])

	// Counters reset after collection
	for _, metric := range fix.manager.CollectMetrics(0) {
		if metric.Name == "local_reads" {
			assert.Equal(t, uint64(0), metric.Value.Raw)
		}
	}
}
