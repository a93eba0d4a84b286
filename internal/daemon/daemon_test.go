package daemon

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slicerlogic/internal/applogic"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/scene"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) (cfg Config) {
	dir := t.TempDir()
	cfg = Config{
		Scheduler: applogic.Options{
			WorkerPollInterval: 5 * time.Millisecond,
			DrainStartDelay:    10 * time.Millisecond,
		},
		CacheDir:                 filepath.Join(dir, "cache"),
		SaveSceneOnExit:          filepath.Join(dir, "saved.yaml"),
		MetricCollectionInterval: 20 * time.Millisecond,
	}
	return
}

// Starts the daemon with its loop on a background goroutine
func startDaemon(t *testing.T, cfg Config) (daemon *Daemon, ctx context.Context, runDone chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ctx = logctx.New(ctx, global.NSTest, global.VerbosityStandard, ctx.Done())

	daemon = NewDaemon(cfg)
	require.NoError(t, daemon.Start(ctx))

	runDone = make(chan error, 1)
	go func() { runDone <- daemon.Run() }()
	require.Eventually(t, daemon.Loop.Running, time.Second, time.Millisecond)
	return
}

// Runs fn on the daemon's loop
func onLoop(t *testing.T, daemon *Daemon, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, daemon.Loop.Do(ctx, fn))
}

func TestDaemon_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	daemon, ctx, runDone := startDaemon(t, cfg)

	file := filepath.Join(t.TempDir(), "ramp.nrrd")
	require.NoError(t, os.WriteFile(file, []byte("NRRD0004\ntype: uchar\ndimension: 3\nsizes: 2 2 1\nencoding: ascii\n\n0 10 20 30\n"), 0o600))

	var volume *scene.Node
	onLoop(t, daemon, func() {
		volume = daemon.Scene.AddNode(scene.NewNode(scene.ScalarVolume, "ramp"))
	})

	_, ok := daemon.RequestReadData(volume.ID(), file, true, false)
	require.True(t, ok)

	loaded := func() (done bool) {
		onLoop(t, daemon, func() { done = volume.Data != nil })
		return
	}
	require.Eventually(t, loaded, 2*time.Second, 5*time.Millisecond)

	// Storage node now exists, so the node can be re-read from its own storage
	queued, err := daemon.QueueNodeRead(ctx, volume.ID(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	_, err = daemon.QueueNodeRead(ctx, "Missing1", false)
	assert.Error(t, err)

	_, ok = daemon.RunScript("rename", "name "+volume.ID()+" renamed")
	require.True(t, ok)
	renamed := func() (done bool) {
		onLoop(t, daemon, func() { done = volume.Name == "renamed" })
		return
	}
	require.Eventually(t, renamed, 2*time.Second, 5*time.Millisecond)

	status := daemon.Status(ctx)
	assert.Equal(t, applogic.StateRunning.String(), status.Scheduler)
	assert.GreaterOrEqual(t, status.Nodes, 2)

	daemon.Shutdown()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("main loop did not stop after shutdown")
	}

	assert.FileExists(t, cfg.SaveSceneOnExit)
	assert.Equal(t, applogic.StateIdle.String(), daemon.Scheduler.State().String())
	assert.Zero(t, logctx.GetLogger(ctx).Count(global.ErrorLog), logctx.GetLogger(ctx).GetFormattedLogLines())
}

func TestDaemon_ReloadKeepsQueue(t *testing.T) {
	daemon, _, _ := startDaemon(t, testConfig(t))
	t.Cleanup(daemon.Shutdown)

	daemon.Reload()
	assert.Equal(t, applogic.StateRunning.String(), daemon.Scheduler.State().String())
}

func TestGatherer_CollectsRegisteredComponents(t *testing.T) {
	cfg := testConfig(t)
	daemon, _, _ := startDaemon(t, cfg)
	t.Cleanup(daemon.Shutdown)

	found := func() bool {
		return len(daemon.metricsCollector.Registry.Discover("drain_ticks", "", nil, "", "")) > 0
	}
	require.Eventually(t, found, 2*time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, daemon.metricsCollector.Registry.Discover("transfers_active", "", nil, "", ""))
}

func TestConfig_SetDefaults(t *testing.T) {
	var cfg Config
	cfg.Scheduler.NetworkingWorkers = 1 << 20
	cfg.Scheduler.BackgroundPriority = true
	cfg.SetDefaults()

	assert.Equal(t, runtime.NumCPU(), cfg.Scheduler.NetworkingWorkers)
	assert.Equal(t, global.DefaultBackgroundNice, cfg.Scheduler.BackgroundNice)
	assert.Equal(t, global.DefaultWorkerPollInterval, cfg.Scheduler.WorkerPollInterval)
	assert.Equal(t, global.DefaultCacheDir, cfg.CacheDir)
	assert.Equal(t, global.HTTPListenPort, cfg.MetricQueryServerPort)
	assert.Equal(t, 15*time.Second, cfg.MetricCollectionInterval)
}
