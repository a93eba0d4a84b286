// Long running host for the scheduler: owns the main loop, scene, data transfers and query server
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slicerlogic/internal/applogic"
	"slicerlogic/internal/cache"
	"slicerlogic/internal/dataio"
	"slicerlogic/internal/externalio/beats"
	"slicerlogic/internal/externalio/server"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/mainloop"
	"slicerlogic/internal/metrics"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/storage"
	"time"
)

// Create new daemon instance
func NewDaemon(cfg Config) (new *Daemon) {
	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	return
}

// Builds every component and starts background goroutines. The main loop itself
// runs in Run. Partial startups are torn down before returning an error.
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSDaemon)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	daemon.cfg.SetDefaults()

	global.Hostname, err = os.Hostname()
	if err != nil {
		err = fmt.Errorf("failed to determine local hostname: %w", err)
		return
	}
	global.PID = os.Getpid()

	cacheManager, err := cache.New(daemon.cfg.CacheDir)
	if err != nil {
		err = fmt.Errorf("failed creating cache manager: %w", err)
		return
	}
	cacheManager.ForceRedownload = daemon.cfg.ForceRedownload

	daemon.Storage = storage.NewRegistry()
	daemon.Scene = scene.New(daemon.ctx, cacheManager)
	daemon.Scene.SetStorageResolver(daemon.Storage)

	daemon.Loop = mainloop.New(daemon.ctx)
	daemon.Scheduler = applogic.New(daemon.ctx, daemon.Scene, daemon.Storage, daemon.Loop, daemon.cfg.Scheduler)
	daemon.DataIO = dataio.New(daemon.ctx, daemon.Scene, daemon.Scheduler, daemon.cfg.DataIO)

	// Event shipping
	daemon.beats, err = beats.NewOutput(daemon.cfg.BeatsEndpoint)
	if err != nil {
		err = fmt.Errorf("failed starting beats output: %w", err)
		return
	}
	if daemon.beats != nil {
		beatsCtx := logctx.AppendCtxTag(daemon.ctx, global.NSBeats)
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			daemon.beats.Run(beatsCtx)
		}()
		daemon.Scheduler.AddProcessedObserver(daemon.publishProcessed)
	}

	daemon.Scheduler.CreateProcessingThread()

	if daemon.cfg.SceneFile != "" {
		sceneFile := daemon.cfg.SceneFile
		daemon.Loop.Post(func() {
			daemon.importScene(sceneFile)
		})
	}

	// Metrics Collector
	collectors := []metrics.Collector{daemon.Scheduler, daemon.DataIO, daemon.Loop}
	if daemon.beats != nil {
		collectors = append(collectors, daemon.beats)
	}
	daemon.metricsCollector = NewGatherer(daemon.cfg.MetricCollectionInterval, daemon.cfg.MetricMaxAge, collectors...)
	daemon.metricsCollector.Housekeeping = append(daemon.metricsCollector.Housekeeping, func(time.Time) {
		daemon.DataIO.PruneFinished()
	})
	workerCtx := daemon.ctx
	daemon.wg.Add(1)
	go func() {
		defer daemon.wg.Done()
		daemon.metricsCollector.Run(workerCtx)
	}()

	// Query and control server
	if daemon.cfg.MetricQueryServerEnabled {
		serverCtx := logctx.AppendCtxTag(daemon.ctx, global.NSMetricSrv)

		queries := server.Queries{
			Search:    daemon.metricsCollector.Registry.Search,
			Discover:  daemon.metricsCollector.Registry.Discover,
			Aggregate: daemon.metricsCollector.Registry.Aggregate,
		}
		daemon.MetricServer, err = server.SetupListener(serverCtx, daemon.cfg.MetricQueryServerPort, queries, daemon)
		if err != nil {
			err = fmt.Errorf("failed setting up query server: %w", err)
			daemon.Shutdown()
			return
		}
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			server.Start(serverCtx, daemon.MetricServer)
		}()
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Startup complete.\n")
	return
}

// Runs the main loop on the calling goroutine until Shutdown
func (daemon *Daemon) Run() (err error) {
	err = daemon.Loop.Run(daemon.ctx)
	return
}

// Restarts the worker goroutines, keeping queued work and the scene
func (daemon *Daemon) Reload() {
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Restarting scheduler workers\n")
	daemon.Scheduler.TerminateProcessingThread()
	daemon.Scheduler.CreateProcessingThread()
}

// Gracefully stops every component (errors are printed to program log buffer)
func (daemon *Daemon) Shutdown() {
	daemon.shutdownOnce.Do(daemon.shutdown)
}

func (daemon *Daemon) shutdown() {
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	// Stop accepting control requests first
	if daemon.MetricServer != nil {
		shutdownCtx, cancel := context.WithTimeout(daemon.ctx, global.HTTPWriteTimeout)
		err := daemon.MetricServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil && err != http.ErrServerClosed {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"query HTTP server did not shutdown gracefully: %v\n", err)
		}
	}

	if daemon.Scheduler != nil {
		daemon.Scheduler.Close()
	}

	// Commit needs the loop, which is still running until cancel below
	if daemon.cfg.SaveSceneOnExit != "" && daemon.Loop != nil && daemon.Loop.Running() {
		commitCtx, cancel := context.WithTimeout(daemon.ctx, global.DaemonShutdownTimeout)
		var commitErr error
		err := daemon.Loop.Do(commitCtx, func() {
			commitErr = daemon.Scene.Commit(daemon.cfg.SaveSceneOnExit)
		})
		cancel()
		if err == nil {
			err = commitErr
		}
		if err != nil {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.ErrorLog,
				"failed saving scene to %s: %v\n", daemon.cfg.SaveSceneOnExit, err)
		} else {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
				"scene saved to %s\n", daemon.cfg.SaveSceneOnExit)
		}
	}

	// Stop the loop, gatherer and beats delivery
	daemon.cancel()
	if daemon.Loop != nil {
		daemon.Loop.Stop()
	}

	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(global.DaemonShutdownTimeout):
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Timeout: daemon goroutines did not stop within %v seconds\n",
			global.DaemonShutdownTimeout.Seconds())
	}

	if err := daemon.beats.Shutdown(global.BeatsTimeout); err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"beats connection did not close cleanly: %v\n", err)
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown completed\n")
}

// Main loop only
func (daemon *Daemon) importScene(file string) {
	daemon.Scene.SetURL(file)
	err := daemon.Scene.Import()
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.ErrorLog,
			"failed importing scene %s: %v\n", file, err)
		return
	}
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"imported scene %s (%d nodes)\n", file, len(daemon.Scene.Nodes()))
}

// Observer callback, runs on the main loop
func (daemon *Daemon) publishProcessed(event applogic.ProcessedEvent) {
	daemon.beats.Enqueue(beats.Event{
		UID:      event.UID,
		Kind:     event.Kind.String(),
		Filename: event.Filename,
		Targets:  event.Targets,
		Failed:   event.Failed,
		Time:     event.Time,
	})
}
