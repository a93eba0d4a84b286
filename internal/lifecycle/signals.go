package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"syscall"
)

type DaemonLike interface {
	Reload()
	Shutdown()
}

// Handles incoming signals until one of them stops the daemon.
// SIGHUP restarts the scheduler workers; SIGINT, SIGQUIT and SIGTERM shut down.
// Returns after Shutdown, or when ctx ends.
func SignalHandler(ctx context.Context, daemonManager DaemonLike) {
	sigChan := make(chan os.Signal, 10)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		var sig os.Signal
		select {
		case <-ctx.Done():
			return
		case sig = <-sigChan:
		}
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", sig)

		if handleSignal(ctx, sig, daemonManager) {
			return
		}
	}
}

// Acts on one signal. True when the daemon was shut down.
func handleSignal(ctx context.Context, sig os.Signal, daemonManager DaemonLike) (stopped bool) {
	if sig != syscall.SIGHUP {
		if err := NotifyStopping(ctx); err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify stopping failed: %v\n", err)
		}
		daemonManager.Shutdown()
		stopped = true
		return
	}

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Beginning reload...\n")
	if err := NotifyReload(ctx); err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify reload failed: %v\n", err)
	}

	daemonManager.Reload()

	if err := NotifyStatus(ctx, "Scheduler workers restarted"); err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify status failed: %v\n", err)
	}
	if err := NotifyReady(ctx); err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
	}
	return
}
