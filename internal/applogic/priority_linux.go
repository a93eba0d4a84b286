package applogic

import (
	"context"
	"os"
	"runtime"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Pins the worker to its OS thread and lowers that thread's scheduling priority.
// The niceness comes from the environment override when it parses, else from options.
func (scheduler *Scheduler) lowerPriority(ctx context.Context) {
	nice := scheduler.opts.BackgroundNice
	if raw, set := os.LookupEnv(global.BackgroundPriorityEnv); set {
		parsed, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"invalid %s value %q, expected an integer\n", global.BackgroundPriorityEnv, raw)
		} else {
			nice = parsed
		}
	}

	// Thread stays locked for the goroutine's lifetime so the priority does not leak
	runtime.LockOSThread()

	err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), nice)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"failed to set worker niceness to %d (values below 0 need privileges): %v\n", nice, err)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog, "worker niceness set to %d\n", nice)
}
