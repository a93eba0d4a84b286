package applogic

import (
	"context"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/request"
)

func (scheduler *Scheduler) tickWrite() (remaining int, active bool) {
	if !scheduler.writes.Active() {
		return
	}
	active = true

	req, ok := scheduler.writes.Pop()
	if ok {
		ctx := logctx.AppendCtxTag(scheduler.ctx, global.NSWrite)
		var failed bool
		if req.IsScene() {
			failed = scheduler.processWriteScene(ctx, req)
		} else {
			failed = scheduler.processWriteNode(ctx, req)
		}
		scheduler.Metrics.WritesProcessed.Add(1)
		scheduler.notifyProcessed(req, failed)
	}
	remaining = scheduler.writes.Len()
	return
}

// Uploading node data is not implemented; the request is acknowledged only
func (scheduler *Scheduler) processWriteNode(ctx context.Context, req request.Request) (failed bool) {
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"write of node %s to %q is not performed by this scheduler\n", req.Target(), req.Filename())
	return
}

func (scheduler *Scheduler) processWriteScene(ctx context.Context, req request.Request) (failed bool) {
	if !req.PairsMatch() {
		err := scheduler.scene.Commit(req.Filename())
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"failed to write scene to %q: %v\n", req.Filename(), err)
			failed = true
			return
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"wrote scene to %q\n", req.Filename())
		return
	}

	// Partial scene writes are acknowledged and logged only
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"partial scene write to %q (%d nodes) is not performed\n", req.Filename(), len(req.TargetNodes()))
	return
}
