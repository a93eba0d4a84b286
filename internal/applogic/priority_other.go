//go:build !linux

package applogic

import (
	"context"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
)

func (scheduler *Scheduler) lowerPriority(ctx context.Context) {
	logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
		"background worker priority is only supported on linux\n")
}
