package applogic

import (
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/script"
)

// Applies one queued modification. Consecutive duplicates of the same object are
// collapsed into it, each giving back the reference taken at enqueue time.
func (scheduler *Scheduler) tickModified() (remaining int, active bool) {
	if !scheduler.modified.Active() {
		return
	}
	active = true

	obj, ok := scheduler.modified.PopCoalesce(
		func(a, b Modifiable) bool { return a == b },
		func(duplicate Modifiable) { duplicate.Release() },
	)
	if ok {
		scheduler.applyModified(obj)
	}
	remaining = scheduler.modified.Len()
	return
}

func (scheduler *Scheduler) applyModified(obj Modifiable) {
	defer obj.Release()

	if batch, isBatch := obj.(*script.Batch); isBatch {
		ctx := logctx.AppendCtxTag(scheduler.ctx, global.NSScript)
		for _, line := range batch.Lines() {
			err := scheduler.interp.Eval(line)
			if err != nil {
				scheduler.Metrics.ScriptErrors.Add(1)
				logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
					"script %q line %q failed: %v\n", batch.Name, line, err)
			}
		}
	}

	obj.Modified()
	scheduler.Metrics.ModifiedApplied.Add(1)
}
