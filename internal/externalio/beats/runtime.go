package beats

import (
	"context"
	"runtime/debug"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"time"
)

// Delivers buffered events until the context ends, then flushes what is left
func (mod *OutModule) Run(ctx context.Context) {
	if mod == nil {
		return
	}
	defer close(mod.done)
	defer func() {
		if fatalError := recover(); fatalError != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in beats output: %v\n%s", fatalError, debug.Stack())
		}
	}()

	ticker := time.NewTicker(mod.flush)
	defer ticker.Stop()

	batch := make([]Event, 0, mod.batchMax)
	flush := func() {
		if len(batch) > 0 {
			mod.send(ctx, batch)
			batch = batch[:0]
		}
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-mod.events:
					batch = append(batch, event)
					if len(batch) >= mod.batchMax {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case event := <-mod.events:
			batch = append(batch, event)
			if len(batch) >= mod.batchMax {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Waits for Run to finish its final flush, then closes the connection
func (mod *OutModule) Shutdown(timeout time.Duration) (err error) {
	if mod == nil {
		return
	}
	mod.stopOnce.Do(func() {
		select {
		case <-mod.done:
		case <-time.After(timeout):
		}
		if mod.sink != nil {
			err = mod.sink.Close()
		}
	})
	return
}
