package logctx

import (
	"fmt"
	"io"
	"slicerlogic/internal/global"
	"strings"
	"time"
)

const (
	dedupWindow      = 5 * time.Second
	dedupMinRepeats  = 10
	suppressCooldown = 1 * time.Minute
)

// Hold main thread exit until logger is finished its work
func (logger *Logger) Wait() {
	logger.wg.Wait()
}

// Wake signals/broadcasts to any goroutines waiting on the condition variable
func (logger *Logger) Wake() {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.cond.Broadcast()
}

// Starts a go routine that reads events and writes formatted output to io.Writer.
// Stops when logger.Done is closed and the buffer is empty.
func StartWatcher(logger *Logger, output io.Writer) {
	logger.wg.Add(1)

	go func() {
		defer logger.wg.Done()

		var dedup dedupState
		for {
			event, ok := logger.next()
			if !ok {
				return
			}
			if dedup.suppress(event, output) {
				continue
			}
			fmt.Fprintf(output, "%s", event.Format())
		}
	}()
}

// Blocks until an event is available. Returns false once done with nothing left to write.
func (logger *Logger) next() (event Event, ok bool) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	for len(logger.queue) == 0 {
		select {
		case <-logger.Done:
			return
		default:
			logger.cond.Wait()
		}
	}

	event = logger.queue[0]
	logger.queue = logger.queue[1:]
	ok = true
	return
}

// Duplicate events older than the window are not considered duplicates.
// Only meant for highly repetitive messages (e.g. a broken file re-requested every tick).
func (dedup *dedupState) suppress(event Event, output io.Writer) (skip bool) {
	now := time.Now()
	if event.Message == "" || event.Message != dedup.lastMsg || now.Sub(event.Timestamp) > dedupWindow {
		dedup.lastMsg = event.Message
		dedup.repeatCount = 1
		return
	}

	dedup.repeatCount++
	if dedup.repeatCount >= dedupMinRepeats && now.Sub(dedup.lastSuppressTime) >= suppressCooldown {
		fmt.Fprintf(output,
			"[%s] [%s] [%s] Suppressed %d repeated messages: %s",
			padTimestamp(event.Timestamp),
			strings.Join(event.Tags, "/"),
			global.InfoLog,
			dedup.repeatCount,
			dedup.lastMsg)
		if !strings.HasSuffix(dedup.lastMsg, "\n") {
			fmt.Fprintln(output)
		}
		dedup.lastSuppressTime = now
		dedup.repeatCount = 0
	}
	skip = true
	return
}
