package logctx

import (
	"slicerlogic/internal/global"
	"time"
)

// Buffers event when it passes the level filter. Errors are always kept.
func (logger *Logger) log(eventLevel int, eventSeverity string, tags []string, fullMessage string) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	if eventLevel > logger.PrintLevel && eventSeverity != global.ErrorLog {
		return
	}

	logger.queue = append(logger.queue, Event{
		Timestamp: time.Now(),
		Tags:      tags,
		Severity:  eventSeverity,
		Message:   fullMessage,
	})
	logger.cond.Signal() // Notify watcher that new event is available
}
