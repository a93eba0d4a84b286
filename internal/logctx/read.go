package logctx

import (
	"sort"
	"strings"
)

// Snapshot of buffered (not yet written) events, oldest first. Zero timestamps sort last.
func (logger *Logger) Events() (events []Event) {
	logger.mutex.Lock()
	events = make([]Event, len(logger.queue))
	copy(events, logger.queue)
	logger.mutex.Unlock()

	sort.SliceStable(events, func(i, j int) bool {
		ti := events[i].Timestamp
		tj := events[j].Timestamp
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.Before(tj)
	})
	return
}

// Buffered events formatted as output lines, each newline terminated
func (logger *Logger) GetFormattedLogLines() (formatted []string) {
	events := logger.Events()
	formatted = make([]string, 0, len(events))
	for _, event := range events {
		line := event.Format()
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		formatted = append(formatted, line)
	}
	return
}

// Number of buffered events with the given severity
func (logger *Logger) Count(severity string) (count int) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	for _, event := range logger.queue {
		if event.Severity == severity {
			count++
		}
	}
	return
}
