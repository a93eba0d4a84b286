package applogic

import (
	"slicerlogic/internal/request"
	"time"
)

// Registers fn to run on the main loop after every processed read or write request
func (scheduler *Scheduler) AddProcessedObserver(fn func(ProcessedEvent)) {
	scheduler.obsMu.Lock()
	scheduler.observers = append(scheduler.observers, fn)
	scheduler.obsMu.Unlock()
}

func (scheduler *Scheduler) notifyProcessed(req request.Request, failed bool) {
	event := ProcessedEvent{
		UID:      req.UID(),
		Kind:     req.Kind(),
		Filename: req.Filename(),
		Targets:  req.TargetNodes(),
		Failed:   failed,
		Time:     time.Now(),
	}

	scheduler.obsMu.Lock()
	observers := append([]func(ProcessedEvent){}, scheduler.observers...)
	scheduler.obsMu.Unlock()

	for _, observer := range observers {
		observer(event)
	}
}
