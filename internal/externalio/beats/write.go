package beats

import (
	"context"
	"os"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
)

// Buffers an event for delivery. Full buffers drop the event.
func (mod *OutModule) Enqueue(event Event) (queued bool) {
	if mod == nil {
		return
	}
	select {
	case mod.events <- event:
		mod.Metrics.Enqueued.Add(1)
		queued = true
	default:
		mod.Metrics.Dropped.Add(1)
	}
	return
}

// Converts an event to the beats document layout
func document(event Event) (fields map[string]interface{}) {
	outcome := "success"
	if event.Failed {
		outcome = "failure"
	}
	fields = map[string]interface{}{
		// Minimum required fields
		"@timestamp": event.Time,
		"message":    event.Kind + " " + event.Filename + " " + outcome,

		"host": map[string]interface{}{
			"name":     global.Hostname,
			"hostname": global.Hostname,
		},
		"agent": map[string]interface{}{
			"program": global.ProgName,
			"version": global.ProgVersion,
			"type":    "filebeat",
			"pid":     os.Getpid(),
		},
		"event": map[string]interface{}{
			"id":      event.UID,
			"action":  event.Kind,
			"outcome": outcome,
		},
		"file": map[string]interface{}{
			"path": event.Filename,
		},
		"slicer": map[string]interface{}{
			"targets": event.Targets,
		},
	}
	return
}

// Writes one batch to the configured beats server
func (mod *OutModule) send(ctx context.Context, batch []Event) {
	events := make([]interface{}, 0, len(batch))
	for _, event := range batch {
		events = append(events, document(event))
	}

	sent, err := mod.sink.Send(events)
	mod.Metrics.Sent.Add(uint64(sent))
	if err != nil {
		mod.Metrics.Failed.Add(uint64(len(batch) - sent))
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"failed sending %d events to beats server: %v\n", len(batch)-sent, err)
	}
}
