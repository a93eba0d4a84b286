package daemon

import (
	"context"
	"fmt"
	"slicerlogic/internal/externalio/server"
	"slicerlogic/internal/script"
)

// Query server entry points. Request methods go straight to the thread safe scheduler;
// anything reading the scene hops onto the main loop.

func (daemon *Daemon) RequestReadData(nodeID, filename string, displayData, deleteFileAfter bool) (uint64, bool) {
	return daemon.Scheduler.RequestReadData(nodeID, filename, displayData, deleteFileAfter)
}

func (daemon *Daemon) RequestWriteData(nodeID, filename string, displayData, deleteFileAfter bool) (uint64, bool) {
	return daemon.Scheduler.RequestWriteData(nodeID, filename, displayData, deleteFileAfter)
}

func (daemon *Daemon) RequestReadScene(filename string, targetIDs, sourceIDs []string, displayData, deleteFileAfter bool) (uint64, bool) {
	return daemon.Scheduler.RequestReadScene(filename, targetIDs, sourceIDs, displayData, deleteFileAfter)
}

func (daemon *Daemon) RequestWriteScene(filename string, targetIDs, sourceIDs []string, displayData, deleteFileAfter bool) (uint64, bool) {
	return daemon.Scheduler.RequestWriteScene(filename, targetIDs, sourceIDs, displayData, deleteFileAfter)
}

func (daemon *Daemon) RunScript(name, text string) (uint64, bool) {
	batch := script.NewBatch(name, text)
	return daemon.Scheduler.RequestModified(batch)
}

func (daemon *Daemon) CancelTransfer(id uint64) bool {
	return daemon.DataIO.CancelTransfer(id)
}

// Results are only read once Do returns without error; a timed out closure may still run later.
func (daemon *Daemon) QueueNodeRead(ctx context.Context, nodeID string, displayData bool) (queued int, err error) {
	type result struct {
		queued int
		err    error
	}
	out := &result{}
	loopErr := daemon.Loop.Do(ctx, func() {
		node := daemon.Scene.NodeByID(nodeID)
		if node == nil {
			out.err = fmt.Errorf("no node with id %q", nodeID)
			return
		}
		out.queued, out.err = daemon.DataIO.QueueRead(node, displayData)
	})
	if loopErr != nil {
		err = fmt.Errorf("main loop unavailable: %w", loopErr)
		return
	}
	queued, err = out.queued, out.err
	return
}

func (daemon *Daemon) Status(ctx context.Context) (status server.Status) {
	status = server.Status{
		Scheduler:   daemon.Scheduler.State().String(),
		ReadQueue:   daemon.Scheduler.ReadDataQueueSize(),
		LoopPending: daemon.Loop.Len(),
		Transfers:   daemon.DataIO.Transfers(),
	}
	// Scene fields stay empty when the loop is busy past the request deadline
	var nodes int
	var url string
	err := daemon.Loop.Do(ctx, func() {
		nodes = len(daemon.Scene.Nodes())
		url = daemon.Scene.URL()
	})
	if err == nil {
		status.Nodes, status.SceneURL = nodes, url
	}
	return
}
