package applogic

import (
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/queue/gated"
	"slicerlogic/internal/request"
	"slicerlogic/internal/task"
)

// Queues t for the worker of its category. False when the workers are not running.
func (scheduler *Scheduler) ScheduleTask(t task.Task) (accepted bool) {
	if t == nil {
		return
	}
	accepted = scheduler.tasks.Push(t)
	if !accepted {
		logctx.LogEvent(scheduler.ctx, global.VerbosityData, global.WarnLog,
			"task %s rejected: scheduler is not running\n", describe(t))
	}
	return
}

// Queues a modification notification for obj, holding a reference until it is applied.
// Returns the request uid, or ok=false when the modified queue is inactive.
func (scheduler *Scheduler) RequestModified(obj Modifiable) (uid uint64, ok bool) {
	if obj == nil || !scheduler.modified.Active() {
		return
	}

	obj.Register()
	_, ok = scheduler.modified.PushWith(func() Modifiable {
		uid = scheduler.nextUID.Add(1)
		return obj
	})
	if !ok {
		obj.Release()
	}
	return
}

func (scheduler *Scheduler) RequestReadData(nodeID, filename string, displayData, deleteFileAfter bool) (uid uint64, ok bool) {
	uid, ok = scheduler.push(scheduler.reads, func(uid uint64) request.Request {
		return request.NewReadFile(uid, nodeID, filename, displayData, deleteFileAfter)
	})
	return
}

func (scheduler *Scheduler) RequestWriteData(nodeID, filename string, displayData, deleteFileAfter bool) (uid uint64, ok bool) {
	uid, ok = scheduler.push(scheduler.writes, func(uid uint64) request.Request {
		return request.NewWriteFile(uid, nodeID, filename, displayData, deleteFileAfter)
	})
	return
}

// Scene mode read: sourceIDs in the file are copied onto the targetIDs of the live scene pairwise
func (scheduler *Scheduler) RequestReadScene(filename string, targetIDs, sourceIDs []string, displayData, deleteFileAfter bool) (uid uint64, ok bool) {
	uid, ok = scheduler.push(scheduler.reads, func(uid uint64) request.Request {
		return request.NewReadScene(uid, filename, targetIDs, sourceIDs, displayData, deleteFileAfter)
	})
	return
}

func (scheduler *Scheduler) RequestWriteScene(filename string, targetIDs, sourceIDs []string, displayData, deleteFileAfter bool) (uid uint64, ok bool) {
	uid, ok = scheduler.push(scheduler.writes, func(uid uint64) request.Request {
		return request.NewWriteScene(uid, filename, targetIDs, sourceIDs, displayData, deleteFileAfter)
	})
	return
}

// Sets the parent transform of nodeID on the main loop
func (scheduler *Scheduler) RequestUpdateParentTransform(nodeID, transformID string) (uid uint64, ok bool) {
	uid, ok = scheduler.push(scheduler.reads, func(uid uint64) request.Request {
		return request.NewUpdateParentTransform(uid, nodeID, transformID)
	})
	return
}

// Moves nodeID next to siblingID in the hierarchy on the main loop
func (scheduler *Scheduler) RequestUpdateHierarchyLocation(nodeID, siblingID string) (uid uint64, ok bool) {
	uid, ok = scheduler.push(scheduler.reads, func(uid uint64) request.Request {
		return request.NewUpdateHierarchyLocation(uid, nodeID, siblingID)
	})
	return
}

func (scheduler *Scheduler) RequestAddNodeReference(referencingID, referencedID, role string) (uid uint64, ok bool) {
	uid, ok = scheduler.push(scheduler.reads, func(uid uint64) request.Request {
		return request.NewAddNodeReference(uid, referencingID, referencedID, role)
	})
	return
}

// Requests waiting in the read queue
func (scheduler *Scheduler) ReadDataQueueSize() int {
	return scheduler.reads.Len()
}

// Assigns the uid while the queue content lock is held so uids follow queue order
func (scheduler *Scheduler) push(queue *gated.Queue[request.Request], build func(uid uint64) request.Request) (uid uint64, ok bool) {
	req, ok := queue.PushWith(func() request.Request {
		return build(scheduler.nextUID.Add(1))
	})
	if !ok {
		logctx.LogEvent(scheduler.ctx, global.VerbosityData, global.WarnLog,
			"request rejected: queue %v is inactive\n", queue.Namespace)
		return
	}
	uid = req.UID()
	return
}
