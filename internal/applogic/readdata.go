package applogic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"slicerlogic/internal/cache"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/request"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/storage"
)

func (scheduler *Scheduler) tickRead() (remaining int, active bool) {
	if !scheduler.reads.Active() {
		return
	}
	active = true

	req, ok := scheduler.reads.Pop()
	if ok {
		ctx := logctx.AppendCtxTag(scheduler.ctx, global.NSRead)
		failed := scheduler.executeRead(ctx, req)
		scheduler.Metrics.ReadsProcessed.Add(1)
		scheduler.notifyProcessed(req, failed)
	}
	remaining = scheduler.reads.Len()
	return
}

func (scheduler *Scheduler) executeRead(ctx context.Context, req request.Request) (failed bool) {
	switch req.Kind() {
	case request.ReadScene:
		failed = scheduler.processReadScene(ctx, req)
	case request.ReadFile:
		failed = scheduler.processReadNode(ctx, req)
	case request.UpdateParentTransform:
		failed = scheduler.processParentTransform(ctx, req)
	case request.UpdateHierarchyLocation:
		failed = scheduler.processHierarchyLocation(ctx, req)
	case request.AddNodeReference:
		failed = scheduler.processNodeReference(ctx, req)
	default:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"read queue holds unexpected %s request %d\n", req.Kind(), req.UID())
		failed = true
	}
	return
}

// Loads one file into one node through a new or already attached storage node
func (scheduler *Scheduler) processReadNode(ctx context.Context, req request.Request) (failed bool) {
	filename := req.Filename()

	node := scheduler.scene.NodeByID(req.Target())
	if node == nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"read of %q skipped: node %q is not in the scene\n", filename, req.Target())
		scheduler.deleteAfterTransfer(ctx, req)
		failed = true
		return
	}

	storable, err := scheduler.storageFor(ctx, node, filename)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"no storage for node %s reading %q: %v\n", node.ID(), filename, err)
		scheduler.deleteAfterTransfer(ctx, req)
		failed = true
		return
	}

	err = readContained(storable, node)
	scheduler.deleteAfterTransfer(ctx, req)
	if err != nil {
		scheduler.Metrics.ReadFailures.Add(1)
		var readErr *storage.ReadError
		if errors.As(err, &readErr) {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"failed to read %q into node %s: %v\n", readErr.FileName, node.ID(), readErr.Err)
		} else {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"unknown failure reading %q into node %s: %v\n", filename, node.ID(), err)
		}
		failed = true
		return
	}

	scheduler.ensureDisplayNodes(node)
	node.ModifiedSinceRead = true
	node.Modified()

	if req.DisplayData() && node.Class == scene.ScalarVolume && !node.LabelMap {
		scheduler.scene.SetActiveVolumeID(node.ID())
		scheduler.scene.PropagateVolumeSelection()
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"read %q into node %s\n", filename, node.ID())
	return
}

// Finds the attached storage node for filename (by uri for remote references),
// otherwise creates one for the node class and attaches it
func (scheduler *Scheduler) storageFor(ctx context.Context, node *scene.Node, filename string) (storable scene.Storable, err error) {
	remote := cache.IsRemoteReference(filename)

	for _, candidate := range scheduler.scene.StorageNodesFor(node) {
		if candidate.Storage == nil {
			continue
		}
		if remote && candidate.Storage.URI() == filename {
			storable = candidate.Storage
			return
		}
		if !remote && candidate.Storage.FileName() == filename {
			storable = candidate.Storage
			return
		}
	}

	storable, err = scheduler.storage.ForTarget(node, filename)
	if err != nil {
		return
	}
	if remote {
		storable.SetURI(filename)
		if cacheManager := scheduler.scene.Cache(); cacheManager != nil {
			storable.SetFileName(cacheManager.FilenameFromURI(filename))
		}
	} else {
		storable.SetFileName(filename)
	}

	storageNode := scene.NewNode(storable.Kind(), "")
	storageNode.Storage = storable
	scheduler.scene.AddNode(storageNode)
	node.AddReference(scene.RoleStorage, storageNode.ID())

	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
		"attached %s %s to node %s\n", storable.Kind(), storageNode.ID(), node.ID())
	return
}

// Runs ReadData converting panics into errors so one bad file cannot stop the drain
func readContained(storable scene.Storable, node *scene.Node) (err error) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			err = fmt.Errorf("panic: %v\n%s", fatalError, debug.Stack())
		}
	}()
	err = storable.ReadData(node)
	return
}

// Scene mode read: whole import when the id lists differ, pairwise copy otherwise
func (scheduler *Scheduler) processReadScene(ctx context.Context, req request.Request) (failed bool) {
	defer scheduler.deleteAfterTransfer(ctx, req)

	if !req.PairsMatch() {
		scheduler.scene.SetURL(req.Filename())
		scheduler.Metrics.SceneImports.Add(1)
		err := scheduler.scene.Import()
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"import of scene %q failed: %v\n", req.Filename(), err)
			failed = true
		}
		return
	}

	scratch := scheduler.scene.NewScratch()
	scratch.SetURL(req.Filename())
	err := scratch.Import()
	if err != nil {
		// Partially loaded scenes still provide whatever nodes did load
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"loading scene %q for node copy: %v\n", req.Filename(), err)
		failed = true
	}

	sourceIDs, targetIDs := req.SourceNodes(), req.TargetNodes()
	explicit := make(map[string]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		explicit[id] = true
	}

	for i := range sourceIDs {
		source := scratch.NodeByID(sourceIDs[i])
		if source == nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"source node %q not found in %q, skipping\n", sourceIDs[i], req.Filename())
			continue
		}
		target := scheduler.scene.NodeByID(targetIDs[i])
		if target == nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"target node %q not found in scene, skipping\n", targetIDs[i])
			continue
		}

		scheduler.scene.CopyInto(target, source)
		scheduler.Metrics.NodeCopies.Add(1)

		if source.Class == scene.ModelHierarchy {
			scheduler.copyHierarchyChildren(ctx, scratch, source, target, explicit)
		}
	}
	return
}

// Copies the direct children of a loaded hierarchy node that were not copied
// explicitly, re-parenting them under target. Grandchildren are not visited.
func (scheduler *Scheduler) copyHierarchyChildren(ctx context.Context, scratch *scene.Scene, source, target *scene.Node, explicit map[string]bool) {
	for _, child := range scratch.Children(source) {
		if explicit[child.ID()] {
			continue
		}

		copied := scheduler.scene.CopyNode(child)
		copied.ParentID = target.ID()
		scheduler.Metrics.NodeCopies.Add(1)

		// Storage nodes stay behind in the scratch scene
		copied.SetReference(scene.RoleStorage, "")

		copied.SetReference(scene.RoleDisplay, "")
		for _, display := range scratch.DisplayNodesFor(child) {
			copiedDisplay := scheduler.scene.CopyNode(display)
			copied.AddReference(scene.RoleDisplay, copiedDisplay.ID())
			scheduler.Metrics.NodeCopies.Add(1)
		}

		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"copied hierarchy child %s as %s under %s\n", child.ID(), copied.ID(), target.ID())
	}
}

func (scheduler *Scheduler) processParentTransform(ctx context.Context, req request.Request) (failed bool) {
	node := scheduler.scene.NodeByID(req.Target())
	if node == nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"cannot set parent transform of missing node %q\n", req.Target())
		failed = true
		return
	}

	transformID := req.Role()
	if transformID != "" {
		transform := scheduler.scene.NodeByID(transformID)
		if transform == nil || !transform.Class.IsTransform() {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"cannot place %q under %q: not a transform in the scene\n", req.Target(), transformID)
			failed = true
			return
		}
	}

	// Empty id detaches
	node.SetReference(scene.RoleTransform, transformID)
	node.Modified()
	return
}

func (scheduler *Scheduler) processHierarchyLocation(ctx context.Context, req request.Request) (failed bool) {
	node := scheduler.scene.NodeByID(req.Target())
	sibling := scheduler.scene.NodeByID(req.Role())
	if node == nil || sibling == nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"cannot move %q next to %q: node missing\n", req.Target(), req.Role())
		failed = true
		return
	}
	node.ParentID = sibling.ParentID
	node.Modified()
	return
}

func (scheduler *Scheduler) processNodeReference(ctx context.Context, req request.Request) (failed bool) {
	referencing := scheduler.scene.NodeByID(req.Target())
	sources := req.SourceNodes()
	if referencing == nil || len(sources) != 1 || scheduler.scene.NodeByID(sources[0]) == nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"cannot add %q reference from %q: node missing\n", req.Role(), req.Target())
		failed = true
		return
	}
	referencing.AddReference(req.Role(), sources[0])
	referencing.Modified()
	return
}

// Best effort removal of a transferred temporary file
func (scheduler *Scheduler) deleteAfterTransfer(ctx context.Context, req request.Request) {
	if !req.DeleteFileAfter() {
		return
	}
	err := os.Remove(req.Filename())
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"unable to delete temporary file %q: %v\n", req.Filename(), err)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog, "deleted temporary file %q\n", req.Filename())
}
