// Moves remote data into the local cache on networking workers and hands it to the scheduler
package dataio

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slicerlogic/internal/cache"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/scene"
	"sort"
	"time"

	"github.com/pbnjay/memory"
	"golang.org/x/time/rate"
)

func New(ctx context.Context, target *scene.Scene, scheduler Scheduler, opts Options) (new *Manager) {
	if opts.DownloadRate <= 0 {
		opts.DownloadRate = global.DefaultDownloadRate
	}
	if opts.DownloadBurst <= 0 {
		opts.DownloadBurst = global.DefaultDownloadBurst
	}
	if opts.Timeout <= 0 {
		opts.Timeout = global.DownloadTimeout
	}

	new = &Manager{
		ctx:        logctx.AppendCtxTag(ctx, global.NSDataIO),
		scene:      target,
		cache:      target.Cache(),
		scheduler:  scheduler,
		opts:       opts,
		client:     &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.DownloadRate), opts.DownloadBurst),
		freeMemory: memory.FreeMemory,
		transfers:  make(map[uint64]*Transfer),
		Metrics:    &MetricStorage{},
	}
	return
}

// Requests a read of every storage node of node. Remote references are downloaded
// first on a networking worker; local files go straight to the read queue.
// Touches the scene, so it must run on the main loop.
func (manager *Manager) QueueRead(node *scene.Node, displayData bool) (queued int, err error) {
	if node == nil {
		err = fmt.Errorf("no node given")
		return
	}

	for _, storageNode := range manager.scene.StorageNodesFor(node) {
		storable := storageNode.Storage
		if storable == nil {
			continue
		}

		uri := storable.URI()
		if uri == "" || !cache.IsRemoteReference(uri) {
			_, ok := manager.scheduler.RequestReadData(node.ID(), storable.FileName(), displayData, false)
			if !ok {
				err = fmt.Errorf("scheduler rejected read of %q", storable.FileName())
				return
			}
			manager.Metrics.LocalReads.Add(1)
			queued++
			continue
		}

		err = manager.queueDownload(node, storable, uri, displayData)
		if err != nil {
			err = fmt.Errorf("node %s: %w", node.ID(), err)
			return
		}
		queued++
	}
	return
}

func (manager *Manager) queueDownload(node *scene.Node, storable scene.Storable, uri string, displayData bool) (err error) {
	if manager.cache == nil {
		err = ErrNoCache
		return
	}
	destination := manager.cache.FilenameFromURI(uri)
	storable.SetFileName(destination)

	// Cached copy is reused unless a fresh download is forced
	if !manager.cache.ForceRedownload {
		if _, statErr := os.Stat(destination); statErr == nil {
			_, ok := manager.scheduler.RequestReadData(node.ID(), destination, displayData, false)
			if !ok {
				err = fmt.Errorf("scheduler rejected read of cached %q", destination)
				return
			}
			logctx.LogEvent(manager.ctx, global.VerbosityData, global.InfoLog,
				"using cached copy of %s\n", uri)
			return
		}
	}

	if manager.opts.MinFreeMemory > 0 {
		free := manager.freeMemory()
		if free < manager.opts.MinFreeMemory {
			manager.Metrics.RefusedMemory.Add(1)
			err = fmt.Errorf("%w: %d bytes free, %d required", ErrLowMemory, free, manager.opts.MinFreeMemory)
			return
		}
	}

	transfer := &Transfer{
		ID:          manager.nextID.Add(1),
		SourceURI:   uri,
		Destination: destination,
		NodeID:      node.ID(),
		DisplayData: displayData,
		status:      StatusPending,
	}

	manager.mu.Lock()
	manager.transfers[transfer.ID] = transfer
	manager.mu.Unlock()

	if !manager.scheduler.ScheduleTask(&downloadTask{manager: manager, transfer: transfer}) {
		transfer.finish(StatusCancelled, fmt.Errorf("scheduler not running"))
		err = fmt.Errorf("scheduler rejected download of %s", uri)
		return
	}
	manager.Metrics.Queued.Add(1)

	logctx.LogEvent(manager.ctx, global.VerbosityProgress, global.InfoLog,
		"queued transfer %d: %s -> %s\n", transfer.ID, uri, destination)
	return
}

// Requests a write of every storage node of node. Main loop only.
func (manager *Manager) QueueWrite(node *scene.Node) (queued int) {
	if node == nil {
		return
	}
	for _, storageNode := range manager.scene.StorageNodesFor(node) {
		if storageNode.Storage == nil {
			continue
		}
		target := storageNode.Storage.FileName()
		if uri := storageNode.Storage.URI(); uri != "" {
			target = uri
		}
		if _, ok := manager.scheduler.RequestWriteData(node.ID(), target, false, false); ok {
			queued++
		}
	}
	return
}

// Cancels a pending or running transfer. False when unknown or already finished.
func (manager *Manager) CancelTransfer(id uint64) (cancelled bool) {
	manager.mu.Lock()
	transfer := manager.transfers[id]
	manager.mu.Unlock()
	if transfer == nil {
		return
	}

	transfer.mu.Lock()
	defer transfer.mu.Unlock()
	switch transfer.status {
	case StatusPending:
		transfer.status = StatusCancelPending
		cancelled = true
	case StatusRunning:
		transfer.status = StatusCancelPending
		if transfer.cancel != nil {
			transfer.cancel()
		}
		cancelled = true
	}
	return
}

// Snapshot of all known transfers ordered by id
func (manager *Manager) Transfers() (infos []TransferInfo) {
	manager.mu.Lock()
	transfers := make([]*Transfer, 0, len(manager.transfers))
	for _, transfer := range manager.transfers {
		transfers = append(transfers, transfer)
	}
	manager.mu.Unlock()

	sort.Slice(transfers, func(i, j int) bool { return transfers[i].ID < transfers[j].ID })
	for _, transfer := range transfers {
		infos = append(infos, transfer.info())
	}
	return
}

// Removes finished transfers from the table
func (manager *Manager) PruneFinished() (removed int) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for id, transfer := range manager.transfers {
		if transfer.Status().Done() {
			delete(manager.transfers, id)
			removed++
		}
	}
	return
}

// Empties the download cache. Refused while transfers are in flight.
func (manager *Manager) ClearCache() (err error) {
	if manager.cache == nil {
		err = ErrNoCache
		return
	}
	for _, info := range manager.Transfers() {
		if info.Status == StatusPending.String() || info.Status == StatusRunning.String() {
			err = fmt.Errorf("transfer %d still %s", info.ID, info.Status)
			return
		}
	}
	err = manager.cache.Clear()
	return
}

func (transfer *Transfer) Status() Status {
	transfer.mu.Lock()
	defer transfer.mu.Unlock()
	return transfer.status
}

func (transfer *Transfer) finish(status Status, err error) {
	transfer.mu.Lock()
	transfer.status = status
	transfer.err = err
	transfer.finished = time.Now()
	transfer.cancel = nil
	transfer.mu.Unlock()
}

func (transfer *Transfer) info() (info TransferInfo) {
	transfer.mu.Lock()
	defer transfer.mu.Unlock()
	info = TransferInfo{
		ID:          transfer.ID,
		SourceURI:   transfer.SourceURI,
		Destination: transfer.Destination,
		NodeID:      transfer.NodeID,
		Status:      transfer.status.String(),
		Bytes:       transfer.bytes,
	}
	if transfer.err != nil {
		info.Error = transfer.err.Error()
	}
	if !transfer.started.IsZero() {
		end := transfer.finished
		if end.IsZero() {
			end = time.Now()
		}
		info.Duration = end.Sub(transfer.started)
	}
	return
}
