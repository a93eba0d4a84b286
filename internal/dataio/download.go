package dataio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/task"
	"strconv"
	"time"
)

// Networking task moving one transfer into the cache
type downloadTask struct {
	manager  *Manager
	transfer *Transfer
}

func (dl *downloadTask) Type() task.Type { return task.Networking }

func (dl *downloadTask) String() string {
	return "Download/" + strconv.FormatUint(dl.transfer.ID, 10)
}

func (dl *downloadTask) Execute(ctx context.Context) {
	manager, transfer := dl.manager, dl.transfer
	ctx = logctx.AppendCtxTag(ctx, global.NSDataIO)

	transferCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	transfer.mu.Lock()
	if transfer.status == StatusCancelPending {
		transfer.mu.Unlock()
		transfer.finish(StatusCancelled, context.Canceled)
		manager.Metrics.Cancelled.Add(1)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"transfer %d cancelled before start\n", transfer.ID)
		return
	}
	transfer.status = StatusRunning
	transfer.started = time.Now()
	transfer.cancel = cancel
	transfer.mu.Unlock()

	manager.Metrics.Started.Add(1)
	size, err := manager.fetch(transferCtx, transfer.SourceURI, transfer.Destination)

	transfer.mu.Lock()
	transfer.bytes = size
	cancelRequested := transfer.status == StatusCancelPending
	transfer.mu.Unlock()

	if cancelRequested {
		transfer.finish(StatusCancelled, context.Canceled)
		manager.Metrics.Cancelled.Add(1)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"transfer %d cancelled\n", transfer.ID)
		return
	}
	if err != nil {
		transfer.finish(StatusCompletedWithErrors, err)
		manager.Metrics.Failed.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"transfer %d of %s failed: %v\n", transfer.ID, transfer.SourceURI, err)
		return
	}

	manager.cache.MapFileToURI(transfer.SourceURI, transfer.Destination)
	transfer.finish(StatusCompleted, nil)
	manager.Metrics.Completed.Add(1)
	manager.Metrics.BytesReceived.Add(uint64(size))

	_, ok := manager.scheduler.RequestReadData(transfer.NodeID, transfer.Destination, transfer.DisplayData, false)
	if !ok {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"transfer %d finished but the scheduler refused the read of %s\n", transfer.ID, transfer.Destination)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"transfer %d complete (%d bytes), read requested\n", transfer.ID, size)
}

// Downloads uri into destination through a temporary file in the same directory
func (manager *Manager) fetch(ctx context.Context, uri, destination string) (size int64, err error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		err = fmt.Errorf("invalid uri: %w", err)
		return
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		err = fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
		return
	}

	err = manager.limiter.Wait(ctx)
	if err != nil {
		err = fmt.Errorf("rate limiter: %w", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		err = fmt.Errorf("failed request creation: %w", err)
		return
	}
	req.Header.Set("User-Agent", global.ProgName+"/"+global.ProgVersion)

	resp, err := manager.client.Do(req)
	if err != nil {
		err = fmt.Errorf("failed HTTP request: %w", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("received HTTP status '%s'", resp.Status)
		return
	}

	err = os.MkdirAll(filepath.Dir(destination), 0o750)
	if err != nil {
		err = fmt.Errorf("failed to create cache directory: %w", err)
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(destination), ".partial-*")
	if err != nil {
		err = fmt.Errorf("failed to create temporary file: %w", err)
		return
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	size, err = io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		err = fmt.Errorf("failed reading response body: %w", err)
		return
	}
	if closeErr != nil {
		err = fmt.Errorf("failed to flush download: %w", closeErr)
		return
	}
	if resp.ContentLength >= 0 && size != resp.ContentLength {
		err = fmt.Errorf("short download: %d of %d bytes", size, resp.ContentLength)
		return
	}

	err = os.Rename(tmp.Name(), destination)
	if err != nil {
		err = fmt.Errorf("failed to move download into the cache: %w", err)
		return
	}
	return
}
