package dataio

import (
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/metrics"
	"time"
)

func (manager *Manager) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	namespace := logctx.GetTagList(manager.ctx)
	m := manager.Metrics

	var active uint64
	for _, info := range manager.Transfers() {
		if info.Status == StatusPending.String() || info.Status == StatusRunning.String() {
			active++
		}
	}

	collection = []metrics.Metric{
		metrics.NewMetric(namespace, "transfers_active", "Transfers pending or running", metrics.Gauge, active, "count", interval),
		metrics.NewMetric(namespace, "transfers_queued", "Downloads queued in the interval", metrics.Counter, m.Queued.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "local_reads", "Local files handed straight to the read queue", metrics.Counter, m.LocalReads.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "transfers_started", "Downloads started in the interval", metrics.Counter, m.Started.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "transfers_completed", "Downloads completed in the interval", metrics.Counter, m.Completed.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "transfers_failed", "Downloads failed in the interval", metrics.Counter, m.Failed.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "transfers_cancelled", "Downloads cancelled in the interval", metrics.Counter, m.Cancelled.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "refused_low_memory", "Downloads refused for low free memory", metrics.Counter, m.RefusedMemory.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "bytes_received", "Bytes downloaded in the interval", metrics.Counter, m.BytesReceived.Swap(0), "bytes", interval),
	}
	return
}
