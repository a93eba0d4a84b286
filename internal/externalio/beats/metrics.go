package beats

import (
	"slicerlogic/internal/global"
	"slicerlogic/internal/metrics"
	"time"
)

func (mod *OutModule) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	if mod == nil {
		return
	}
	namespace := []string{global.NSDaemon, global.NSBeats}
	collection = []metrics.Metric{
		metrics.NewMetric(namespace, "buffered", "Events waiting for delivery", metrics.Gauge, uint64(len(mod.events)), "count", interval),
		metrics.NewMetric(namespace, "enqueued", "Events accepted into the buffer", metrics.Counter, mod.Metrics.Enqueued.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "dropped", "Events dropped on a full buffer", metrics.Counter, mod.Metrics.Dropped.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "sent", "Events acknowledged by the server", metrics.Counter, mod.Metrics.Sent.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "failed", "Events that could not be delivered", metrics.Counter, mod.Metrics.Failed.Swap(0), "count", interval),
	}
	return
}
