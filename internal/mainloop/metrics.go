package mainloop

import (
	"slicerlogic/internal/global"
	"slicerlogic/internal/metrics"
	"time"
)

func (loop *Loop) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	namespace := []string{global.NSLoop}
	collection = []metrics.Metric{
		metrics.NewMetric(namespace, "executed", "Callbacks executed in the interval", metrics.Counter, loop.Metrics.Executed.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "panics", "Callbacks that panicked in the interval", metrics.Counter, loop.Metrics.Panics.Swap(0), "count", interval),
		metrics.NewMetric(namespace, "pending", "Callbacks waiting for their deadline", metrics.Gauge, loop.Metrics.Pending.Load(), "count", interval),
		metrics.NewMetric(namespace, "max_lag", "Worst lateness of a due callback in the interval", metrics.Gauge, time.Duration(loop.Metrics.Lag.Swap(0)).Milliseconds(), "ms", interval),
	}
	return
}
