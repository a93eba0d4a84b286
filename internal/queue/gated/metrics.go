package gated

import (
	"slicerlogic/internal/metrics"
	"time"
)

func (queue *Queue[T]) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	depth := queue.Metrics.Depth.Load()
	maxDepth := queue.Metrics.MaxDepth.Swap(depth)

	var active uint64
	if queue.Active() {
		active = 1
	}

	add := func(name string, raw interface{}, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.NewMetric(queue.Namespace, name, description, t, raw, unit, interval))
	}

	add("depth", depth, "count", metrics.Gauge, "Current number of items in the queue")
	add("max_depth", maxDepth, "count", metrics.Gauge, "Largest queue depth seen in the interval")
	add("active", active, "bool", metrics.Gauge, "Whether the queue currently accepts new items")
	add("push_accepted", queue.Metrics.PushAccepted.Swap(0), "count", metrics.Counter, "Items accepted in the interval")
	add("push_rejected", queue.Metrics.PushRejected.Swap(0), "count", metrics.Counter, "Items rejected because the queue was inactive")
	add("pops", queue.Metrics.Pops.Swap(0), "count", metrics.Counter, "Items removed by consumers in the interval")
	add("front_misses", queue.Metrics.FrontMisses.Swap(0), "count", metrics.Counter, "Conditional pops refused by the front item in the interval")
	add("coalesced", queue.Metrics.Coalesced.Swap(0), "count", metrics.Counter, "Duplicate items collapsed in the interval")
	return
}
