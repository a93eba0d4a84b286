package applogic

import (
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/metrics"
	"time"
)

// Queue metrics plus scheduler counters for the interval
func (scheduler *Scheduler) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	collection = append(collection, scheduler.tasks.CollectMetrics(interval)...)
	collection = append(collection, scheduler.modified.CollectMetrics(interval)...)
	collection = append(collection, scheduler.reads.CollectMetrics(interval)...)
	collection = append(collection, scheduler.writes.CollectMetrics(interval)...)

	namespace := logctx.GetTagList(scheduler.ctx)
	m := scheduler.Metrics
	add := func(name string, raw interface{}, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.NewMetric(namespace, name, description, t, raw, unit, interval))
	}

	var running uint64
	scheduler.lifecycleMu.Lock()
	if scheduler.workers != nil {
		running = scheduler.workers.running.Load()
	}
	scheduler.lifecycleMu.Unlock()

	add("workers_running", running, "count", metrics.Gauge, "Worker goroutines currently alive")
	add("processing_executed", m.ProcessingExecuted.Swap(0), "count", metrics.Counter, "Processing tasks executed in the interval")
	add("networking_executed", m.NetworkingExecuted.Swap(0), "count", metrics.Counter, "Networking tasks executed in the interval")
	add("task_panics", m.TaskPanics.Swap(0), "count", metrics.Counter, "Tasks that panicked in the interval")
	add("modified_applied", m.ModifiedApplied.Swap(0), "count", metrics.Counter, "Modified notifications delivered in the interval")
	add("script_errors", m.ScriptErrors.Swap(0), "count", metrics.Counter, "Script lines that failed to evaluate in the interval")
	add("reads_processed", m.ReadsProcessed.Swap(0), "count", metrics.Counter, "Read requests drained in the interval")
	add("read_failures", m.ReadFailures.Swap(0), "count", metrics.Counter, "Node reads that failed in the interval")
	add("writes_processed", m.WritesProcessed.Swap(0), "count", metrics.Counter, "Write requests drained in the interval")
	add("scene_imports", m.SceneImports.Swap(0), "count", metrics.Counter, "Whole scene imports in the interval")
	add("node_copies", m.NodeCopies.Swap(0), "count", metrics.Counter, "Nodes copied from loaded scenes in the interval")
	add("drain_ticks", m.DrainTicks.Swap(0), "count", metrics.Counter, "Main loop drain invocations in the interval")
	add("abandoned_workers", m.AbandonedWorkers.Load(), "count", metrics.Gauge, "Workers left running after a shutdown timeout")
	return
}
