package daemon

import (
	"context"
	"runtime/debug"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"slicerlogic/internal/metrics"
	"time"
)

func NewGatherer(interval, maximumMetricAge time.Duration, collectors ...metrics.Collector) (new *Gatherer) {
	new = &Gatherer{
		Registry:   metrics.New(),
		Collectors: collectors,
		Interval:   interval,
		Retention:  maximumMetricAge,
	}
	return
}

func (gatherer *Gatherer) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSMetric)

	lastRun := time.Now()

	ticker := time.NewTicker(gatherer.Interval / 2) // Use polling interval half of desired record interval
	defer ticker.Stop()

	var tickCount int
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Sub(lastRun) >= gatherer.Interval {
				timeSlice := gatherer.Registry.NewTimeSlice(now, gatherer.Interval)
				lastRun = now
				gatherer.collect(ctx, timeSlice, gatherer.Interval)
			}

			tickCount++
			if tickCount >= 30 {
				dropped := gatherer.Registry.Prune(now, gatherer.Retention)
				if dropped > 0 {
					logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
						"pruned %d expired metric time slices\n", dropped)
				}
				for _, task := range gatherer.Housekeeping {
					task(now)
				}
				tickCount = 0
			}
		}
	}
}

// Reads every collector into one time slice. A panicking collector is skipped.
func (gatherer *Gatherer) collect(ctx context.Context, timeSlice time.Time, interval time.Duration) {
	for _, collector := range gatherer.Collectors {
		func() {
			defer func() {
				if fatalError := recover(); fatalError != nil {
					logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
						"panic in metric collector %T: %v\n%s", collector, fatalError, debug.Stack())
				}
			}()
			gatherer.Registry.Add(timeSlice, collector.CollectMetrics(interval))
		}()
	}
}
