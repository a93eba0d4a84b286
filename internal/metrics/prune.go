package metrics

import "time"

// Drops every time slice older than maxAge relative to now, returning how many were dropped
func (registry *Registry) Prune(now time.Time, maxAge time.Duration) (dropped int) {
	cutoff := now.Add(-maxAge)

	registry.mu.Lock()
	defer registry.mu.Unlock()
	for timeSlice := range registry.metrics {
		if timeSlice.Before(cutoff) {
			delete(registry.metrics, timeSlice)
			dropped++
		}
	}
	return
}
