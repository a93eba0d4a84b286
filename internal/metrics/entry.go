// Central registry for storing time-based metrics and their associated data
package metrics

import "time"

// Creates new metric registry storage
func New() (new *Registry) {
	new = &Registry{
		metrics: make(map[time.Time]map[string]map[string]Metric),
	}
	return
}

// Builds a metric stamped with the current time
func NewMetric(namespace []string, name, description string, mType MetricType, raw interface{}, unit string, interval time.Duration) (metric Metric) {
	ns := make([]string, len(namespace))
	copy(ns, namespace)

	metric = Metric{
		Name:        name,
		Description: description,
		Namespace:   ns,
		Type:        mType,
		Timestamp:   time.Now(),
		Value: MetricValue{
			Raw:      raw,
			Unit:     unit,
			Interval: interval,
		},
	}
	return
}
