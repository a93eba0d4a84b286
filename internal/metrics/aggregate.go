package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reduces every matching metric value inside the window to a single summary metric
func (registry *Registry) Aggregate(aggType, name string, namespacePrefix []string, start, end time.Time) (result Metric, err error) {
	found := registry.Search(name, namespacePrefix, start, end)
	if len(found) == 0 {
		err = fmt.Errorf("no metrics named %q found in requested window", name)
		return
	}

	values := make([]float64, 0, len(found))
	for _, metric := range found {
		var value float64
		value, err = toFloat(metric.Value.Raw)
		if err != nil {
			err = fmt.Errorf("metric %q: %w", metric.Name, err)
			return
		}
		values = append(values, value)
	}

	var aggregated float64
	switch aggType {
	case AggSum:
		aggregated = floats.Sum(values)
	case AggMin:
		aggregated = floats.Min(values)
	case AggMax:
		aggregated = floats.Max(values)
	case AggAvg:
		aggregated = stat.Mean(values, nil)
	case AggTrimmedMean:
		aggregated = trimmedMean(values, 0.1)
	default:
		err = fmt.Errorf("unknown aggregation type %q", aggType)
		return
	}

	latest := found[len(found)-1]
	result = Metric{
		Name:        latest.Name,
		Description: latest.Description,
		Namespace:   namespacePrefix,
		Type:        Summary,
		Timestamp:   latest.Timestamp,
		Value: MetricValue{
			Raw:      aggregated,
			Unit:     latest.Value.Unit,
			Interval: end.Sub(start),
		},
	}
	return
}

// Mean after dropping trimPercent of values from each end of the sorted set.
// At least one value always survives.
func trimmedMean(values []float64, trimPercent float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	trim := int(float64(len(sorted)) * max(trimPercent, 0))
	if trim*2 >= len(sorted) {
		trim = (len(sorted) - 1) / 2
	}
	return stat.Mean(sorted[trim:len(sorted)-trim], nil)
}

func toFloat(raw interface{}) (value float64, err error) {
	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case int32:
		value = float64(v)
	case uint64:
		value = float64(v)
	case uint32:
		value = float64(v)
	case uint:
		value = float64(v)
	case string:
		value, err = strconv.ParseFloat(v, 64)
		if err != nil {
			err = fmt.Errorf("non-numeric value %q", v)
		}
	default:
		err = fmt.Errorf("non-numeric value of type %T", raw)
	}
	return
}
