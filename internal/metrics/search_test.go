package metrics

import (
	"testing"
	"time"
)

func TestRegistry_Search(t *testing.T) {
	reg, ts := setupRegistryWithData(t)

	tests := []struct {
		name            string
		metricName      string
		namespacePrefix []string
		start           time.Time
		end             time.Time
		want            int
	}{
		{"all metrics", "", nil, time.Time{}, time.Time{}, 8},
		{"exact name only", "queue", nil, time.Time{}, time.Time{}, 0},
		{"queue_depth all namespaces", "queue_depth", nil, time.Time{}, time.Time{}, 4},
		{"queue_depth tasks only", "queue_depth", []string{"Scheduler", "Tasks"}, time.Time{}, time.Time{}, 3},
		{"namespace prefix Scheduler", "", []string{"Scheduler"}, time.Time{}, time.Time{}, 8},
		{"negative value included", "queue_depth", []string{"Scheduler", "Tasks"}, ts["ts3"], ts["ts3"], 1},
		{"time window exact bounds", "", nil, ts["ts2"], ts["ts3"], 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := reg.Search(tt.metricName, tt.namespacePrefix, tt.start, tt.end)
			if len(results) != tt.want {
				t.Fatalf("expected %d results, got %d", tt.want, len(results))
			}
		})
	}
}

func TestRegistry_Aggregate(t *testing.T) {
	reg, ts := setupRegistryWithData(t)

	tests := []struct {
		name      string
		aggType   string
		metric    string
		want      float64
		wantError bool
	}{
		{"sum mixed types", AggSum, "queue_depth", 25, false}, // 10 + 20 + (-5)
		{"min negative", AggMin, "queue_depth", -5, false},
		{"max mixed types", AggMax, "queue_depth", 20, false},
		{"avg mixed types", AggAvg, "queue_depth", 25.0 / 3.0, false},
		{"trimmed mean small set", AggTrimmedMean, "queue_depth", 25.0 / 3.0, false},
		{"string numeric aggregation", AggSum, "elapsed_time", 250, false},
		{"non-numeric error", AggSum, "bad_metric", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.Aggregate(
				tt.aggType,
				tt.metric,
				[]string{"Scheduler", "Tasks"},
				ts["ts1"],
				ts["ts3"],
			)

			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Value.Raw != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, result.Value.Raw)
			}
		})
	}
}

func TestRegistry_Aggregate_NoResults(t *testing.T) {
	reg, _ := setupRegistryWithData(t)
	_, err := reg.Aggregate(
		AggSum,
		"missing",
		[]string{"Scheduler"},
		time.Time{},
		time.Time{},
	)

	if err == nil {
		t.Fatalf("expected error for empty aggregation result")
	}
}

func TestRegistry_Discover(t *testing.T) {
	reg, _ := setupRegistryWithData(t)

	tests := []struct {
		name      string
		unit      string
		mType     MetricType
		ns        []string
		wantCount int
	}{
		{"all", "", "", nil, 6},
		{"elapsed_time both units", "ms", "", nil, 1},
		{"counter only", "", Counter, nil, 1},
		{"tasks namespace only", "", "", []string{"Scheduler", "Tasks"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := reg.Discover("", "", tt.ns, tt.unit, tt.mType)
			if len(results) != tt.wantCount {
				t.Fatalf("expected %d results, got %d", tt.wantCount, len(results))
			}
		})
	}
}

func TestRegistry_Latest(t *testing.T) {
	reg, ts := setupRegistryWithData(t)

	results := reg.Latest([]string{"Scheduler", "Tasks"})
	if len(results) != 2 {
		t.Fatalf("expected 2 metrics in newest slice, got %d", len(results))
	}
	for _, m := range results {
		if !m.Timestamp.Equal(ts["ts3"]) {
			t.Fatalf("expected metric from newest slice, got timestamp %v", m.Timestamp)
		}
	}
	if results[0].Name != "bad_metric" || results[1].Name != "queue_depth" {
		t.Fatalf("unexpected ordering: %s, %s", results[0].Name, results[1].Name)
	}

	if empty := New().Latest(nil); len(empty) != 0 {
		t.Fatalf("expected no metrics from empty registry, got %d", len(empty))
	}
}

func TestNewMetric(t *testing.T) {
	ns := []string{"Scheduler", "Tasks"}
	m := NewMetric(ns, "depth", "queue depth", Gauge, uint64(3), "count", time.Second)
	ns[0] = "mutated"

	if m.Namespace[0] != "Scheduler" {
		t.Fatalf("expected namespace to be copied, got %v", m.Namespace)
	}
	if m.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if m.Value.Raw != uint64(3) || m.Type != Gauge {
		t.Fatalf("unexpected metric contents: %+v", m)
	}
}

func TestTrimmedMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		trim   float64
		want   float64
	}{
		{"no trimming", []float64{1, 2, 3, 4}, 0, 2.5},
		{"outlier removed", []float64{1000, 10, 12, 11}, 0.25, 11.5},
		{"trim too large keeps middle", []float64{10, 30, 20}, 0.5, 20},
		{"negative trim", []float64{5, 5, 5}, -1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trimmedMean(tt.values, tt.trim)
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
