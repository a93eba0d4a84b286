package server

import (
	"context"
	"slicerlogic/internal/metrics"
	"sync"
	"time"
)

func mockDiscoverer(results []metrics.Metric) Discoverer {
	return func(name, desc string, ns []string, unit string, mt metrics.MetricType) []metrics.Metric {
		return results
	}
}

func mockDataSearcher(results []metrics.Metric) DataSearcher {
	return func(name string, ns []string, start, end time.Time) []metrics.Metric {
		return results
	}
}

func mockAggSearcher(result metrics.Metric, err error) AggSearcher {
	return func(agg, name string, ns []string, start, end time.Time) (metrics.Metric, error) {
		return result, err
	}
}

func mockQueries() Queries {
	return Queries{
		Search:    mockDataSearcher(nil),
		Discover:  mockDiscoverer(nil),
		Aggregate: mockAggSearcher(metrics.Metric{}, nil),
	}
}

// Records every call; stopped rejects all requests
type mockController struct {
	mu        sync.Mutex
	stopped   bool
	readErr   error
	calls     []string
	scripts   []string
	cancelled []uint64
}

func (mock *mockController) record(call string) (uint64, bool) {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	if mock.stopped {
		return 0, false
	}
	mock.calls = append(mock.calls, call)
	return uint64(len(mock.calls)), true
}

func (mock *mockController) RequestReadData(nodeID, filename string, displayData, deleteFileAfter bool) (uint64, bool) {
	return mock.record("read " + nodeID + " " + filename)
}

func (mock *mockController) RequestWriteData(nodeID, filename string, displayData, deleteFileAfter bool) (uint64, bool) {
	return mock.record("write " + nodeID + " " + filename)
}

func (mock *mockController) RequestReadScene(filename string, targetIDs, sourceIDs []string, displayData, deleteFileAfter bool) (uint64, bool) {
	return mock.record("readScene " + filename)
}

func (mock *mockController) RequestWriteScene(filename string, targetIDs, sourceIDs []string, displayData, deleteFileAfter bool) (uint64, bool) {
	return mock.record("writeScene " + filename)
}

func (mock *mockController) QueueNodeRead(ctx context.Context, nodeID string, displayData bool) (int, error) {
	if mock.readErr != nil {
		return 0, mock.readErr
	}
	mock.record("queueRead " + nodeID)
	return 2, nil
}

func (mock *mockController) RunScript(name, text string) (uint64, bool) {
	mock.mu.Lock()
	mock.scripts = append(mock.scripts, text)
	mock.mu.Unlock()
	return mock.record("script " + name)
}

func (mock *mockController) CancelTransfer(id uint64) bool {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	mock.cancelled = append(mock.cancelled, id)
	return id == 7
}

func (mock *mockController) Status(ctx context.Context) Status {
	return Status{Scheduler: "Running", ReadQueue: 3, Nodes: 12}
}
