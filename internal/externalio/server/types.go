package server

import (
	"context"
	"slicerlogic/internal/dataio"
	metricGlb "slicerlogic/internal/metrics"
	"time"
)

type httpLogWriter struct {
	ctx context.Context
}

type Jerror struct {
	Msg string `json:"error"`
}

// Reply to an accepted control request
type Jaccepted struct {
	UID    uint64 `json:"uid,omitempty"`
	Queued int    `json:"queued,omitempty"`
}

type DataSearcher func(name string, namespacePrefix []string, start, end time.Time) []metricGlb.Metric
type Discoverer func(name, description string, namespacePrefix []string, unit string, metricType metricGlb.MetricType) []metricGlb.Metric
type AggSearcher func(aggType, name string, namespacePrefix []string, start, end time.Time) (metricGlb.Metric, error)

// Metric registry lookups exposed read-only
type Queries struct {
	Search    DataSearcher
	Discover  Discoverer
	Aggregate AggSearcher
}

// Entry points into the running scheduler. Every method is safe off the main loop.
type Controller interface {
	RequestReadData(nodeID, filename string, displayData, deleteFileAfter bool) (uid uint64, ok bool)
	RequestWriteData(nodeID, filename string, displayData, deleteFileAfter bool) (uid uint64, ok bool)
	RequestReadScene(filename string, targetIDs, sourceIDs []string, displayData, deleteFileAfter bool) (uid uint64, ok bool)
	RequestWriteScene(filename string, targetIDs, sourceIDs []string, displayData, deleteFileAfter bool) (uid uint64, ok bool)
	QueueNodeRead(ctx context.Context, nodeID string, displayData bool) (queued int, err error)
	RunScript(name, text string) (uid uint64, ok bool)
	CancelTransfer(id uint64) bool
	Status(ctx context.Context) Status
}

type Status struct {
	Scheduler   string                `json:"scheduler"`
	ReadQueue   int                   `json:"readQueue"`
	LoopPending int                   `json:"loopPending"`
	Nodes       int                   `json:"nodes"`
	SceneURL    string                `json:"sceneURL,omitempty"`
	Transfers   []dataio.TransferInfo `json:"transfers"`
}

// Body of read and write requests for a single node
type nodeRequest struct {
	NodeID          string `json:"node"`
	File            string `json:"file"`
	DisplayData     bool   `json:"displayData"`
	DeleteFileAfter bool   `json:"deleteFileAfter"`
}

// Body of scene read and write requests
type sceneRequest struct {
	File            string   `json:"file"`
	Targets         []string `json:"targets"`
	Sources         []string `json:"sources"`
	DisplayData     bool     `json:"displayData"`
	DeleteFileAfter bool     `json:"deleteFileAfter"`
}
