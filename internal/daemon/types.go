package daemon

import (
	"context"
	"net/http"
	"slicerlogic/internal/applogic"
	"slicerlogic/internal/dataio"
	"slicerlogic/internal/externalio/beats"
	"slicerlogic/internal/mainloop"
	"slicerlogic/internal/metrics"
	"slicerlogic/internal/scene"
	"slicerlogic/internal/storage"
	"sync"
	"time"
)

type Config struct {
	Scheduler applogic.Options
	DataIO    dataio.Options

	// Cache and scene files
	CacheDir        string
	ForceRedownload bool
	SceneFile       string // imported once the loop runs
	SaveSceneOnExit string // committed during shutdown when set

	// Outputs
	BeatsEndpoint string

	// Metrics
	MetricQueryServerEnabled bool
	MetricQueryServerPort    int
	MetricCollectionInterval time.Duration
	MetricMaxAge             time.Duration
}

type Daemon struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	wg           sync.WaitGroup
	shutdownOnce sync.Once

	Loop      *mainloop.Loop
	Scene     *scene.Scene
	Storage   *storage.Registry
	Scheduler *applogic.Scheduler
	DataIO    *dataio.Manager

	beats            *beats.OutModule
	metricsCollector *Gatherer
	MetricServer     *http.Server
}

// Periodically collects every registered component into the registry
type Gatherer struct {
	Interval   time.Duration     // Polling interval to gather metrics at
	Retention  time.Duration     // Maximum time to maintain metrics for
	Registry   *metrics.Registry // Storage for metric data
	Collectors []metrics.Collector

	// Run alongside registry pruning
	Housekeeping []func(now time.Time)
}
