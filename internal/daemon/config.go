package daemon

import (
	"runtime"
	"slicerlogic/internal/global"
	"time"
)

// Sets defaults for any missing/invalid values
func (cfg *Config) SetDefaults() {
	logicalCPUCount := runtime.NumCPU()

	// Scheduler
	cfg.Scheduler.SetDefaults()
	if cfg.Scheduler.NetworkingWorkers > logicalCPUCount {
		cfg.Scheduler.NetworkingWorkers = logicalCPUCount
	}
	if cfg.Scheduler.BackgroundPriority && cfg.Scheduler.BackgroundNice == 0 {
		cfg.Scheduler.BackgroundNice = global.DefaultBackgroundNice
	}

	// Data IO
	if cfg.DataIO.DownloadRate <= 0 {
		cfg.DataIO.DownloadRate = global.DefaultDownloadRate
	}
	if cfg.DataIO.DownloadBurst <= 0 {
		cfg.DataIO.DownloadBurst = global.DefaultDownloadBurst
	}
	if cfg.DataIO.Timeout <= 0 {
		cfg.DataIO.Timeout = global.DownloadTimeout
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = global.DefaultCacheDir
	}

	// Metrics
	if cfg.MetricMaxAge == 0 {
		cfg.MetricMaxAge = 1 * time.Hour
	}
	if cfg.MetricQueryServerPort == 0 {
		cfg.MetricQueryServerPort = global.HTTPListenPort
	}
	if cfg.MetricCollectionInterval == 0 {
		cfg.MetricCollectionInterval = 15 * time.Second
	}
}
