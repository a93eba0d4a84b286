// Configuration file loading and conversion into daemon settings
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slicerlogic/internal/daemon"
	"slicerlogic/internal/global"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Loads JSON or YAML config from file, chosen by extension
func Load(path string) (cfg FileConfig, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}

	if isYAML(path) {
		err = yaml.Unmarshal(configFile, &cfg)
	} else {
		decoder := json.NewDecoder(strings.NewReader(string(configFile)))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(&cfg)
	}
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %w", path, err)
		return
	}
	return
}

// Parses the file config into daemon config. Empty durations stay zero for SetDefaults.
func (cfg FileConfig) NewDaemonConf() (config daemon.Config, err error) {
	durations := []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{cfg.Scheduler.WorkerPollInterval, &config.Scheduler.WorkerPollInterval, "worker poll interval"},
		{cfg.Scheduler.DrainBusyDelay, &config.Scheduler.DrainBusyDelay, "drain busy delay"},
		{cfg.Scheduler.DrainIdleDelay, &config.Scheduler.DrainIdleDelay, "drain idle delay"},
		{cfg.Scheduler.DrainStartDelay, &config.Scheduler.DrainStartDelay, "drain start delay"},
		{cfg.Scheduler.WorkerShutdownTimeout, &config.Scheduler.WorkerShutdownTimeout, "worker shutdown timeout"},
		{cfg.Data.DownloadTimeout, &config.DataIO.Timeout, "download timeout"},
		{cfg.Metrics.Interval, &config.MetricCollectionInterval, "metric collection interval"},
		{cfg.Metrics.MaxAge, &config.MetricMaxAge, "metric max age"},
	}
	for _, duration := range durations {
		if duration.raw == "" {
			continue
		}
		*duration.target, err = time.ParseDuration(duration.raw)
		if err != nil {
			err = fmt.Errorf("failed to parse %s: %w", duration.name, err)
			return
		}
		if *duration.target < 0 {
			err = fmt.Errorf("%s must not be negative", duration.name)
			return
		}
	}

	// Scheduler settings
	config.Scheduler.NetworkingWorkers = cfg.Scheduler.NetworkingWorkers
	config.Scheduler.BackgroundPriority = cfg.Scheduler.BackgroundPriority
	config.Scheduler.BackgroundNice = cfg.Scheduler.BackgroundNice

	// Data settings
	config.CacheDir = cfg.Data.CacheDirectory
	config.ForceRedownload = cfg.Data.ForceRedownload
	config.DataIO.DownloadRate = cfg.Data.DownloadRate
	config.DataIO.DownloadBurst = cfg.Data.DownloadBurst
	if cfg.Data.MinFreeMemory != "" {
		config.DataIO.MinFreeMemory, err = ParseSize(cfg.Data.MinFreeMemory)
		if err != nil {
			err = fmt.Errorf("failed to parse minimum free memory: %w", err)
			return
		}
	}

	// Scene settings
	config.SceneFile = cfg.Scene.LoadFile
	config.SaveSceneOnExit = cfg.Scene.SaveFile

	// Output settings
	config.BeatsEndpoint = cfg.Outputs.BeatsAddress

	// Metric settings
	config.MetricQueryServerEnabled = cfg.Metrics.EnableQueryServer
	config.MetricQueryServerPort = cfg.Metrics.QueryServerPort
	return
}

// Byte count with an optional binary suffix: "512", "64MiB", "2GiB"
func ParseSize(raw string) (size uint64, err error) {
	raw = strings.TrimSpace(raw)
	multiplier := uint64(1)
	for _, unit := range []struct {
		suffix string
		factor uint64
	}{
		{"KiB", 1 << 10},
		{"MiB", 1 << 20},
		{"GiB", 1 << 30},
	} {
		if strings.HasSuffix(raw, unit.suffix) {
			raw = strings.TrimSpace(strings.TrimSuffix(raw, unit.suffix))
			multiplier = unit.factor
			break
		}
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		err = fmt.Errorf("invalid size %q", raw)
		return
	}
	size = value * multiplier
	return
}

// Template with every section filled in
func Template() (cfg FileConfig) {
	cfg.LogLevel = global.VerbosityStandard

	cfg.Scheduler.NetworkingWorkers = global.DefaultNetworkingWorkers
	cfg.Scheduler.WorkerPollInterval = global.DefaultWorkerPollInterval.String()
	cfg.Scheduler.DrainBusyDelay = global.DefaultDrainBusyDelay.String()
	cfg.Scheduler.DrainIdleDelay = global.DefaultDrainIdleDelay.String()
	cfg.Scheduler.DrainStartDelay = global.DefaultDrainStartDelay.String()
	cfg.Scheduler.WorkerShutdownTimeout = global.WorkerShutdownTimeout.String()
	cfg.Scheduler.BackgroundPriority = true
	cfg.Scheduler.BackgroundNice = global.DefaultBackgroundNice

	cfg.Data.CacheDirectory = global.DefaultCacheDir
	cfg.Data.DownloadRate = global.DefaultDownloadRate
	cfg.Data.DownloadBurst = global.DefaultDownloadBurst
	cfg.Data.MinFreeMemory = strconv.FormatUint(global.DefaultMinFreeMemory>>20, 10) + "MiB"
	cfg.Data.DownloadTimeout = global.DownloadTimeout.String()

	cfg.Scene.SaveFile = filepath.Join(global.DefaultStateDir, "scene.yaml")

	cfg.Metrics.Interval = "15s"
	cfg.Metrics.MaxAge = "72h"
	cfg.Metrics.EnableQueryServer = true
	cfg.Metrics.QueryServerPort = global.HTTPListenPort
	return
}

// Writes the template config to path, YAML or JSON by extension
func WriteTemplate(path string) (err error) {
	if path == "" {
		err = fmt.Errorf("specify template file path via the --config/-c arguments")
		return
	}

	var confBytes []byte
	if isYAML(path) {
		confBytes, err = yaml.Marshal(Template())
	} else {
		confBytes, err = json.MarshalIndent(Template(), "", "  ")
		confBytes = append(confBytes, '\n')
	}
	if err != nil {
		err = fmt.Errorf("error marshaling new config: %w", err)
		return
	}

	err = os.WriteFile(path, confBytes, 0o600)
	if err != nil {
		err = fmt.Errorf("failed to write config to file: %w", err)
		return
	}
	return
}
