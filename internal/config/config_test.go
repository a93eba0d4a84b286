package config

import (
	"os"
	"path/filepath"
	"slicerlogic/internal/global"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) (path string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing %s: %v", name, err)
	}
	return
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr bool
	}{
		{
			name: "json",
			file: "cfg.json",
			content: `{"scheduler": {"networkingWorkers": 3, "drainBusyDelay": "2ms"},
				"data": {"minimumFreeMemory": "128MiB"},
				"metrics": {"collectionInterval": "5s", "enableHTTPQueryServer": true}}`,
		},
		{
			name: "yaml",
			file: "cfg.yaml",
			content: "scheduler:\n  networkingWorkers: 3\n  drainBusyDelay: 2ms\n" +
				"data:\n  minimumFreeMemory: 128MiB\n" +
				"metrics:\n  collectionInterval: 5s\n  enableHTTPQueryServer: true\n",
		},
		{
			name:    "json unknown field",
			file:    "cfg.json",
			content: `{"schedular": {}}`,
			wantErr: true,
		},
		{
			name:    "yaml syntax error",
			file:    "cfg.yml",
			content: "scheduler: [unterminated\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			daemonCfg, err := cfg.NewDaemonConf()
			if err != nil {
				t.Fatalf("NewDaemonConf: %v", err)
			}
			if daemonCfg.Scheduler.NetworkingWorkers != 3 {
				t.Fatalf("networking workers = %d, want 3", daemonCfg.Scheduler.NetworkingWorkers)
			}
			if daemonCfg.Scheduler.DrainBusyDelay != 2*time.Millisecond {
				t.Fatalf("drain busy delay = %v", daemonCfg.Scheduler.DrainBusyDelay)
			}
			if daemonCfg.DataIO.MinFreeMemory != 128<<20 {
				t.Fatalf("min free memory = %d", daemonCfg.DataIO.MinFreeMemory)
			}
			if daemonCfg.MetricCollectionInterval != 5*time.Second || !daemonCfg.MetricQueryServerEnabled {
				t.Fatalf("metric settings not carried over: %+v", daemonCfg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestNewDaemonConf_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FileConfig)
	}{
		{"bad duration", func(cfg *FileConfig) { cfg.Scheduler.WorkerPollInterval = "soon" }},
		{"negative duration", func(cfg *FileConfig) { cfg.Metrics.MaxAge = "-1h" }},
		{"bad size", func(cfg *FileConfig) { cfg.Data.MinFreeMemory = "lots" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg FileConfig
			tt.mutate(&cfg)
			if _, err := cfg.NewDaemonConf(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		raw  string
		want uint64
	}{
		{"512", 512},
		{"4KiB", 4 << 10},
		{"64 MiB", 64 << 20},
		{"2GiB", 2 << 30},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.raw)
		if err != nil || got != tt.want {
			t.Fatalf("ParseSize(%q) = %d, %v want %d", tt.raw, got, err, tt.want)
		}
	}
}

func TestWriteTemplate_RoundTrip(t *testing.T) {
	for _, name := range []string{"template.json", "template.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteTemplate(path); err != nil {
				t.Fatalf("WriteTemplate: %v", err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			daemonCfg, err := cfg.NewDaemonConf()
			if err != nil {
				t.Fatalf("NewDaemonConf: %v", err)
			}
			if daemonCfg.Scheduler.DrainIdleDelay != global.DefaultDrainIdleDelay {
				t.Fatalf("drain idle delay = %v", daemonCfg.Scheduler.DrainIdleDelay)
			}
			if daemonCfg.DataIO.MinFreeMemory != global.DefaultMinFreeMemory {
				t.Fatalf("min free memory = %d", daemonCfg.DataIO.MinFreeMemory)
			}
			if daemonCfg.CacheDir != global.DefaultCacheDir {
				t.Fatalf("cache dir = %q", daemonCfg.CacheDir)
			}
		})
	}
}

func TestWriteTemplate_NoPath(t *testing.T) {
	if err := WriteTemplate(""); err == nil {
		t.Fatal("expected an error without a path")
	}
}
