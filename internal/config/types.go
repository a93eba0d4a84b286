package config

// On-disk configuration. Durations are Go duration strings ("100ms", "72h").
// The same layout is read from JSON and YAML files.
type FileConfig struct {
	LogLevel int `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	Scheduler struct {
		NetworkingWorkers     int    `json:"networkingWorkers,omitempty" yaml:"networkingWorkers,omitempty"`
		WorkerPollInterval    string `json:"workerPollInterval,omitempty" yaml:"workerPollInterval,omitempty"`
		DrainBusyDelay        string `json:"drainBusyDelay,omitempty" yaml:"drainBusyDelay,omitempty"`
		DrainIdleDelay        string `json:"drainIdleDelay,omitempty" yaml:"drainIdleDelay,omitempty"`
		DrainStartDelay       string `json:"drainStartDelay,omitempty" yaml:"drainStartDelay,omitempty"`
		WorkerShutdownTimeout string `json:"workerShutdownTimeout,omitempty" yaml:"workerShutdownTimeout,omitempty"`
		BackgroundPriority    bool   `json:"backgroundPriority" yaml:"backgroundPriority"`
		BackgroundNice        int    `json:"backgroundNice,omitempty" yaml:"backgroundNice,omitempty"`
	} `json:"scheduler" yaml:"scheduler"`

	Data struct {
		CacheDirectory  string  `json:"cacheDirectory,omitempty" yaml:"cacheDirectory,omitempty"`
		ForceRedownload bool    `json:"forceRedownload,omitempty" yaml:"forceRedownload,omitempty"`
		DownloadRate    float64 `json:"downloadsPerSecond,omitempty" yaml:"downloadsPerSecond,omitempty"`
		DownloadBurst   int     `json:"downloadBurst,omitempty" yaml:"downloadBurst,omitempty"`
		MinFreeMemory   string  `json:"minimumFreeMemory,omitempty" yaml:"minimumFreeMemory,omitempty"` // bytes, or with KiB/MiB/GiB suffix
		DownloadTimeout string  `json:"downloadTimeout,omitempty" yaml:"downloadTimeout,omitempty"`
	} `json:"data" yaml:"data"`

	Scene struct {
		LoadFile string `json:"loadFile,omitempty" yaml:"loadFile,omitempty"`
		SaveFile string `json:"saveOnExit,omitempty" yaml:"saveOnExit,omitempty"`
	} `json:"scene" yaml:"scene"`

	Outputs struct {
		BeatsAddress string `json:"beatsAddress,omitempty" yaml:"beatsAddress,omitempty"`
	} `json:"outputs" yaml:"outputs"`

	Metrics struct {
		Interval          string `json:"collectionInterval" yaml:"collectionInterval"`
		MaxAge            string `json:"maximumRetention,omitempty" yaml:"maximumRetention,omitempty"`
		EnableQueryServer bool   `json:"enableHTTPQueryServer" yaml:"enableHTTPQueryServer"`
		QueryServerPort   int    `json:"queryServerPort,omitempty" yaml:"queryServerPort,omitempty"`
	} `json:"metrics" yaml:"metrics"`
}
