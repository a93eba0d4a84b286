package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgVersion string = "v0.3.0"
	ProgName    string = "slicerlogic"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultConfigPath string = "/etc/slicerlogic.json"
	DefaultCacheDir   string = "/var/cache/slicerlogic"
	DefaultStateDir   string = "/var/lib/slicerlogic"
	DefaultBinaryPath string = "/usr/local/bin/slicerlogic"
	DefaultUnitPath   string = "/etc/systemd/system/slicerlogic.service"

	// Scheduler cadence
	DefaultWorkerPollInterval time.Duration = 100 * time.Millisecond // Idle sleep between worker queue checks
	DefaultDrainBusyDelay     time.Duration = 5 * time.Millisecond   // Re-arm delay while a drained queue still holds work
	DefaultDrainIdleDelay     time.Duration = 100 * time.Millisecond // Re-arm delay once a drained queue is empty
	DefaultDrainStartDelay    time.Duration = 1 * time.Second        // First drain tick after the loop starts
	DefaultNetworkingWorkers  int           = 1
	DefaultBackgroundNice     int           = 19
	BackgroundPriorityEnv     string        = "SLICER_BACKGROUND_THREAD_PRIORITY"

	// Data IO
	DefaultDownloadRate  float64 = 4 // downloads started per second
	DefaultDownloadBurst int     = 2
	DefaultMinFreeMemory uint64  = 64 << 20

	// Timeout values
	WorkerShutdownTimeout time.Duration = 5 * time.Second
	DaemonShutdownTimeout time.Duration = 10 * time.Second
	DownloadTimeout       time.Duration = 2 * time.Minute

	// Beats output
	BeatsTimeout       time.Duration = 3 * time.Second
	BeatsBufferSize    int           = 1024
	BeatsBatchSize     int           = 64
	BeatsFlushInterval time.Duration = 1 * time.Second

	// Metric HTTP server
	HTTPListenPort   int           = 28514
	HTTPListenAddr   string        = "localhost" // Queries and control only exposed to local machine
	HTTPReadTimeout  time.Duration = 30 * time.Second
	HTTPWriteTimeout time.Duration = 10 * time.Second
	HTTPIdleTimeout  time.Duration = 180 * time.Second
	HTTPMaxBodySize  int64         = 1 << 20

	// Query server paths
	DataPath         string = "/data/"
	DiscoveryPath    string = "/discover/"
	AggregationPath  string = "/aggregate/"
	StatusPath       string = "/status"
	TransfersPath    string = "/transfers"
	ReadRequestPath  string = "/request/read"
	SceneRequestPath string = "/request/scene"
	WriteRequestPath string = "/request/write"
	ScriptPath       string = "/script"

	// Namespacing Name Components
	NSMetric    string = "Metrics"
	NSMetricSrv string = "Server"
	NSTest      string = "Test"
	NSDaemon    string = "Daemon"
	NSSched     string = "Scheduler"
	NSWorker    string = "Worker"
	NSLoop      string = "Loop"
	NSQueue     string = "Queue"
	NSModified  string = "Modified"
	NSRead      string = "ReadData"
	NSWrite     string = "WriteData"
	NSScript    string = "Script"
	NSScene     string = "Scene"
	NSDataIO    string = "DataIO"
	NSBeats     string = "Beats"
	NSqTask     string = "Tasks"
	NSqModified string = "ModifiedObjects"
	NSqRead     string = "ReadRequests"
	NSqWrite    string = "WriteRequests"
)
