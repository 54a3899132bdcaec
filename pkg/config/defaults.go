package config

const (
	defaultKernelURL     = "http://localhost:8080"
	defaultNamespace     = "ProductLedger:/Kesteron/FieldServe"
	defaultKernelTimeout = "30s"

	defaultAPIListen = ":3000"

	defaultTreeDepth    = 10
	defaultNodeDepth    = 1
	defaultIntentDepth  = 2
	defaultHistoryLimit = 100

	defaultPrefetchWorkers   = 3
	defaultPrefetchQueueSize = 256

	defaultLogFormat = "pretty"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Kernel: KernelConfig{
			URL:       defaultKernelURL,
			Namespace: defaultNamespace,
			Timeout:   defaultKernelTimeout,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		View: ViewConfig{
			TreeDepth:    defaultTreeDepth,
			NodeDepth:    defaultNodeDepth,
			IntentDepth:  defaultIntentDepth,
			HistoryLimit: defaultHistoryLimit,
		},
		Prefetch: PrefetchConfig{
			Workers:   defaultPrefetchWorkers,
			QueueSize: defaultPrefetchQueueSize,
		},
		Namespaces: NamespacesConfig{
			Labels: map[string]string{
				"ProductLedger:/Kesteron/AssetLink":      "Kesteron AssetLink",
				"ProductLedger:/Kesteron/FieldServe":     "Kesteron FieldServe",
				"FinLedger:/Kesteron/Treasury":           "Kesteron Treasury",
				"FinLedger:/Kesteron/StablecoinReserves": "Kesteron Stablecoin Reserves",
			},
		},
		Log: LogConfig{
			Format: defaultLogFormat,
		},
	}
}
