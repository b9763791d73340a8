package config

const (
	defaultServerBaseURL         = "http://127.0.0.1:7860"
	defaultServerTimeoutSeconds  = 30
	defaultReconnectIntervalSecs = 3
	defaultGenerateWidth         = 512
	defaultGenerateHeight        = 512
	defaultGenerateCfgScale      = 7.0
	defaultGenerateSampler       = "euler_a"
	defaultGenerateSampleSteps   = 20
	defaultGenerateClipSkip      = 1
	defaultGenerateCount         = 1
	defaultQueuePageSize         = 10
	defaultRefetchCoalesceMillis = 250
	defaultHistoryPath           = "~/.local/share/easel/history.db"
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogDir                = "~/.local/share/easel/logs"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			BaseURL:        defaultServerBaseURL,
			TimeoutSeconds: defaultServerTimeoutSeconds,
		},
		Channel: Channel{
			ReconnectIntervalSeconds: defaultReconnectIntervalSecs,
		},
		Generate: Generate{
			Width:          defaultGenerateWidth,
			Height:         defaultGenerateHeight,
			CfgScale:       defaultGenerateCfgScale,
			SamplingMethod: defaultGenerateSampler,
			SampleSteps:    defaultGenerateSampleSteps,
			ClipSkip:       defaultGenerateClipSkip,
			Count:          defaultGenerateCount,
		},
		Queue: Queue{
			PageSize:              defaultQueuePageSize,
			RefetchCoalesceMillis: defaultRefetchCoalesceMillis,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completions:    true,
			Failures:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
