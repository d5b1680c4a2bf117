package config

const (
	defaultStagingDir              = "~/.local/share/quill/staging"
	defaultOutputDir               = "."
	defaultLogDir                  = "~/.local/share/quill/logs"
	defaultGeminiBaseURL           = "https://generativelanguage.googleapis.com"
	defaultGeminiModel             = "gemini-2.5-pro-exp-03-25"
	defaultGeminiRequestTimeout    = 600
	defaultGeminiUploadTimeout     = 300
	defaultGeminiActivationTimeout = 300
	defaultGeminiPollInterval      = 5
	defaultGeminiMaxAttempts       = 3
	defaultGeminiRetryBackoff      = 2
	defaultMaxSegmentDuration      = 30
	defaultYtDlpBinary             = "yt-dlp"
	defaultAudioFormat             = "mp3"
	defaultAudioQuality            = "192"
	defaultFetchTimeout            = 900
	defaultFetchRetries            = 3
	defaultAudioCacheMaxGiB        = 2
	defaultNotifyRequestTimeout    = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

func defaultSpeakers() []string {
	return []string{"Host", "Guest"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Gemini: Gemini{
			BaseURL:           defaultGeminiBaseURL,
			Model:             defaultGeminiModel,
			RequestTimeout:    defaultGeminiRequestTimeout,
			UploadTimeout:     defaultGeminiUploadTimeout,
			ActivationTimeout: defaultGeminiActivationTimeout,
			PollInterval:      defaultGeminiPollInterval,
			MaxAttempts:       defaultGeminiMaxAttempts,
			RetryBackoff:      defaultGeminiRetryBackoff,
		},
		Transcript: Transcript{
			MaxSegmentDuration: defaultMaxSegmentDuration,
			Speakers:           defaultSpeakers(),
		},
		Fetch: Fetch{
			YtDlpBinary:  defaultYtDlpBinary,
			AudioFormat:  defaultAudioFormat,
			AudioQuality: defaultAudioQuality,
			Timeout:      defaultFetchTimeout,
			Retries:      defaultFetchRetries,
		},
		AudioCache: AudioCache{
			Enabled: true,
			Dir:     defaultAudioCacheDir(),
			MaxGiB:  defaultAudioCacheMaxGiB,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
