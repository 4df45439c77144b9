package config

const (
	defaultWorkDir                = "~/.local/share/reelforge/work"
	defaultOutputDir              = "~/.local/share/reelforge/videos"
	defaultThumbnailDir           = "~/.local/share/reelforge/thumbnails"
	defaultLogDir                 = "~/.local/share/reelforge/logs"
	defaultStateDir               = "~/.local/share/reelforge/state"
	defaultAPIBind                = "127.0.0.1:7488"
	defaultSpeechBaseURL          = "https://texttospeech.googleapis.com"
	defaultAudioEncoding          = "MP3"
	defaultSpeechTimeoutSeconds   = 60
	defaultSpeechRetryAttempts    = 3
	defaultFetchTimeoutSeconds    = 120
	defaultLogoTimeoutSeconds     = 10
	defaultFetchRetryAttempts     = 2
	defaultFetchMaxBytes          = 1 << 30
	defaultUserAgent              = "reelforge/dev"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultEncoderTimeoutSeconds  = 900
	defaultVideoCodec             = "libx264"
	defaultEncoderPreset          = "veryfast"
	defaultCRF                    = 23
	defaultAudioCodec             = "aac"
	defaultAudioBitrate           = "192k"
	defaultSampleRate             = 44100
	defaultStaleWorkDirMinutes    = 180
	defaultJanitorIntervalSeconds = 600
	defaultShutdownTimeoutSeconds = 30
	defaultNotifyTimeoutSeconds   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:      defaultWorkDir,
			OutputDir:    defaultOutputDir,
			ThumbnailDir: defaultThumbnailDir,
			LogDir:       defaultLogDir,
			StateDir:     defaultStateDir,
			APIBind:      defaultAPIBind,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			AudioEncoding:  defaultAudioEncoding,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
			RetryAttempts:  defaultSpeechRetryAttempts,
		},
		Fetch: Fetch{
			TimeoutSeconds:     defaultFetchTimeoutSeconds,
			LogoTimeoutSeconds: defaultLogoTimeoutSeconds,
			RetryAttempts:      defaultFetchRetryAttempts,
			MaxBytes:           defaultFetchMaxBytes,
			UserAgent:          defaultUserAgent,
		},
		Encoder: Encoder{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultEncoderTimeoutSeconds,
			VideoCodec:     defaultVideoCodec,
			Preset:         defaultEncoderPreset,
			CRF:            defaultCRF,
			AudioCodec:     defaultAudioCodec,
			AudioBitrate:   defaultAudioBitrate,
			SampleRate:     defaultSampleRate,
		},
		Pipeline: Pipeline{
			DefaultPreset: DefaultPresetName,
		},
		Presets: BuiltinPresets(),
		Daemon: Daemon{
			StaleWorkDirMinutes:    defaultStaleWorkDirMinutes,
			JanitorIntervalSeconds: defaultJanitorIntervalSeconds,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
			OnSuccess:             true,
			OnFailure:             true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
