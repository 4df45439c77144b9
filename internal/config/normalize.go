package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// envLookup resolves a variable from the process environment first, then from
// the optional dotenv file. The process environment is never modified.
type envLookup func(key string) (string, bool)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	lookup, err := c.loadEnvLookup()
	if err != nil {
		return err
	}
	if err := c.normalizeSpeech(lookup); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeEncoder()
	if err := c.normalizePresets(); err != nil {
		return err
	}
	c.normalizeDaemon()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.work_dir", &c.Paths.WorkDir, defaultWorkDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.thumbnail_dir", &c.Paths.ThumbnailDir, defaultThumbnailDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	if strings.TrimSpace(c.Paths.EnvFile) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Paths.EnvFile))
		if err != nil {
			return fmt.Errorf("paths.env_file: %w", err)
		}
		c.Paths.EnvFile = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) loadEnvLookup() (envLookup, error) {
	var fileValues map[string]string
	if c.Paths.EnvFile != "" {
		values, err := godotenv.Read(c.Paths.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("paths.env_file: read %s: %w", c.Paths.EnvFile, err)
		}
		fileValues = values
	}
	return func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
		if value, ok := fileValues[key]; ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
		return "", false
	}, nil
}

func (c *Config) normalizeSpeech(lookup envLookup) error {
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	c.Speech.CredentialsFile = strings.TrimSpace(c.Speech.CredentialsFile)
	if c.Speech.APIKey == "" && c.Speech.CredentialsFile == "" {
		if value, ok := lookup("GOOGLE_TTS_API_KEY"); ok {
			c.Speech.APIKey = value
		} else if value, ok := lookup("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.Speech.CredentialsFile = value
		}
	}
	if c.Speech.CredentialsFile != "" {
		expanded, err := expandPath(c.Speech.CredentialsFile)
		if err != nil {
			return fmt.Errorf("speech.credentials_file: %w", err)
		}
		c.Speech.CredentialsFile = expanded
	}
	c.Speech.AudioEncoding = strings.ToUpper(strings.TrimSpace(c.Speech.AudioEncoding))
	if c.Speech.AudioEncoding == "" {
		c.Speech.AudioEncoding = defaultAudioEncoding
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeoutSeconds
	}
	if c.Speech.RetryAttempts < 0 {
		c.Speech.RetryAttempts = 0
	}
	return nil
}

func (c *Config) normalizeFetch() {
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeoutSeconds
	}
	if c.Fetch.LogoTimeoutSeconds <= 0 {
		c.Fetch.LogoTimeoutSeconds = defaultLogoTimeoutSeconds
	}
	if c.Fetch.RetryAttempts < 0 {
		c.Fetch.RetryAttempts = 0
	}
	if c.Fetch.MaxBytes < 0 {
		c.Fetch.MaxBytes = 0
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeEncoder() {
	trimOr := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	trimOr(&c.Encoder.FFmpegBinary, defaultFFmpegBinary)
	trimOr(&c.Encoder.FFprobeBinary, defaultFFprobeBinary)
	trimOr(&c.Encoder.VideoCodec, defaultVideoCodec)
	trimOr(&c.Encoder.Preset, defaultEncoderPreset)
	trimOr(&c.Encoder.AudioCodec, defaultAudioCodec)
	trimOr(&c.Encoder.AudioBitrate, defaultAudioBitrate)
	if c.Encoder.TimeoutSeconds <= 0 {
		c.Encoder.TimeoutSeconds = defaultEncoderTimeoutSeconds
	}
	if c.Encoder.CRF <= 0 {
		c.Encoder.CRF = defaultCRF
	}
	if c.Encoder.SampleRate <= 0 {
		c.Encoder.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizePresets() error {
	builtins := BuiltinPresets()
	merged := make(map[string]Preset, len(builtins)+len(c.Presets))
	for name, preset := range builtins {
		merged[name] = preset
	}
	for rawName, preset := range c.Presets {
		name := strings.ToLower(strings.TrimSpace(rawName))
		if name == "" {
			continue
		}
		base, ok := builtins[name]
		if !ok {
			base = builtins[DefaultPresetName]
		}
		preset = preset.inherit(base)
		preset.Fit = strings.ToLower(strings.TrimSpace(preset.Fit))
		preset.ImageFit = strings.ToLower(strings.TrimSpace(preset.ImageFit))
		preset.Panel = strings.ToLower(strings.TrimSpace(preset.Panel))
		preset.Chunking = strings.ToLower(strings.TrimSpace(preset.Chunking))
		preset.Timing = strings.ToLower(strings.TrimSpace(preset.Timing))
		preset.LogoMode = strings.ToLower(strings.TrimSpace(preset.LogoMode))
		if preset.FontPath != "" {
			expanded, err := expandPath(preset.FontPath)
			if err != nil {
				return fmt.Errorf("presets.%s.font_path: %w", name, err)
			}
			preset.FontPath = expanded
		}
		if preset.MusicPath != "" {
			expanded, err := expandPath(preset.MusicPath)
			if err != nil {
				return fmt.Errorf("presets.%s.music_path: %w", name, err)
			}
			preset.MusicPath = expanded
		}
		preset.Name = name
		merged[name] = preset
	}
	for name, preset := range merged {
		preset.Name = name
		merged[name] = preset
	}
	c.Presets = merged
	c.Pipeline.DefaultPreset = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultPreset))
	if c.Pipeline.DefaultPreset == "" {
		c.Pipeline.DefaultPreset = DefaultPresetName
	}
	return nil
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.MaxConcurrentJobs < 0 {
		c.Daemon.MaxConcurrentJobs = 0
	}
	if c.Daemon.StaleWorkDirMinutes <= 0 {
		c.Daemon.StaleWorkDirMinutes = defaultStaleWorkDirMinutes
	}
	if c.Daemon.JanitorIntervalSeconds <= 0 {
		c.Daemon.JanitorIntervalSeconds = defaultJanitorIntervalSeconds
	}
	if c.Daemon.ShutdownTimeoutSeconds <= 0 {
		c.Daemon.ShutdownTimeoutSeconds = defaultShutdownTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
