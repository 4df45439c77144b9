package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir      string `toml:"work_dir"`
	OutputDir    string `toml:"output_dir"`
	ThumbnailDir string `toml:"thumbnail_dir"`
	LogDir       string `toml:"log_dir"`
	StateDir     string `toml:"state_dir"`
	EnvFile      string `toml:"env_file"`
	APIBind      string `toml:"api_bind"`
	APIToken     string `toml:"api_token"`
}

// Speech contains the text-to-speech provider connection. Exactly one of
// APIKey or CredentialsFile authenticates requests.
type Speech struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	CredentialsFile string `toml:"credentials_file"`
	AudioEncoding   string `toml:"audio_encoding"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	RetryAttempts   int    `toml:"retry_attempts"`
}

// Fetch contains media download settings.
type Fetch struct {
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	LogoTimeoutSeconds int    `toml:"logo_timeout_seconds"`
	RetryAttempts      int    `toml:"retry_attempts"`
	MaxBytes           int64  `toml:"max_bytes"`
	UserAgent          string `toml:"user_agent"`
}

// Encoder contains ffmpeg/ffprobe invocation settings shared by every segment.
type Encoder struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	VideoCodec     string `toml:"video_codec"`
	Preset         string `toml:"preset"`
	CRF            int    `toml:"crf"`
	AudioCodec     string `toml:"audio_codec"`
	AudioBitrate   string `toml:"audio_bitrate"`
	SampleRate     int    `toml:"sample_rate"`
}

// Pipeline selects the preset used when a request does not name one.
type Pipeline struct {
	DefaultPreset string `toml:"default_preset"`
}

// Daemon contains HTTP daemon scheduling settings.
type Daemon struct {
	MaxConcurrentJobs      int `toml:"max_concurrent_jobs"`
	StaleWorkDirMinutes    int `toml:"stale_work_dir_minutes"`
	JanitorIntervalSeconds int `toml:"janitor_interval_seconds"`
	ShutdownTimeoutSeconds int `toml:"shutdown_timeout_seconds"`
}

// Notifications configures push notifications for finished renders.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	OnSuccess             bool   `toml:"on_success"`
	OnFailure             bool   `toml:"on_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reelforge.
//
// Configuration sections by subsystem:
//   - Paths: working, output, and state directories plus the API bind address
//   - Speech: text-to-speech endpoint and credentials
//   - Fetch: download timeouts and limits
//   - Encoder: ffmpeg binaries and the shared codec profile
//   - Pipeline: default preset selection
//   - Presets: named layout/timing profiles (merged over the built-ins)
//   - Daemon: admission control and janitor timing
//   - Notifications: optional ntfy alerts for finished renders
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths             `toml:"paths"`
	Speech        Speech            `toml:"speech"`
	Fetch         Fetch             `toml:"fetch"`
	Encoder       Encoder           `toml:"encoder"`
	Pipeline      Pipeline          `toml:"pipeline"`
	Presets       map[string]Preset `toml:"presets"`
	Daemon        Daemon            `toml:"daemon"`
	Notifications Notifications     `toml:"notifications"`
	Logging       Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a render needs. Output and
// thumbnail directories may live on separate storage and are created too.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.ThumbnailDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the SQLite job store location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "reelforge.lock")
}

// Preset returns the named preset. An empty name selects the configured default.
func (c *Config) Preset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = c.Pipeline.DefaultPreset
	}
	preset, ok := c.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	preset.Name = name
	return preset, nil
}

// PresetNames lists configured presets in stable order.
func (c *Config) PresetNames() []string {
	return sortedKeys(c.Presets)
}

// SpeechTimeout returns the per-call synthesis timeout.
func (c *Config) SpeechTimeout() time.Duration {
	return time.Duration(c.Speech.TimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-download timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// LogoFetchTimeout returns the timeout applied to logo downloads.
func (c *Config) LogoFetchTimeout() time.Duration {
	return time.Duration(c.Fetch.LogoTimeoutSeconds) * time.Second
}

// EncoderTimeout returns the per-invocation ffmpeg timeout.
func (c *Config) EncoderTimeout() time.Duration {
	return time.Duration(c.Encoder.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
