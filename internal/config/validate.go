package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validatePresets(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return nil
}

// RequireSpeechCredentials reports a descriptive error when no credential
// source is configured. Commands that never synthesize skip this check.
func (c *Config) RequireSpeechCredentials() error {
	if c.Speech.APIKey != "" || c.Speech.CredentialsFile != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/reelforge/config.toml"
	}
	return fmt.Errorf("speech.api_key or speech.credentials_file is required. Set GOOGLE_TTS_API_KEY or GOOGLE_APPLICATION_CREDENTIALS, or edit %s (create with 'reelforge config init')", defaultPath)
}

func (c *Config) validateSpeech() error {
	if c.Speech.APIKey != "" && c.Speech.CredentialsFile != "" {
		return errors.New("speech.api_key and speech.credentials_file are mutually exclusive")
	}
	parsed, err := url.Parse(c.Speech.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("speech.base_url must be an absolute URL, got %q", c.Speech.BaseURL)
	}
	switch c.Speech.AudioEncoding {
	case "MP3", "LINEAR16", "OGG_OPUS":
	default:
		return fmt.Errorf("speech.audio_encoding must be MP3, LINEAR16, or OGG_OPUS, got %q", c.Speech.AudioEncoding)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF > 51 {
		return errors.New("encoder.crf must be between 1 and 51")
	}
	return ensurePositiveMap(map[string]int{
		"encoder.timeout_seconds": c.Encoder.TimeoutSeconds,
		"encoder.sample_rate":     c.Encoder.SampleRate,
		"fetch.timeout_seconds":   c.Fetch.TimeoutSeconds,
		"speech.timeout_seconds":  c.Speech.TimeoutSeconds,
	})
}

func (c *Config) validatePresets() error {
	if _, ok := c.Presets[c.Pipeline.DefaultPreset]; !ok {
		return fmt.Errorf("pipeline.default_preset %q does not name a preset", c.Pipeline.DefaultPreset)
	}
	for _, name := range sortedKeys(c.Presets) {
		if err := validatePreset(name, c.Presets[name]); err != nil {
			return err
		}
	}
	return nil
}

func validatePreset(name string, p Preset) error {
	prefix := "presets." + name
	if err := ensurePositiveMap(map[string]int{
		prefix + ".width":            p.Width,
		prefix + ".height":           p.Height,
		prefix + ".frame_rate":       p.FrameRate,
		prefix + ".wrap_width":       p.WrapWidth,
		prefix + ".dense_wrap_width": p.DenseWrapWidth,
		prefix + ".logo_width":       p.LogoWidth,
		prefix + ".logo_height":      p.LogoHeight,
	}); err != nil {
		return err
	}
	if p.Width%2 != 0 || p.Height%2 != 0 {
		return fmt.Errorf("%s frame size must be even, got %dx%d", prefix, p.Width, p.Height)
	}
	if p.FontSize <= 0 {
		return fmt.Errorf("%s.font_size must be positive", prefix)
	}
	if p.PanelAlpha < 0 || p.PanelAlpha > 255 {
		return fmt.Errorf("%s.panel_alpha must be between 0 and 255", prefix)
	}
	if p.SpeakingRate < 0.25 || p.SpeakingRate > 4.0 {
		return fmt.Errorf("%s.speaking_rate must be between 0.25 and 4.0", prefix)
	}
	if p.MusicVolume < 0 || p.VoiceVolume < 0 {
		return fmt.Errorf("%s volumes must be >= 0", prefix)
	}
	if err := oneOf(prefix+".fit", p.Fit, FitStretch, FitLetterbox); err != nil {
		return err
	}
	if err := oneOf(prefix+".image_fit", p.ImageFit, ImageCrop, ImageScale); err != nil {
		return err
	}
	if err := oneOf(prefix+".logo_mode", p.LogoMode, LogoThumbnail, LogoStretch); err != nil {
		return err
	}
	if err := oneOf(prefix+".timing", p.Timing, TimingPerChunk, TimingWindowed); err != nil {
		return err
	}
	switch p.Chunking {
	case ChunkSentences:
	case ChunkWords:
		if p.WordsPerChunk <= 0 {
			return fmt.Errorf("%s.words_per_chunk must be positive when chunking is %q", prefix, ChunkWords)
		}
	default:
		return fmt.Errorf("%s.chunking must be %q or %q, got %q", prefix, ChunkWords, ChunkSentences, p.Chunking)
	}
	switch p.Panel {
	case PanelBand:
		if p.BandHeight <= 0 || p.BandHeight > p.Height {
			return fmt.Errorf("%s.band_height must be between 1 and the frame height", prefix)
		}
	case PanelRounded:
		if p.BottomOffset < 0 || p.BottomOffset >= p.Height {
			return fmt.Errorf("%s.bottom_offset must be inside the frame", prefix)
		}
	default:
		return fmt.Errorf("%s.panel must be %q or %q, got %q", prefix, PanelBand, PanelRounded, p.Panel)
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Paths.APIBind != "" && !strings.Contains(c.Paths.APIBind, ":") {
		return fmt.Errorf("paths.api_bind must be host:port, got %q", c.Paths.APIBind)
	}
	if topic := c.Notifications.NtfyTopic; topic != "" {
		parsed, err := url.Parse(topic)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
		}
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
}

func ensurePositiveMap(values map[string]int) error {
	for _, key := range sortedIntKeys(values) {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func sortedIntKeys(values map[string]int) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
