package config

import (
	"sort"
	"strings"
)

// Chunking policies understood by the text segmenter.
const (
	ChunkWords     = "words"
	ChunkSentences = "sentences"
)

// Timing policies understood by the segment compositor.
const (
	TimingPerChunk = "per_chunk"
	TimingWindowed = "windowed"
)

// Subtitle panel styles.
const (
	PanelBand    = "band"
	PanelRounded = "rounded"
)

// Logo fitting modes.
const (
	LogoThumbnail = "thumbnail"
	LogoStretch   = "stretch"
)

// Frame fitting for base media.
const (
	FitStretch   = "stretch"
	FitLetterbox = "letterbox"
)

// Background image handling before compositing.
const (
	ImageCrop  = "crop"
	ImageScale = "scale"
)

// Preset bundles every layout and timing constant for one output style.
// Zero fields inherit from the built-in preset of the same name, or from
// DefaultPresetName when the name is new.
type Preset struct {
	Name string `toml:"-" json:"name"`

	Width     int    `toml:"width" json:"width"`
	Height    int    `toml:"height" json:"height"`
	FrameRate int    `toml:"frame_rate" json:"frame_rate"`
	Fit       string `toml:"fit" json:"fit"`
	ImageFit  string `toml:"image_fit" json:"image_fit"`

	FontPath       string  `toml:"font_path" json:"font_path,omitempty"`
	FontSize       float64 `toml:"font_size" json:"font_size"`
	WrapWidth      int     `toml:"wrap_width" json:"wrap_width"`
	DenseWrapWidth int     `toml:"dense_wrap_width" json:"dense_wrap_width"`
	LinePadding    int     `toml:"line_padding" json:"line_padding"`
	Panel          string  `toml:"panel" json:"panel"`
	BandHeight     int     `toml:"band_height" json:"band_height,omitempty"`
	BottomOffset   int     `toml:"bottom_offset" json:"bottom_offset,omitempty"`
	PaddingX       int     `toml:"padding_x" json:"padding_x,omitempty"`
	PaddingY       int     `toml:"padding_y" json:"padding_y,omitempty"`
	PanelRadius    int     `toml:"panel_radius" json:"panel_radius,omitempty"`
	PanelAlpha     int     `toml:"panel_alpha" json:"panel_alpha"`

	Chunking      string  `toml:"chunking" json:"chunking"`
	WordsPerChunk int     `toml:"words_per_chunk" json:"words_per_chunk,omitempty"`
	Timing        string  `toml:"timing" json:"timing"`
	SpeakingRate  float64 `toml:"speaking_rate" json:"speaking_rate"`

	LogoMode   string `toml:"logo_mode" json:"logo_mode"`
	LogoWidth  int    `toml:"logo_width" json:"logo_width"`
	LogoHeight int    `toml:"logo_height" json:"logo_height"`
	LogoMargin int    `toml:"logo_margin" json:"logo_margin"`

	MusicPath   string  `toml:"music_path" json:"music_path,omitempty"`
	MusicVolume float64 `toml:"music_volume" json:"music_volume"`
	VoiceVolume float64 `toml:"voice_volume" json:"voice_volume"`
}

// DefaultPresetName is used when neither the request nor the config picks one.
const DefaultPresetName = "sentences"

// BuiltinPresets returns a fresh copy of the shipped presets.
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"sentences": {
			Width: 720, Height: 1280, FrameRate: 25, Fit: FitStretch, ImageFit: ImageCrop,
			FontSize: 36, WrapWidth: 38, DenseWrapWidth: 30, LinePadding: 10,
			Panel: PanelRounded, BottomOffset: 250, PaddingX: 40, PaddingY: 20, PanelRadius: 20, PanelAlpha: 180,
			Chunking: ChunkSentences, Timing: TimingPerChunk, SpeakingRate: 0.85,
			LogoMode: LogoStretch, LogoWidth: 200, LogoHeight: 100, LogoMargin: 20,
			MusicVolume: 0.6, VoiceVolume: 1.0,
		},
		"windowed": {
			Width: 720, Height: 1280, FrameRate: 25, Fit: FitStretch, ImageFit: ImageScale,
			FontSize: 42, WrapWidth: 35, DenseWrapWidth: 35, LinePadding: 12,
			Panel: PanelBand, BandHeight: 200, PanelAlpha: 200,
			Chunking: ChunkWords, WordsPerChunk: 10, Timing: TimingWindowed, SpeakingRate: 0.80,
			LogoMode: LogoThumbnail, LogoWidth: 100, LogoHeight: 100, LogoMargin: 20,
			MusicVolume: 0.6, VoiceVolume: 1.0,
		},
		"logo": {
			Width: 720, Height: 1280, FrameRate: 25, Fit: FitStretch, ImageFit: ImageScale,
			FontSize: 42, WrapWidth: 35, DenseWrapWidth: 35, LinePadding: 12,
			Panel: PanelBand, BandHeight: 200, PanelAlpha: 200,
			Chunking: ChunkWords, WordsPerChunk: 10, Timing: TimingPerChunk, SpeakingRate: 0.92,
			LogoMode: LogoThumbnail, LogoWidth: 100, LogoHeight: 100, LogoMargin: 20,
			MusicVolume: 0.6, VoiceVolume: 1.0,
		},
		"landscape": {
			Width: 1280, Height: 720, FrameRate: 25, Fit: FitStretch, ImageFit: ImageScale,
			FontSize: 36, WrapWidth: 50, DenseWrapWidth: 40, LinePadding: 10,
			Panel: PanelRounded, BottomOffset: 80, PaddingX: 40, PaddingY: 20, PanelRadius: 20, PanelAlpha: 160,
			Chunking: ChunkSentences, Timing: TimingPerChunk, SpeakingRate: 1.0,
			LogoMode: LogoThumbnail, LogoWidth: 100, LogoHeight: 100, LogoMargin: 20,
			MusicVolume: 0.6, VoiceVolume: 1.5,
		},
	}
}

// inherit fills zero fields of p from base.
func (p Preset) inherit(base Preset) Preset {
	setInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}
	setFloat := func(dst *float64, v float64) {
		if *dst == 0 {
			*dst = v
		}
	}
	setString := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	setInt(&p.Width, base.Width)
	setInt(&p.Height, base.Height)
	setInt(&p.FrameRate, base.FrameRate)
	setString(&p.Fit, base.Fit)
	setString(&p.ImageFit, base.ImageFit)
	setString(&p.FontPath, base.FontPath)
	setFloat(&p.FontSize, base.FontSize)
	setInt(&p.WrapWidth, base.WrapWidth)
	setInt(&p.DenseWrapWidth, base.DenseWrapWidth)
	setInt(&p.LinePadding, base.LinePadding)
	setString(&p.Panel, base.Panel)
	setInt(&p.BandHeight, base.BandHeight)
	setInt(&p.BottomOffset, base.BottomOffset)
	setInt(&p.PaddingX, base.PaddingX)
	setInt(&p.PaddingY, base.PaddingY)
	setInt(&p.PanelRadius, base.PanelRadius)
	setInt(&p.PanelAlpha, base.PanelAlpha)
	setString(&p.Chunking, base.Chunking)
	setInt(&p.WordsPerChunk, base.WordsPerChunk)
	setString(&p.Timing, base.Timing)
	setFloat(&p.SpeakingRate, base.SpeakingRate)
	setString(&p.LogoMode, base.LogoMode)
	setInt(&p.LogoWidth, base.LogoWidth)
	setInt(&p.LogoHeight, base.LogoHeight)
	setInt(&p.LogoMargin, base.LogoMargin)
	setString(&p.MusicPath, base.MusicPath)
	setFloat(&p.MusicVolume, base.MusicVolume)
	setFloat(&p.VoiceVolume, base.VoiceVolume)
	return p
}

func sortedKeys(m map[string]Preset) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
