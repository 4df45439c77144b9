package compose

import (
	"errors"
	"fmt"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/content"
)

// Media is the base layer of a segment. Start is the offset into a video
// source where the segment begins; it is ignored for stills.
type Media struct {
	Path  string
	Kind  content.ItemType
	Start float64
}

// Cue pairs one narration clip with its subtitle frame.
type Cue struct {
	SubtitlePath string
	AudioPath    string
	Duration     float64
}

// Segment describes one output clip. With Windowed unset the segment carries
// exactly one cue whose subtitle is shown for the whole clip. With Windowed
// set every cue's subtitle is enabled during its own slice of the clip.
type Segment struct {
	Media       Media
	Cues        []Cue
	LogoPath    string
	OverlayPath string
	MusicPath   string
	Windowed    bool
	Output      string
}

// TotalDuration sums the narration durations.
func (s Segment) TotalDuration() float64 {
	var total float64
	for _, cue := range s.Cues {
		total += cue.Duration
	}
	return total
}

func (s Segment) validate() error {
	if strings.TrimSpace(s.Media.Path) == "" {
		return errors.New("media path required")
	}
	switch s.Media.Kind {
	case content.ItemVideo, content.ItemImage:
	default:
		return fmt.Errorf("unsupported media kind %q", s.Media.Kind)
	}
	if s.Media.Start < 0 {
		return fmt.Errorf("media start %.3f must not be negative", s.Media.Start)
	}
	if len(s.Cues) == 0 {
		return errors.New("at least one cue required")
	}
	if !s.Windowed && len(s.Cues) != 1 {
		return fmt.Errorf("per-chunk segment needs exactly one cue, got %d", len(s.Cues))
	}
	for i, cue := range s.Cues {
		if cue.AudioPath == "" || cue.SubtitlePath == "" {
			return fmt.Errorf("cue %d: audio and subtitle paths required", i)
		}
		if cue.Duration <= 0 {
			return fmt.Errorf("cue %d: duration must be positive", i)
		}
	}
	if strings.TrimSpace(s.Output) == "" {
		return errors.New("output path required")
	}
	return nil
}

// Profile fixes frame geometry, layer placement, mixing levels, and codec
// parameters. Every segment of a request shares one profile so the timeline
// can be joined by stream copy.
type Profile struct {
	Width       int
	Height      int
	FrameRate   int
	Fit         string
	LogoMargin  int
	VoiceVolume float64
	MusicVolume float64

	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	SampleRate   int
}

// NewProfile combines a layout preset with encoder settings.
func NewProfile(p config.Preset, enc config.Encoder) Profile {
	return Profile{
		Width:        p.Width,
		Height:       p.Height,
		FrameRate:    p.FrameRate,
		Fit:          p.Fit,
		LogoMargin:   p.LogoMargin,
		VoiceVolume:  p.VoiceVolume,
		MusicVolume:  p.MusicVolume,
		VideoCodec:   enc.VideoCodec,
		Preset:       enc.Preset,
		CRF:          enc.CRF,
		AudioCodec:   enc.AudioCodec,
		AudioBitrate: enc.AudioBitrate,
		SampleRate:   enc.SampleRate,
	}
}
