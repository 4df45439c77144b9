package filtergraph

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is one typed node in a filter chain.
type Filter interface {
	Render() string
}

// Scale resizes video. KeepAspect fits inside the box without distortion
// and should be followed by PadFrame.
type Scale struct {
	Width, Height int
	KeepAspect    bool
}

func (f Scale) Render() string {
	if f.KeepAspect {
		return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", f.Width, f.Height)
	}
	return fmt.Sprintf("scale=%d:%d", f.Width, f.Height)
}

// PadFrame centers video on a black canvas of the given size.
type PadFrame struct {
	Width, Height int
}

func (f PadFrame) Render() string {
	return fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black", f.Width, f.Height)
}

// SetSAR forces square pixels.
type SetSAR struct{}

func (SetSAR) Render() string { return "setsar=1" }

// FPS resamples the frame rate.
type FPS struct {
	Rate int
}

func (f FPS) Render() string { return "fps=" + strconv.Itoa(f.Rate) }

// Format converts the pixel format.
type Format struct {
	PixelFormat string
}

func (f Format) Render() string { return "format=" + f.PixelFormat }

// Null passes video through unchanged.
type Null struct{}

func (Null) Render() string { return "null" }

// ANull passes audio through unchanged.
type ANull struct{}

func (ANull) Render() string { return "anull" }

// Window is a half-open activation interval [Start, End) in seconds.
type Window struct {
	Start, End float64
}

// Expression renders the window as an ffmpeg timeline expression that is
// true from Start inclusive until End exclusive.
func (w Window) Expression() string {
	return fmt.Sprintf("gte(t,%s)*lt(t,%s)", FormatSeconds(w.Start), FormatSeconds(w.End))
}

// Overlay draws the second input onto the first at X,Y. A nil Window keeps
// the overlay active for the whole stream.
type Overlay struct {
	X, Y   string
	Window *Window
}

func (f Overlay) Render() string {
	x, y := f.X, f.Y
	if x == "" {
		x = "0"
	}
	if y == "" {
		y = "0"
	}
	out := "overlay=x=" + x + ":y=" + y
	if f.Window != nil {
		out += ":enable='" + f.Window.Expression() + "'"
	}
	return out
}

// AFormat normalizes audio sample format, rate, and layout.
type AFormat struct {
	SampleRate    int
	ChannelLayout string
}

func (f AFormat) Render() string {
	parts := []string{"sample_fmts=fltp"}
	if f.SampleRate > 0 {
		parts = append(parts, "sample_rates="+strconv.Itoa(f.SampleRate))
	}
	if f.ChannelLayout != "" {
		parts = append(parts, "channel_layouts="+f.ChannelLayout)
	}
	return "aformat=" + strings.Join(parts, ":")
}

// Volume scales audio amplitude.
type Volume struct {
	Level float64
}

func (f Volume) Render() string {
	return "volume=" + strconv.FormatFloat(f.Level, 'f', -1, 64)
}

// Concat joins N audio-only segments in input order.
type Concat struct {
	Segments int
}

func (f Concat) Render() string {
	return fmt.Sprintf("concat=n=%d:v=0:a=1", f.Segments)
}

// AMix mixes audio inputs. Duration is "first", "shortest", or "longest".
type AMix struct {
	Inputs   int
	Duration string
}

func (f AMix) Render() string {
	duration := f.Duration
	if duration == "" {
		duration = "first"
	}
	return fmt.Sprintf("amix=inputs=%d:duration=%s:dropout_transition=0", f.Inputs, duration)
}
