package compose

import (
	"fmt"
	"strconv"

	"reelforge/internal/config"
	"reelforge/internal/content"
	fg "reelforge/internal/filtergraph"
)

// Plan is the fully resolved ffmpeg invocation for one segment.
type Plan struct {
	Inputs fg.Inputs
	Graph  fg.Graph
	Output string
	codec  []string
}

// Args renders the complete argument list.
func (p *Plan) Args() []string {
	args := p.Inputs.Args()
	args = append(args, "-filter_complex", p.Graph.String(), "-map", "[v]", "-map", "[a]", "-shortest")
	args = append(args, p.codec...)
	return append(args, p.Output)
}

// BuildPlan lays out inputs and the filter graph for seg. It performs no I/O.
//
// Video layers are stacked in a fixed order: base, subtitles, logo,
// decorative overlay. Missing optional layers become pass-through filters so
// the graph shape does not depend on which assets a request supplied.
func BuildPlan(seg Segment, profile Profile) (*Plan, error) {
	if err := seg.validate(); err != nil {
		return nil, err
	}
	if profile.Width <= 0 || profile.Height <= 0 || profile.FrameRate <= 0 {
		return nil, fmt.Errorf("invalid profile %dx%d@%d", profile.Width, profile.Height, profile.FrameRate)
	}

	plan := &Plan{Output: seg.Output}
	in := &plan.Inputs
	g := &plan.Graph
	total := seg.TotalDuration()

	var media fg.Slot
	if seg.Media.Kind == content.ItemImage {
		media = in.Add("media", seg.Media.Path, fg.LoopFor(total))
	} else {
		media = in.Add("media", seg.Media.Path, fg.SeekTo(seg.Media.Start))
	}
	subtitles := make([]fg.Slot, len(seg.Cues))
	for i, cue := range seg.Cues {
		subtitles[i] = in.Add(fmt.Sprintf("subtitle%d", i), cue.SubtitlePath)
	}
	voices := make([]fg.Slot, len(seg.Cues))
	for i, cue := range seg.Cues {
		voices[i] = in.Add(fmt.Sprintf("voice%d", i), cue.AudioPath)
	}

	// Base layer.
	baseFilters := []fg.Filter{}
	if profile.Fit == config.FitLetterbox {
		baseFilters = append(baseFilters,
			fg.Scale{Width: profile.Width, Height: profile.Height, KeepAspect: true},
			fg.PadFrame{Width: profile.Width, Height: profile.Height})
	} else {
		baseFilters = append(baseFilters, fg.Scale{Width: profile.Width, Height: profile.Height})
	}
	baseFilters = append(baseFilters, fg.SetSAR{}, fg.FPS{Rate: profile.FrameRate}, fg.Format{PixelFormat: "rgba"})
	current := g.Chain([]fg.Pad{media.Video()}, g.Label("base"), baseFilters...)

	// Subtitle layer(s).
	var start float64
	for i, cue := range seg.Cues {
		overlay := fg.Overlay{X: "0", Y: "0"}
		if seg.Windowed {
			overlay.Window = &fg.Window{Start: start, End: start + cue.Duration}
			start += cue.Duration
		}
		current = g.Chain([]fg.Pad{current, subtitles[i].Video()}, g.Label("sub"), overlay)
	}

	// Logo layer.
	if seg.LogoPath != "" {
		logo := in.Add("logo", seg.LogoPath)
		margin := strconv.Itoa(profile.LogoMargin)
		current = g.Chain([]fg.Pad{current, logo.Video()}, g.Label("logo"),
			fg.Overlay{X: "W-w-" + margin, Y: margin})
	} else {
		current = g.Chain([]fg.Pad{current}, g.Label("logo"), fg.Null{})
	}

	// Decorative overlay layer.
	if seg.OverlayPath != "" {
		deco := in.Add("overlay", seg.OverlayPath)
		current = g.Chain([]fg.Pad{current, deco.Video()}, g.Label("deco"), fg.Overlay{X: "0", Y: "0"})
	} else {
		current = g.Chain([]fg.Pad{current}, g.Label("deco"), fg.Null{})
	}
	g.Chain([]fg.Pad{current}, "v", fg.Format{PixelFormat: "yuv420p"})

	// Narration.
	normalize := fg.AFormat{SampleRate: profile.SampleRate, ChannelLayout: "stereo"}
	var narration fg.Pad
	if len(voices) == 1 {
		narration = g.Chain([]fg.Pad{voices[0].Audio()}, g.Label("voice"), normalize)
	} else {
		parts := make([]fg.Pad, len(voices))
		for i, voice := range voices {
			parts[i] = g.Chain([]fg.Pad{voice.Audio()}, g.Label("voice"), normalize)
		}
		narration = g.Chain(parts, g.Label("narration"), fg.Concat{Segments: len(parts)})
	}

	if seg.MusicPath != "" {
		music := in.Add("music", seg.MusicPath, fg.StreamLoop())
		voiced := g.Chain([]fg.Pad{narration}, g.Label("voiced"), fg.Volume{Level: volumeOr(profile.VoiceVolume)})
		bed := g.Chain([]fg.Pad{music.Audio()}, g.Label("bed"), normalize, fg.Volume{Level: volumeOr(profile.MusicVolume)})
		g.Chain([]fg.Pad{voiced, bed}, "a", fg.AMix{Inputs: 2, Duration: "first"})
	} else if profile.VoiceVolume > 0 && profile.VoiceVolume != 1 {
		g.Chain([]fg.Pad{narration}, "a", fg.Volume{Level: profile.VoiceVolume})
	} else {
		g.Chain([]fg.Pad{narration}, "a", fg.ANull{})
	}

	plan.codec = codecArgs(profile)
	return plan, nil
}

func volumeOr(level float64) float64 {
	if level <= 0 {
		return 1
	}
	return level
}

// codecArgs is the single encoding profile shared by every segment.
func codecArgs(p Profile) []string {
	args := []string{
		"-c:v", p.VideoCodec,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(p.FrameRate),
		"-c:a", p.AudioCodec,
	}
	if p.AudioBitrate != "" {
		args = append(args, "-b:a", p.AudioBitrate)
	}
	return append(args,
		"-ar", strconv.Itoa(p.SampleRate),
		"-ac", "2",
		"-movflags", "+faststart",
	)
}
