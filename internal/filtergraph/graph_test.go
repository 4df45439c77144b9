package filtergraph_test

import (
	"strings"
	"testing"

	"reelforge/internal/filtergraph"
)

func TestInputsResolveIndices(t *testing.T) {
	var inputs filtergraph.Inputs
	media := inputs.Add("media", "/w/clip.png", filtergraph.LoopFor(2.5))
	sub := inputs.Add("subtitle", "/w/sub.png")
	music := inputs.Add("music", "/w/bed.mp3", filtergraph.StreamLoop())
	again := inputs.Add("media", "/ignored.png")

	if media.Index() != 0 || sub.Index() != 1 || music.Index() != 2 || again.Index() != 0 {
		t.Fatalf("unexpected indices %d %d %d %d", media.Index(), sub.Index(), music.Index(), again.Index())
	}
	if got, ok := inputs.Slot("subtitle"); !ok || got.Index() != 1 {
		t.Fatalf("lookup failed: %v %v", got, ok)
	}
	if _, ok := inputs.Slot("logo"); ok {
		t.Fatal("expected missing slot")
	}
	want := "-loop 1 -t 2.5 -i /w/clip.png -i /w/sub.png -stream_loop -1 -i /w/bed.mp3"
	if got := strings.Join(inputs.Args(), " "); got != want {
		t.Fatalf("args %q want %q", got, want)
	}
	if sub.Video().String() != "[1:v]" || music.Audio().String() != "[2:a]" {
		t.Fatalf("unexpected pads %s %s", sub.Video(), music.Audio())
	}
}

func TestSeekToSkipsZeroOffset(t *testing.T) {
	var inputs filtergraph.Inputs
	inputs.Add("first", "/w/a.mp4", filtergraph.SeekTo(0))
	inputs.Add("second", "/w/a.mp4", filtergraph.SeekTo(3.0004))
	want := "-i /w/a.mp4 -ss 3 -i /w/a.mp4"
	if got := strings.Join(inputs.Args(), " "); got != want {
		t.Fatalf("args %q want %q", got, want)
	}
}

func TestGraphRendersChains(t *testing.T) {
	var g filtergraph.Graph
	bg := g.Chain([]filtergraph.Pad{"0:v"}, g.Label("base"),
		filtergraph.Scale{Width: 720, Height: 1280},
		filtergraph.FPS{Rate: 25},
		filtergraph.Format{PixelFormat: "rgba"},
	)
	withSub := g.Chain([]filtergraph.Pad{bg, "1:v"}, g.Label("sub"), filtergraph.Overlay{})
	g.Chain([]filtergraph.Pad{withSub}, "v", filtergraph.Null{})

	want := "[0:v]scale=720:1280,fps=25,format=rgba[base0];[base0][1:v]overlay=x=0:y=0[sub0];[sub0]null[v]"
	if got := g.String(); got != want {
		t.Fatalf("graph %q want %q", got, want)
	}
	if g.Len() != 3 {
		t.Fatalf("expected 3 chains, got %d", g.Len())
	}
}

func TestOverlayWindowIsHalfOpen(t *testing.T) {
	o := filtergraph.Overlay{X: "W-w-20", Y: "20", Window: &filtergraph.Window{Start: 2.0, End: 5.0}}
	want := "overlay=x=W-w-20:y=20:enable='gte(t,2)*lt(t,5)'"
	if got := o.Render(); got != want {
		t.Fatalf("overlay %q want %q", got, want)
	}
}

func TestAudioFilters(t *testing.T) {
	cases := map[string]filtergraph.Filter{
		"concat=n=3:v=0:a=1": filtergraph.Concat{Segments: 3},
		"amix=inputs=2:duration=first:dropout_transition=0": filtergraph.AMix{Inputs: 2},
		"volume=0.6": filtergraph.Volume{Level: 0.6},
		"aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=stereo": filtergraph.AFormat{SampleRate: 44100, ChannelLayout: "stereo"},
		"scale=720:1280:force_original_aspect_ratio=decrease":                filtergraph.Scale{Width: 720, Height: 1280, KeepAspect: true},
		"pad=720:1280:(ow-iw)/2:(oh-ih)/2:color=black":                       filtergraph.PadFrame{Width: 720, Height: 1280},
	}
	for want, f := range cases {
		if got := f.Render(); got != want {
			t.Fatalf("render %q want %q", got, want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{2: "2", 1.5: "1.5", 2.5079999: "2.508", 0: "0"}
	for in, want := range cases {
		if got := filtergraph.FormatSeconds(in); got != want {
			t.Fatalf("FormatSeconds(%v) = %q want %q", in, got, want)
		}
	}
}
