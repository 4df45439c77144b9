package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/ffmpeg"
	"reelforge/internal/services"
)

func testProfile(preset string) Profile {
	return NewProfile(config.BuiltinPresets()[preset], config.Default().Encoder)
}

type recordingRunner struct {
	args [][]string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, args []string) error {
	r.args = append(r.args, append([]string(nil), args...))
	return r.err
}

func TestPlanPerChunkVideo(t *testing.T) {
	plan, err := BuildPlan(Segment{
		Media:  Media{Path: "/w/media_0.mp4", Kind: content.ItemVideo},
		Cues:   []Cue{{SubtitlePath: "/w/sub_0_0.png", AudioPath: "/w/voice_0_0.mp3", Duration: 2.4}},
		Output: "/w/seg_0_0.mp4",
	}, testProfile("logo"))
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	want := "[0:v]scale=720:1280,setsar=1,fps=25,format=rgba[base0];" +
		"[base0][1:v]overlay=x=0:y=0[sub0];" +
		"[sub0]null[logo0];" +
		"[logo0]null[deco0];" +
		"[deco0]format=yuv420p[v];" +
		"[2:a]aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=stereo[voice0];" +
		"[voice0]anull[a]"
	if got := plan.Graph.String(); got != want {
		t.Fatalf("unexpected graph:\n got %s\nwant %s", got, want)
	}
	args := strings.Join(plan.Args(), " ")
	if !strings.HasPrefix(args, "-i /w/media_0.mp4 -i /w/sub_0_0.png -i /w/voice_0_0.mp3 -filter_complex ") {
		t.Fatalf("unexpected input args %q", args)
	}
	for _, fragment := range []string{"-map [v] -map [a] -shortest", "-c:v libx264", "-pix_fmt yuv420p", "-r 25", "-c:a aac", "-ar 44100 -ac 2"} {
		if !strings.Contains(args, fragment) {
			t.Fatalf("expected %q in %q", fragment, args)
		}
	}
	if !strings.HasSuffix(args, "/w/seg_0_0.mp4") {
		t.Fatalf("expected output last, got %q", args)
	}
}

func TestPlanVideoSeeksToMediaStart(t *testing.T) {
	plan, err := BuildPlan(Segment{
		Media:  Media{Path: "/w/media_0.mp4", Kind: content.ItemVideo, Start: 2.25},
		Cues:   []Cue{{SubtitlePath: "/w/sub_0_1.png", AudioPath: "/w/voice_0_1.mp3", Duration: 1.5}},
		Output: "/w/seg_0_1.mp4",
	}, testProfile("sentences"))
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	args := strings.Join(plan.Args(), " ")
	if !strings.HasPrefix(args, "-ss 2.25 -i /w/media_0.mp4 -i /w/sub_0_1.png") {
		t.Fatalf("expected seek before media input, got %q", args)
	}
	if !strings.Contains(args, "-shortest") {
		t.Fatal("expected -shortest")
	}

	still, err := BuildPlan(Segment{
		Media:  Media{Path: "/w/media_1.png", Kind: content.ItemImage, Start: 2.25},
		Cues:   []Cue{{SubtitlePath: "/w/s.png", AudioPath: "/w/a.mp3", Duration: 1.5}},
		Output: "/w/out.mp4",
	}, testProfile("sentences"))
	if err != nil {
		t.Fatalf("BuildPlan still: %v", err)
	}
	if args := strings.Join(still.Args(), " "); strings.Contains(args, "-ss") {
		t.Fatalf("stills must not seek, got %q", args)
	}
}

func TestPlanStillImageLoopsForNarration(t *testing.T) {
	plan, err := BuildPlan(Segment{
		Media:  Media{Path: "/w/media_1.png", Kind: content.ItemImage},
		Cues:   []Cue{{SubtitlePath: "/w/s.png", AudioPath: "/w/a.mp3", Duration: 3.25}},
		Output: "/w/out.mp4",
	}, testProfile("sentences"))
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	args := strings.Join(plan.Args(), " ")
	if !strings.HasPrefix(args, "-loop 1 -t 3.25 -i /w/media_1.png") {
		t.Fatalf("expected looped still input, got %q", args)
	}
	if !strings.Contains(args, "-shortest") {
		t.Fatal("expected -shortest")
	}
}

func TestPlanWindowedSubtitles(t *testing.T) {
	seg := Segment{
		Media: Media{Path: "/w/media.png", Kind: content.ItemImage},
		Cues: []Cue{
			{SubtitlePath: "/w/s0.png", AudioPath: "/w/a0.mp3", Duration: 2.0},
			{SubtitlePath: "/w/s1.png", AudioPath: "/w/a1.mp3", Duration: 3.0},
			{SubtitlePath: "/w/s2.png", AudioPath: "/w/a2.mp3", Duration: 1.5},
		},
		Windowed: true,
		Output:   "/w/out.mp4",
	}
	plan, err := BuildPlan(seg, testProfile("windowed"))
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	graph := plan.Graph.String()
	for _, want := range []string{
		"[base0][1:v]overlay=x=0:y=0:enable='gte(t,0)*lt(t,2)'[sub0]",
		"[sub0][2:v]overlay=x=0:y=0:enable='gte(t,2)*lt(t,5)'[sub1]",
		"[sub1][3:v]overlay=x=0:y=0:enable='gte(t,5)*lt(t,6.5)'[sub2]",
		"[voice0][voice1][voice2]concat=n=3:v=0:a=1[narration0]",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("expected %q in graph %s", want, graph)
		}
	}
	if !strings.HasPrefix(strings.Join(plan.Args(), " "), "-loop 1 -t 6.5 -i /w/media.png") {
		t.Fatalf("expected loop for total narration, got %v", plan.Args())
	}
}

func TestPlanOptionalLayers(t *testing.T) {
	profile := testProfile("landscape")
	plan, err := BuildPlan(Segment{
		Media:       Media{Path: "/w/m.mp4", Kind: content.ItemVideo},
		Cues:        []Cue{{SubtitlePath: "/w/s.png", AudioPath: "/w/a.mp3", Duration: 1}},
		LogoPath:    "/w/logo.png",
		OverlayPath: "/w/frame.png",
		MusicPath:   "/w/bed.mp3",
		Output:      "/w/out.mp4",
	}, profile)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	graph := plan.Graph.String()
	for _, want := range []string{
		"[sub0][3:v]overlay=x=W-w-20:y=20[logo0]",
		"[logo0][4:v]overlay=x=0:y=0[deco0]",
		"[voice0]volume=1.5[voiced0]",
		"[5:a]aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=stereo,volume=0.6[bed0]",
		"[voiced0][bed0]amix=inputs=2:duration=first:dropout_transition=0[a]",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("expected %q in graph %s", want, graph)
		}
	}
	if !strings.Contains(strings.Join(plan.Args(), " "), "-stream_loop -1 -i /w/bed.mp3") {
		t.Fatalf("expected looped music input, got %v", plan.Args())
	}
}

func TestPlanLetterbox(t *testing.T) {
	profile := testProfile("sentences")
	profile.Fit = config.FitLetterbox
	plan, err := BuildPlan(Segment{
		Media:  Media{Path: "/w/m.mp4", Kind: content.ItemVideo},
		Cues:   []Cue{{SubtitlePath: "/w/s.png", AudioPath: "/w/a.mp3", Duration: 1}},
		Output: "/w/out.mp4",
	}, profile)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if !strings.HasPrefix(plan.Graph.String(), "[0:v]scale=720:1280:force_original_aspect_ratio=decrease,pad=720:1280:") {
		t.Fatalf("expected letterbox base chain, got %s", plan.Graph.String())
	}
}

func TestPlanRejectsInvalidSegments(t *testing.T) {
	cases := map[string]Segment{
		"no cues":        {Media: Media{Path: "m", Kind: content.ItemVideo}, Output: "o"},
		"two cues":       {Media: Media{Path: "m", Kind: content.ItemVideo}, Output: "o", Cues: []Cue{{"s", "a", 1}, {"s", "a", 1}}},
		"zero duration":  {Media: Media{Path: "m", Kind: content.ItemVideo}, Output: "o", Cues: []Cue{{"s", "a", 0}}},
		"unknown kind":   {Media: Media{Path: "m", Kind: "gif"}, Output: "o", Cues: []Cue{{"s", "a", 1}}},
		"missing output": {Media: Media{Path: "m", Kind: content.ItemVideo}, Cues: []Cue{{"s", "a", 1}}},
		"negative start": {Media: Media{Path: "m", Kind: content.ItemVideo, Start: -1}, Output: "o", Cues: []Cue{{"s", "a", 1}}},
	}
	for name, seg := range cases {
		if _, err := BuildPlan(seg, testProfile("sentences")); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestComposeWrapsEncoderFailure(t *testing.T) {
	runner := &recordingRunner{err: &ffmpeg.CommandError{Binary: "ffmpeg", ExitCode: 1, Stderr: "Invalid argument"}}
	c := New(runner, testProfile("sentences"), nil)
	err := c.Compose(context.Background(), Segment{
		Media:  Media{Path: "/w/m.mp4", Kind: content.ItemVideo},
		Cues:   []Cue{{SubtitlePath: "/w/s.png", AudioPath: "/w/a.mp3", Duration: 1}},
		Output: "/w/out.mp4",
	})
	if !errors.Is(err, services.ErrComposition) {
		t.Fatalf("expected composition error, got %v", err)
	}
	var cmdErr *ffmpeg.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode != 1 {
		t.Fatalf("expected command error detail, got %v", err)
	}
	if len(runner.args) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(runner.args))
	}
}
