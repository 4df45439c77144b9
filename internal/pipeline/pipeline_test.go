package pipeline_test

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/media/fetch"
	"reelforge/internal/media/ffprobe"
	"reelforge/internal/pipeline"
	"reelforge/internal/services"
	"reelforge/internal/speech"
	"reelforge/internal/testsupport"
	"reelforge/internal/timeline"
)

type fakeSpeech struct {
	mu       sync.Mutex
	texts    []string
	duration float64
	err      error
}

func (f *fakeSpeech) Synthesize(_ context.Context, u speech.Utterance, dest string) (speech.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return speech.Clip{}, f.err
	}
	f.texts = append(f.texts, u.Text)
	if err := os.WriteFile(dest, []byte("audio"), 0o644); err != nil {
		return speech.Clip{}, err
	}
	return speech.Clip{Path: dest, Duration: f.duration, Bytes: 5}, nil
}

type fakeFetcher struct {
	png []byte
}

func (f fakeFetcher) Fetch(_ context.Context, source string, kind fetch.Kind, dir, name string) (string, error) {
	dest := filepath.Join(dir, name+fetch.Extension(source, kind))
	data := []byte("media")
	if kind == fetch.KindLogo || kind == fetch.KindOverlay || kind == fetch.KindImage {
		data = f.png
	}
	return dest, os.WriteFile(dest, data, 0o644)
}

type fakeEncoder struct {
	mu        sync.Mutex
	calls     [][]string
	fail      string
	clip      float64
	audioOnly bool
}

func (f *fakeEncoder) Run(_ context.Context, args []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), args...))
	out := args[len(args)-1]
	if f.fail != "" && strings.Contains(out, f.fail) {
		return errors.New("exit status 1")
	}
	return os.WriteFile(out, []byte("encoded"), 0o644)
}

func (f *fakeEncoder) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	clip := f.clip
	if clip == 0 {
		clip = 60
	}
	streams := []ffprobe.Stream{{CodecType: "audio"}}
	if !f.audioOnly {
		streams = append(streams, ffprobe.Stream{CodecType: "video", Width: 1280, Height: 720})
	}
	return ffprobe.Result{
		Streams: streams,
		Format:  ffprobe.Format{Filename: path, Duration: strconv.FormatFloat(clip, 'f', -1, 64)},
	}, nil
}

func (f *fakeEncoder) Duration(context.Context, string) (float64, error) {
	return 4.2, nil
}

func newPipeline(t *testing.T, cfg *config.Config, enc *fakeEncoder, sp *fakeSpeech) *pipeline.Pipeline {
	t.Helper()
	return pipeline.New(cfg, pipeline.Dependencies{
		Speech:    sp,
		Fetcher:   fakeFetcher{png: testsupport.PNG(t, 64, 48, color.RGBA{G: 180, A: 255})},
		Encoder:   enc,
		Assembler: timeline.New(enc, nil),
	}, nil)
}

func sampleRequest() content.Request {
	return content.Request{
		LanguageCode: "en-US",
		VoiceName:    "en-US-Standard-C",
		LogoURL:      "https://cdn.example.com/logo.png",
		Items: []content.Item{
			{Type: content.ItemVideo, URL: "https://cdn.example.com/a.mp4", Text: "First sentence. Second one!"},
			{Type: content.ItemImage, URL: "https://cdn.example.com/b.jpg", Text: "Only one here.", OverlayURL: "https://cdn.example.com/frame.png"},
		},
	}
}

func TestRunPerChunkProducesOutputsAndCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	enc := &fakeEncoder{}
	sp := &fakeSpeech{duration: 1.5}
	p := newPipeline(t, cfg, enc, sp)

	var stages []string
	result, err := p.Run(context.Background(), sampleRequest(),
		pipeline.WithRequestID("req123"),
		pipeline.WithObserver(func(pr pipeline.Progress) { stages = append(stages, pr.Stage) }))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RequestID != "req123" || result.Segments != 3 || result.Duration != 4.2 || result.Preset != "sentences" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.VideoPath != filepath.Join(cfg.Paths.OutputDir, "req123.mp4") {
		t.Fatalf("unexpected video path %q", result.VideoPath)
	}
	for _, path := range []string{result.VideoPath, result.ThumbnailPath} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Fatalf("expected non-empty output %s: %v", path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.WorkDir, "req123")); !os.IsNotExist(err) {
		t.Fatalf("expected work dir removed, stat err=%v", err)
	}
	if got := strings.Join(sp.texts, "|"); got != "First sentence.|Second one!|Only one here." {
		t.Fatalf("unexpected narration chunks %q", got)
	}
	if stages[0] != pipeline.StageValidate || stages[len(stages)-1] != pipeline.StageFinalize {
		t.Fatalf("unexpected stage order %v", stages)
	}
	// Three segment encodes, one concat, one thumbnail.
	if len(enc.calls) != 5 {
		t.Fatalf("expected 5 ffmpeg calls, got %d", len(enc.calls))
	}
	if first := strings.Join(enc.calls[0], " "); strings.Contains(first, "-ss ") {
		t.Fatalf("first chunk must start at the beginning of the clip, got %q", first)
	}
	if second := strings.Join(enc.calls[1], " "); !strings.Contains(second, "-ss 1.5 -i ") {
		t.Fatalf("expected second chunk to continue the clip, got %q", second)
	}
	still := strings.Join(enc.calls[2], " ")
	if !strings.Contains(still, "-loop 1 -t 1.5 -i ") || !strings.Contains(still, "media_001_fit.png") {
		t.Fatalf("expected cropped still looped for narration, got %q", still)
	}
	if !strings.Contains(still, "overlay=x=W-w-20:y=20") {
		t.Fatalf("expected logo layer, got %q", still)
	}
}

func TestRunPerChunkStopsWhenClipIsExhausted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	enc := &fakeEncoder{clip: 2}
	sp := &fakeSpeech{duration: 1.5}
	p := newPipeline(t, cfg, enc, sp)

	req := sampleRequest()
	req.LogoURL = ""
	req.Items = req.Items[:1]
	req.Items[0].Text = "One. Two. Three."
	result, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Segments != 2 {
		t.Fatalf("expected the third chunk to be dropped, got %d segments", result.Segments)
	}
	if second := strings.Join(enc.calls[1], " "); !strings.Contains(second, "-ss 1.5 -i ") {
		t.Fatalf("expected second chunk to seek into the clip, got %q", second)
	}
}

func TestRunRejectsVideoWithoutVideoStream(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	enc := &fakeEncoder{audioOnly: true}
	p := newPipeline(t, cfg, enc, &fakeSpeech{duration: 1})

	_, err := p.Run(context.Background(), sampleRequest(), pipeline.WithRequestID("silent"))
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no video stream") {
		t.Fatalf("expected missing stream in message, got %v", err)
	}
	if len(enc.calls) != 0 {
		t.Fatalf("expected no encoder runs, got %d", len(enc.calls))
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Paths.WorkDir, "silent")); !os.IsNotExist(statErr) {
		t.Fatalf("expected work dir removed, stat err=%v", statErr)
	}
}

func TestRunWindowedComposesOneSegmentPerItem(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDefaultPreset("windowed"))
	enc := &fakeEncoder{}
	sp := &fakeSpeech{duration: 2}
	p := newPipeline(t, cfg, enc, sp)

	req := sampleRequest()
	req.Items = req.Items[:1]
	req.Items[0].Text = strings.Repeat("word ", 25)
	result, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Segments != 1 || len(sp.texts) != 3 {
		t.Fatalf("expected one segment with three chunks, got %+v and %d chunks", result, len(sp.texts))
	}
	graph := strings.Join(enc.calls[0], " ")
	if !strings.Contains(graph, "enable='gte(t,2)*lt(t,4)'") {
		t.Fatalf("expected windowed overlay, got %q", graph)
	}
	if len(result.RequestID) != 32 {
		t.Fatalf("expected generated hex id, got %q", result.RequestID)
	}
}

func TestRunDownloadFailureRemovesWorkDir(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	enc := &fakeEncoder{}
	p := pipeline.New(cfg, pipeline.Dependencies{
		Speech:    &fakeSpeech{duration: 1},
		Fetcher:   fetch.New(fetch.Options{Timeout: 5 * time.Second}, nil),
		Encoder:   enc,
		Assembler: timeline.New(enc, nil),
	}, nil)

	req := sampleRequest()
	req.LogoURL = ""
	req.Items[0].URL = server.URL + "/missing.mp4"
	_, err := p.Run(context.Background(), req, pipeline.WithRequestID("gone"))
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error, got %v", err)
	}
	if services.HTTPStatus(err) != http.StatusBadGateway {
		t.Fatalf("expected 502 mapping, got %d", services.HTTPStatus(err))
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Paths.WorkDir, "gone")); !os.IsNotExist(statErr) {
		t.Fatalf("expected work dir removed, stat err=%v", statErr)
	}
	if len(enc.calls) != 0 {
		t.Fatalf("expected no encoder calls, got %d", len(enc.calls))
	}
}

func TestRunFailuresLeaveNoOutputs(t *testing.T) {
	cases := map[string]struct {
		enc    *fakeEncoder
		sp     *fakeSpeech
		marker error
	}{
		"synthesis": {enc: &fakeEncoder{}, sp: &fakeSpeech{err: services.Wrap(services.ErrSynthesis, "synthesis", "request audio", "", errors.New("403"))}, marker: services.ErrSynthesis},
		"compose":   {enc: &fakeEncoder{fail: "segment_001"}, sp: &fakeSpeech{duration: 1}, marker: services.ErrComposition},
		"thumbnail": {enc: &fakeEncoder{fail: ".jpg"}, sp: &fakeSpeech{duration: 1}, marker: services.ErrAssembly},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			p := newPipeline(t, cfg, tc.enc, tc.sp)
			_, err := p.Run(context.Background(), sampleRequest(), pipeline.WithRequestID("bad"))
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.ThumbnailDir, cfg.Paths.WorkDir} {
				entries, _ := os.ReadDir(dir)
				if len(entries) != 0 {
					t.Fatalf("expected %s to be empty, found %d entries", dir, len(entries))
				}
			}
		})
	}
}

func TestRunRejectsInvalidRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := newPipeline(t, cfg, &fakeEncoder{}, &fakeSpeech{duration: 1})

	req := sampleRequest()
	req.Items = nil
	if _, err := p.Run(context.Background(), req); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	req = sampleRequest()
	req.Preset = "unknown"
	if _, err := p.Run(context.Background(), req); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown preset, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.WorkDir)
	if len(entries) != 0 {
		t.Fatalf("expected no work dirs, found %d", len(entries))
	}
}
