package speech_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/services"
	"reelforge/internal/services/googletts"
	"reelforge/internal/speech"
)

type fakeSynth struct {
	audio []byte
	err   error
	got   googletts.Request
}

func (f *fakeSynth) Synthesize(_ context.Context, req googletts.Request) ([]byte, error) {
	f.got = req
	return f.audio, f.err
}

type fakeProber struct {
	duration float64
	err      error
}

func (f fakeProber) Duration(context.Context, string) (float64, error) {
	return f.duration, f.err
}

func TestSynthesizeWritesClipAndProbesDuration(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	adapter := speech.NewAdapter(synth, fakeProber{duration: 2.5}, 0, nil)
	dest := filepath.Join(t.TempDir(), "audio", "chunk_000.mp3")

	clip, err := adapter.Synthesize(context.Background(), speech.Utterance{
		Text: "Hello there.", LanguageCode: "en-US", VoiceName: "en-US-Standard-C", SpeakingRate: 0.85,
	}, dest)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if clip.Path != dest || clip.Duration != 2.5 || clip.Bytes != 9 {
		t.Fatalf("unexpected clip %+v", clip)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "mp3-bytes" {
		t.Fatalf("unexpected file contents %q %v", data, err)
	}
	if synth.got.SpeakingRate != 0.85 || synth.got.VoiceName != "en-US-Standard-C" {
		t.Fatalf("unexpected request %+v", synth.got)
	}
}

func TestSynthesizeFailuresAreSynthesisErrors(t *testing.T) {
	cases := map[string]*speech.Adapter{
		"provider error": speech.NewAdapter(&fakeSynth{err: errors.New("http 403")}, fakeProber{duration: 1}, 0, nil),
		"empty audio":    speech.NewAdapter(&fakeSynth{}, fakeProber{duration: 1}, 0, nil),
		"zero duration":  speech.NewAdapter(&fakeSynth{audio: []byte("x")}, fakeProber{duration: 0}, 0, nil),
		"probe error":    speech.NewAdapter(&fakeSynth{audio: []byte("x")}, fakeProber{err: errors.New("bad file")}, 0, nil),
	}
	for name, adapter := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := adapter.Synthesize(context.Background(), speech.Utterance{Text: "x", LanguageCode: "en-US"},
				filepath.Join(t.TempDir(), "a.mp3"))
			if !errors.Is(err, services.ErrSynthesis) {
				t.Fatalf("expected synthesis error, got %v", err)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	if speech.Extension("LINEAR16") != ".wav" || speech.Extension("ogg_opus") != ".ogg" || speech.Extension("MP3") != ".mp3" {
		t.Fatal("unexpected extension mapping")
	}
}
