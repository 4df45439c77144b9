package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestParseAndPlayableDuration(t *testing.T) {
	payload := []byte(`{"streams":[{"index":0,"codec_type":"audio","codec_name":"mp3","duration":"2.508000"}],"format":{"filename":"a.mp3","duration":"2.508000"}}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := result.PlayableDuration()
	if err != nil {
		t.Fatalf("PlayableDuration: %v", err)
	}
	if got != 2.508 {
		t.Fatalf("unexpected duration %v", got)
	}
	if result.VideoStreamCount() != 0 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected stream counts video=%d audio=%d", result.VideoStreamCount(), result.AudioStreamCount())
	}
	if _, _, ok := result.VideoSize(); ok {
		t.Fatal("audio-only file must not report a video size")
	}
}

func TestPlayableDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "4.0", Width: 720, Height: 1280}, {CodecType: "audio", Duration: "3.5"}},
		Format:  Format{Duration: "N/A"},
	}
	got, err := result.PlayableDuration()
	if err != nil || got != 4.0 {
		t.Fatalf("expected 4.0, got %v (%v)", got, err)
	}
	if w, h, ok := result.VideoSize(); !ok || w != 720 || h != 1280 {
		t.Fatalf("unexpected video size %dx%d %v", w, h, ok)
	}
}

func TestPlayableDurationRejectsMissing(t *testing.T) {
	if _, err := (Result{}).PlayableDuration(); err == nil {
		t.Fatal("expected error for missing duration")
	}
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
