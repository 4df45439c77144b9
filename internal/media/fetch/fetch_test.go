package fetch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/services"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFetchDownloadsWithKindExtension(t *testing.T) {
	payload := pngBytes(t, 4, 4, color.White)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "reelforge-test" {
			t.Fatalf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	a := New(Options{Timeout: 5 * time.Second, UserAgent: "reelforge-test"}, nil)
	dir := t.TempDir()
	got, err := a.Fetch(context.Background(), server.URL+"/assets/logo", KindLogo, dir, "logo_raw")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != filepath.Join(dir, "logo_raw.png") {
		t.Fatalf("unexpected path %q", got)
	}
	data, _ := os.ReadFile(got)
	if !bytes.Equal(data, payload) {
		t.Fatal("downloaded bytes differ")
	}
}

func TestFetchNotFoundIsDownloadError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	a := New(Options{Timeout: 5 * time.Second, RetryAttempts: 2}, nil, WithSleeper(func(time.Duration) {}))
	dir := t.TempDir()
	_, err := a.Fetch(context.Background(), server.URL+"/missing.mp4", KindVideo, dir, "media_0")
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "media_0.mp4")); !os.IsNotExist(statErr) {
		t.Fatal("expected partial file to be removed")
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ID3"))
	}))
	defer server.Close()

	a := New(Options{RetryAttempts: 2}, nil, WithSleeper(func(time.Duration) {}))
	got, err := a.Fetch(context.Background(), server.URL+"/bed.mp3?sig=1", KindMusic, t.TempDir(), "music")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Ext(got) != ".mp3" || calls.Load() != 3 {
		t.Fatalf("unexpected result %q after %d calls", got, calls.Load())
	}
}

func TestFetchLogoTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	a := New(Options{Timeout: time.Minute, LogoTimeout: 50 * time.Millisecond}, nil)
	_, err := a.Fetch(context.Background(), server.URL+"/logo.png", KindLogo, t.TempDir(), "logo")
	if !errors.Is(err, services.ErrTimeout) || !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected timeout download error, got %v", err)
	}
}

func TestFetchLocalFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(src, []byte("moov"), 0o644); err != nil {
		t.Fatal(err)
	}

	denied := New(Options{}, nil)
	if _, err := denied.Fetch(context.Background(), src, KindVideo, filepath.Join(dir, "work"), "media_0"); !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected local file rejection, got %v", err)
	}

	allowed := New(Options{AllowLocal: true}, nil)
	got, err := allowed.Fetch(context.Background(), "file://"+src, KindVideo, filepath.Join(dir, "work"), "media_0")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(got) != "media_0.mov" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestExtension(t *testing.T) {
	cases := []struct {
		source string
		kind   Kind
		want   string
	}{
		{"https://cdn.example.com/a/clip.MOV", KindVideo, ".mov"},
		{"https://cdn.example.com/a/clip", KindVideo, ".mp4"},
		{"https://cdn.example.com/photo.jpeg?w=100", KindImage, ".jpeg"},
		{"https://cdn.example.com/photo.php", KindImage, ".png"},
		{"/srv/media/bed.wav", KindMusic, ".wav"},
	}
	for _, tc := range cases {
		if got := Extension(tc.source, tc.kind); got != tc.want {
			t.Fatalf("Extension(%q, %s) = %q, want %q", tc.source, tc.kind, got, tc.want)
		}
	}
}
