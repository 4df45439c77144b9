package timeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/services"
)

type fakeRunner struct {
	calls    [][]string
	duration float64
	err      error
	write    bool
}

func (f *fakeRunner) Run(_ context.Context, args []string) error {
	f.calls = append(f.calls, append([]string(nil), args...))
	if f.err != nil {
		return f.err
	}
	if f.write {
		return os.WriteFile(args[len(args)-1], []byte("data"), 0o644)
	}
	return nil
}

func (f *fakeRunner) Duration(context.Context, string) (float64, error) {
	return f.duration, nil
}

func TestManifestEscapesQuotes(t *testing.T) {
	got, err := Manifest([]string{"/work/seg_0.mp4", "/work/it's/seg_1.mp4"})
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	want := "file '/work/seg_0.mp4'\nfile '/work/it'\\''s/seg_1.mp4'\n"
	if got != want {
		t.Fatalf("unexpected manifest:\n%q\nwant\n%q", got, want)
	}
}

func TestAssembleRunsConcatCopy(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{write: true}
	a := New(runner, nil)
	manifest := filepath.Join(dir, "concat.txt")
	output := filepath.Join(dir, "final.mp4")
	if err := a.Assemble(context.Background(), []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")}, manifest, output); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	args := strings.Join(runner.calls[0], " ")
	if !strings.HasPrefix(args, "-f concat -safe 0 -i "+manifest+" -c copy") {
		t.Fatalf("unexpected args %q", args)
	}
	data, err := os.ReadFile(manifest)
	if err != nil || strings.Count(string(data), "file '") != 2 {
		t.Fatalf("unexpected manifest %q %v", data, err)
	}
}

func TestAssembleFailures(t *testing.T) {
	dir := t.TempDir()
	a := New(&fakeRunner{write: true}, nil)
	if err := a.Assemble(context.Background(), nil, filepath.Join(dir, "m.txt"), filepath.Join(dir, "o.mp4")); !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("expected assembly error for empty list, got %v", err)
	}
	failing := New(&fakeRunner{err: errors.New("exit status 1")}, nil)
	err := failing.Assemble(context.Background(), []string{"a.mp4"}, filepath.Join(dir, "m.txt"), filepath.Join(dir, "o.mp4"))
	if !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("expected assembly error, got %v", err)
	}
	silent := New(&fakeRunner{}, nil)
	err = silent.Assemble(context.Background(), []string{"a.mp4"}, filepath.Join(dir, "m.txt"), filepath.Join(dir, "o.mp4"))
	if !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("expected assembly error for missing output, got %v", err)
	}
}

func TestThumbnailSeeksByDuration(t *testing.T) {
	cases := []struct {
		duration float64
		seek     string
	}{
		{duration: 12, seek: "1"},
		{duration: 1.2, seek: "0.6"},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		runner := &fakeRunner{duration: tc.duration, write: true}
		a := New(runner, nil)
		out := filepath.Join(dir, "thumbs", "x.jpg")
		if err := a.Thumbnail(context.Background(), filepath.Join(dir, "v.mp4"), out); err != nil {
			t.Fatalf("Thumbnail: %v", err)
		}
		args := runner.calls[0]
		if args[0] != "-ss" || args[1] != tc.seek {
			t.Fatalf("duration %v: expected seek %s, got %v", tc.duration, tc.seek, args)
		}
		if !strings.Contains(strings.Join(args, " "), "-frames:v 1 -q:v 2") {
			t.Fatalf("unexpected args %v", args)
		}
	}
}

func TestThumbnailOffset(t *testing.T) {
	if ThumbnailOffset(0) != 0 || ThumbnailOffset(0.5) != 0.25 || ThumbnailOffset(30) != 1 {
		t.Fatal("unexpected offsets")
	}
}
