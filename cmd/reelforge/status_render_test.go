package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"reelforge/internal/preflight"
	"reelforge/internal/queue"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("reelforge", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "reelforge:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("reelforge", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestCheckLines(t *testing.T) {
	results := []preflight.Result{
		{Name: "FFmpeg", Passed: true, Detail: "ffmpeg"},
		{Name: "FFprobe", Passed: false, Detail: "not found"},
	}
	lines := checkLines(results, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] ffmpeg") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] not found") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	if !strings.Contains(lines[2], "1 of 2 checks failed") {
		t.Fatalf("unexpected summary line %q", lines[2])
	}
}

func TestBuildJobStatusRowsSkipsEmpty(t *testing.T) {
	rows := buildJobStatusRows(queue.HealthSummary{Total: 3, Completed: 2, Failed: 1})
	if len(rows) != 2 || rows[0].status != queue.StatusCompleted || rows[1].count != 1 {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestJobStatusKind(t *testing.T) {
	if jobStatusKind(queue.StatusFailed) != statusError || jobStatusKind(queue.StatusCompleted) != statusOK {
		t.Fatal("unexpected job status badges")
	}
	if jobStatusKind(queue.StatusPending) != statusInfo {
		t.Fatal("expected pending jobs to render as info")
	}
}

func TestSectionWriterSeparatesBlocks(t *testing.T) {
	var buf strings.Builder
	w := &sectionWriter{out: &buf}
	w.section("Daemon", []string{"a"})
	w.section("Jobs", []string{"b"})
	want := "== Daemon ==\n------------\na\n\n== Jobs ==\n----------\nb\n"
	if buf.String() != want {
		t.Fatalf("unexpected output\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
