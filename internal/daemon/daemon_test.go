package daemon_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/daemon"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/queue"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
)

type fakeRenderer struct {
	mu      sync.Mutex
	ids     []string
	err     error
	started chan string
	release chan struct{}
	outDir  string
}

func (f *fakeRenderer) Render(ctx context.Context, id string, req content.Request, observer pipeline.Observer) (pipeline.Result, error) {
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- id
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return pipeline.Result{}, ctx.Err()
		}
	}
	observer(pipeline.Progress{RequestID: id, Stage: pipeline.StageNarrate, Item: 0, Items: len(req.Items), Message: "narrating"})
	observer(pipeline.Progress{RequestID: id, Stage: pipeline.StageCompose, Item: 0, Items: len(req.Items), Message: "composing"})
	if f.err != nil {
		return pipeline.Result{RequestID: id}, f.err
	}
	video := filepath.Join(f.outDir, id+".mp4")
	return pipeline.Result{
		RequestID:     id,
		Preset:        "sentences",
		VideoPath:     video,
		ThumbnailPath: filepath.Join(f.outDir, id+".jpg"),
		Duration:      4.2,
		Segments:      1,
	}, nil
}

func sampleRequest() content.Request {
	return content.Request{
		LanguageCode: "en-US",
		VoiceName:    "en-US-Standard-A",
		Items: []content.Item{
			{Type: content.ItemImage, URL: "https://example.com/a.png", Text: "Hello there."},
		},
	}
}

func newDaemon(t *testing.T, cfg *config.Config, renderer daemon.Renderer) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	d, err := daemon.New(cfg, store, renderer, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newDaemon(t, cfg, &fakeRenderer{outDir: cfg.Paths.OutputDir})

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status(ctx).Running {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	other, _ := newDaemon(t, cfg, &fakeRenderer{})
	if err := other.Start(ctx); err == nil {
		t.Fatal("expected lock contention for a second instance")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	if err := other.Start(ctx); err != nil {
		t.Fatalf("expected lock to be free after Stop: %v", err)
	}
}

func TestStartReconcilesPreviousRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, store := newDaemon(t, cfg, &fakeRenderer{})
	ctx := context.Background()

	testsupport.NewJob(t, store, "leftover", "sentences")
	orphan := filepath.Join(cfg.Paths.WorkDir, "leftover")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	job, err := store.Get(ctx, "leftover")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != queue.StatusFailed || job.ErrorMessage != queue.DaemonStopReason {
		t.Fatalf("expected interrupted job to fail, got %+v", job)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatal("expected orphaned work directory to be removed")
	}
}

func TestSubmitRecordsCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	renderer := &fakeRenderer{outDir: cfg.Paths.OutputDir}
	d, store := newDaemon(t, cfg, renderer)
	ctx := context.Background()

	result, err := d.Submit(ctx, sampleRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(result.RequestID) != 32 || renderer.ids[0] != result.RequestID {
		t.Fatalf("unexpected request id %q (renderer saw %v)", result.RequestID, renderer.ids)
	}
	job, err := store.Get(ctx, result.RequestID)
	if err != nil || job == nil {
		t.Fatalf("Get: %+v %v", job, err)
	}
	if job.Status != queue.StatusCompleted || job.DurationSeconds != 4.2 || job.Preset != "sentences" {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.ProgressStage != pipeline.StageCompose || job.ItemCount != 1 {
		t.Fatalf("expected last progress to be recorded, got %+v", job)
	}
}

func TestSubmitRecordsFailureKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	renderer := &fakeRenderer{err: services.Wrap(services.ErrDownload, "acquire", "fetch media", "status 404", nil)}
	d, store := newDaemon(t, cfg, renderer)
	ctx := context.Background()

	result, err := d.Submit(ctx, sampleRequest())
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error, got %v", err)
	}
	job, _ := store.Get(ctx, result.RequestID)
	if job == nil || job.Status != queue.StatusFailed || job.ErrorKind != "download" {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestSubmitWaitsForRenderSlot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Daemon.MaxConcurrentJobs = 1
	renderer := &fakeRenderer{
		outDir:  cfg.Paths.OutputDir,
		started: make(chan string, 2),
		release: make(chan struct{}),
	}
	d, store := newDaemon(t, cfg, renderer)

	firstDone := make(chan error, 1)
	go func() {
		_, err := d.Submit(context.Background(), sampleRequest())
		firstDone <- err
	}()
	select {
	case <-renderer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first render never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	result, err := d.Submit(ctx, sampleRequest())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected admission timeout, got %v", err)
	}
	if services.HTTPStatus(err) != 504 {
		t.Fatalf("expected 504 mapping, got %d", services.HTTPStatus(err))
	}
	job, _ := store.Get(context.Background(), result.RequestID)
	if job == nil || job.Status != queue.StatusFailed || job.ErrorKind != "timeout" {
		t.Fatalf("unexpected queued job %+v", job)
	}

	close(renderer.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if status := d.Status(context.Background()); status.ActiveJobs != 0 || status.MaxJobs != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestSweepRemovesStaleWorkDirs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Daemon.StaleWorkDirMinutes = 1
	d, _ := newDaemon(t, cfg, &fakeRenderer{})

	stale := filepath.Join(cfg.Paths.WorkDir, "stale")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result := d.Sweep(context.Background())
	if len(result.Removed) != 1 || result.Removed[0] != stale {
		t.Fatalf("unexpected sweep result %+v", result)
	}
}

func TestSubmitSendsNotification(t *testing.T) {
	bodies := make(chan string, 2)
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- r.Header.Get("Title") + "|" + string(body)
	}))
	defer ntfy.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ntfy.URL
	d, _ := newDaemon(t, cfg, &fakeRenderer{outDir: cfg.Paths.OutputDir})

	result, err := d.Submit(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case body := <-bodies:
		if !strings.HasPrefix(body, "reelforge - Video Ready|") || !strings.Contains(body, result.RequestID+".mp4") {
			t.Fatalf("unexpected notification %q", body)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("notification not delivered")
	}
}
