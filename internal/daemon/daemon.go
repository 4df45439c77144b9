package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/pipeline"
	"reelforge/internal/preflight"
	"reelforge/internal/queue"
	"reelforge/internal/services"
	"reelforge/internal/staging"
)

// Renderer runs one request to completion under the given request id,
// reporting stage transitions to observer.
type Renderer interface {
	Render(ctx context.Context, id string, req content.Request, observer pipeline.Observer) (pipeline.Result, error)
}

// PipelineRenderer adapts a pipeline to Renderer.
func PipelineRenderer(p *pipeline.Pipeline) Renderer {
	return pipelineRenderer{p: p}
}

type pipelineRenderer struct {
	p *pipeline.Pipeline
}

func (r pipelineRenderer) Render(ctx context.Context, id string, req content.Request, observer pipeline.Observer) (pipeline.Result, error) {
	return r.p.Run(ctx, req, pipeline.WithRequestID(id), pipeline.WithObserver(observer))
}

// Daemon coordinates request admission and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	renderer Renderer
	events   *eventHub
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	slots   *semaphore.Weighted
	maxJobs int

	activeMu sync.Mutex
	active   map[string]struct{}

	running atomic.Bool
	now     func() time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	ActiveJobs   int
	MaxJobs      int
	Jobs         queue.HealthSummary
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, renderer Renderer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || renderer == nil {
		return nil, errors.New("daemon requires config, store, and renderer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		renderer: renderer,
		events:   newEventHub(),
		notifier: notifications.NewService(cfg),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		maxJobs:  cfg.Daemon.MaxConcurrentJobs,
		active:   make(map[string]struct{}),
		now:      time.Now,
	}
	if d.maxJobs > 0 {
		d.slots = semaphore.NewWeighted(int64(d.maxJobs))
	}
	return d, nil
}

// Start acquires the daemon lock and reconciles state left by a previous
// process: unfinished jobs are failed and their work directories removed.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelforge daemon instance is already running")
	}

	interrupted, err := d.store.FailInterrupted(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("reconcile interrupted jobs: %w", err)
	}
	if interrupted > 0 {
		logging.WarnWithContext(d.logger, "marked interrupted jobs as failed", "jobs_interrupted",
			logging.Int64("count", interrupted),
			logging.String(logging.FieldErrorHint, "resubmit the affected requests"),
			logging.String(logging.FieldImpact, "jobs from the previous daemon produced no video"),
		)
	}
	staging.CleanOrphaned(ctx, d.cfg.Paths.WorkDir, d.activeIDs(), d.logger)

	d.running.Store(true)
	d.logger.Info("reelforge daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("max_concurrent_jobs", d.maxJobs),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start reports a running instance"),
		)
	}
	d.events.close()
	d.running.Store(false)
	d.logger.Info("reelforge daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Submit records a job for req, waits for a render slot, and renders it on
// the caller's goroutine. The returned result carries the request id even on
// failure.
func (d *Daemon) Submit(ctx context.Context, req content.Request) (pipeline.Result, error) {
	id := pipeline.NewRequestID()
	started := d.now()
	presetName := strings.TrimSpace(req.Preset)
	if preset, err := d.cfg.Preset(req.Preset); err == nil {
		presetName = preset.Name
	}
	if _, err := d.store.Create(ctx, id, presetName, req.LanguageCode, len(req.Items)); err != nil {
		return pipeline.Result{RequestID: id}, fmt.Errorf("record job: %w", err)
	}
	d.publish(api.Event{Type: api.EventAccepted, RequestID: id, Status: string(queue.StatusPending), Items: len(req.Items)})

	if d.slots != nil {
		if err := d.slots.Acquire(ctx, 1); err != nil {
			err = services.Wrap(services.ErrTimeout, "admission", "wait for render slot", "", err)
			d.finish(id, started, pipeline.Result{}, err)
			return pipeline.Result{RequestID: id}, err
		}
		defer d.slots.Release(1)
	}

	d.track(id, true)
	defer d.track(id, false)

	if err := d.store.MarkProcessing(ctx, id); err != nil {
		d.logger.Warn("mark job processing failed", logging.String(logging.FieldRequestID, id), logging.Error(err))
	}
	result, err := d.renderer.Render(ctx, id, req, d.observe)
	result.RequestID = id
	d.finish(id, started, result, err)
	return result, err
}

func (d *Daemon) observe(p pipeline.Progress) {
	// The request context may already be cancelled; bookkeeping uses its own.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.store.UpdateProgress(ctx, p.RequestID, p.Stage, p.Item, p.Message); err != nil {
		d.logger.Debug("progress update skipped", logging.String(logging.FieldRequestID, p.RequestID), logging.Error(err))
	}
	d.events.publish(api.FromProgress(p, d.now()))
}

func (d *Daemon) finish(id string, started time.Time, result pipeline.Result, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if runErr != nil {
		kind := services.Kind(runErr)
		if err := d.store.Fail(ctx, id, kind, runErr.Error()); err != nil {
			d.logger.Warn("record job failure failed", logging.String(logging.FieldRequestID, id), logging.Error(err))
		}
		d.publish(api.Event{Type: api.EventFailed, RequestID: id, Status: string(queue.StatusFailed), ErrorKind: kind, Message: runErr.Error()})
		d.notify(notifications.RenderSummary{
			RequestID: id,
			Elapsed:   d.now().Sub(started),
			ErrorKind: kind,
			Error:     runErr.Error(),
		})
		return
	}
	duration := time.Duration(result.Duration * float64(time.Second))
	if err := d.store.Complete(ctx, id, result.VideoPath, result.ThumbnailPath, duration); err != nil {
		d.logger.Warn("record job completion failed", logging.String(logging.FieldRequestID, id), logging.Error(err))
	}
	d.publish(api.Event{Type: api.EventCompleted, RequestID: id, Status: string(queue.StatusCompleted), Duration: result.Duration})
	d.notify(notifications.RenderSummary{
		RequestID: id,
		Preset:    result.Preset,
		VideoPath: result.VideoPath,
		Duration:  duration,
		Elapsed:   d.now().Sub(started),
	})
}

// notify delivers the outcome on its own goroutine.
func (d *Daemon) notify(summary notifications.RenderSummary) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var err error
		if summary.ErrorKind != "" {
			err = d.notifier.NotifyRenderFailed(ctx, summary)
		} else {
			err = d.notifier.NotifyRenderCompleted(ctx, summary)
		}
		if err != nil {
			logging.WarnWithContext(d.logger, "render notification failed", "notification_failed",
				logging.String(logging.FieldRequestID, summary.RequestID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}()
}

func (d *Daemon) publish(evt api.Event) {
	if evt.Timestamp == "" {
		evt.Timestamp = api.FormatTime(d.now())
	}
	d.events.publish(evt)
}

func (d *Daemon) track(id string, add bool) {
	d.activeMu.Lock()
	defer d.activeMu.Unlock()
	if add {
		d.active[id] = struct{}{}
		return
	}
	delete(d.active, id)
}

func (d *Daemon) activeIDs() map[string]struct{} {
	d.activeMu.Lock()
	defer d.activeMu.Unlock()
	ids := make(map[string]struct{}, len(d.active))
	for id := range d.active {
		ids[id] = struct{}{}
	}
	return ids
}

// Sweep runs one janitor pass: stale work directories and expired log files.
func (d *Daemon) Sweep(ctx context.Context) staging.CleanStaleResult {
	maxAge := time.Duration(d.cfg.Daemon.StaleWorkDirMinutes) * time.Minute
	result := staging.CleanStale(ctx, d.cfg.Paths.WorkDir, maxAge, d.activeIDs(), d.logger)
	logging.CleanupOldLogs(d.logger, d.cfg.Paths.LogDir, "", d.cfg.Logging.RetentionDays)
	return result
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	jobs, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("job stats unavailable", logging.Error(err))
	}
	d.activeMu.Lock()
	active := len(d.active)
	d.activeMu.Unlock()
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		ActiveJobs:   active,
		MaxJobs:      d.maxJobs,
		Jobs:         jobs,
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
}
