package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/font/opentype"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/media/fetch"
	"reelforge/internal/media/ffprobe"
	"reelforge/internal/services"
	"reelforge/internal/speech"
)

// Stage names reported to observers and attached to log records.
const (
	StageValidate = "validate"
	StageAcquire  = "acquire"
	StageNarrate  = "narrate"
	StageCompose  = "compose"
	StageAssemble = "assemble"
	StageFinalize = "finalize"
)

// Synthesizer turns a narration chunk into an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, u speech.Utterance, dest string) (speech.Clip, error)
}

// Acquirer stores remote or local assets in the work directory.
type Acquirer interface {
	Fetch(ctx context.Context, source string, kind fetch.Kind, dir, name string) (string, error)
}

// Encoder runs ffmpeg and probes media with ffprobe.
type Encoder interface {
	Run(ctx context.Context, args []string) error
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
	Duration(ctx context.Context, path string) (float64, error)
}

// Assembler joins segments and extracts the thumbnail.
type Assembler interface {
	Assemble(ctx context.Context, segments []string, manifestPath, output string) error
	Thumbnail(ctx context.Context, video, output string) error
}

// Dependencies are the external collaborators of a pipeline.
type Dependencies struct {
	Speech    Synthesizer
	Fetcher   Acquirer
	Encoder   Encoder
	Assembler Assembler
}

// Progress describes a stage transition within one request.
type Progress struct {
	RequestID string
	Stage     string
	Item      int
	Items     int
	Message   string
}

// Observer receives progress callbacks. It runs on the request goroutine and
// must not block.
type Observer func(Progress)

// Result describes a finished render.
type Result struct {
	RequestID     string  `json:"request_id"`
	Preset        string  `json:"preset"`
	VideoPath     string  `json:"video_path"`
	ThumbnailPath string  `json:"thumbnail_path"`
	Duration      float64 `json:"duration_seconds"`
	Segments      int     `json:"segments"`
}

// RunOption customizes a single Run call.
type RunOption func(*runOptions)

type runOptions struct {
	requestID string
	observer  Observer
}

// WithRequestID fixes the request id instead of generating one.
func WithRequestID(id string) RunOption {
	return func(o *runOptions) { o.requestID = strings.TrimSpace(id) }
}

// WithObserver registers a progress callback.
func WithObserver(observer Observer) RunOption {
	return func(o *runOptions) { o.observer = observer }
}

// Pipeline renders content requests into finished videos. One Pipeline is
// shared by all requests; per-request state lives in Run.
type Pipeline struct {
	cfg        *config.Config
	deps       Dependencies
	logger     *slog.Logger
	allowLocal bool

	fontMu sync.Mutex
	fonts  map[string]*opentype.Font
}

// Option customizes the pipeline.
type Option func(*Pipeline)

// WithLocalFiles lets requests reference files on the local filesystem.
func WithLocalFiles(allow bool) Option {
	return func(p *Pipeline) { p.allowLocal = allow }
}

// New constructs a pipeline from explicit dependencies.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		fonts:  make(map[string]*opentype.Font),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewRequestID returns a fresh identifier used for work directories and
// output file names.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Run executes every stage for req. On any failure the request's work
// directory is removed and no final outputs remain.
func (p *Pipeline) Run(ctx context.Context, req content.Request, opts ...RunOption) (Result, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.requestID == "" {
		ro.requestID = NewRequestID()
	}
	run := &requestRun{
		p:        p,
		req:      req,
		id:       ro.requestID,
		observer: ro.observer,
		started:  time.Now(),
	}
	ctx = services.WithRequestID(ctx, run.id)
	run.logger = logging.WithContext(ctx, p.logger)

	result, err := run.execute(ctx)
	if err != nil {
		logging.ErrorWithContext(run.logger, "render failed", "request_failed",
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldStage, run.stage),
			logging.Error(err),
		)
		return Result{RequestID: run.id}, err
	}
	run.logger.Info("render completed",
		logging.String(logging.FieldEventType, "request_completed"),
		logging.String("video_path", result.VideoPath),
		logging.Float64("duration_seconds", result.Duration),
		logging.Int("segments", result.Segments),
		logging.Duration("elapsed", time.Since(run.started)),
	)
	return result, nil
}

func (p *Pipeline) font(path string) (*opentype.Font, error) {
	p.fontMu.Lock()
	defer p.fontMu.Unlock()
	if f, ok := p.fonts[path]; ok {
		return f, nil
	}
	f, err := loadFont(path)
	if err != nil {
		return nil, err
	}
	p.fonts[path] = f
	return f, nil
}

func removeQuietly(logger *slog.Logger, path, what string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "cleanup failed", "cleanup_failed",
			logging.String("path", path),
			logging.String("target", what),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale files remain on disk"),
			logging.String(logging.FieldErrorHint, "remove the path manually or let the janitor sweep it"),
		)
	}
}

func stageError(marker error, stage, operation string, err error) error {
	if err == nil {
		return nil
	}
	var already bool
	for _, m := range []error{services.ErrValidation, services.ErrDownload, services.ErrSynthesis,
		services.ErrComposition, services.ErrAssembly, services.ErrTimeout} {
		if errors.Is(err, m) {
			already = true
			break
		}
	}
	if already {
		return err
	}
	return services.Wrap(marker, stage, operation, "", err)
}

func assetName(prefix string, parts ...int) string {
	name := prefix
	for _, part := range parts {
		name += fmt.Sprintf("_%03d", part)
	}
	return name
}

func workPath(dir, name string) string {
	return filepath.Join(dir, name)
}
