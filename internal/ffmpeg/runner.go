package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/media/ffprobe"
)

// Executor abstracts subprocess execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout []byte, stderr []byte, err error)
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogger attaches a logger for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner invokes ffmpeg and ffprobe with a per-call timeout. It holds only
// immutable configuration and is safe for concurrent use.
type Runner struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// NewRunner constructs a runner. A zero timeout leaves calls bounded only by ctx.
func NewRunner(ffmpegBinary, ffprobeBinary string, timeout time.Duration, opts ...Option) *Runner {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	r := &Runner{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		timeout: timeout,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes ffmpeg with the given arguments. The standard quiet, non-interactive
// flags are prepended. Failures are returned as *CommandError.
func (r *Runner) Run(ctx context.Context, args []string) error {
	full := append([]string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y"}, args...)
	_, err := r.invoke(ctx, r.ffmpeg, full)
	return err
}

// Probe inspects a media file with ffprobe.
func (r *Runner) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	if strings.TrimSpace(path) == "" {
		return ffprobe.Result{}, errors.New("ffprobe: empty path")
	}
	stdout, err := r.invoke(ctx, r.ffprobe, ffprobe.Args(path))
	if err != nil {
		return ffprobe.Result{}, err
	}
	return ffprobe.Parse(stdout)
}

// Duration returns the playable duration of path in seconds.
func (r *Runner) Duration(ctx context.Context, path string) (float64, error) {
	result, err := r.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.PlayableDuration()
}

func (r *Runner) invoke(ctx context.Context, binary string, args []string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	started := time.Now()
	logging.WithContext(ctx, r.logger).Debug("running command",
		logging.String("binary", binary),
		logging.String("command", strings.Join(args, " ")),
	)
	stdout, stderr, err := r.exec.Run(ctx, binary, args)
	if err == nil {
		logging.WithContext(ctx, r.logger).Debug("command finished",
			logging.String("binary", binary),
			logging.Duration("elapsed", time.Since(started)),
		)
		return stdout, nil
	}
	cmdErr := &CommandError{
		Binary:   binary,
		Args:     append([]string(nil), args...),
		ExitCode: -1,
		Stderr:   tail(stderr, stderrTailBytes),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		cmdErr.Err = fmt.Errorf("%w (%w)", ctxErr, err)
	}
	return nil, cmdErr
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
