package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/fileutil"
	"reelforge/internal/filtergraph"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// Runner runs ffmpeg and probes durations.
type Runner interface {
	Run(ctx context.Context, args []string) error
	Duration(ctx context.Context, path string) (float64, error)
}

// Assembler joins encoded segments and extracts preview frames.
type Assembler struct {
	runner Runner
	logger *slog.Logger
}

// New constructs an assembler.
func New(runner Runner, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{runner: runner, logger: logger}
}

// Manifest renders the concat demuxer list for segments. Paths are made
// absolute and single quotes are escaped.
func Manifest(segments []string) (string, error) {
	var b strings.Builder
	for _, segment := range segments {
		abs, err := filepath.Abs(segment)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", segment, err)
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String(), nil
}

// Assemble writes the manifest and joins segments into output without
// re-encoding. Failures carry services.ErrAssembly.
func (a *Assembler) Assemble(ctx context.Context, segments []string, manifestPath, output string) error {
	if len(segments) == 0 {
		return services.Wrap(services.ErrAssembly, "assemble", "concat", "no segments to assemble", nil)
	}
	manifest, err := Manifest(segments)
	if err != nil {
		return services.Wrap(services.ErrAssembly, "assemble", "manifest", "", err)
	}
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		return services.Wrap(services.ErrAssembly, "assemble", "manifest", "", err)
	}
	args := []string{"-f", "concat", "-safe", "0", "-i", manifestPath, "-c", "copy", "-movflags", "+faststart", output}
	if err := a.runner.Run(ctx, args); err != nil {
		return wrapAssembly("concat", output, err)
	}
	if !fileutil.NonEmpty(output) {
		return services.Wrap(services.ErrAssembly, "assemble", "concat", "output missing or empty: "+output, nil)
	}
	logging.WithContext(ctx, a.logger).Info("timeline assembled",
		logging.Int("segments", len(segments)),
		logging.String("output", output),
	)
	return nil
}

// ThumbnailOffset picks the frame time for a video of the given length:
// one second in, or the midpoint of shorter videos.
func ThumbnailOffset(duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) {
		return 0
	}
	return math.Min(1.0, duration/2)
}

// Thumbnail writes a single JPEG frame of video to output.
func (a *Assembler) Thumbnail(ctx context.Context, video, output string) error {
	duration, err := a.runner.Duration(ctx, video)
	if err != nil {
		return wrapAssembly("thumbnail probe", video, err)
	}
	offset := ThumbnailOffset(duration)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return services.Wrap(services.ErrAssembly, "assemble", "thumbnail", "", err)
	}
	args := []string{"-ss", filtergraph.FormatSeconds(offset), "-i", video, "-frames:v", "1", "-q:v", "2", output}
	if err := a.runner.Run(ctx, args); err != nil {
		return wrapAssembly("thumbnail", output, err)
	}
	if !fileutil.NonEmpty(output) {
		return services.Wrap(services.ErrAssembly, "assemble", "thumbnail", "no frame written to "+output, nil)
	}
	return nil
}

func wrapAssembly(operation, target string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "assemble", operation, target, errors.Join(services.ErrAssembly, err))
	}
	return services.Wrap(services.ErrAssembly, "assemble", operation, target, err)
}
