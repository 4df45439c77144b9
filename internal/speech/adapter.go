package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/services/googletts"
)

// Synthesizer produces encoded audio for one utterance.
type Synthesizer interface {
	Synthesize(ctx context.Context, req googletts.Request) ([]byte, error)
}

// Prober measures the playable duration of an audio file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Utterance is one narration chunk with its voice settings.
type Utterance struct {
	Text         string
	LanguageCode string
	VoiceName    string
	SpeakingRate float64
}

// Clip is a synthesized audio file on disk.
type Clip struct {
	Path     string
	Duration float64
	Bytes    int
}

// Adapter turns text into audio files with measured durations.
type Adapter struct {
	synth   Synthesizer
	prober  Prober
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter wires a synthesizer and a duration prober. A zero timeout
// leaves each call bounded only by ctx.
func NewAdapter(synth Synthesizer, prober Prober, timeout time.Duration, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Adapter{synth: synth, prober: prober, timeout: timeout, logger: logger}
}

// Extension returns the file extension matching an API audio encoding.
func Extension(encoding string) string {
	switch strings.ToUpper(strings.TrimSpace(encoding)) {
	case "LINEAR16":
		return ".wav"
	case "OGG_OPUS":
		return ".ogg"
	default:
		return ".mp3"
	}
}

// Synthesize writes the audio for u to dest and probes its duration.
// Any failure is reported under services.ErrSynthesis.
func (a *Adapter) Synthesize(ctx context.Context, u Utterance, dest string) (Clip, error) {
	if strings.TrimSpace(u.Text) == "" {
		return Clip{}, services.Wrap(services.ErrSynthesis, "synthesis", "validate", "empty narration text", nil)
	}
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	audio, err := a.synth.Synthesize(callCtx, googletts.Request{
		Text:         u.Text,
		LanguageCode: u.LanguageCode,
		VoiceName:    u.VoiceName,
		SpeakingRate: u.SpeakingRate,
	})
	if err != nil {
		return Clip{}, wrapSynthesis("request audio", err)
	}
	if len(audio) == 0 {
		return Clip{}, services.Wrap(services.ErrSynthesis, "synthesis", "request audio", "provider returned no audio", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Clip{}, wrapSynthesis("write audio", err)
	}
	if err := os.WriteFile(dest, audio, 0o644); err != nil {
		return Clip{}, wrapSynthesis("write audio", err)
	}

	duration, err := a.prober.Duration(ctx, dest)
	if err != nil {
		return Clip{}, wrapSynthesis("probe audio", err)
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return Clip{}, services.Wrap(services.ErrSynthesis, "synthesis", "probe audio",
			fmt.Sprintf("invalid duration %v for %s", duration, filepath.Base(dest)), nil)
	}

	logging.WithContext(ctx, a.logger).Debug("narration synthesized",
		logging.String("audio_path", dest),
		logging.Float64("duration_seconds", duration),
		logging.Int("bytes", len(audio)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Clip{Path: dest, Duration: duration, Bytes: len(audio)}, nil
}

func wrapSynthesis(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "synthesis", operation, "", fmt.Errorf("%w: %w", services.ErrSynthesis, err))
	}
	return services.Wrap(services.ErrSynthesis, "synthesis", operation, "", err)
}
