package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/image/font/opentype"

	"reelforge/internal/config"
	"reelforge/internal/ffmpeg"
	"reelforge/internal/logging"
	"reelforge/internal/media/fetch"
	"reelforge/internal/services"
	"reelforge/internal/services/googletts"
	"reelforge/internal/speech"
	"reelforge/internal/subtitles"
	"reelforge/internal/timeline"
)

func loadFont(path string) (*opentype.Font, error) {
	return subtitles.LoadFont(path)
}

// NewFromConfig wires the production collaborators: the Cloud TTS client,
// the HTTP acquirer, and the ffmpeg runner shared by compositing and
// assembly.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.RequireSpeechCredentials(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "startup", "speech credentials", "", err)
	}
	client, err := googletts.NewClient(ctx, googletts.Config{
		APIKey:          cfg.Speech.APIKey,
		CredentialsFile: cfg.Speech.CredentialsFile,
		BaseURL:         cfg.Speech.BaseURL,
		AudioEncoding:   cfg.Speech.AudioEncoding,
		TimeoutSeconds:  cfg.Speech.TimeoutSeconds,
		RetryAttempts:   cfg.Speech.RetryAttempts,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "startup", "speech client", "", err)
	}

	runner := ffmpeg.NewRunner(cfg.Encoder.FFmpegBinary, cfg.Encoder.FFprobeBinary, cfg.EncoderTimeout(),
		ffmpeg.WithLogger(logging.NewComponentLogger(logger, "ffmpeg")))

	p := New(cfg, Dependencies{
		Speech:    speech.NewAdapter(client, runner, cfg.SpeechTimeout(), logging.NewComponentLogger(logger, "speech")),
		Encoder:   runner,
		Assembler: timeline.New(runner, logging.NewComponentLogger(logger, "timeline")),
	}, logger, opts...)
	p.deps.Fetcher = fetch.New(fetch.Options{
		Timeout:       cfg.FetchTimeout(),
		LogoTimeout:   cfg.LogoFetchTimeout(),
		RetryAttempts: cfg.Fetch.RetryAttempts,
		MaxBytes:      cfg.Fetch.MaxBytes,
		UserAgent:     cfg.Fetch.UserAgent,
		AllowLocal:    p.allowLocal,
	}, logging.NewComponentLogger(logger, "fetch"))
	return p, nil
}
