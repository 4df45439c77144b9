package compose

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// Runner executes ffmpeg with prepared arguments.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// Compositor encodes segments with a shared profile.
type Compositor struct {
	runner  Runner
	profile Profile
	logger  *slog.Logger
}

// New constructs a compositor.
func New(runner Runner, profile Profile, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Compositor{runner: runner, profile: profile, logger: logger}
}

// Profile returns the encoding profile.
func (c *Compositor) Profile() Profile {
	return c.profile
}

// Compose renders seg to seg.Output. Failures carry services.ErrComposition.
func (c *Compositor) Compose(ctx context.Context, seg Segment) error {
	plan, err := BuildPlan(seg, c.profile)
	if err != nil {
		return services.Wrap(services.ErrComposition, "compose", "plan", "", err)
	}
	started := time.Now()
	if err := c.runner.Run(ctx, plan.Args()); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "compose", "encode", seg.Output, errors.Join(services.ErrComposition, err))
		}
		return services.Wrap(services.ErrComposition, "compose", "encode", seg.Output, err)
	}
	logging.WithContext(ctx, c.logger).Info("segment composed",
		logging.String("output", seg.Output),
		logging.String("media_kind", string(seg.Media.Kind)),
		logging.Int("cues", len(seg.Cues)),
		logging.Float64("duration_seconds", seg.TotalDuration()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
