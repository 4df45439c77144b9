package daemon

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"reelforge/internal/logging"
)

// Serve runs the HTTP API and the janitor until ctx is cancelled or either
// fails. Start must have succeeded first. When ready is non-nil it receives
// the bound address once the listener is up.
func (d *Daemon) Serve(ctx context.Context, ready chan<- string) error {
	server := newAPIServer(d.cfg, d, d.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.serve(gctx, ready)
	})
	g.Go(func() error {
		d.janitor(gctx)
		return nil
	})
	return g.Wait()
}

func (d *Daemon) janitor(ctx context.Context) {
	interval := time.Duration(d.cfg.Daemon.JanitorIntervalSeconds) * time.Second
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := d.Sweep(ctx)
			if len(result.Removed) > 0 || len(result.Errors) > 0 {
				d.logger.Info("janitor pass complete",
					logging.Int("removed", len(result.Removed)),
					logging.Int("errors", len(result.Errors)),
					logging.String(logging.FieldEventType, "janitor_pass"),
				)
			}
		}
	}
}
