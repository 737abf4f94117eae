package scheduler

import (
	"context"
	"time"
)

const DefaultInterval = time.Minute

// Loop ticks once immediately and then every interval until ctx is done.
// Tick errors are logged by Tick itself; the loop only stops on cancellation.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r.log.Infow("scheduler started", "interval", interval, "workers", r.workers)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			r.log.Warnw("tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.log.Infow("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}
