package worker

import (
	"context"
	"log/slog"
	"time"
)

// ResyncConfig holds configuration for the periodic full resync.
type ResyncConfig struct {
	// Interval between full resyncs (default: 15m)
	Interval time.Duration
	// RunOnStart triggers a resync before the first tick (default: true)
	RunOnStart bool
}

func DefaultResyncConfig() ResyncConfig {
	return ResyncConfig{
		Interval:   15 * time.Minute,
		RunOnStart: true,
	}
}

// Resyncer is implemented by SyncWorker.
type Resyncer interface {
	FullResync(ctx context.Context) error
}

// RunResyncLoop calls FullResync on every tick until ctx is done. Failed
// resyncs are logged and retried on the next tick.
func RunResyncLoop(ctx context.Context, r Resyncer, cfg ResyncConfig) error {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultResyncConfig().Interval
	}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Resync loop started", "interval", cfg.Interval)

	if cfg.RunOnStart {
		resyncOnce(ctx, r)
	}
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Resync loop stopped")
			return nil
		case <-ticker.C:
			resyncOnce(ctx, r)
		}
	}
}

func resyncOnce(ctx context.Context, r Resyncer) {
	if err := r.FullResync(ctx); err != nil {
		slog.ErrorContext(ctx, "Full resync failed", "error", err)
	}
}
