// Package maintenance runs periodic background tasks as Go tickers.
// Retention of change-detection state is driven from the service itself
// rather than from database cron jobs, so the memory backend gets it too.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Config controls maintenance task intervals. Zero fields take the
// DefaultConfig value; a negative interval disables the task.
type Config struct {
	CleanupInterval time.Duration // Fingerprint retention sweep
	Retention       time.Duration // Fingerprints older than this are purged
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 6 * time.Hour,
		Retention:       14 * 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CleanupInterval == 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	if c.Retention == 0 {
		c.Retention = def.Retention
	}
	return c
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled and always returns nil, so it can run under an errgroup.
func Start(ctx context.Context, cleaner Cleaner, cfg Config, logger *slog.Logger) error {
	cfg = cfg.withDefaults()
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"retention", cfg.Retention)

	if cfg.CleanupInterval > 0 && cfg.Retention > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, func() {
			_, _ = Cleanup(ctx, cleaner, cfg.Retention, time.Now(), logger)
		})
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
	return nil
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
