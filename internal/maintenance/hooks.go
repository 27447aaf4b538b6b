package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Cleaner deletes fingerprints last written before cutoff.
type Cleaner interface {
	Cleanup(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleanup purges fingerprints older than retention, measured from now.
// Called by the ticker and by `outagectl cleanup`.
func Cleanup(ctx context.Context, cleaner Cleaner, retention time.Duration, now time.Time, logger *slog.Logger) (int64, error) {
	cutoff := now.Add(-retention)
	start := time.Now()
	n, err := cleaner.Cleanup(ctx, cutoff)
	dur := time.Since(start).Round(time.Millisecond)

	if err != nil {
		logger.Warn("Cleanup: failed to purge fingerprints", "cutoff", cutoff, "duration", dur, "error", err)
		return 0, fmt.Errorf("purge fingerprints: %w", err)
	}
	if n > 0 {
		logger.Info("Cleanup: purged fingerprints", "count", n, "cutoff", cutoff, "duration", dur)
	}
	return n, nil
}
