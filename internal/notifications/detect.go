package notifications

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/powerwatch/outage-notifier/internal/schedule"
)

// Detector decides whether a parsed schedule is news for a user.
type Detector struct {
	store FingerprintStore
}

func NewDetector(store FingerprintStore) *Detector {
	return &Detector{store: store}
}

// ShouldNotify compares intervals with the stored fingerprint for
// (userID, date) and records the new one unless it is unchanged.
//
// With nothing stored, tomorrow's schedule is FirstSeen (announce it) while
// today's is a silent Baseline: users already know today's schedule by the
// time the process first sees it.
func (d *Detector) ShouldNotify(ctx context.Context, userID int64, day schedule.Day, date string, intervals []schedule.Interval) (Detection, error) {
	fp := Fingerprint(intervals)

	prev, ok, err := d.store.Fingerprint(ctx, userID, date)
	if err != nil {
		return Detection{}, fmt.Errorf("read fingerprint: %w", err)
	}

	var decision Decision
	switch {
	case !ok && day == schedule.Tomorrow:
		decision = FirstSeen
	case !ok:
		decision = Baseline
	case prev == fp:
		return Detection{Decision: Unchanged, Fingerprint: fp}, nil
	default:
		decision = Changed
	}

	if err := d.store.SetFingerprint(ctx, userID, date, fp); err != nil {
		return Detection{}, fmt.Errorf("write fingerprint: %w", err)
	}
	return Detection{Decision: decision, Fingerprint: fp}, nil
}

// Fingerprint hashes intervals independent of their order.
func Fingerprint(intervals []schedule.Interval) string {
	sorted := schedule.Sorted(intervals)
	parts := make([]string, len(sorted))
	for i, iv := range sorted {
		parts[i] = iv.String()
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}
