package notifications

import "context"

// FingerprintStore persists the last seen fingerprint per (user, date).
// Implementations must be safe for concurrent use.
type FingerprintStore interface {
	// Fingerprint returns ok == false when nothing is stored.
	Fingerprint(ctx context.Context, userID int64, date string) (fp string, ok bool, err error)
	SetFingerprint(ctx context.Context, userID int64, date, fp string) error
}

// HandleStore persists the last delivered message per user.
type HandleStore interface {
	// LastMessage returns nil when the user has no live handle.
	LastMessage(ctx context.Context, userID int64) (*Handle, error)
	SetLastMessage(ctx context.Context, h Handle) error
}

// SubscriberStore lists users with notifications enabled.
type SubscriberStore interface {
	Subscribers(ctx context.Context) ([]int64, error)
}
