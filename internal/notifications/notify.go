// Package notifications turns published outage schedules into per-user chat
// messages.
//
// Pipeline: fetch documents → resolve each subscriber's group → parse →
// detect changes against the stored fingerprint → deliver (edit or send).
// A Scheduler drives passes on a timer and fires the two daily digests.
package notifications

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultCheckInterval = 5 * time.Minute
	// A digest trigger missed by more than this (process down, long pass)
	// is skipped for the day.
	digestGrace = 30 * time.Minute
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Decision is the change detector's verdict for one (user, date).
type Decision int

const (
	Unchanged Decision = iota
	Baseline           // first sight of today's schedule: recorded silently
	FirstSeen          // first sight of tomorrow's schedule
	Changed
)

func (d Decision) String() string {
	switch d {
	case Baseline:
		return "baseline"
	case FirstSeen:
		return "first_seen"
	case Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

// Notify reports whether the decision warrants a message on its own.
func (d Decision) Notify() bool {
	return d == FirstSeen || d == Changed
}

// Detection is a decision plus the fingerprint it was made against.
type Detection struct {
	Decision    Decision
	Fingerprint string
}

// Kind selects the message header.
type Kind int

const (
	KindFirstSeen Kind = iota
	KindChanged
	KindDigest
	KindOnDemand
)

func (k Kind) String() string {
	switch k {
	case KindChanged:
		return "changed"
	case KindDigest:
		return "digest"
	case KindOnDemand:
		return "on_demand"
	default:
		return "first_seen"
	}
}

// Handle is the last message delivered to a user, kept so a later update
// for the same date can edit it in place. One live handle per user.
type Handle struct {
	UserID    int64
	MessageID int64
	Date      string
}

// PassMode selects what a scheduler pass does beyond change detection.
type PassMode int

const (
	ModeRegular PassMode = iota
	ModeDigestToday
	ModeDigestTomorrow
)

func (m PassMode) String() string {
	switch m {
	case ModeDigestToday:
		return "digest_today"
	case ModeDigestTomorrow:
		return "digest_tomorrow"
	default:
		return "regular"
	}
}

// ParsePassMode accepts "", "regular", "today", "tomorrow" and the
// String forms.
func ParsePassMode(s string) (PassMode, error) {
	switch s {
	case "", "regular":
		return ModeRegular, nil
	case "today", "digest_today":
		return ModeDigestToday, nil
	case "tomorrow", "digest_tomorrow":
		return ModeDigestTomorrow, nil
	}
	return ModeRegular, fmt.Errorf("unknown pass mode %q", s)
}

// PassResult summarizes one pass over all subscribers.
type PassResult struct {
	ID                string
	Mode              PassMode
	StartedAt         time.Time
	Duration          time.Duration
	TodayAvailable    bool
	TomorrowAvailable bool
	Users             int
	Delivered         int
	Failures          int
	Skipped           int // no resolvable context
	ParseMisses       int
	Interrupted       bool
}

func (r PassResult) String() string {
	return fmt.Sprintf("pass %s (%s): users=%d delivered=%d failures=%d skipped=%d parse_misses=%d today=%t tomorrow=%t interrupted=%t in %s",
		r.ID, r.Mode, r.Users, r.Delivered, r.Failures, r.Skipped, r.ParseMisses,
		r.TodayAvailable, r.TomorrowAvailable, r.Interrupted, r.Duration.Round(time.Millisecond))
}
