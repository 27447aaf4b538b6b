// Package schedule holds the outage schedule domain: time-of-day intervals,
// group codes, published documents, the group parser, and the power status
// calculator. Everything here is pure; no I/O.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EndOfDay is the exclusive upper bound of a day, 24:00.
const EndOfDay TimeOfDay = 24 * 60

// ErrInvalidTime is returned for clock strings that are not HH:MM.
var ErrInvalidTime = errors.New("invalid time of day")

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM". "24:00" is accepted as the end-of-day bound.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTime is ParseTimeOfDay for literals; it panics on bad input.
func MustTime(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Clock returns the time of day of t in t's own location.
func Clock(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalText renders the clock form so JSON carries "08:00", not 480.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// On returns the instant t falls on for the calendar day of ref.
func (t TimeOfDay) On(ref time.Time) time.Time {
	y, mo, d := ref.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, ref.Location()).Add(time.Duration(t) * time.Minute)
}

// Interval is a scheduled outage, half-open on End.
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Valid reports whether the interval lies within one day and Start < End.
func (i Interval) Valid() bool {
	return i.Start >= 0 && i.Start < i.End && i.End <= EndOfDay
}

// Contains reports whether t falls inside [Start, End).
func (i Interval) Contains(t TimeOfDay) bool {
	return i.Start <= t && t < i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// Sorted returns a copy of intervals ordered by start, then end.
// The source publishes intervals in no guaranteed order.
func Sorted(intervals []Interval) []Interval {
	out := make([]Interval, len(intervals))
	copy(out, intervals)
	sort.Slice(out, func(a, b int) bool {
		if out[a].Start != out[b].Start {
			return out[a].Start < out[b].Start
		}
		return out[a].End < out[b].End
	})
	return out
}
