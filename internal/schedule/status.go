package schedule

import "time"

// Status is the live power state of a group at one instant.
type Status struct {
	IsPowerOn bool
	// NextChange is when the state flips next today; nil when nothing else
	// is scheduled before midnight.
	NextChange *TimeOfDay
}

// CurrentStatus evaluates intervals at now, taken in now's location.
// A document covers one calendar day; nothing wraps past midnight.
func CurrentStatus(intervals []Interval, now time.Time) Status {
	return StatusAt(intervals, Clock(now))
}

// StatusAt is CurrentStatus for a time of day.
func StatusAt(intervals []Interval, now TimeOfDay) Status {
	for _, iv := range intervals {
		if iv.Contains(now) {
			end := iv.End
			return Status{IsPowerOn: false, NextChange: &end}
		}
	}
	for _, iv := range Sorted(intervals) {
		if iv.Start > now {
			start := iv.Start
			return Status{IsPowerOn: true, NextChange: &start}
		}
	}
	return Status{IsPowerOn: true}
}
