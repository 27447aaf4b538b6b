// Package store persists subscriber settings, change-detection fingerprints,
// and delivered message handles. Postgres is the production backend; Memory
// backs tests and single-process dry runs.
package store

import (
	"errors"
	"strings"

	"github.com/powerwatch/outage-notifier/internal/profile"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

var ErrNotFound = errors.New("not found")

// Address is a user's primary saved address and the group it maps to.
type Address struct {
	City     string             `json:"city"`
	Street   string             `json:"street"`
	Building string             `json:"building"`
	Group    schedule.GroupCode `json:"group,omitempty"`
}

// Settings is everything stored about one user.
type Settings struct {
	UserID               int64              `json:"user_id"`
	NotificationsEnabled bool               `json:"notifications_enabled"`
	ManualGroup          schedule.GroupCode `json:"manual_group,omitempty"`
	ManualLabel          string             `json:"manual_label,omitempty"`
	Address              *Address           `json:"address,omitempty"`
}

// Context derives the schedule context: the primary address when it carries
// a usable group, else the manual group, else nil.
func (s *Settings) Context() *profile.Context {
	if a := s.Address; a != nil && a.Group.Valid() {
		return &profile.Context{
			Kind:      profile.Address,
			GroupCode: a.Group,
			Label:     s.ManualLabel,
			City:      a.City,
			Street:    a.Street,
			Building:  a.Building,
		}
	}
	if s.ManualGroup.Valid() {
		return &profile.Context{Kind: profile.Manual, GroupCode: s.ManualGroup, Label: s.ManualLabel}
	}
	return nil
}

// groupOf normalizes a stored group column, which may hold "4.1" as written
// by other tools.
func groupOf(s *string) schedule.GroupCode {
	if s == nil {
		return ""
	}
	g, _ := schedule.NormalizeGroupCode(*s)
	return g
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
