package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/powerwatch/outage-notifier/internal/notifications"
	"github.com/powerwatch/outage-notifier/internal/profile"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

type fingerprintKey struct {
	userID int64
	date   string
}

type fingerprintRow struct {
	fp        string
	updatedAt time.Time
}

// Memory is a process-local Store. Data is lost on restart.
type Memory struct {
	mu           sync.RWMutex
	users        map[int64]*Settings
	fingerprints map[fingerprintKey]fingerprintRow
	handles      map[int64]notifications.Handle

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[int64]*Settings),
		fingerprints: make(map[fingerprintKey]fingerprintRow),
		handles:      make(map[int64]notifications.Handle),
		now:          time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Fingerprint(_ context.Context, userID int64, date string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.fingerprints[fingerprintKey{userID, date}]
	return row.fp, ok, nil
}

func (m *Memory) SetFingerprint(_ context.Context, userID int64, date, fp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fingerprints[fingerprintKey{userID, date}] = fingerprintRow{fp: fp, updatedAt: m.now()}
	return nil
}

func (m *Memory) Cleanup(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, row := range m.fingerprints {
		if row.updatedAt.Before(cutoff) {
			delete(m.fingerprints, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) LastMessage(_ context.Context, userID int64) (*notifications.Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[userID]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *Memory) SetLastMessage(_ context.Context, h notifications.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[h.UserID] = h
	return nil
}

func (m *Memory) Subscribers(context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.users))
	for id, s := range m.users {
		if s.NotificationsEnabled {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) Settings(_ context.Context, userID int64) (*Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	if s.Address != nil {
		a := *s.Address
		cp.Address = &a
	}
	return &cp, nil
}

func (m *Memory) LocalContext(ctx context.Context, userID int64) (*profile.Context, error) {
	s, err := m.Settings(ctx, userID)
	if err != nil {
		return nil, nil
	}
	return s.Context(), nil
}

func (m *Memory) SetNotifications(_ context.Context, userID int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).NotificationsEnabled = enabled
	return nil
}

func (m *Memory) SetManualGroup(_ context.Context, userID int64, group schedule.GroupCode, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.user(userID)
	s.ManualGroup = group
	s.ManualLabel = label
	return nil
}

func (m *Memory) SetPrimaryAddress(_ context.Context, userID int64, a Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).Address = &a
	return nil
}

// user returns the row for userID, creating it with the same defaults as
// the users table. Callers hold mu.
func (m *Memory) user(userID int64) *Settings {
	s, ok := m.users[userID]
	if !ok {
		s = &Settings{UserID: userID, NotificationsEnabled: true}
		m.users[userID] = s
	}
	return s
}
