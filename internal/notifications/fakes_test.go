package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/powerwatch/outage-notifier/internal/profile"
	"github.com/powerwatch/outage-notifier/internal/schedule"
	"github.com/powerwatch/outage-notifier/internal/telegram"
)

var errStorage = errors.New("storage unavailable")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fpKey struct {
	user int64
	date string
}

// memStore implements every store interface the package consumes.
type memStore struct {
	mu           sync.Mutex
	fingerprints map[fpKey]string
	handles      map[int64]Handle
	subscribers  []int64

	fpWrites       int
	failFPRead     bool
	failHandleRead bool
	failHandleSet  bool
	failSubs       bool
}

func newMemStore(subscribers ...int64) *memStore {
	return &memStore{
		fingerprints: make(map[fpKey]string),
		handles:      make(map[int64]Handle),
		subscribers:  subscribers,
	}
}

func (m *memStore) Fingerprint(_ context.Context, userID int64, date string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFPRead {
		return "", false, errStorage
	}
	fp, ok := m.fingerprints[fpKey{userID, date}]
	return fp, ok, nil
}

func (m *memStore) SetFingerprint(_ context.Context, userID int64, date, fp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fpWrites++
	m.fingerprints[fpKey{userID, date}] = fp
	return nil
}

func (m *memStore) LastMessage(_ context.Context, userID int64) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failHandleRead {
		return nil, errStorage
	}
	h, ok := m.handles[userID]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *memStore) SetLastMessage(_ context.Context, h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failHandleSet {
		return errStorage
	}
	m.handles[h.UserID] = h
	return nil
}

func (m *memStore) Subscribers(context.Context) ([]int64, error) {
	if m.failSubs {
		return nil, errStorage
	}
	return m.subscribers, nil
}

type sentMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	Edit      bool
}

type fakeSender struct {
	mu      sync.Mutex
	nextID  int64
	log     []sentMessage
	editErr error
	sendErr error
}

func (s *fakeSender) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	s.nextID++
	s.log = append(s.log, sentMessage{ChatID: chatID, MessageID: s.nextID, Text: text})
	return s.nextID, nil
}

func (s *fakeSender) EditMessage(_ context.Context, chatID, messageID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editErr != nil && !errors.Is(s.editErr, telegram.ErrNotModified) {
		return s.editErr
	}
	s.log = append(s.log, sentMessage{ChatID: chatID, MessageID: messageID, Text: text, Edit: true})
	return s.editErr
}

func (s *fakeSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.log...)
}

type fakeSource struct {
	mu       sync.Mutex
	today    *schedule.Document
	tomorrow *schedule.Document
	fetches  int
}

func (f *fakeSource) FetchToday(context.Context) *schedule.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.today
}

func (f *fakeSource) FetchTomorrow(context.Context) *schedule.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.tomorrow
}

type fakeResolver struct {
	contexts map[int64]*profile.Context
	errs     map[int64]error
	calls    int
}

func (r *fakeResolver) Resolve(_ context.Context, userID int64) (*profile.Context, error) {
	r.calls++
	if err := r.errs[userID]; err != nil {
		return nil, err
	}
	return r.contexts[userID], nil
}
