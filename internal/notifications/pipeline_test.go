package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerwatch/outage-notifier/internal/profile"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

const (
	todayMarkup    = "<p>Group 4.1. from 08:00 to 11:00</p><p>Group 6.2. Electricity is available</p>"
	tomorrowMarkup = "<p>Group 4.1. from 16:00 to 19:00, from 08:00 to 11:00</p><p>Group 6.2. from 00:00 to 04:00</p>"
)

var testNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type harness struct {
	source   *fakeSource
	store    *memStore
	sender   *fakeSender
	resolver *fakeResolver
	cache    *fakeCache
	engine   *Engine
}

// fakeCache reads through to next for days it does not hold.
type fakeCache struct {
	next DocumentSource
	docs map[schedule.Day]*schedule.Document
	puts []schedule.Day
}

func (c *fakeCache) FetchToday(ctx context.Context) *schedule.Document {
	if doc := c.docs[schedule.Today]; doc != nil {
		return doc
	}
	return c.next.FetchToday(ctx)
}

func (c *fakeCache) FetchTomorrow(ctx context.Context) *schedule.Document {
	if doc := c.docs[schedule.Tomorrow]; doc != nil {
		return doc
	}
	return c.next.FetchTomorrow(ctx)
}

func (c *fakeCache) Put(_ context.Context, doc *schedule.Document) {
	c.docs[doc.Day] = doc
	c.puts = append(c.puts, doc.Day)
}

func newHarness(subscribers ...int64) *harness {
	h := &harness{
		source: &fakeSource{
			today:    &schedule.Document{Day: schedule.Today, Date: "18.10.2026", RawMarkup: todayMarkup},
			tomorrow: &schedule.Document{Day: schedule.Tomorrow, Date: "19.10.2026", RawMarkup: tomorrowMarkup},
		},
		store:  newMemStore(subscribers...),
		sender: &fakeSender{},
		resolver: &fakeResolver{contexts: map[int64]*profile.Context{
			1: {Kind: profile.Manual, GroupCode: "41"},
			2: {Kind: profile.Address, GroupCode: "62", City: "Lviv", Street: "Zelena", Building: "5"},
		}},
	}
	h.cache = &fakeCache{next: h.source, docs: make(map[schedule.Day]*schedule.Document)}
	h.engine = NewEngine(Deps{
		Source:      h.source,
		Cache:       h.cache,
		Parser:      schedule.NewParser(schedule.English),
		Detector:    NewDetector(h.store),
		Dispatcher:  NewDispatcher(h.sender, h.store, 0, quietLogger(), nil),
		Resolver:    h.resolver,
		Subscribers: h.store,
		SyncTime:    func(context.Context) string { return "18.10.2026 09:00" },
		Logger:      quietLogger(),
		Now:         func() time.Time { return testNow },
		Location:    time.UTC,
	})
	return h
}

func TestRunPassWithoutSubscribersFetchesTwice(t *testing.T) {
	h := newHarness()

	res := h.engine.RunPass(context.Background(), ModeRegular)

	assert.Equal(t, 2, h.source.fetches)
	assert.Zero(t, h.resolver.calls)
	assert.Zero(t, res.Users)
	assert.True(t, res.TodayAvailable)
	assert.True(t, res.TomorrowAvailable)
	assert.ElementsMatch(t, []schedule.Day{schedule.Today, schedule.Tomorrow}, h.cache.puts)
	assert.NotEmpty(t, res.ID)
}

func TestRunPassAnnouncesTomorrowOnly(t *testing.T) {
	h := newHarness(1, 2)

	res := h.engine.RunPass(context.Background(), ModeRegular)

	assert.Equal(t, 2, res.Users)
	assert.Equal(t, 2, res.Delivered, "one first-seen message per user, today is baseline")
	msgs := h.sender.messages()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Contains(t, m.Text, "Schedule published for 19.10.2026")
	}
	assert.Equal(t, 4, h.store.fpWrites)
	assert.Equal(t, 2, h.source.fetches)
}

func TestRunPassIsQuietWhenNothingChanged(t *testing.T) {
	h := newHarness(1)
	ctx := context.Background()
	h.engine.RunPass(ctx, ModeRegular)

	res := h.engine.RunPass(ctx, ModeRegular)

	assert.Zero(t, res.Delivered)
	assert.Len(t, h.sender.messages(), 1)
}

func TestRunPassEditsOnChange(t *testing.T) {
	h := newHarness(1)
	ctx := context.Background()
	h.engine.RunPass(ctx, ModeRegular)

	h.source.tomorrow = &schedule.Document{Day: schedule.Tomorrow, Date: "19.10.2026",
		RawMarkup: "<p>Group 4.1. from 12:00 to 14:00</p>"}
	res := h.engine.RunPass(ctx, ModeRegular)

	assert.Equal(t, 1, res.Delivered)
	msgs := h.sender.messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Edit)
	assert.Equal(t, msgs[0].MessageID, msgs[1].MessageID)
	assert.Contains(t, msgs[1].Text, "Schedule changed for 19.10.2026")
	assert.Contains(t, msgs[1].Text, "12:00 - 14:00")
}

func TestRunPassTodayChangeIsAnnounced(t *testing.T) {
	h := newHarness(1)
	ctx := context.Background()
	h.engine.RunPass(ctx, ModeRegular)

	h.source.today = &schedule.Document{Day: schedule.Today, Date: "18.10.2026",
		RawMarkup: "<p>Group 4.1. from 10:00 to 13:00</p>"}
	res := h.engine.RunPass(ctx, ModeRegular)

	assert.Equal(t, 1, res.Delivered)
	msgs := h.sender.messages()
	require.Len(t, msgs, 2)
	// The live handle is for tomorrow's date, so today's change is a new message.
	assert.False(t, msgs[1].Edit)
	assert.Contains(t, msgs[1].Text, "Schedule changed for 18.10.2026")
}

func TestRunPassAbsentTomorrow(t *testing.T) {
	h := newHarness(1)
	h.source.tomorrow = nil

	res := h.engine.RunPass(context.Background(), ModeRegular)

	assert.False(t, res.TomorrowAvailable)
	assert.Zero(t, res.Delivered)
	assert.Zero(t, res.Failures)
	assert.Equal(t, 1, h.store.fpWrites, "today's baseline only")
}

func TestRunPassNoDocuments(t *testing.T) {
	h := newHarness(1)
	h.source.today, h.source.tomorrow = nil, nil

	res := h.engine.RunPass(context.Background(), ModeRegular)

	assert.Zero(t, res.Users)
	assert.Zero(t, h.resolver.calls)
}

func TestRunPassParseMissWritesNoFingerprint(t *testing.T) {
	h := newHarness(3)
	h.resolver.contexts[3] = &profile.Context{GroupCode: "52"}

	res := h.engine.RunPass(context.Background(), ModeRegular)

	assert.Equal(t, 2, res.ParseMisses)
	assert.Zero(t, h.store.fpWrites)
	assert.Empty(t, h.sender.messages())
}

func TestRunPassDigestDeliversUnchangedDay(t *testing.T) {
	h := newHarness(1)
	ctx := context.Background()
	h.engine.RunPass(ctx, ModeRegular)

	res := h.engine.RunPass(ctx, ModeDigestToday)

	assert.Equal(t, 1, res.Delivered)
	msgs := h.sender.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "Today's outages, 18.10.2026")

	res = h.engine.RunPass(ctx, ModeDigestTomorrow)
	assert.Equal(t, 1, res.Delivered)
	msgs = h.sender.messages()
	require.Len(t, msgs, 3)
	assert.False(t, msgs[2].Edit, "the live message now belongs to today")
	assert.Contains(t, msgs[2].Text, "Tomorrow's outages, 19.10.2026")
}

func TestRunPassSkipsFailingUsers(t *testing.T) {
	h := newHarness(1, 2, 4)
	h.resolver.errs = map[int64]error{1: errors.New("profile store down")}

	res := h.engine.RunPass(context.Background(), ModeRegular)

	assert.Equal(t, 3, res.Users)
	assert.Equal(t, 1, res.Failures)
	assert.Equal(t, 1, res.Skipped, "user 4 has no context")
	assert.Equal(t, 1, res.Delivered)
}

func TestRunPassStorageErrorSkipsUser(t *testing.T) {
	h := newHarness(1)
	h.store.failFPRead = true

	res := h.engine.RunPass(context.Background(), ModeRegular)

	assert.Equal(t, 1, res.Failures)
	assert.Empty(t, h.sender.messages())
}

func TestRunPassSubscriberListFailure(t *testing.T) {
	h := newHarness(1)
	h.store.failSubs = true

	res := h.engine.RunPass(context.Background(), ModeRegular)

	assert.Equal(t, 1, res.Failures)
	assert.Zero(t, res.Users)
}

func TestRunPassStopsBetweenUsersOnCancel(t *testing.T) {
	h := newHarness(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := h.engine.RunPass(ctx, ModeRegular)

	assert.True(t, res.Interrupted)
	assert.Zero(t, res.Users)
}

func TestCurrentStatus(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	st, err := h.engine.CurrentStatus(ctx, "41")
	require.NoError(t, err)
	assert.Equal(t, "4.1", st.Group)
	assert.Equal(t, "18.10.2026", st.Date)
	assert.False(t, st.IsPowerOn, "09:30 is inside 08:00-11:00")
	require.NotNil(t, st.NextChange)
	assert.Equal(t, schedule.MustTime("11:00"), *st.NextChange)
	assert.True(t, st.Found)

	st, err = h.engine.CurrentStatus(ctx, "62")
	require.NoError(t, err)
	assert.True(t, st.IsPowerOn)
	assert.Nil(t, st.NextChange)

	st, err = h.engine.CurrentStatus(ctx, "52")
	require.NoError(t, err)
	assert.True(t, st.IsPowerOn, "a missing group fails open")
	assert.False(t, st.Found)
	assert.NotEmpty(t, st.Note)

	_, err = h.engine.CurrentStatus(ctx, "x1")
	assert.ErrorIs(t, err, ErrInvalidGroup)

	h.engine.Cache = nil
	h.source.today = nil
	_, err = h.engine.CurrentStatus(ctx, "41")
	assert.ErrorIs(t, err, ErrNoSchedule)
}

func TestCurrentStatusReadsThroughCache(t *testing.T) {
	h := newHarness()
	h.cache.docs[schedule.Today] = &schedule.Document{Day: schedule.Today, Date: "18.10.2026", RawMarkup: "<p>Group 4.1. Electricity is available</p>"}

	st, err := h.engine.CurrentStatus(context.Background(), "41")

	require.NoError(t, err)
	assert.True(t, st.IsPowerOn)
	assert.Zero(t, h.source.fetches)
}

func TestSendScheduleNow(t *testing.T) {
	h := newHarness()
	h.engine.Cache = nil

	require.NoError(t, h.engine.SendScheduleNow(context.Background(), 1))

	msgs := h.sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Outage schedule for 18.10.2026")
	assert.Contains(t, msgs[0].Text, "08:00 - 11:00")
	assert.Contains(t, msgs[0].Text, "Updated: 18.10.2026 09:00")
	assert.Equal(t, "18.10.2026", h.store.handles[1].Date)
}

func TestSendScheduleNowWithoutContext(t *testing.T) {
	h := newHarness()

	err := h.engine.SendScheduleNow(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNoContext)
	msgs := h.sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, noContextText, msgs[0].Text)
	assert.Empty(t, h.store.handles)
}

func TestSendScheduleNowWithoutSchedule(t *testing.T) {
	h := newHarness()
	h.engine.Cache = nil
	h.source.today = nil

	err := h.engine.SendScheduleNow(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNoSchedule)
	assert.Equal(t, noScheduleText, h.sender.messages()[0].Text)
}
