package source

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerwatch/outage-notifier/internal/cache"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(n int) *int { return &n }

func menuBody(t *testing.T, items ...menuItem) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"hydra:member": []any{map[string]any{"menuItems": items}},
	})
	require.NoError(t, err)
	return body
}

type apiStub struct {
	menus   []byte
	status  int
	options []byte
	hits    atomic.Int32
}

func (s *apiStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/main/menus", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		assert.Equal(t, "photo-grafic", r.URL.Query().Get("type"))
		if s.status != 0 {
			w.WriteHeader(s.status)
			return
		}
		w.Write(s.menus)
	})
	mux.HandleFunc("/power/options", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "successful_last_synk", r.URL.Query().Get("option_key"))
		w.Write(s.options)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, now time.Time) *Client {
	return NewClient(Options{
		MainBaseURL:  srv.URL + "/main",
		PowerBaseURL: srv.URL + "/power",
		Timeout:      2 * time.Second,
		Parser:       schedule.NewParser(schedule.Ukrainian),
		Logger:       quietLogger(),
		Now:          func() time.Time { return now },
	})
}

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestFetchTodayAndTomorrow(t *testing.T) {
	stub := &apiStub{menus: menuBody(t,
		menuItem{Name: "Tomorrow", Orders: intPtr(1), RawHTML: "<p>Графік на 19.10.2026</p>"},
		menuItem{Name: "Today", Orders: intPtr(0), ImageURL: "/media/today.png",
			RawHTML: "<p>Графік на 18.10.2026</p><p>Інформація станом на 09:45 18.10.2026</p>"},
	)}
	srv := stub.server(t)
	c := newTestClient(srv, fixedNow)

	today := c.FetchToday(context.Background())
	require.NotNil(t, today)
	assert.Equal(t, schedule.Today, today.Day)
	assert.Equal(t, "18.10.2026", today.Date)
	assert.Equal(t, "09:45 18.10.2026", today.UpdatedAt)
	assert.Equal(t, srv.URL+"/media/today.png", today.ImageURL)

	tomorrow := c.FetchTomorrow(context.Background())
	require.NotNil(t, tomorrow)
	assert.Equal(t, schedule.Tomorrow, tomorrow.Day)
	assert.Equal(t, "19.10.2026", tomorrow.Date)
}

func TestFetchTodayFallsBackToFirstItem(t *testing.T) {
	stub := &apiStub{menus: menuBody(t, menuItem{Name: "Something", RawHTML: "<p>x</p>"})}
	c := newTestClient(stub.server(t), fixedNow)

	today := c.FetchToday(context.Background())
	require.NotNil(t, today)
	// No date in markup: the label is derived from the clock.
	assert.Equal(t, "18.10.2026", today.Date)

	assert.Nil(t, c.FetchTomorrow(context.Background()), "tomorrow has no fallback")
}

func TestFetchTreatsEmptyMarkupAsAbsent(t *testing.T) {
	stub := &apiStub{menus: menuBody(t,
		menuItem{Name: "Today", Orders: intPtr(0), RawHTML: "<p>x</p>"},
		menuItem{Name: "Tomorrow", Orders: intPtr(1), RawHTML: ""},
	)}
	c := newTestClient(stub.server(t), fixedNow)

	assert.Nil(t, c.FetchTomorrow(context.Background()))
}

func TestFetchFailuresReturnNil(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		stub := &apiStub{status: http.StatusBadGateway}
		c := newTestClient(stub.server(t), fixedNow)
		assert.Nil(t, c.FetchToday(context.Background()))
	})
	t.Run("malformed", func(t *testing.T) {
		stub := &apiStub{menus: []byte(`{"hydra:member": "nope"`)}
		c := newTestClient(stub.server(t), fixedNow)
		assert.Nil(t, c.FetchToday(context.Background()))
	})
	t.Run("empty collection", func(t *testing.T) {
		stub := &apiStub{menus: []byte(`{"hydra:member": []}`)}
		c := newTestClient(stub.server(t), fixedNow)
		assert.Nil(t, c.FetchToday(context.Background()))
	})
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := newTestClient(srv, fixedNow)
		assert.Nil(t, c.FetchToday(context.Background()))
	})
}

func TestSyncTime(t *testing.T) {
	stub := &apiStub{options: []byte(`{"hydra:member":[{"optionKey":"successful_last_synk","optionValue":"18.10.2026 11:58"}]}`)}
	c := newTestClient(stub.server(t), fixedNow)

	assert.Equal(t, "18.10.2026 11:58", c.SyncTime(context.Background()))
}

func TestCachedFetcherReadsThrough(t *testing.T) {
	stub := &apiStub{menus: menuBody(t, menuItem{Name: "Today", Orders: intPtr(0), RawHTML: "<p>Графік на 18.10.2026</p>"})}
	c := newTestClient(stub.server(t), fixedNow)
	mem := cache.NewMemory(0)
	defer mem.Close()
	f := NewCachedFetcher(c, mem, time.Minute, quietLogger())

	first := f.FetchToday(context.Background())
	second := f.FetchToday(context.Background())

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.RawMarkup, second.RawMarkup)
	assert.EqualValues(t, 1, stub.hits.Load())

	// Absent documents are not cached, so each miss goes upstream.
	assert.Nil(t, f.FetchTomorrow(context.Background()))
	assert.Nil(t, f.FetchTomorrow(context.Background()))
	assert.EqualValues(t, 3, stub.hits.Load())
}

func TestCachedFetcherPut(t *testing.T) {
	mem := cache.NewMemory(0)
	defer mem.Close()
	f := NewCachedFetcher(nil, mem, time.Minute, quietLogger())

	f.Put(context.Background(), &schedule.Document{Day: schedule.Tomorrow, Date: "19.10.2026", RawMarkup: "m"})
	f.Put(context.Background(), nil)

	doc := f.FetchTomorrow(context.Background())
	require.NotNil(t, doc)
	assert.Equal(t, "19.10.2026", doc.Date)
}
