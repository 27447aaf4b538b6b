package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerwatch/outage-notifier/internal/config"
	"github.com/powerwatch/outage-notifier/internal/metrics"
	"github.com/powerwatch/outage-notifier/internal/notifications"
	"github.com/powerwatch/outage-notifier/internal/schedule"
	"github.com/powerwatch/outage-notifier/internal/store"
)

type stubEngine struct{}

func (stubEngine) CurrentStatus(context.Context, schedule.GroupCode) (notifications.GroupStatus, error) {
	return notifications.GroupStatus{Group: "4.1", IsPowerOn: true, Found: true}, nil
}

func (stubEngine) SendScheduleNow(context.Context, int64) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		CORSAllowOrigins:  []string{"https://app.test"},
		RateLimitEnabled:  true,
		RateLimitRequests: 4,
		RateLimitWindow:   time.Minute,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.7:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesHealthAndTiming(t *testing.T) {
	r := NewRouter(Deps{Engine: stubEngine{}, Users: store.NewMemory()}, testConfig())

	rec := get(t, r, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))
	assert.Equal(t, http.StatusOK, get(t, r, "/").Code)
}

func TestRouterServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	m.ParseMiss("today")
	r := NewRouter(Deps{Engine: stubEngine{}, Users: store.NewMemory(), Gatherer: reg}, testConfig())

	rec := get(t, r, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `outage_parse_misses_total{day="today"} 1`)
}

func TestRouterRateLimitsAPIOnly(t *testing.T) {
	r := NewRouter(Deps{Engine: stubEngine{}, Users: store.NewMemory()}, testConfig())

	// Burst is half the window allowance.
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, get(t, r, "/api/v1/status/4.1").Code)
	}
	rec := get(t, r, "/api/v1/status/4.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(t, r, "/health").Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	r := NewRouter(Deps{Engine: stubEngine{}, Users: store.NewMemory()}, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/1/group", nil)
	req.Header.Set("Origin", "https://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestIPLimiterMinimumBurst(t *testing.T) {
	l := newIPLimiter(1, time.Minute)
	assert.Equal(t, 1, l.burst)
	assert.Same(t, l.getLimiter("a"), l.getLimiter("a"))
}

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	l := newIPLimiter(10, time.Minute)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock

	for i := 0; i < 100; i++ {
		l.getLimiter(fmt.Sprintf("10.0.0.%d", i))
	}
	require.Equal(t, 100, l.size())

	clock = clock.Add(30 * time.Second)
	active := l.getLimiter("10.0.0.1")
	assert.Equal(t, 100, l.size())

	clock = clock.Add(40 * time.Second)
	assert.Same(t, active, l.getLimiter("10.0.0.1"))
	assert.Equal(t, 1, l.size())
}
