package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Delivery("changed", "edited")
	m.Delivery("changed", "edited")
	m.Delivery("first_seen", "sent")
	m.Subscribers(7)

	expected := `
# HELP outage_deliveries_total Notification deliveries by kind and outcome
# TYPE outage_deliveries_total counter
outage_deliveries_total{kind="changed",outcome="edited"} 2
outage_deliveries_total{kind="first_seen",outcome="sent"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.deliveries, strings.NewReader(expected)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.subscribers))

	m.ObservePass("regular", 2*time.Second, false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passes.WithLabelValues("regular", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.passDuration))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.ParseMiss("today")
	second.ParseMiss("today")

	assert.Equal(t, 2.0, testutil.ToFloat64(first.parseMisses.WithLabelValues("today")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePass("regular", time.Second, true)
		m.Decision("today", "baseline")
		m.Delivery("digest", "failed")
		m.SourceFetch("tomorrow", false)
		m.ParseMiss("today")
		m.Subscribers(1)
	})
}
