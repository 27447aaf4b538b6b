// Package metrics records pass, detection, and delivery counters in
// Prometheus. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "outage"

type Metrics struct {
	passes       *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	decisions    *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
	fetches      *prometheus.CounterVec
	parseMisses  *prometheus.CounterVec
	subscribers  prometheus.Gauge
}

// New registers the collectors on reg. If reg is nil, the default registerer
// is used. Collectors already registered are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Completed scheduler passes by mode and outcome",
		}, []string{"mode", "failed"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of one scheduler pass",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"mode"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_decisions_total",
			Help:      "Change detector outcomes",
		}, []string{"day", "decision"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Notification deliveries by kind and outcome",
		}, []string{"kind", "outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Schedule document fetches",
		}, []string{"day", "ok"}),
		parseMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_misses_total",
			Help:      "Documents where a subscriber's group marker was not found",
		}, []string{"day"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Subscribers seen by the last pass",
		}),
	}

	var err error
	if m.passes, err = register(reg, m.passes); err != nil {
		return nil, err
	}
	if m.passDuration, err = register(reg, m.passDuration); err != nil {
		return nil, err
	}
	if m.decisions, err = register(reg, m.decisions); err != nil {
		return nil, err
	}
	if m.deliveries, err = register(reg, m.deliveries); err != nil {
		return nil, err
	}
	if m.fetches, err = register(reg, m.fetches); err != nil {
		return nil, err
	}
	if m.parseMisses, err = register(reg, m.parseMisses); err != nil {
		return nil, err
	}
	if m.subscribers, err = register(reg, m.subscribers); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) ObservePass(mode string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(mode, strconv.FormatBool(failed)).Inc()
	m.passDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) Decision(day, decision string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(day, decision).Inc()
}

// Delivery records one dispatch attempt; outcome is "sent", "edited", or
// "failed".
func (m *Metrics) Delivery(kind, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SourceFetch(day string, ok bool) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(day, strconv.FormatBool(ok)).Inc()
}

func (m *Metrics) ParseMiss(day string) {
	if m == nil {
		return
	}
	m.parseMisses.WithLabelValues(day).Inc()
}

func (m *Metrics) Subscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}
