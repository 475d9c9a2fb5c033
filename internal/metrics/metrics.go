// Package metrics exposes Prometheus instruments for the reminder engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskmaster"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ScanRuns        *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
	ScansSkipped    prometheus.Counter
	Reminders       *prometheus.CounterVec
	DigestsSent     *prometheus.CounterVec
	Notices         *prometheus.CounterVec
	ScanInProgress  prometheus.Gauge
	LastScanSuccess prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_scans_total",
			Help:      "Reminder scans by trigger and result.",
		}, []string{"trigger", "result"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_scan_duration_seconds",
			Help:      "Wall time of a reminder scan.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ScansSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_scans_skipped_total",
			Help:      "Scheduled scans skipped because a scan was still running.",
		}),
		Reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Reminder decisions by tier and outcome.",
		}, []string{"tier", "outcome"}),
		DigestsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_digests_total",
			Help:      "Daily digest emails by outcome.",
		}, []string{"outcome"}),
		Notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "One-off notice emails (completion, test) by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ScanInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminder_scan_in_progress",
			Help:      "1 while a reminder scan is running.",
		}),
		LastScanSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminder_last_scan_success_timestamp_seconds",
			Help:      "Unix time of the last successful reminder scan.",
		}),
	}

	m.registry.MustRegister(
		m.ScanRuns,
		m.ScanDuration,
		m.ScansSkipped,
		m.Reminders,
		m.DigestsSent,
		m.Notices,
		m.ScanInProgress,
		m.LastScanSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveScan records one finished scan.
func (m *Metrics) ObserveScan(trigger string, success bool, duration time.Duration, finishedAt time.Time) {
	result := "success"
	if !success {
		result = "error"
	}
	m.ScanRuns.WithLabelValues(trigger, result).Inc()
	m.ScanDuration.Observe(duration.Seconds())
	if success {
		m.LastScanSuccess.Set(float64(finishedAt.Unix()))
	}
}

// ObserveReminder records one reminder decision.
func (m *Metrics) ObserveReminder(tier, outcome string) {
	m.Reminders.WithLabelValues(tier, outcome).Inc()
}

// ObserveDigest records one digest decision.
func (m *Metrics) ObserveDigest(outcome string) {
	m.DigestsSent.WithLabelValues(outcome).Inc()
}

// ObserveNotice records one notice decision.
func (m *Metrics) ObserveNotice(kind, outcome string) {
	m.Notices.WithLabelValues(kind, outcome).Inc()
}

// ObserveScanSkipped records a scheduled scan dropped by the overlap guard.
func (m *Metrics) ObserveScanSkipped() {
	m.ScansSkipped.Inc()
}

// SetScanInProgress flips the in-progress gauge.
func (m *Metrics) SetScanInProgress(running bool) {
	if running {
		m.ScanInProgress.Set(1)
		return
	}
	m.ScanInProgress.Set(0)
}
