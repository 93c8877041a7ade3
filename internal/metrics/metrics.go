// Package metrics exposes Prometheus counters for the shipping engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery modes used as the label on the request counter.
const (
	ModeAsync = "async"
	ModeSync  = "sync"
	ModeRetry = "retry"
)

// Metrics holds the engine's Prometheus counters. A nil *Metrics is valid
// and records nothing, so instrumentation stays optional.
type Metrics struct {
	recordsIngested  prometheus.Counter
	recordsMerged    prometheus.Counter
	recordsReplayed  prometheus.Counter
	formatFailures   prometheus.Counter
	requestsSent     *prometheus.CounterVec
	deliveryFailures prometheus.Counter
	retryAttempts    prometheus.Counter
	payloadsDropped  prometheus.Counter
}

// New initializes and registers the engine metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		recordsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Subsystem: "engine",
			Name:      "records_ingested_total",
			Help:      "Total number of records accepted into the buffer.",
		}),
		recordsMerged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Subsystem: "engine",
			Name:      "records_merged_total",
			Help:      "Total number of records merged into a prior duplicate.",
		}),
		recordsReplayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Subsystem: "engine",
			Name:      "records_replayed_total",
			Help:      "Total number of records discarded as upstream replays.",
		}),
		formatFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Subsystem: "engine",
			Name:      "format_failures_total",
			Help:      "Total number of records buffered with degraded text after a format failure.",
		}),
		requestsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logship",
			Subsystem: "delivery",
			Name:      "requests_total",
			Help:      "Total number of delivery requests issued, by mode.",
		}, []string{"mode"}),
		deliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Subsystem: "delivery",
			Name:      "failures_total",
			Help:      "Total number of failed delivery attempts.",
		}),
		retryAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Subsystem: "retry",
			Name:      "attempts_total",
			Help:      "Total number of retry delivery attempts.",
		}),
		payloadsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Subsystem: "retry",
			Name:      "payloads_dropped_total",
			Help:      "Total number of payloads dropped after retry budget exhaustion.",
		}),
	}
}

// RecordIngested counts a record accepted into the buffer.
func (m *Metrics) RecordIngested() {
	if m != nil {
		m.recordsIngested.Inc()
	}
}

// RecordMerged counts a duplicate merged into a prior entry.
func (m *Metrics) RecordMerged() {
	if m != nil {
		m.recordsMerged.Inc()
	}
}

// RecordReplayed counts a record discarded as an upstream replay.
func (m *Metrics) RecordReplayed() {
	if m != nil {
		m.recordsReplayed.Inc()
	}
}

// FormatFailure counts a record buffered with degraded text.
func (m *Metrics) FormatFailure() {
	if m != nil {
		m.formatFailures.Inc()
	}
}

// RequestSent counts one delivery request in the given mode.
func (m *Metrics) RequestSent(mode string) {
	if m != nil {
		m.requestsSent.WithLabelValues(mode).Inc()
	}
}

// DeliveryFailure counts one failed delivery attempt.
func (m *Metrics) DeliveryFailure() {
	if m != nil {
		m.deliveryFailures.Inc()
	}
}

// RetryAttempt counts one retry delivery attempt.
func (m *Metrics) RetryAttempt() {
	if m != nil {
		m.retryAttempts.Inc()
	}
}

// PayloadDropped counts one payload lost to budget exhaustion.
func (m *Metrics) PayloadDropped() {
	if m != nil {
		m.payloadsDropped.Inc()
	}
}
