// Package metrics defines the prometheus collectors exported by the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace is the basic namespace where all metrics are defined under.
	Namespace = "rangle"
)

// NewCounter creates a Counter metrics under the global namespace.
func NewCounter(name, subsystem, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Namespace: Namespace, Subsystem: subsystem, Name: name, Help: help}, labels)
}

// NewHistogramWithBuckets creates a Histogram metrics with custom buckets.
func NewHistogramWithBuckets(name, subsystem, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{Namespace: Namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets}, labels)
}

var (
	reconcileTotal = NewCounter("reconcile_total", "",
		"Number of range reconciliations by outcome", []string{"outcome"})
	mergeTotal = NewCounter("merge_total", "",
		"Number of chunk merges by consolidation policy", []string{"reason"})
	storeErrors = NewCounter("store_errors_total", "",
		"Number of failed store operations", []string{"op"})
	reconcileChunks = NewHistogramWithBuckets("reconcile_chunks", "",
		"Number of chunks returned to clients", []string{"outcome"},
		prometheus.LinearBuckets(1, 1, 10))
)

// ReportReconcile records one reconciliation decision. reason is empty when
// no merge happened.
func ReportReconcile(outcome string, chunks int, reason string) {
	reconcileTotal.WithLabelValues(outcome).Inc()
	reconcileChunks.WithLabelValues(outcome).Observe(float64(chunks))
	if reason != "" {
		mergeTotal.WithLabelValues(reason).Inc()
	}
}

// ReportStoreError counts a failed store operation
func ReportStoreError(op string) {
	storeErrors.WithLabelValues(op).Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
