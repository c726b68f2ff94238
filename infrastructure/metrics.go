// infrastructure/metrics.go
package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "video_catalog"

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	MediaUploads      *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
	Reconciliations   *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		MediaUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "media_uploads_total",
			Help:      "Media uploads by media type and outcome.",
		}, []string{"media_type", "outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "media_reconciliations_total",
			Help:      "Encoder results consumed by outcome (applied, skipped, poison, failed).",
		}, []string{"outcome"}),
		ReconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "media_reconciliation_duration_seconds",
			Help:      "Time spent applying one encoder result.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.MediaUploads, m.EventsPublished, m.Reconciliations, m.ReconcileDuration)
	return m
}

func (m *Metrics) observeHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) mediaUpload(mediaType, outcome string) {
	if m == nil {
		return
	}
	m.MediaUploads.WithLabelValues(mediaType, outcome).Inc()
}

func (m *Metrics) eventPublished(eventType, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) reconciled(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(outcome).Inc()
	m.ReconcileDuration.Observe(elapsed.Seconds())
}
