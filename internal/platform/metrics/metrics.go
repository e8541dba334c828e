package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed on the service API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	carsCreated    prometheus.Counter
	carsUpdated    prometheus.Counter
	carsDeleted    prometheus.Counter
	imagesUploaded *prometheus.CounterVec
	uploadFailures *prometheus.CounterVec
}

// New creates and registers all collectors under the given namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		carsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cars_created_total",
			Help:      "Total number of car listings created.",
		}),
		carsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cars_updated_total",
			Help:      "Total number of car listings updated.",
		}),
		carsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cars_deleted_total",
			Help:      "Total number of car listings deleted.",
		}),
		imagesUploaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_uploaded_total",
			Help:      "Total number of images uploaded to the image host by folder.",
		}, []string{"folder"}),
		uploadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_upload_failures_total",
			Help:      "Total number of failed image uploads by folder.",
		}, []string{"folder"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpLatency,
		m.carsCreated,
		m.carsUpdated,
		m.carsDeleted,
		m.imagesUploaded,
		m.uploadFailures,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format, or 404 when
// metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) CarCreated() {
	if m != nil {
		m.carsCreated.Inc()
	}
}

func (m *Metrics) CarUpdated() {
	if m != nil {
		m.carsUpdated.Inc()
	}
}

func (m *Metrics) CarDeleted() {
	if m != nil {
		m.carsDeleted.Inc()
	}
}

func (m *Metrics) ImageUploaded(folder string) {
	if m != nil {
		m.imagesUploaded.WithLabelValues(folder).Inc()
	}
}

func (m *Metrics) ImageUploadFailed(folder string) {
	if m != nil {
		m.uploadFailures.WithLabelValues(folder).Inc()
	}
}
