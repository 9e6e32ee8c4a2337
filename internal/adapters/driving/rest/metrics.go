package rest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the request instrumentation, on its own registry so tests
// can run side by side.
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
}

// NewMetrics creates and registers the server metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osgraph_search_requests_total",
			Help: "Total number of search requests",
		}, []string{"searcher", "status"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "osgraph_search_request_seconds",
			Help:    "Search request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"searcher"}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestSeconds)
	return m
}

// Observe records one finished search request.
func (m *Metrics) Observe(searcher string, failed bool, seconds float64) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.requestsTotal.WithLabelValues(searcher, status).Inc()
	m.requestSeconds.WithLabelValues(searcher).Observe(seconds)
}

// Handler serves the metrics exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
