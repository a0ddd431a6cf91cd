// Package metrics holds the Prometheus instruments of a ragsearch server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ragsearch"

// Metrics is a private registry plus the instruments registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	SearchRequestsTotal *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
	SearchResults       prometheus.Histogram
	EmbeddingDuration   prometheus.Histogram
	VectorQueryDuration prometheus.Histogram
	EmbeddingCacheTotal *prometheus.CounterVec
	ReadinessState      prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates a registry with process and Go runtime collectors and the ragsearch instruments.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_requests_total",
				Help:      "Total number of search operations by outcome",
			},
			[]string{"status"},
		),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End to end search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of hits returned per successful search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		EmbeddingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_duration_seconds",
			Help:      "Query encoding duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		VectorQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vector_query_duration_seconds",
			Help:      "Vector store query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		EmbeddingCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_cache_total",
				Help:      "Embedding cache hits and misses",
			},
			[]string{"result"},
		),
		ReadinessState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "readiness_state",
			Help:      "Startup verification state: 0 uninitialized, 1 verifying, 2 ready, 3 failed",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SearchRequestsTotal,
		m.SearchDuration,
		m.SearchResults,
		m.EmbeddingDuration,
		m.VectorQueryDuration,
		m.EmbeddingCacheTotal,
		m.ReadinessState,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveSearch records the outcome of one search operation.
// results is only recorded for successful searches.
func (m *Metrics) ObserveSearch(status string, elapsed time.Duration, results int) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(elapsed.Seconds())
	if results >= 0 {
		m.SearchResults.Observe(float64(results))
	}
}

// ObserveEmbedding records one query encoding.
func (m *Metrics) ObserveEmbedding(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EmbeddingDuration.Observe(elapsed.Seconds())
}

// ObserveVectorQuery records one vector store query.
func (m *Metrics) ObserveVectorQuery(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.VectorQueryDuration.Observe(elapsed.Seconds())
}

// SetReadiness records the numeric readiness state.
func (m *Metrics) SetReadiness(state int) {
	if m == nil {
		return
	}
	m.ReadinessState.Set(float64(state))
}

// ObserveHTTP records one HTTP request by route pattern.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

// CacheLookups returns the embedding cache counter, or nil for a nil Metrics.
func (m *Metrics) CacheLookups() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.EmbeddingCacheTotal
}
