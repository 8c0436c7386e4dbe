package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes recorded for catalog requests
const (
	OutcomeSuccess     = "success"
	OutcomeStatusError = "status_error"
	OutcomeTransport   = "transport_error"
)

// Metrics holds the Prometheus collectors exported by the service
type Metrics struct {
	catalogFetches       *prometheus.CounterVec
	catalogFetchDuration prometheus.Histogram
	searches             *prometheus.CounterVec
	searchResults        prometheus.Histogram
	httpRequests         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		catalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_catalog_fetch_total",
			Help: "Catalog fetches by outcome",
		}, []string{"outcome"}),
		catalogFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketlens_catalog_fetch_duration_seconds",
			Help:    "Latency of catalog fetches",
			Buckets: prometheus.DefBuckets,
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_search_requests_total",
			Help: "Market searches by outcome",
		}, []string{"outcome"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketlens_search_results",
			Help:    "Number of markets returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		m.catalogFetches,
		m.catalogFetchDuration,
		m.searches,
		m.searchResults,
		m.httpRequests,
	)
	return m
}

// ObserveCatalogFetch records one catalog request. Safe on a nil receiver.
func (m *Metrics) ObserveCatalogFetch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.catalogFetches.WithLabelValues(outcome).Inc()
	m.catalogFetchDuration.Observe(elapsed.Seconds())
}

// ObserveSearch records a search and, when it succeeded, its result size
func (m *Metrics) ObserveSearch(outcome string, results int) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.searchResults.Observe(float64(results))
	}
}

// ObserveHTTPRequest counts a served request
func (m *Metrics) ObserveHTTPRequest(route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
}

// RegisterTrackedKeys exports the number of keys held by an in-memory rate
// limiter, read through size at scrape time
func RegisterTrackedKeys(reg prometheus.Registerer, size func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "marketlens_ratelimit_tracked_keys",
		Help: "Client keys currently tracked by the in-memory rate limiter",
	}, func() float64 {
		return float64(size())
	}))
}
