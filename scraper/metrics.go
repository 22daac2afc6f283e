package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for outbound scraping.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	ListingsTotal    *prometheus.CounterVec
	RetriesTotal     prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	IngestedTotal    *prometheus.CounterVec
	ScrapeRunSeconds prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookflip_scrape_requests_total",
			Help: "Total HTTP requests issued to stores.",
		},
		[]string{"store"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookflip_scrape_request_duration_seconds",
			Help:    "HTTP request latency for store requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	listings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookflip_scrape_listings_total",
			Help: "Total listings produced by scrape sources.",
		},
		[]string{"store"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookflip_scrape_retries_total",
			Help: "Total retry attempts against stores.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookflip_scrape_errors_total",
			Help: "Total scrape errors by store and type.",
		},
		[]string{"store", "error_type"},
	)
	ingested := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookflip_observations_ingested_total",
			Help: "Price observations ingested, by outcome.",
		},
		[]string{"outcome"},
	)
	runSeconds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookflip_scrape_run_duration_seconds",
			Help:    "Duration of a full scrape-and-ingest pass.",
			Buckets: []float64{1, 5, 15, 60, 300, 900},
		},
	)

	registry.MustRegister(requests, requestDuration, listings, retries, errorsTotal, ingested, runSeconds)

	return &Metrics{
		Registry:         registry,
		RequestsTotal:    requests,
		RequestDuration:  requestDuration,
		ListingsTotal:    listings,
		RetriesTotal:     retries,
		ErrorsTotal:      errorsTotal,
		IngestedTotal:    ingested,
		ScrapeRunSeconds: runSeconds,
	}
}

// IncRequest increments the per-store request counter.
func (m *Metrics) IncRequest(store string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(store).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncListings counts listings a source handed to ingestion.
func (m *Metrics) IncListings(store string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ListingsTotal.WithLabelValues(store).Add(float64(n))
}

// IncRetries increments the retry counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a store and type label.
func (m *Metrics) IncError(store, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(store, errorType).Inc()
}

// IncIngested counts an ingestion outcome: created, updated, or rejected.
func (m *Metrics) IncIngested(outcome string) {
	if m == nil {
		return
	}
	m.IngestedTotal.WithLabelValues(outcome).Inc()
}

// ObserveRun records the duration of a scrape-and-ingest pass.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeRunSeconds.Observe(d.Seconds())
}
