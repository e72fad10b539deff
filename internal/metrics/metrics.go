// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PagesFetched counts headless page fetches by outcome (ok, error).
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_pages_fetched_total",
		Help: "Number of page fetches by outcome.",
	}, []string{"outcome"})

	// FetchDuration observes wall-clock time per successful fetch, which is
	// dominated by the rate-limit and settle delays.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawler_fetch_duration_seconds",
		Help:    "Time spent fetching and rendering one page.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	// Books counts per-book import outcomes (imported, skipped, failed).
	Books = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_books_total",
		Help: "Number of book imports by outcome.",
	}, []string{"outcome"})

	// Jobs counts queue jobs by terminal status (completed, failed).
	Jobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_jobs_total",
		Help: "Number of processed crawl jobs by terminal status.",
	}, []string{"status"})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
