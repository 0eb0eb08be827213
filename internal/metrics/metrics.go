// Package metrics exposes pipeline counters and latency histograms.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkowalski/newsreel/internal/logging"
)

var registry = prometheus.NewRegistry()

var (
	// SourceFetches counts fetch attempts per source, by outcome (ok/error).
	SourceFetches = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "newsreel_source_fetches_total",
		Help: "Source fetch attempts by source name and outcome.",
	}, []string{"source", "outcome"})

	// ItemsFetched counts raw items delivered by sources.
	ItemsFetched = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "newsreel_items_fetched_total",
		Help: "Raw items delivered by all sources.",
	})

	// StaleDropped counts items rejected by the freshness window.
	StaleDropped = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "newsreel_items_stale_total",
		Help: "Items dropped for exceeding the max age window.",
	})

	// DuplicatesSkipped counts items suppressed by the fingerprint index.
	DuplicatesSkipped = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "newsreel_items_duplicate_total",
		Help: "Items suppressed as already-seen fingerprints.",
	})

	// StoriesAdmitted counts newly admitted fingerprints.
	StoriesAdmitted = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "newsreel_stories_admitted_total",
		Help: "Fingerprints newly admitted to the seen index.",
	})

	// FingerprintsEvicted counts records aged out of the index.
	FingerprintsEvicted = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "newsreel_fingerprints_evicted_total",
		Help: "Seen records evicted after exceeding the max age window.",
	})

	// ProviderAttempts counts generation attempts by provider and outcome
	// (ok, out_of_bounds, unavailable, rate_limited, malformed, error).
	ProviderAttempts = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "newsreel_provider_attempts_total",
		Help: "Generation attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	// AggregationSeconds times one aggregation pass.
	AggregationSeconds = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "newsreel_aggregation_duration_seconds",
		Help:    "Wall time of one aggregation pass.",
		Buckets: prometheus.DefBuckets,
	})

	// GenerationSeconds times one full generation (all attempts).
	GenerationSeconds = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "newsreel_generation_duration_seconds",
		Help:    "Wall time of one script generation including retries.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// Handler serves the registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve runs a metrics server on addr. Blocks; meant to run in a goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logging.Info("Metrics server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Error("Metrics server stopped", "error", err)
	}
}
