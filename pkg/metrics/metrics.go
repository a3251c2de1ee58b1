package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	ExtractionsTotal      *prometheus.CounterVec
	ExtractionDuration    *prometheus.HistogramVec
	StrategyHitsTotal     *prometheus.CounterVec
	RateLimitedTotal      prometheus.Counter
	FailuresRecordedTotal *prometheus.CounterVec

	initOnce sync.Once
)

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		ExtractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "price_extractions_total",
				Help: "Total number of price lookups by site and outcome.",
			},
			[]string{"site", "outcome"}, // outcome: success, test_mode or an error kind
		)

		ExtractionDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "price_extraction_duration_seconds",
				Help:    "Duration of price lookups including the page fetch.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			},
			[]string{"site"},
		)

		StrategyHitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "price_strategy_hits_total",
				Help: "Number of prices produced by each extraction strategy.",
			},
			[]string{"site", "strategy"},
		)

		RateLimitedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Requests rejected by the rate limiter.",
			},
		)

		FailuresRecordedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "failed_extractions_recorded_total",
				Help: "Failures written to the retry log by error kind.",
			},
			[]string{"kind"},
		)
	})
}

// The helpers below are no-ops until Init has run, so packages can record
// metrics in tests without touching the global registry.

func ObserveExtraction(site, outcome string, seconds float64) {
	if ExtractionsTotal == nil {
		return
	}
	ExtractionsTotal.WithLabelValues(site, outcome).Inc()
	ExtractionDuration.WithLabelValues(site).Observe(seconds)
}

func IncStrategyHit(site, strategy string) {
	if StrategyHitsTotal == nil {
		return
	}
	StrategyHitsTotal.WithLabelValues(site, strategy).Inc()
}

func ObserveHTTPRequest(method, path, status string, seconds float64) {
	if HTTPRequestsTotal == nil {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

func IncRateLimited() {
	if RateLimitedTotal == nil {
		return
	}
	RateLimitedTotal.Inc()
}

func IncFailureRecorded(kind string) {
	if FailuresRecordedTotal == nil {
		return
	}
	FailuresRecordedTotal.WithLabelValues(kind).Inc()
}
