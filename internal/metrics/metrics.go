package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts masking requests by language and outcome
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "securemask_requests_total",
		Help: "Total number of masking requests processed",
	}, []string{"language", "status"}) // "ok", "cached", "empty", "unsupported" or "error"

	// PlaceholdersIssuedTotal counts issued placeholders by category
	PlaceholdersIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "securemask_placeholders_issued_total",
		Help: "Total number of placeholders issued",
	}, []string{"category"})

	// CacheHitsTotal counts masking requests served from the result store
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securemask_cache_hits_total",
		Help: "Total number of masking requests served from the result cache",
	})

	// ResultStoreSize tracks the size of the result store
	ResultStoreSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "securemask_result_store_size",
		Help: "Current number of masked results cached",
	})

	// MaskDuration tracks masking latency
	MaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "securemask_mask_duration_seconds",
		Help:    "Masking duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})
)

// RecordMask records a finished masking request
func RecordMask(language, status string) {
	RequestsTotal.WithLabelValues(language, status).Inc()
}

// RecordPlaceholders records issued placeholders for one category
func RecordPlaceholders(category string, n int) {
	if n <= 0 {
		return
	}
	PlaceholdersIssuedTotal.WithLabelValues(category).Add(float64(n))
}

// RecordMaskDuration records masking duration
func RecordMaskDuration(language string, seconds float64) {
	MaskDuration.WithLabelValues(language).Observe(seconds)
}
