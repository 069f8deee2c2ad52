// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportRowsTotal tracks previewed import rows by disposition
	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Total number of previewed import rows by disposition",
		},
		[]string{"status"},
	)

	// ImportPublishResultsTotal tracks publish outcomes per row
	ImportPublishResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "import",
			Name:      "publish_results_total",
			Help:      "Total number of published import rows by outcome",
		},
		[]string{"result"},
	)

	// ImportBatchDuration tracks the duration of preview and publish passes
	ImportBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "import",
			Name:      "batch_duration_seconds",
			Help:      "Duration of import preview and publish passes in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// ClaimsSubmittedTotal tracks public claim submissions
	ClaimsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "claims",
			Name:      "submitted_total",
			Help:      "Total number of claim requests submitted",
		},
	)

	// ClaimsResolvedTotal tracks claim moderation outcomes
	ClaimsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "claims",
			Name:      "resolved_total",
			Help:      "Total number of claim requests resolved by outcome",
		},
		[]string{"outcome"},
	)

	// SearchRequestsTotal tracks public directory searches
	SearchRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "directory",
			Name:      "search_requests_total",
			Help:      "Total number of public search requests",
		},
	)
)
