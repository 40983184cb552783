package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeatureRunsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feature_runs_started_total",
		Help: "Total number of feature table runs started",
	})

	FeatureRunsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feature_runs_completed_total",
		Help: "Total number of feature table runs published",
	})

	FeatureRunsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feature_runs_failed_total",
		Help: "Total number of failed feature table runs",
	}, []string{"reason"})

	FeatureRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feature_run_duration_seconds",
		Help:    "End-to-end duration of a feature table run",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	FeatureMissingFxTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feature_missing_fx_total",
		Help: "Order items whose monetary fields were emitted as null because no FX rate was resolvable",
	})

	FeatureUnresolvedOrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feature_unresolved_orders_total",
		Help: "Orders excluded from rollups because no customer link was resolvable",
	})

	FeatureCustomersEmitted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feature_customers_emitted",
		Help: "Customer feature records emitted by the last completed run",
	})

	SegmentsAssignedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segments_assigned_total",
		Help: "Total segment assignments by label",
	}, []string{"segment"})

	SegmentScoresRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "segment_scores_rejected_total",
		Help: "Scores rejected for being outside [0,1]",
	})

	FeatureCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feature_cache_requests_total",
		Help: "Feature record cache lookups by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
