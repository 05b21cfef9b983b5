package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_worker_pipeline_runs_total",
			Help: "Total number of pipeline invocations by final status and error kind",
		},
		[]string{"status", "error_kind"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_worker_pipeline_duration_seconds",
			Help:    "Pipeline invocation duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	AssetBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_worker_asset_bytes",
			Help:    "Size of uploaded assets in bytes",
			Buckets: prometheus.ExponentialBuckets(1<<20, 2, 10),
		},
	)

	BestEffortWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_worker_best_effort_write_failures_total",
			Help: "Failed secondary status writes after a primary failure",
		},
	)
)

// Model metrics
var (
	ModelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_worker_model_calls_total",
			Help: "Total number of language model calls by call site",
		},
		[]string{"site"},
	)
)

// Queue metrics
var (
	QueueMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_worker_queue_messages_total",
			Help: "Consumed queue messages by outcome",
		},
		[]string{"queue", "outcome"},
	)
)
