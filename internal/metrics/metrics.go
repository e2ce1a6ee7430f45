package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook ingestion metrics
var (
	// UpdatesReceivedTotal tracks webhook updates accepted for dispatch
	UpdatesReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_updates_received_total",
			Help: "Total webhook updates accepted for dispatch",
		},
	)

	// UpdatesRejectedTotal tracks rejected webhook requests by reason
	UpdatesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_rejected_total",
			Help: "Total rejected webhook requests by reason",
		},
		[]string{"reason"},
	)

	// DispatchQueueDepth tracks the current dispatch queue occupancy
	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Current number of updates waiting for a worker",
		},
	)
)

// Session store metrics
var (
	// LiveSessions tracks the number of sessions currently in the store
	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_live",
			Help: "Current number of live sessions",
		},
	)

	// SessionsEvictedTotal tracks sessions removed by the reaper
	SessionsEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_evicted_total",
			Help: "Total sessions evicted after exceeding the idle threshold",
		},
	)

	// ReaperScansTotal tracks reaper cycles
	ReaperScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reaper_scans_total",
			Help: "Total reaper scan cycles",
		},
	)
)

// Media and assembly metrics
var (
	// ImagesIngestedTotal tracks successfully persisted attachments
	ImagesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "images_ingested_total",
			Help: "Total images persisted into session scratch space",
		},
	)

	// MediaErrorsTotal tracks failed ingestion attempts by reason
	MediaErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_errors_total",
			Help: "Total failed media ingestions by reason",
		},
		[]string{"reason"},
	)

	// DocumentsAssembledTotal tracks PDF builds by outcome
	DocumentsAssembledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_assembled_total",
			Help: "Total document assembly jobs by outcome",
		},
		[]string{"outcome"},
	)

	// AssemblyDurationSeconds tracks document build latency
	AssemblyDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assembly_duration_seconds",
			Help:    "Document assembly duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)
