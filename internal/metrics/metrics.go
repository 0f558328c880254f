package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_intake_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_intake_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Intake metrics
var (
	IntakeBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_batches_total",
			Help: "Total number of intake batches by origin",
		},
		[]string{"origin"},
	)

	IntakeFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_files_total",
			Help: "Total number of submitted files by outcome",
		},
		[]string{"outcome"}, // "accepted", "rejected"
	)

	IntakeRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_rejections_total",
			Help: "Total number of rejected files by validation error kind",
		},
		[]string{"kind"},
	)

	IntakeBatchBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_intake_batch_accepted_bytes",
			Help:    "Accepted bytes per intake batch",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB .. 256MiB
		},
	)
)

// Worker channel metrics
var (
	WorkerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_worker_calls_total",
			Help: "Total number of worker channel calls by resolution status",
		},
		[]string{"status"}, // "ok", "error", "cancelled"
	)

	WorkerCallsOutstanding = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_intake_worker_calls_outstanding",
			Help: "Number of worker channel calls waiting for a response",
		},
	)

	WorkerCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_intake_worker_call_duration_seconds",
			Help:    "Round trip time of worker channel calls",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	WorkerResponsesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_intake_worker_responses_dropped_total",
			Help: "Responses whose correlation id matched no outstanding call",
		},
	)

	WorkerChannelsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_intake_worker_channels_active",
			Help: "Number of worker channels that have not been terminated",
		},
	)
)

// Decode and preview metrics
var (
	DecodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_decode_total",
			Help: "Total number of bitmap decodes by format and status",
		},
		[]string{"format", "status"},
	)

	DecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_intake_decode_duration_seconds",
			Help:    "Time spent decoding images inside the worker context",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"format"},
	)

	PreviewRecomputeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_preview_recompute_total",
			Help: "Total number of preview geometry recomputations by trigger",
		},
		[]string{"trigger"}, // "resize", "natural", "options"
	)

	PreviewRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_intake_preview_render_duration_seconds",
			Help:    "Time spent rendering preview JPEGs",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Ledger metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_db_queries_total",
			Help: "Total number of intake ledger queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_intake_db_query_duration_seconds",
			Help:    "Intake ledger query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	LedgerEventsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_intake_ledger_events",
			Help: "Number of intake events stored in the ledger",
		},
	)

	LedgerFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_intake_ledger_files",
			Help: "Number of files stored in the ledger by outcome",
		},
		[]string{"outcome"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_intake_memory_usage_ratio",
			Help: "Go heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPressure = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_intake_memory_pressure",
			Help: "1 while uploads are refused because memory is critical",
		},
	)

	UploadsRefusedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_intake_uploads_refused_total",
			Help: "Total number of uploads refused under memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retries after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that exhausted their retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen by filesystem operations",
		},
		[]string{"operation"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_intake_filesystem_retry_duration_seconds",
			Help:    "Time spent in filesystem operations including retries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation"},
	)
)

// Drop folder metrics
var (
	DropFolderEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_intake_dropfolder_events_total",
			Help: "Total number of filesystem events seen in the drop folder",
		},
		[]string{"event"},
	)

	DropFolderBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_intake_dropfolder_batches_total",
			Help: "Total number of batches delivered from the drop folder",
		},
	)

	DropFolderErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_intake_dropfolder_errors_total",
			Help: "Total number of drop folder watcher and read errors",
		},
	)

	DropFolderWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_intake_dropfolder_watched_directories",
			Help: "Number of directories watched under the drop folder",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_intake_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
