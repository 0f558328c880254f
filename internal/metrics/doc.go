// Package metrics provides Prometheus instrumentation for the media-intake service.
//
// All metrics are prefixed with "media_intake_" to avoid naming collisions
// with other applications.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Intake Metrics
//
// Recorded by intake.Engine after every batch:
//   - IntakeBatchesTotal: Counter of batches by origin (drop, picker, api, cli)
//   - IntakeFilesTotal: Counter of files by outcome (accepted, rejected)
//   - IntakeRejectionsTotal: Counter of rejections by kind
//   - IntakeBatchBytes: Histogram of accepted bytes per batch
//
// ## Worker Channel Metrics
//
// Recorded through the workerchan.Observer returned by NewWorkerObserver:
//   - WorkerCallsTotal: Counter of resolved calls by status (ok, error, cancelled)
//   - WorkerCallsOutstanding: Gauge of calls waiting for a response
//   - WorkerCallDuration: Histogram of call round trip time
//   - WorkerResponsesDropped: Counter of responses with unknown correlation ids
//   - WorkerChannelsActive: Gauge of live channels
//
// ## Decode and Preview Metrics
//
//   - DecodeTotal: Counter of decodes by format and status
//   - DecodeDuration: Histogram of decode time by format
//   - PreviewRecomputeTotal: Counter of geometry recomputations by trigger
//   - PreviewRenderDuration: Histogram of preview JPEG render time
//
// ## Ledger Metrics
//
//   - DBQueryTotal / DBQueryDuration: intake ledger queries
//   - LedgerEventsTotal / LedgerFilesTotal: gauges refreshed by Collector
//
// ## Filesystem and Drop Folder Metrics
//
//   - FilesystemStaleErrors, FilesystemRetryAttempts, FilesystemRetrySuccess,
//     FilesystemRetryFailures, FilesystemRetryDuration: NFS retries by operation
//   - DropFolderEventsTotal: fsnotify events by type
//   - DropFolderBatchesTotal / DropFolderErrors / DropFolderWatchedDirectories
//
// ## Memory Metrics
//
//   - MemoryUsageRatio / MemoryPressure: sampled by memory.Monitor
//   - UploadsRefusedTotal: uploads answered 503 under pressure
//
// # Usage
//
//	metrics.InitializeMetrics()
//	workerchan.SetObserver(metrics.NewWorkerObserver())
//	http.Handle("/metrics", promhttp.Handler())
package metrics
