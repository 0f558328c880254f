package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, origin := range []string{"drop", "picker", "api", "cli"} {
		IntakeBatchesTotal.WithLabelValues(origin)
	}

	for _, outcome := range []string{"accepted", "rejected"} {
		IntakeFilesTotal.WithLabelValues(outcome)
		LedgerFilesTotal.WithLabelValues(outcome)
	}

	for _, kind := range []string{"type_rejected", "size_too_small", "size_too_large",
		"multiple_not_allowed", "total_size_exceeded"} {
		IntakeRejectionsTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"ok", "error", "cancelled"} {
		WorkerCallsTotal.WithLabelValues(status)
	}

	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "unknown"} {
		DecodeDuration.WithLabelValues(format)
		for _, status := range []string{"success", "error"} {
			DecodeTotal.WithLabelValues(format, status)
		}
	}

	for _, trigger := range []string{"resize", "natural", "options"} {
		PreviewRecomputeTotal.WithLabelValues(trigger)
	}

	for _, op := range []string{"initialize_schema", "record_event", "recent_events", "get_event", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "read"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemRetryDuration.WithLabelValues(op)
	}

	for _, event := range []string{"create", "write", "remove", "rename", "chmod"} {
		DropFolderEventsTotal.WithLabelValues(event)
	}
}
