package metrics

// Formats lists the detected-format label values used by the ingest metrics.
var Formats = []string{"png", "jpeg", "gif", "webp", "bmp", "tiff", "ico", "hdr", "tga", "pnm", "unknown"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	outcomes := []string{"stored", "detect_error", "decode_error", "encode_error", "persist_error"}
	for _, format := range Formats {
		for _, outcome := range outcomes {
			IngestTotal.WithLabelValues(format, outcome)
		}
		IngestDuration.WithLabelValues(format)
	}

	for _, ext := range []string{"png", "jpg", "gif"} {
		IngestOutputBytes.WithLabelValues(ext)
	}

	for _, result := range []string{"applied", "identity", "missing", "invalid"} {
		IngestEXIFOrientation.WithLabelValues(result)
	}

	for _, status := range []string{"success", "error_read", "error_decode", "error_encode", "error_persist"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, result := range []string{"complete", "error"} {
		ThumbnailBatchesTotal.WithLabelValues(result)
	}

	for _, op := range []string{"initialize_schema", "add_gallery_images", "list_gallery_images", "max_added"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "open", "read"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}

// SetAppInfo publishes build information as a constant gauge.
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
