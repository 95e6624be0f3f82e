package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quad_image_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quad_image_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Ingest metrics
var (
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_ingest_total",
			Help: "Total number of uploads processed by detected format and outcome",
		},
		[]string{"format", "outcome"}, // outcome: stored, detect_error, decode_error, encode_error, persist_error
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quad_image_ingest_duration_seconds",
			Help:    "Time from raw bytes to persisted image",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format"},
	)

	IngestOutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quad_image_ingest_output_bytes",
			Help:    "Size of persisted images in bytes by extension",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		},
		[]string{"ext"},
	)

	IngestPNGFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quad_image_ingest_png_fallbacks_total",
			Help: "Oversized PNG encodes replaced by JPEG",
		},
	)

	IngestEXIFOrientation = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_ingest_exif_orientation_total",
			Help: "EXIF orientation lookups by result",
		},
		[]string{"result"}, // applied, identity, missing, invalid
	)

	StorageNameCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quad_image_storage_name_collisions_total",
			Help: "Candidate file names rejected because they already existed",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by status",
		},
		[]string{"status"}, // success, error_read, error_decode, error_encode, error_persist
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quad_image_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ThumbnailBatchPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quad_image_thumbnail_batch_pending",
			Help: "Images found without thumbnails at the start of the last batch",
		},
	)

	ThumbnailBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_thumbnail_batches_total",
			Help: "Thumbnail batch runs by result",
		},
		[]string{"result"}, // complete, error
	)

	ThumbnailBatchLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quad_image_thumbnail_batch_last_duration_seconds",
			Help: "Duration of the last thumbnail batch in seconds",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quad_image_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quad_image_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	GalleryDuplicateInserts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quad_image_gallery_duplicate_inserts_total",
			Help: "Gallery inserts absorbed by the unique (gallery, image) index",
		},
	)

	GalleryImagesAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quad_image_gallery_images_added_total",
			Help: "Gallery rows inserted",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_filesystem_retry_attempts_total",
			Help: "Retries after stale file handle errors",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_filesystem_retry_failures_total",
			Help: "Operations that still failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quad_image_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation"},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quad_image_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
