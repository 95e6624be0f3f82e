// Package metrics provides Prometheus instrumentation for quad-image.
//
// All metrics are registered with promauto on package initialization and are
// prefixed with "quad_image_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, normalized path and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Ingest Metrics
//
//   - IngestTotal: uploads by detected format and outcome
//   - IngestDuration: time from raw bytes to persisted image
//   - IngestOutputBytes: persisted size by extension
//   - IngestPNGFallbacks: oversized PNG encodes replaced by JPEG
//   - IngestEXIFOrientation: EXIF orientation lookups by result
//   - StorageNameCollisions: generated names that were already taken
//
// ## Thumbnail Metrics
//
//   - ThumbnailGenerationsTotal, ThumbnailGenerationDuration
//   - ThumbnailBatchPending, ThumbnailBatchesTotal, ThumbnailBatchLastDuration
//
// ## Database Metrics
//
//   - DBQueryTotal, DBQueryDuration, DBConnectionsOpen
//   - GalleryDuplicateInserts, GalleryImagesAdded
//
// ## Filesystem Metrics
//
// Stale NFS file handle retries, labelled by operation (stat, open, read).
//
// # Usage
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape, then expose promhttp.Handler().
package metrics
