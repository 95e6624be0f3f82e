// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read from environment variables via [LoadConfig]. A .env
// file in the working directory is loaded first by [LoadEnvFile] when present.
//
//   - DATA_DIR: Root directory; images live under DATA_DIR/e (default: .)
//   - DATABASE_PATH: SQLite gallery database (default: DATA_DIR/gallery.db)
//   - SECRET_PATH: Server secret for gallery tokens (default: DATA_DIR/config/secret)
//   - BIND_ADDR: HTTP listen address (default: 127.0.0.1:6699)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - THUMBNAIL_INTERVAL: Missing-thumbnail sweep interval (default: 6h)
//   - MAX_UPLOAD_BYTES: Upload body limit (default: 50 MiB)
//   - CORS_ORIGINS: Comma-separated allowed origins (default: none)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_IMAGE_REQUESTS: Log /e/ image and thumbnail fetches (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Server Secret
//
// [LoadSecret] reads the secret used to derive public gallery tokens,
// generating 32 random bytes on first start. The file is created
// exclusively with mode 0600 so concurrent first starts agree on one value.
//
// # Build Information
//
// Version details are injected at build time via ldflags:
//
//	go build -ldflags "-X quad-image/internal/startup.Version=1.0.0"
package startup
