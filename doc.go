// Package main provides the entry point for the quad-image server.
//
// quad-image is a small image host. Uploads are sniffed, decoded, rotated
// according to their EXIF orientation and re-encoded as PNG, JPEG or GIF
// under a random ten character name. Thumbnails are generated alongside,
// and images can be grouped into galleries addressed by a token derived
// from a name and passphrase.
//
// # Application Lifecycle
//
//  1. Environment: loads an optional .env file and sets GOMEMLIMIT
//  2. Configuration: reads environment variables and validates DATA_DIR
//  3. Secret: loads or generates the gallery token secret
//  4. Database: opens the SQLite gallery store
//  5. Background jobs: a thumbnail sweep at start and every
//     THUMBNAIL_INTERVAL, and database metrics every minute
//  6. HTTP: the API on BIND_ADDR and Prometheus metrics on METRICS_PORT
//  7. Graceful shutdown on SIGINT/SIGTERM
//
// # Routes
//
//	POST     /api/upload            store an image (multipart field "image")
//	POST|PUT /api/gallery           add images to a gallery
//	GET      /api/gallery/{public}  list a gallery, newest first
//	GET      /e/{name}              stored images and thumbnails
//	GET      /health /healthz /livez /readyz /version
package main
