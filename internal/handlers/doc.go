// Package handlers provides the HTTP handlers for the image host.
//
// It includes handlers for:
//   - Image upload (POST /api/upload)
//   - Gallery membership and listing (/api/gallery)
//   - Serving stored images and thumbnails (/e/{name})
//   - Health checks, version and metrics
package handlers
