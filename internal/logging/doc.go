// Package logging provides a simple leveled logging interface for quad-image.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (EXIF lookups, duplicate gallery rows)
//   - INFO: General operational messages (stored images, thumbnail batches)
//   - WARN: Recoverable problems (missing EXIF, failed post-upload thumbnails)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the process
//
// The log level is configured via the DEBUG or LOG_LEVEL environment variables,
// and can be overridden at runtime with SetLevel.
package logging
