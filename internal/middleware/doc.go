// Package middleware provides HTTP middleware for the image host.
//
// It includes:
//   - Request ids (X-Request-ID), generated with UUIDs when absent
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with normalized paths
//
// Served images and health checks can be filtered out of the access log.
package middleware
