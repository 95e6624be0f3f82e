package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// AccessLogFields is the W3C #Fields directive describing each access line.
const AccessLogFields = "date time c-ip cs-method cs-uri-stem sc-status sc-bytes time-taken x-request-id x-result cs(User-Agent)"

// imagePrefix is the route prefix for stored images and thumbnails.
const imagePrefix = "/e/"

// ResponseWriter wrapper to capture status code and bytes written
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// LoggingConfig holds configuration for the access log middleware
type LoggingConfig struct {
	SkipPaths        []string
	LogImageRequests bool
	LogHealthChecks  bool
}

// DefaultLoggingConfig logs API and health requests but not image fetches,
// which dominate traffic.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{LogHealthChecks: true}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

type resultKey struct{}

type result struct {
	value string
}

// SetResult records what a request produced, such as a stored image id or
// a gallery token, for its access log line. Outside Logger it does nothing.
func SetResult(r *http.Request, value string) {
	if res, ok := r.Context().Value(resultKey{}).(*result); ok {
		res.value = value
	}
}

// AccessLogger writes one W3C extended format line per request.
type AccessLogger struct {
	config LoggingConfig
	out    *log.Logger
}

// NewAccessLogger writes the #Fields directive to out (the standard logger
// when nil) and returns a logger for subsequent lines.
func NewAccessLogger(config LoggingConfig, out *log.Logger) *AccessLogger {
	if out == nil {
		out = log.Default()
	}
	out.Println("#Fields: " + AccessLogFields)
	return &AccessLogger{config: config, out: out}
}

// Logger returns access log middleware. It must run inside RequestID for
// the x-request-id column to be filled.
func Logger(config LoggingConfig, out *log.Logger) func(http.Handler) http.Handler {
	logger := NewAccessLogger(config, out)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			res := &result{}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), resultKey{}, res)))

			logger.logRequest(r, wrapped, res.value, time.Since(start))
		})
	}
}

func (l *AccessLogger) skip(path string) bool {
	for _, prefix := range l.config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if !l.config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}
	return !l.config.LogImageRequests && strings.HasPrefix(path, imagePrefix)
}

func (l *AccessLogger) logRequest(r *http.Request, rw *responseWriter, res string, duration time.Duration) {
	now := time.Now().UTC()

	userAgent := logField(r.Header.Get("User-Agent"))
	if userAgent != "-" {
		userAgent = escapeW3CField(userAgent)
	}

	// All request-controlled values pass through logField, so none can
	// break the line.
	l.out.Println(fmt.Sprintf("%s %s %s %s %s %d %d %d %s %s %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		logField(getClientIP(r)),
		logField(r.Method),
		logField(r.URL.Path),
		rw.statusCode,
		rw.bytesWritten,
		duration.Milliseconds(),
		logField(RequestIDFromContext(r.Context())),
		logField(res),
		userAgent,
	))
}

// logField sanitizes s and substitutes "-" for an empty value.
func logField(s string) string {
	s = sanitizeLogField(s)
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField removes control characters that could be used for log
// injection. Newlines become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r < 0x20 && r != '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// escapeW3CField quotes values containing whitespace or quotes, doubling
// any embedded quotes.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
