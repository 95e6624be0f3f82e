package middleware

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestResponseWriterWriteHeader(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}

	rw.WriteHeader(http.StatusNotFound)
	// Write header again - should be ignored
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}
}

func TestResponseWriterWrite(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	data := []byte("test data")
	n, err := rw.Write(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != len(data) || rw.bytesWritten != int64(len(data)) {
		t.Errorf("Expected %d bytes written, got n=%d counted=%d", len(data), n, rw.bytesWritten)
	}
	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after Write")
	}
}

func TestAccessLoggerSkip(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
		want   bool
	}{
		{"upload is logged", "/api/upload", DefaultLoggingConfig(), false},
		{"images skipped by default", "/e/abcdefghij.png", DefaultLoggingConfig(), true},
		{"thumbnails skipped by default", "/e/abcdefghij.png.thumb.jpg", DefaultLoggingConfig(), true},
		{"images logged when enabled", "/e/abcdefghij.png", LoggingConfig{LogImageRequests: true}, false},
		{"health logged when enabled", "/health", LoggingConfig{LogHealthChecks: true}, false},
		{"health skipped when disabled", "/readyz", LoggingConfig{LogHealthChecks: false}, true},
		{"explicit skip path", "/metrics", LoggingConfig{SkipPaths: []string{"/metrics"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewAccessLogger(tt.config, log.New(io.Discard, "", 0))
			if got := logger.skip(tt.path); got != tt.want {
				t.Errorf("skip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// logLines runs one request through RequestID and Logger and returns the
// lines written, the #Fields directive first.
func logLines(t *testing.T, config LoggingConfig, req *http.Request, h http.HandlerFunc) []string {
	t.Helper()
	var buf bytes.Buffer
	handler := RequestID()(Logger(config, log.New(&buf, "", 0))(h))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func TestAccessLogLine(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/upload?x=1", http.NoBody)
	req.RemoteAddr = "192.0.2.7:5555"
	req.Header.Set(RequestIDHeader, "req-1")
	req.Header.Set("User-Agent", "curl/8.0\r\nforged line")

	lines := logLines(t, DefaultLoggingConfig(), req, func(w http.ResponseWriter, r *http.Request) {
		SetResult(r, "e/abcdefghij.png")
		http.Redirect(w, r, "/abcdefghij.png", http.StatusSeeOther)
	})

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want directive and one access line: %q", len(lines), lines)
	}
	if lines[0] != "#Fields: "+AccessLogFields {
		t.Errorf("directive = %q", lines[0])
	}

	fields := strings.Fields(lines[1])
	if len(fields) < 11 {
		t.Fatalf("too few fields in %q", lines[1])
	}
	want := map[int]string{
		2: "192.0.2.7",
		3: "POST",
		4: "/api/upload",
		5: "303",
		8: "req-1",
		9: "e/abcdefghij.png",
	}
	for i, v := range want {
		if fields[i] != v {
			t.Errorf("field %d = %q, want %q in %q", i, fields[i], v, lines[1])
		}
	}
	if !strings.HasPrefix(fields[10], "\"curl/8.0") {
		t.Errorf("user agent not quoted: %q", lines[1])
	}
}

func TestAccessLogWithoutResult(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
	lines := logLines(t, DefaultLoggingConfig(), req, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	fields := strings.Fields(lines[len(lines)-1])
	if fields[6] != "2" {
		t.Errorf("bytes = %q, want 2", fields[6])
	}
	if fields[9] != "-" || fields[10] != "-" {
		t.Errorf("empty result and user agent not dashed: %q", lines[len(lines)-1])
	}
}

func TestAccessLogSkipsImages(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/e/abcdefghij.png", http.NoBody)
	lines := logLines(t, DefaultLoggingConfig(), req, func(http.ResponseWriter, *http.Request) {})
	if len(lines) != 1 {
		t.Errorf("image request was logged: %q", lines)
	}
}

func TestSetResultOutsideLogger(t *testing.T) {
	SetResult(httptest.NewRequest(http.MethodGet, "/", http.NoBody), "ignored")
}

func TestSanitizeLogField(t *testing.T) {
	tests := map[string]string{
		"plain":          "plain",
		"a\nb\rc":        "a b c",
		"\x1b[31mred":    "[31mred",
		"nul\x00byte":    "nulbyte",
		"tab\tkept\x07!": "tab\tkept!",
	}
	for in, want := range tests {
		if got := sanitizeLogField(in); got != want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := getClientIP(req); got != "10.0.0.1" {
		t.Errorf("getClientIP() = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := getClientIP(req); got != "203.0.113.9" {
		t.Errorf("getClientIP() with X-Forwarded-For = %q", got)
	}
}

func TestLoggerMiddlewarePassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig(), log.New(io.Discard, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/gallery/x", http.NoBody))

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("generates", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		id := w.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("generated id %q is not a UUID: %v", id, err)
		}
		if seen != id {
			t.Errorf("context id = %q, header id = %q", seen, id)
		}
	})

	t.Run("reuses incoming", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(RequestIDHeader, "upstream-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "upstream-42" {
			t.Errorf("header id = %q, want upstream-42", got)
		}
	})

	t.Run("replaces malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(RequestIDHeader, "has space")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got == "has space" {
			t.Error("malformed request id was reused")
		}
	})
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if got := RequestIDFromContext(req.Context()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/api/upload":                   "/api/upload",
		"/api/gallery":                  "/api/gallery",
		"/api/gallery/potato:GTc-2ixSL": "/api/gallery/{public}",
		"/e/abcdefghij.png":             "/e/{image}",
		"/e/abcdefghij.png.thumb.jpg":   "/e/{thumb}",
		"/wp-admin/setup.php":           "other",
	}
	for path, want := range tests {
		if got := normalizePath(path); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestMetricsMiddlewareStatusCode(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/upload", http.NoBody))

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected status 415, got %d", w.Code)
	}
}

func BenchmarkNormalizePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		normalizePath("/api/gallery/potato:GTc-2ixSLg")
	}
}
