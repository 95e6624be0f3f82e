package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quad-image/internal/filesystem"
	"quad-image/internal/gallery"
	"quad-image/internal/handlers"
	"quad-image/internal/middleware"
	"quad-image/internal/startup"
	"quad-image/internal/thumbs"
)

type okDB struct{}

func (okDB) Ping(context.Context) error { return nil }

type nopStore struct{}

func (nopStore) AddGalleryImages(context.Context, string, []string) error { return nil }

func (nopStore) ListGalleryImages(context.Context, string) ([]string, error) {
	return []string{}, nil
}

func newTestServer(t *testing.T, config *startup.Config) http.Handler {
	t.Helper()

	writer, err := filesystem.NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	h := handlers.New(okDB{}, writer, thumbs.NewGenerator(writer, 1), gallery.NewService(nopStore{}, []byte("secret")), config)
	return buildHandler(setupRouter(h), config)
}

func TestRoutes(t *testing.T) {
	server := newTestServer(t, &startup.Config{MaxUploadBytes: 1 << 20})

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/livez", http.StatusOK},
		{http.MethodHead, "/livez", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/api/gallery/potato:GTc-2ixSLg", http.StatusOK},
		{http.MethodGet, "/api/gallery/nope", http.StatusBadRequest},
		{http.MethodGet, "/e/abcdefghij.png", http.StatusNotFound},
		{http.MethodGet, "/api/upload", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/gallery", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/gallery/potato:GTc-2ixSLg", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/e/abcdefghij.png", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/upload", http.StatusBadRequest},
		{http.MethodGet, "/index.html", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, http.NoBody))

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("response is missing a request id")
			}
		})
	}
}

func TestGalleryRouteAcceptsPut(t *testing.T) {
	server := newTestServer(t, &startup.Config{MaxUploadBytes: 1 << 20})

	for _, method := range []string{http.MethodPost, http.MethodPut} {
		values := url.Values{"gallery": {"potato!carrots"}, "image": {"e/abcdefghij.png"}}
		req := httptest.NewRequest(method, "/api/gallery", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s /api/gallery status = %d: %s", method, w.Code, w.Body.String())
		}
	}
}

func TestAccessLogRecordsGalleryToken(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	server := newTestServer(t, &startup.Config{MaxUploadBytes: 1 << 20})

	values := url.Values{"gallery": {"potato!carrots"}, "image": {"e/abcdefghij.png"}}
	req := httptest.NewRequest(http.MethodPut, "/api/gallery", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var resp struct {
		Public string `json:"public"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Public == "" {
		t.Fatalf("response %q: %v", w.Body.String(), err)
	}

	out := buf.String()
	if !strings.Contains(out, "#Fields: "+middleware.AccessLogFields) {
		t.Error("access log directive not written")
	}
	if !strings.Contains(out, " "+resp.Public+" ") {
		t.Errorf("access log does not record token %s:\n%s", resp.Public, out)
	}
}

func TestCORS(t *testing.T) {
	config := &startup.Config{MaxUploadBytes: 1 << 20, CORSOrigins: []string{"https://quad.example"}}
	server := newTestServer(t, config)

	req := httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
	req.Header.Set("Origin", "https://quad.example")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://quad.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q for a foreign origin", got)
	}
}

func TestCORSDisabledByDefault(t *testing.T) {
	server := newTestServer(t, &startup.Config{MaxUploadBytes: 1 << 20})

	req := httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
	req.Header.Set("Origin", "https://quad.example")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
	}
}

type countingDB struct {
	updates atomic.Int32
}

func (c *countingDB) UpdateDBMetrics() {
	c.updates.Add(1)
}

func TestStartScheduler(t *testing.T) {
	writer, err := filesystem.NewWriter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	gen := thumbs.NewGenerator(writer, 1)

	scheduler, err := startScheduler(context.Background(), gen, &countingDB{}, time.Hour)
	if err != nil {
		t.Fatalf("startScheduler() error = %v", err)
	}
	defer scheduler.Stop()

	if n := len(scheduler.Entries()); n != 2 {
		t.Errorf("scheduled %d jobs, want 2", n)
	}
}
