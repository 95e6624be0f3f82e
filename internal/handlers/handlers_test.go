package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"slices"
	"sync"
	"testing"

	"quad-image/internal/filesystem"
	"quad-image/internal/gallery"
	"quad-image/internal/startup"
	"quad-image/internal/thumbs"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(context.Context) error {
	return f.err
}

// memoryStore keeps gallery rows newest first, ignoring duplicates.
type memoryStore struct {
	mu   sync.Mutex
	rows map[string][]string
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[string][]string)}
}

func (m *memoryStore) AddGalleryImages(_ context.Context, token string, imageIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, id := range imageIDs {
		if !slices.Contains(m.rows[token], id) {
			m.rows[token] = append([]string{id}, m.rows[token]...)
		}
	}
	return nil
}

func (m *memoryStore) ListGalleryImages(_ context.Context, token string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]string{}, m.rows[token]...), nil
}

var testSecret = []byte{5, 6}

func newTestHandlers(t *testing.T) (*Handlers, *memoryStore) {
	t.Helper()

	writer, err := filesystem.NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	store := newMemoryStore()
	config := &startup.Config{MaxUploadBytes: 1 << 20}

	h := New(fakeDB{}, writer, thumbs.NewGenerator(writer, 1), gallery.NewService(store, testSecret), config)
	return h, store
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// multipartBody builds a form with optional fields and an optional image file.
func multipartBody(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile(uploadField, "upload.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}
