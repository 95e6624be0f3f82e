package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"quad-image/internal/logging"
	"quad-image/internal/metrics"
)

const (
	// MaxNameAttempts bounds the number of distinct candidate names tried
	// by a single Persist call.
	MaxNameAttempts = 32768

	nameLength = 10
	nameChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	tempPattern = ".upload-*.tmp"
)

var (
	// ErrNamesExhausted is returned when every candidate name collided.
	ErrNamesExhausted = errors.New("no free image name found")

	// ErrMakeReadable is returned when a persisted file could not be
	// made world-readable.
	ErrMakeReadable = errors.New("could not make file readable")
)

// Writer persists encoded images under generated names inside
// <root>/e. Uniqueness is enforced with an exclusive hard link, so any
// number of goroutines or processes may share a root without locking.
type Writer struct {
	root string
	dir  string

	newName func() string
	link    func(oldname, newname string) error
	chmod   func(name string, mode os.FileMode) error
}

// NewWriter returns a Writer rooted at root, creating the image directory
// if needed.
func NewWriter(root string) (*Writer, error) {
	dir := filepath.Join(root, ImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}
	return &Writer{
		root:    root,
		dir:     dir,
		newName: randomName,
		link:    os.Link,
		chmod:   os.Chmod,
	}, nil
}

// Root returns the storage root.
func (w *Writer) Root() string {
	return w.root
}

// Path returns the filesystem path for an image or thumbnail id.
func (w *Writer) Path(id string) string {
	return filepath.Join(w.root, filepath.FromSlash(id))
}

// TempFile is a scratch file in the image directory. Callers must defer
// Cleanup; it is a no-op once the file has been persisted.
type TempFile struct {
	*os.File
	closed    bool
	persisted bool
}

// CreateTemp opens a new scratch file next to the final destination so the
// persist step never crosses a volume boundary.
func (w *Writer) CreateTemp() (*TempFile, error) {
	f, err := os.CreateTemp(w.dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &TempFile{File: f}, nil
}

func (t *TempFile) close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.File.Close()
}

// finish flushes and closes the file ahead of linking it into place.
func (t *TempFile) finish() error {
	if err := t.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := t.close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return nil
}

// Cleanup closes and removes the scratch file unless it was persisted.
// It is safe to call more than once.
func (t *TempFile) Cleanup() error {
	closeErr := t.close()
	if t.persisted {
		return nil
	}
	t.persisted = true
	removeErr := os.Remove(t.Name())
	if errors.Is(removeErr, fs.ErrNotExist) {
		removeErr = nil
	}
	return errors.Join(closeErr, removeErr)
}

// Persist moves tmp to e/<random>.<ext> without ever replacing an
// existing file, and returns the new id.
func (w *Writer) Persist(tmp *TempFile, ext string) (string, error) {
	if err := tmp.finish(); err != nil {
		return "", err
	}

	tried := make(map[string]struct{})
	for draws := 0; len(tried) < MaxNameAttempts && draws < 4*MaxNameAttempts; draws++ {
		candidate := w.newName() + "." + ext
		if _, seen := tried[candidate]; seen {
			continue
		}
		tried[candidate] = struct{}{}

		dest := filepath.Join(w.dir, candidate)
		err := w.link(tmp.Name(), dest)
		if errors.Is(err, fs.ErrExist) {
			metrics.StorageNameCollisions.Inc()
			logging.Debug("Image name %s already taken, retrying", candidate)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to persist %s: %w", candidate, err)
		}

		tmp.persisted = true
		if err := os.Remove(tmp.Name()); err != nil {
			logging.Warn("Failed to remove temp file %s: %v", tmp.Name(), err)
		}

		id := ImageDir + "/" + candidate
		if err := w.chmod(dest, 0o644); err != nil {
			if rerr := os.Remove(dest); rerr != nil {
				logging.Warn("Failed to remove unreadable image %s: %v", id, rerr)
			}
			return "", fmt.Errorf("%w %s: %w", ErrMakeReadable, id, err)
		}
		return id, nil
	}

	return "", fmt.Errorf("%w after %d attempts", ErrNamesExhausted, len(tried))
}

// PersistAs moves tmp to the given id, replacing any previous file of the
// same name. Used for derived artifacts such as thumbnails whose names
// are not random.
func (w *Writer) PersistAs(tmp *TempFile, id string) error {
	if err := tmp.finish(); err != nil {
		return err
	}
	dest := w.Path(id)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to persist %s: %w", id, err)
	}
	tmp.persisted = true
	if err := os.Chmod(dest, 0o644); err != nil {
		return fmt.Errorf("%w %s: %w", ErrMakeReadable, id, err)
	}
	return nil
}

// Images lists every stored image id, sorted.
func (w *Writer) Images() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if id := imageIDForName(entry.Name()); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// MissingThumbnails lists stored images that have no thumbnail yet.
func (w *Writer) MissingThumbnails() ([]string, error) {
	ids, err := w.Images()
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, id := range ids {
		_, err := StatWithRetry(w.Path(ThumbnailID(id)), DefaultRetryConfig())
		if errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check thumbnail for %s: %w", id, err)
		}
	}
	return missing, nil
}

func randomName() string {
	b := make([]byte, nameLength)
	for i := range b {
		b[i] = nameChars[rand.IntN(len(nameChars))]
	}
	return string(b)
}
