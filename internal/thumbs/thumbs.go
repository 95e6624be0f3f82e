package thumbs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"quad-image/internal/filesystem"
	"quad-image/internal/ingest"
	"quad-image/internal/logging"
	"quad-image/internal/metrics"
)

const (
	MaxWidth  = 320
	MaxHeight = 160
	Quality   = 40
)

// ErrInvalidImageID is returned for ids that do not name a stored image.
var ErrInvalidImageID = errors.New("invalid image id")

// Error wraps a failure to thumbnail a particular image.
type Error struct {
	ImageID string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("thumbnailing %s: %v", e.ImageID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Generator writes JPEG previews next to stored images.
type Generator struct {
	writer  *filesystem.Writer
	workers int
}

// NewGenerator returns a Generator that runs at most workers thumbnails at
// once during GenerateAll.
func NewGenerator(writer *filesystem.Writer, workers int) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{writer: writer, workers: workers}
}

// Generate (re)writes the thumbnail for imageID and returns its id.
func (g *Generator) Generate(imageID string) (string, error) {
	start := time.Now()
	thumbID, status, err := g.generate(imageID)
	metrics.ThumbnailGenerationsTotal.WithLabelValues(status).Inc()
	if err != nil {
		return "", &Error{ImageID: imageID, Err: err}
	}
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Thumbnail generated for %s in %v", imageID, time.Since(start))
	return thumbID, nil
}

func (g *Generator) generate(imageID string) (string, string, error) {
	if !filesystem.ValidImageID(imageID) {
		return "", "error_read", ErrInvalidImageID
	}

	data, err := filesystem.ReadFileWithRetry(g.writer.Path(imageID), filesystem.DefaultRetryConfig())
	if err != nil {
		return "", "error_read", err
	}

	img, err := ingest.DecodeStored(data, path.Ext(imageID))
	if err != nil {
		return "", "error_decode", fmt.Errorf("decode: %w", err)
	}

	tmp, err := g.writer.CreateTemp()
	if err != nil {
		return "", "error_encode", err
	}
	defer func() {
		if cerr := tmp.Cleanup(); cerr != nil {
			logging.Warn("Failed to clean up temp file %s: %v", tmp.Name(), cerr)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := imaging.Encode(bw, shrink(img), imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		return "", "error_encode", fmt.Errorf("encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return "", "error_encode", fmt.Errorf("write: %w", err)
	}

	thumbID := filesystem.ThumbnailID(imageID)
	if err := g.writer.PersistAs(tmp, thumbID); err != nil {
		return "", "error_persist", err
	}
	return thumbID, "success", nil
}

// shrink fits img inside MaxWidth x MaxHeight, keeping its aspect ratio,
// and drops the alpha channel.
func shrink(img image.Image) image.Image {
	fitted := imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
	return imaging.AdjustFunc(fitted, func(c color.NRGBA) color.NRGBA {
		c.A = 255
		return c
	})
}

// Pending lists stored images that have no thumbnail.
func (g *Generator) Pending() ([]string, error) {
	return g.writer.MissingThumbnails()
}

// GenerateAll thumbnails every stored image that lacks one, in parallel.
// It returns the first failure; other images may or may not have been
// processed by then.
func (g *Generator) GenerateAll(ctx context.Context) error {
	start := time.Now()

	pending, err := g.Pending()
	if err != nil {
		metrics.ThumbnailBatchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to list pending thumbnails: %w", err)
	}
	metrics.ThumbnailBatchPending.Set(float64(len(pending)))

	if len(pending) == 0 {
		logging.Debug("No thumbnails to generate")
		metrics.ThumbnailBatchesTotal.WithLabelValues("complete").Inc()
		return nil
	}

	logging.Info("Thumbnailing %d image(s) with %d workers", len(pending), g.workers)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)

	for _, id := range pending {
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := g.Generate(id)
			return err
		})
	}

	err = group.Wait()
	duration := time.Since(start)
	metrics.ThumbnailBatchLastDuration.Set(duration.Seconds())

	if err != nil {
		metrics.ThumbnailBatchesTotal.WithLabelValues("error").Inc()
		logging.Error("Thumbnailing failed after %v: %v", duration, err)
		return err
	}

	metrics.ThumbnailBatchesTotal.WithLabelValues("complete").Inc()
	logging.Info("Thumbnailing complete: %d image(s) in %v", len(pending), duration)
	return nil
}
