package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"

	"quad-image/internal/filesystem"
	"quad-image/internal/logging"
	"quad-image/internal/metrics"
)

const (
	// MaxPNGBytes is the largest PNG kept as PNG. Bigger encodes are
	// redone as JPEG.
	MaxPNGBytes = 1024 * 1024

	jpegQuality = 75
)

// Pipeline turns raw upload bytes into a stored image.
type Pipeline struct {
	writer      *filesystem.Writer
	maxPNGBytes int64
}

// NewPipeline returns a Pipeline that persists through writer.
func NewPipeline(writer *filesystem.Writer) *Pipeline {
	return &Pipeline{
		writer:      writer,
		maxPNGBytes: MaxPNGBytes,
	}
}

// Store detects, decodes, normalizes and re-encodes data, then persists it
// under a fresh id. Failures are returned as *StageError.
func (p *Pipeline) Store(data []byte) (string, error) {
	start := time.Now()

	format, err := Detect(data)
	if err == nil {
		var id string
		id, err = p.store(data, format)
		if err == nil {
			metrics.IngestTotal.WithLabelValues(format.String(), "stored").Inc()
			metrics.IngestDuration.WithLabelValues(format.String()).Observe(time.Since(start).Seconds())
			logging.Debug("Stored %s upload (%d bytes) as %s in %v", format, len(data), id, time.Since(start))
			return id, nil
		}
	} else {
		err = &StageError{Stage: StageDetect, Err: err}
	}

	outcome := "encode_error"
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		outcome = string(stageErr.Stage) + "_error"
	}
	metrics.IngestTotal.WithLabelValues(format.String(), outcome).Inc()
	return "", err
}

func (p *Pipeline) store(data []byte, format Format) (string, error) {
	target, err := TargetFor(format)
	if err != nil {
		return "", &StageError{Stage: StageDecode, Err: err}
	}

	var decoded *Decoded
	if target != TargetGIF {
		decoded, err = Decode(data, format)
		if err != nil {
			return "", &StageError{Stage: StageDecode, Err: err}
		}
	}

	tmp, err := p.writer.CreateTemp()
	if err != nil {
		return "", &StageError{Stage: StageEncode, Err: err}
	}
	defer func() {
		if cerr := tmp.Cleanup(); cerr != nil {
			logging.Warn("Failed to clean up temp file %s: %v", tmp.Name(), cerr)
		}
	}()

	if target == TargetGIF {
		if err := reencodeGIF(data, tmp); err != nil {
			return "", err
		}
	} else {
		target, err = p.encodeStill(tmp, decoded.Image, target)
		if err != nil {
			return "", &StageError{Stage: StageEncode, Err: err}
		}
	}

	size, err := fileSize(tmp)
	if err != nil {
		return "", &StageError{Stage: StageEncode, Err: err}
	}

	id, err := p.writer.Persist(tmp, target.Ext())
	if err != nil {
		return "", &StageError{Stage: StagePersist, Err: err}
	}
	metrics.IngestOutputBytes.WithLabelValues(target.Ext()).Observe(float64(size))
	return id, nil
}

// encodeStill writes img as target. An oversized PNG is thrown away and
// the same image written once more as JPEG; the returned Target is what
// actually ended up in tmp.
func (p *Pipeline) encodeStill(tmp *filesystem.TempFile, img image.Image, target Target) (Target, error) {
	if err := encode(tmp, img, target); err != nil {
		return 0, err
	}
	if target != TargetPNG {
		return target, nil
	}

	pngSize, err := fileSize(tmp)
	if err != nil {
		return 0, err
	}
	if pngSize <= p.maxPNGBytes {
		return TargetPNG, nil
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind temp file: %w", err)
	}
	if err := tmp.Truncate(0); err != nil {
		return 0, fmt.Errorf("truncate temp file: %w", err)
	}
	if err := encode(tmp, img, TargetJPEG); err != nil {
		return 0, fmt.Errorf("jpeg fallback: %w", err)
	}

	jpegSize, err := fileSize(tmp)
	if err != nil {
		return 0, err
	}
	metrics.IngestPNGFallbacks.Inc()
	logging.Info("PNG came out too big, stored as JPEG instead: %d -> %d bytes", pngSize, jpegSize)
	return TargetJPEG, nil
}

func encode(w io.Writer, img image.Image, target Target) error {
	bw := bufio.NewWriter(w)
	var err error
	switch target {
	case TargetPNG:
		err = imaging.Encode(bw, img, imaging.PNG)
	case TargetJPEG:
		err = imaging.Encode(bw, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	default:
		return fmt.Errorf("cannot encode still image as %s", target.Ext())
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", target.Ext(), err)
	}
	return bw.Flush()
}

func fileSize(tmp *filesystem.TempFile) (int64, error) {
	info, err := tmp.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat temp file: %w", err)
	}
	return info.Size(), nil
}
