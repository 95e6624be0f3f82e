package ingest

import (
	"image"

	"github.com/disintegration/imaging"

	"quad-image/internal/logging"
	"quad-image/internal/metrics"
)

// ApplyOrientation rotates and flips img so that it displays upright for
// the given EXIF orientation. value-1 is read as three flags: transpose,
// then rotate 180, then flip horizontally. Out-of-range values are ignored.
func ApplyOrientation(img image.Image, value int) image.Image {
	if value < 1 || value > 8 {
		logging.Warn("Ignoring out-of-range EXIF orientation %d", value)
		recordOrientation("invalid")
		return img
	}
	if value == 1 {
		recordOrientation("identity")
		return img
	}

	flags := value - 1
	if flags&0b100 != 0 {
		img = imaging.Transpose(img)
	}
	if flags&0b010 != 0 {
		img = imaging.Rotate180(img)
	}
	if flags&0b001 != 0 {
		img = imaging.FlipH(img)
	}
	recordOrientation("applied")
	return img
}

func recordOrientation(result string) {
	metrics.IngestEXIFOrientation.WithLabelValues(result).Inc()
}
