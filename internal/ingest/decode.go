package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	ico "github.com/biessek/golang-ico"
	"github.com/ftrvxmtrx/tga"
	pnm "github.com/jbuchbinder/gopnm"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"quad-image/internal/logging"
)

type decodeFunc func(io.Reader) (image.Image, error)

var decoders = map[Format]decodeFunc{
	FormatPNG:  png.Decode,
	FormatJPEG: jpeg.Decode,
	FormatGIF:  gif.Decode,
	FormatWEBP: webp.Decode,
	FormatBMP:  bmp.Decode,
	FormatTIFF: tiff.Decode,
	FormatICO:  ico.Decode,
	FormatHDR:  rgbe.Decode,
	FormatTGA:  tga.Decode,
	FormatPNM:  pnm.Decode,
}

// carriesEXIF reports whether orientation metadata is looked for.
func carriesEXIF(f Format) bool {
	switch f {
	case FormatJPEG, FormatWEBP, FormatTIFF:
		return true
	}
	return false
}

// Decoded is a still image with its orientation already applied.
// Orientation is the EXIF value found, or 0 when none was read.
type Decoded struct {
	Image       image.Image
	Format      Format
	Orientation int
}

// Decode decodes a still image and applies any EXIF orientation. A missing
// or unreadable orientation tag is logged and otherwise ignored.
func Decode(data []byte, format Format) (*Decoded, error) {
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	decoded := &Decoded{Image: img, Format: format}
	if !carriesEXIF(format) {
		return decoded, nil
	}

	orientation, err := readOrientation(data, format)
	if err != nil {
		logging.Warn("No usable EXIF orientation in %s upload: %v", format, err)
		recordOrientation("missing")
		return decoded, nil
	}

	decoded.Orientation = orientation
	decoded.Image = ApplyOrientation(img, orientation)
	return decoded, nil
}

var storedDecoders = map[string]decodeFunc{
	TargetPNG.Ext():  png.Decode,
	TargetJPEG.Ext(): jpeg.Decode,
	TargetGIF.Ext():  gif.Decode,
}

// DecodeStored decodes a file written by Pipeline.Store, picking the decoder
// from its extension (with or without the leading dot). The image package
// registry is not consulted: the TGA decoder registers an empty magic and
// claims every input there.
func DecodeStored(data []byte, ext string) (image.Image, error) {
	decode, ok := storedDecoders[strings.TrimPrefix(ext, ".")]
	if !ok {
		return nil, fmt.Errorf("%w: stored extension %q", ErrUnknownFormat, ext)
	}
	return decode(bytes.NewReader(data))
}
