package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/riff"
)

var (
	errNoEXIFChunk = errors.New("no EXIF chunk")

	webpFormType = riff.FourCC{'W', 'E', 'B', 'P'}
	exifChunkID  = riff.FourCC{'E', 'X', 'I', 'F'}
	exifPreamble = []byte("Exif\x00\x00")
)

// readOrientation returns the raw EXIF orientation value.
func readOrientation(data []byte, format Format) (int, error) {
	var r io.Reader = bytes.NewReader(data)
	if format == FormatWEBP {
		payload, err := webpEXIF(data)
		if err != nil {
			return 0, err
		}
		r = bytes.NewReader(payload)
	}

	x, err := exif.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("parse exif: %w", err)
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0, fmt.Errorf("orientation tag: %w", err)
	}
	value, err := tag.Int(0)
	if err != nil {
		return 0, fmt.Errorf("orientation value: %w", err)
	}
	return value, nil
}

// webpEXIF returns the TIFF-structured payload of a WebP EXIF chunk.
func webpEXIF(data []byte) ([]byte, error) {
	formType, chunks, err := riff.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read riff: %w", err)
	}
	if formType != webpFormType {
		return nil, fmt.Errorf("riff form %q is not WEBP", formType[:])
	}

	for {
		id, _, chunk, err := chunks.Next()
		if errors.Is(err, io.EOF) {
			return nil, errNoEXIFChunk
		}
		if err != nil {
			return nil, fmt.Errorf("read riff chunk: %w", err)
		}
		if id != exifChunkID {
			continue
		}
		payload, err := io.ReadAll(chunk)
		if err != nil {
			return nil, fmt.Errorf("read exif chunk: %w", err)
		}
		return bytes.TrimPrefix(payload, exifPreamble), nil
	}
}
