package ingest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Format is a container format recognised by Detect.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
	FormatGIF
	FormatWEBP
	FormatBMP
	FormatTIFF
	FormatICO
	FormatHDR
	FormatTGA
	FormatPNM
)

// Formats lists every format Store accepts, in a stable order.
func Formats() []Format {
	formats := make([]Format, 0, FormatPNM)
	for f := FormatPNG; f <= FormatPNM; f++ {
		formats = append(formats, f)
	}
	return formats
}

var (
	// ErrHeaderTooShort is returned for inputs too small to carry any signature.
	ErrHeaderTooShort = errors.New("header too short")

	// ErrUnknownFormat is returned when no signature matches.
	ErrUnknownFormat = errors.New("unrecognized image format")
)

const minHeaderLen = 4

// String returns the lowercase name used in logs and metric labels.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatGIF:
		return "gif"
	case FormatWEBP:
		return "webp"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	case FormatICO:
		return "ico"
	case FormatHDR:
		return "hdr"
	case FormatTGA:
		return "tga"
	case FormatPNM:
		return "pnm"
	default:
		return "unknown"
	}
}

// MIME returns the media type of the format.
func (f Format) MIME() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatWEBP:
		return "image/webp"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	case FormatICO:
		return "image/vnd.microsoft.icon"
	case FormatHDR:
		return "image/vnd.radiance"
	case FormatTGA:
		return "image/x-tga"
	case FormatPNM:
		return "image/x-portable-anymap"
	default:
		return "application/octet-stream"
	}
}

type signature struct {
	format Format
	magic  []byte
}

var signatures = []signature{
	{FormatPNG, []byte("\x89PNG\r\n\x1a\n")},
	{FormatJPEG, []byte{0xff, 0xd8, 0xff}},
	{FormatGIF, []byte("GIF87a")},
	{FormatGIF, []byte("GIF89a")},
	{FormatTIFF, []byte("II*\x00")},
	{FormatTIFF, []byte("MM\x00*")},
	{FormatICO, []byte{0x00, 0x00, 0x01, 0x00}},
	{FormatHDR, []byte("#?RADIANCE")},
	{FormatHDR, []byte("#?RGBE")},
	{FormatBMP, []byte("BM")},
}

var tgaFooter = []byte("TRUEVISION-XFILE.\x00")

// Detect classifies data by its leading signature. A RIFF container is
// always treated as WebP.
func Detect(data []byte) (Format, error) {
	if len(data) < minHeaderLen {
		return FormatUnknown, fmt.Errorf("%w: %d bytes", ErrHeaderTooShort, len(data))
	}

	if bytes.HasPrefix(data, []byte("RIFF")) {
		return FormatWEBP, nil
	}

	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.format, nil
		}
	}

	if isPNM(data) {
		return FormatPNM, nil
	}

	if bytes.HasSuffix(data, tgaFooter) || looksLikeTGA(data) {
		return FormatTGA, nil
	}

	head := data
	if len(head) > 16 {
		head = head[:16]
	}
	return FormatUnknown, fmt.Errorf("%w: % x", ErrUnknownFormat, head)
}

// isPNM matches the netpbm family, P1 through P7, followed by whitespace.
func isPNM(data []byte) bool {
	if data[0] != 'P' || data[1] < '1' || data[1] > '7' {
		return false
	}
	switch data[2] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// looksLikeTGA checks an original TGA header, which has no magic number.
func looksLikeTGA(data []byte) bool {
	const headerLen = 18
	if len(data) < headerLen {
		return false
	}
	colorMapType := data[1]
	imageType := data[2]
	width := binary.LittleEndian.Uint16(data[12:14])
	height := binary.LittleEndian.Uint16(data[14:16])
	depth := data[16]

	if colorMapType > 1 || width == 0 || height == 0 {
		return false
	}
	switch imageType {
	case 1, 2, 3, 9, 10, 11:
	default:
		return false
	}
	switch depth {
	case 8, 15, 16, 24, 32:
	default:
		return false
	}
	return true
}
