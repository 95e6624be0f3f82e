package ingest

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"testing"
)

// tinyWebP is a 1x1 lossless WebP.
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// quadrants returns a w x h image with a distinct colour in each corner
// so that any rotation or flip is visible.
func quadrants(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var c color.NRGBA
			switch {
			case x < w/2 && y < h/2:
				c = red
			case y < h/2:
				c = green
			case x < w/2:
				c = blue
			default:
				c = white
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func noise(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewPCG(1, 2))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.IntN(256))
		img.Pix[i+1] = uint8(rng.IntN(256))
		img.Pix[i+2] = uint8(rng.IntN(256))
		img.Pix[i+3] = 255
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

// exifOrientation builds a big-endian TIFF block holding only an
// Orientation tag.
func exifOrientation(value uint16) []byte {
	tiff := []byte{
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08,
		0x00, 0x01,
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, byte(value >> 8), byte(value), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	return append([]byte("Exif\x00\x00"), tiff...)
}

// withOrientation splices an APP1 EXIF segment in after the JPEG SOI marker.
func withOrientation(jpg []byte, value uint16) []byte {
	payload := exifOrientation(value)
	segLen := len(payload) + 2
	out := make([]byte, 0, len(jpg)+segLen+2)
	out = append(out, jpg[:2]...)
	out = append(out, 0xff, 0xe1, byte(segLen>>8), byte(segLen))
	out = append(out, payload...)
	return append(out, jpg[2:]...)
}

func webpBytes(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// webpWithOrientation appends an EXIF chunk to the tiny WebP.
func webpWithOrientation(t *testing.T, value uint16) []byte {
	t.Helper()
	data := webpBytes(t)
	payload := exifOrientation(value)

	chunk := make([]byte, 8, 8+len(payload))
	copy(chunk, "EXIF")
	binary.LittleEndian.PutUint32(chunk[4:], uint32(len(payload)))
	chunk = append(chunk, payload...)

	out := append(data, chunk...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

// pnmBytes is a 3x2 binary PPM.
func pnmBytes() []byte {
	data := []byte("P6\n3 2\n255\n")
	for i := 0; i < 6; i++ {
		data = append(data, 10, 20, 30)
	}
	return data
}

// tgaBytes is a 3x2 uncompressed true-colour TGA, top-left origin.
func tgaBytes() []byte {
	header := make([]byte, 18)
	header[2] = 2
	binary.LittleEndian.PutUint16(header[12:], 3)
	binary.LittleEndian.PutUint16(header[14:], 2)
	header[16] = 24
	header[17] = 0x20
	for i := 0; i < 6; i++ {
		header = append(header, 30, 20, 10)
	}
	return header
}

func near(a, b color.Color) bool {
	const tolerance = 40 << 8
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	diff := func(x, y uint32) uint32 {
		if x > y {
			return x - y
		}
		return y - x
	}
	return diff(ar, br) < tolerance && diff(ag, bg) < tolerance && diff(ab, bb) < tolerance
}

// assertQuadrants checks the corner colours of an image built by quadrants.
func assertQuadrants(t *testing.T, img image.Image, w, h int) {
	t.Helper()
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		t.Fatalf("dimensions = %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h)
	}
	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{w / 4, h / 4, red},
		{3 * w / 4, h / 4, green},
		{w / 4, 3 * h / 4, blue},
		{3 * w / 4, 3 * h / 4, white},
	}
	for _, c := range checks {
		got := img.At(b.Min.X+c.x, b.Min.Y+c.y)
		if !near(got, c.want) {
			t.Errorf("pixel (%d,%d) = %v, want about %v", c.x, c.y, got, c.want)
		}
	}
}
