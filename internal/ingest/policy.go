package ingest

import "fmt"

// Target is the on-disk format an upload is re-encoded to.
type Target int

const (
	TargetPNG Target = iota + 1
	TargetJPEG
	TargetGIF
)

// Ext returns the file extension used for the target.
func (t Target) Ext() string {
	switch t {
	case TargetPNG:
		return "png"
	case TargetJPEG:
		return "jpg"
	case TargetGIF:
		return "gif"
	}
	return ""
}

var targets = map[Format]Target{
	FormatPNG:  TargetPNG,
	FormatPNM:  TargetPNG,
	FormatTIFF: TargetPNG,
	FormatBMP:  TargetPNG,
	FormatICO:  TargetPNG,
	FormatHDR:  TargetPNG,
	FormatTGA:  TargetPNG,
	FormatJPEG: TargetJPEG,
	FormatWEBP: TargetJPEG,
	FormatGIF:  TargetGIF,
}

// TargetFor maps a detected format to its output format. GIF keeps its
// frames and goes through the animated path.
func TargetFor(f Format) (Target, error) {
	t, ok := targets[f]
	if !ok {
		return 0, fmt.Errorf("%w: no target for %s", ErrUnknownFormat, f)
	}
	return t, nil
}
