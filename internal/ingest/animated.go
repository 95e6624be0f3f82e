package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"image/gif"
	"io"
)

// infiniteLoop is the image/gif LoopCount for "repeat forever".
const infiniteLoop = 0

// reencodeGIF copies every frame of an animated GIF to w, keeping frame
// order, timing and the global palette. The output always loops forever,
// whatever the source said.
func reencodeGIF(data []byte, w io.Writer) error {
	anim, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return &StageError{Stage: StageDecode, Err: fmt.Errorf("decode gif: %w", err)}
	}

	anim.LoopCount = infiniteLoop

	bw := bufio.NewWriter(w)
	if err := gif.EncodeAll(bw, anim); err != nil {
		return &StageError{Stage: StageEncode, Err: fmt.Errorf("encode gif: %w", err)}
	}
	if err := bw.Flush(); err != nil {
		return &StageError{Stage: StageEncode, Err: fmt.Errorf("write gif: %w", err)}
	}
	return nil
}
