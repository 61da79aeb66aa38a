// Package vp8 decodes VP8 key frames, the lossy bitstream carried by the
// "VP8 " chunk of a WebP file.
//
// A frame is split into a first partition, which holds the frame header and
// the per-macroblock prediction modes, and one to eight token partitions
// holding the residual coefficients. Both are coded with a boolean entropy
// coder. Decoding reconstructs 4:2:0 YUV planes with intra prediction and
// inverse transforms, applies the loop filter and converts to RGBA.
package vp8

import (
	"fmt"

	"github.com/cocosip/go-image-codec/bitio"
)

const (
	// HeaderSize is the size of the frame tag, start code and dimensions
	// that precede the first partition of a key frame.
	HeaderSize = 10

	maxVersion = 3
)

var startCode = [3]byte{0x9d, 0x01, 0x2a}

// Header holds the uncompressed fields at the start of a VP8 frame.
type Header struct {
	KeyFrame           bool
	Version            int
	ShowFrame          bool
	FirstPartitionSize int
	Width              int
	Height             int
	XScale             int // Upscaling hint, not applied by the decoder
	YScale             int
}

// DecodeHeader parses the frame tag and key frame header. Inter frames,
// hidden frames and unknown versions are rejected.
func DecodeHeader(data []byte) (Header, error) {
	tag, ok := bitio.Uint24LE(data, 0)
	if !ok {
		return Header{}, ErrTruncated
	}
	h := Header{
		KeyFrame:           tag&1 == 0,
		Version:            int(tag>>1) & 7,
		ShowFrame:          (tag>>4)&1 == 1,
		FirstPartitionSize: int(tag >> 5),
	}
	if !h.KeyFrame {
		return h, ErrNotKeyFrame
	}
	if h.Version > maxVersion {
		return h, fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}
	if !h.ShowFrame {
		return h, ErrHiddenFrame
	}

	if len(data) < HeaderSize {
		return h, ErrTruncated
	}
	if data[3] != startCode[0] || data[4] != startCode[1] || data[5] != startCode[2] {
		return h, fmt.Errorf("%w: % x", ErrInvalidStartCode, data[3:6])
	}
	w, _ := bitio.Uint16LE(data, 6)
	ht, _ := bitio.Uint16LE(data, 8)
	h.Width, h.XScale = int(w&0x3fff), int(w>>14)
	h.Height, h.YScale = int(ht&0x3fff), int(ht>>14)
	if h.Width == 0 || h.Height == 0 {
		return h, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, h.Width, h.Height)
	}
	return h, nil
}
