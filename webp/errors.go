package webp

import (
	"fmt"

	"github.com/cocosip/go-image-codec/codec"
)

// Container errors. Bitstream errors come from the vp8 and vp8l packages.
var (
	ErrInvalidSignature = fmt.Errorf("%w: webp: invalid RIFF signature", codec.ErrMalformed)
	ErrTruncated        = fmt.Errorf("%w: webp: truncated chunk", codec.ErrMalformed)
	ErrUnknownChunk     = fmt.Errorf("%w: webp: unknown chunk", codec.ErrMalformed)
	ErrInvalidLayout    = fmt.Errorf("%w: webp: invalid chunk layout", codec.ErrMalformed)
	ErrMissingBitstream = fmt.Errorf("%w: webp: no image bitstream", codec.ErrMalformed)
	ErrInvalidVP8X      = fmt.Errorf("%w: webp: invalid VP8X chunk", codec.ErrMalformed)
	ErrInvalidAlpha     = fmt.Errorf("%w: webp: invalid ALPH chunk", codec.ErrMalformed)

	ErrAnimationUnsupported = fmt.Errorf("%w: webp: animated image", codec.ErrUnsupportedFormat)
	ErrDimensionMismatch    = fmt.Errorf("%w: webp: canvas and bitstream sizes differ", codec.ErrDimensionMismatch)
)
