package vp8

import (
	"fmt"

	"github.com/cocosip/go-image-codec/codec"
)

// VP8 errors. Each wraps one of the codec taxonomy errors.
var (
	ErrTruncated         = fmt.Errorf("%w: vp8: truncated bitstream", codec.ErrMalformed)
	ErrInvalidStartCode  = fmt.Errorf("%w: vp8: invalid start code", codec.ErrMalformed)
	ErrInvalidVersion    = fmt.Errorf("%w: vp8: invalid version", codec.ErrMalformed)
	ErrInvalidPartitions = fmt.Errorf("%w: vp8: invalid partition sizes", codec.ErrMalformed)
	ErrInvalidDimensions = fmt.Errorf("%w: vp8: invalid dimensions", codec.ErrMalformed)

	ErrNotKeyFrame = fmt.Errorf("%w: vp8: not a key frame", codec.ErrUnsupportedFormat)
	ErrHiddenFrame = fmt.Errorf("%w: vp8: frame is not displayable", codec.ErrUnsupportedFormat)
)
