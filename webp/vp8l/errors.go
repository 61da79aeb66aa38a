package vp8l

import (
	"fmt"

	"github.com/cocosip/go-image-codec/codec"
)

// VP8L errors. Each wraps one of the codec taxonomy errors.
var (
	ErrInvalidSignature     = fmt.Errorf("%w: vp8l: invalid signature", codec.ErrMalformed)
	ErrInvalidVersion       = fmt.Errorf("%w: vp8l: invalid version", codec.ErrMalformed)
	ErrTruncated            = fmt.Errorf("%w: vp8l: truncated bitstream", codec.ErrMalformed)
	ErrInvalidTransform     = fmt.Errorf("%w: vp8l: invalid transform", codec.ErrMalformed)
	ErrInvalidColorCache    = fmt.Errorf("%w: vp8l: invalid color cache size", codec.ErrMalformed)
	ErrInvalidBackReference = fmt.Errorf("%w: vp8l: backward reference out of range", codec.ErrMalformed)
	ErrInvalidDimensions    = fmt.Errorf("%w: vp8l: invalid dimensions", codec.ErrMalformed)

	ErrInvalidCodeLengths = fmt.Errorf("%w: vp8l: invalid code lengths", codec.ErrInvalidHuffmanTable)
	ErrInvalidSymbol      = fmt.Errorf("%w: vp8l: invalid symbol", codec.ErrInvalidSymbol)
)
