package common

import (
	"fmt"

	"github.com/cocosip/go-image-codec/codec"
)

// Common errors. Each wraps one of the codec taxonomy errors so callers can
// test either with errors.Is.
var (
	ErrInvalidMarker     = fmt.Errorf("%w: invalid JPEG marker", codec.ErrMalformed)
	ErrInvalidSOI        = fmt.Errorf("%w: missing SOI marker", codec.ErrMalformed)
	ErrInvalidEOI        = fmt.Errorf("%w: missing EOI marker", codec.ErrMalformed)
	ErrInvalidSOF        = fmt.Errorf("%w: invalid Start of Frame", codec.ErrMalformed)
	ErrInvalidDQT        = fmt.Errorf("%w: invalid quantization table", codec.ErrMalformed)
	ErrInvalidSOS        = fmt.Errorf("%w: invalid Start of Scan", codec.ErrMalformed)
	ErrInvalidDRI        = fmt.Errorf("%w: invalid restart interval", codec.ErrMalformed)
	ErrInvalidRestart    = fmt.Errorf("%w: bad restart marker", codec.ErrMalformed)
	ErrInvalidData       = fmt.Errorf("%w: invalid JPEG data", codec.ErrMalformed)
	ErrUnexpectedEOF     = fmt.Errorf("%w: unexpected end of JPEG data", codec.ErrMalformed)
	ErrInvalidDimensions = fmt.Errorf("%w: invalid image dimensions", codec.ErrMalformed)
	ErrInvalidComponents = fmt.Errorf("%w: invalid number of components", codec.ErrMalformed)
	ErrMissingFrame      = fmt.Errorf("%w: scan before Start of Frame", codec.ErrMalformed)

	ErrInvalidDHT      = fmt.Errorf("%w: invalid DHT segment", codec.ErrInvalidHuffmanTable)
	ErrMissingHuffman  = fmt.Errorf("%w: scan references undefined Huffman table", codec.ErrInvalidHuffmanTable)
	ErrHuffmanDecode   = fmt.Errorf("%w: Huffman decode error", codec.ErrInvalidSymbol)
	ErrCoefficientSpan = fmt.Errorf("%w: AC run past end of block", codec.ErrInvalidSymbol)

	ErrUnsupportedFormat    = fmt.Errorf("%w: unsupported JPEG process", codec.ErrUnsupportedFormat)
	ErrUnsupportedPrecision = fmt.Errorf("%w: unsupported sample precision", codec.ErrUnsupportedFormat)
)
