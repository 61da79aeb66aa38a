package codec

import "errors"

var (
	// ErrCodecNotFound is returned when no registered codec matches
	ErrCodecNotFound = errors.New("codec not found")

	// ErrInvalidParameter is returned when decode options are invalid
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnsupportedFormat is returned for valid inputs using features this module does not decode
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMalformed covers bad magic numbers, signatures and truncated chunks or segments
	ErrMalformed = errors.New("malformed container")

	// ErrInvalidHuffmanTable is returned when code lengths cannot form a prefix code
	ErrInvalidHuffmanTable = errors.New("invalid Huffman table")

	// ErrInvalidSymbol is returned when entropy-coded data decodes to no valid symbol
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrDimensionMismatch is returned when container and bitstream disagree on image size
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrImageTooLarge is returned when the image exceeds Options.MaxPixels
	ErrImageTooLarge = errors.New("image exceeds pixel budget")
)
