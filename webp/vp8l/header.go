// Package vp8l decodes the WebP lossless (VP8L) bitstream.
//
// A VP8L image is an ARGB raster coded with up to four reversible
// transforms, an optional color cache, spatially varying canonical Huffman
// codes and LZ77 style backward references. The same entropy coder carries
// the compressed alpha planes of lossy WebP files, which is why
// DecodeAlpha accepts a stream without the image header.
package vp8l

import (
	"fmt"

	"github.com/cocosip/go-image-codec/bitio"
)

const (
	// Signature is the first byte of every VP8L bitstream.
	Signature = 0x2f

	// HeaderSize is the size of the signature plus the packed header fields.
	HeaderSize = 5

	version = 0
)

// Header holds the fields that precede the entropy-coded image.
type Header struct {
	Width    int
	Height   int
	HasAlpha bool // Encoder hint only, pixels always carry alpha
}

// DecodeHeader parses the 5-byte VP8L header.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrTruncated
	}
	if data[0] != Signature {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrInvalidSignature, data[0])
	}
	return readHeader(bitio.NewReader(data[1:HeaderSize], bitio.LSB))
}

func readHeader(br *bitio.Reader) (Header, error) {
	h := Header{
		Width:  int(br.ReadBits(14)) + 1,
		Height: int(br.ReadBits(14)) + 1,
	}
	h.HasAlpha = br.ReadBit()
	if v := br.ReadBits(3); v != version {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	return h, nil
}
