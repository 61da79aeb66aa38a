package webp

import (
	"fmt"

	"golang.org/x/image/riff"

	"github.com/cocosip/go-image-codec/bitio"
	"github.com/cocosip/go-image-codec/codec"
)

const (
	riffHeaderSize  = 12 // "RIFF", size, "WEBP"
	chunkHeaderSize = 8
)

var (
	fccRIFF = riff.FourCC{'R', 'I', 'F', 'F'}
	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}

	fccVP8  = riff.FourCC{'V', 'P', '8', ' '}
	fccVP8L = riff.FourCC{'V', 'P', '8', 'L'}
	fccVP8X = riff.FourCC{'V', 'P', '8', 'X'}
	fccALPH = riff.FourCC{'A', 'L', 'P', 'H'}
	fccICCP = riff.FourCC{'I', 'C', 'C', 'P'}
	fccEXIF = riff.FourCC{'E', 'X', 'I', 'F'}
	fccXMP  = riff.FourCC{'X', 'M', 'P', ' '}
	fccANIM = riff.FourCC{'A', 'N', 'I', 'M'}
	fccANMF = riff.FourCC{'A', 'N', 'M', 'F'}
)

func knownChunk(tag riff.FourCC) bool {
	switch tag {
	case fccVP8, fccVP8L, fccVP8X, fccALPH, fccICCP, fccEXIF, fccXMP, fccANIM, fccANMF:
		return true
	}
	return false
}

// chunk is one top-level RIFF chunk. Data aliases the input buffer.
type chunk struct {
	tag    riff.FourCC
	data   []byte
	offset int
}

// sniff reports whether data starts with a RIFF header of form type WEBP.
func sniff(data []byte) bool {
	return len(data) >= riffHeaderSize &&
		riff.FourCC(data[0:4]) == fccRIFF && riff.FourCC(data[8:12]) == fccWEBP
}

// readChunks validates the RIFF header and splits the payload into chunks.
// Bytes past the RIFF size are ignored. Chunks are padded to even sizes; the
// pad byte of the last chunk may be missing.
func readChunks(data []byte) ([]chunk, error) {
	if !sniff(data) {
		return nil, ErrInvalidSignature
	}
	size, _ := bitio.Uint32LE(data, 4)
	if size < 4 {
		return nil, fmt.Errorf("%w: RIFF size %d", ErrInvalidSignature, size)
	}
	if uint64(size) > uint64(len(data)-chunkHeaderSize) {
		return nil, fmt.Errorf("%w: RIFF size %d exceeds %d bytes of data", ErrTruncated, size, len(data)-chunkHeaderSize)
	}
	end := chunkHeaderSize + int(size)
	if end < len(data) {
		codec.Logger().Warn("webp: ignoring data after the RIFF payload", "bytes", len(data)-end)
	}

	var chunks []chunk
	for off := riffHeaderSize; off < end; {
		if end-off < chunkHeaderSize {
			return nil, fmt.Errorf("%w: chunk header at offset %d", ErrTruncated, off)
		}
		tag := riff.FourCC(data[off : off+4])
		if !knownChunk(tag) {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrUnknownChunk, tag[:], off)
		}
		n, _ := bitio.Uint32LE(data, off+4)
		start := off + chunkHeaderSize
		if uint64(n) > uint64(end-start) {
			return nil, fmt.Errorf("%w: %s of %d bytes at offset %d", ErrTruncated, tag[:], n, off)
		}
		chunks = append(chunks, chunk{tag: tag, data: data[start : start+int(n)], offset: off})
		off = start + int(n) + int(n&1)
	}
	if len(chunks) == 0 {
		return nil, ErrMissingBitstream
	}
	return chunks, nil
}
