package webp

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"testing"

	"golang.org/x/image/riff"

	"github.com/cocosip/go-image-codec/bitio"
	"github.com/cocosip/go-image-codec/raster"
	"github.com/cocosip/go-image-codec/webp/vp8l"
)

type testChunk struct {
	tag  string
	data []byte
}

// buildRIFF assembles a WebP file from chunks, padding odd payloads.
func buildRIFF(chunks ...testChunk) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c.tag...)
		body = binary.LittleEndian.AppendUint32(body, uint32(len(c.data)))
		body = append(body, c.data...)
		if len(c.data)%2 == 1 {
			body = append(body, 0)
		}
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(4+len(body)))
	out = append(out, "WEBP"...)
	return append(out, body...)
}

func vp8xChunk(flags byte, width, height int) testChunk {
	b := make([]byte, vp8xSize)
	b[0] = flags
	bitio.PutUint24LE(b[4:], uint32(width-1))
	bitio.PutUint24LE(b[7:], uint32(height-1))
	return testChunk{"VP8X", b}
}

const (
	fixturePath = "testdata/python.webp"
	fixtureSize = 16
)

// loadFixture reads testdata/python.webp, a 16x16 lossy image with a
// lossless-compressed alpha plane written by libwebp, and returns the file
// and its chunks keyed by tag.
func loadFixture(t *testing.T) ([]byte, map[string][]byte) {
	t.Helper()
	file, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	formType, r, err := riff.NewReader(bytes.NewReader(file))
	if err != nil || formType != fccWEBP {
		t.Fatalf("fixture RIFF header: %q, %v", formType[:], err)
	}
	chunks := make(map[string][]byte)
	for {
		id, _, data, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("fixture chunk: %v", err)
		}
		b, err := io.ReadAll(data)
		if err != nil {
			t.Fatalf("fixture chunk %q: %v", id[:], err)
		}
		chunks[string(id[:])] = b
	}
	return file, chunks
}

// filterPlane applies the forward ALPH prediction filter.
func filterPlane(plane []byte, width, filter int) []byte {
	out := make([]byte, len(plane))
	for i := range plane {
		x, y := i%width, i/width
		var pred byte
		switch {
		case filter == filterNone || i == 0:
		case y == 0:
			pred = plane[i-1]
		case x == 0:
			pred = plane[i-width]
		case filter == filterHorizontal:
			pred = plane[i-1]
		case filter == filterVertical:
			pred = plane[i-width]
		default:
			pred = raster.ClampByte(int(plane[i-1]) + int(plane[i-width]) - int(plane[i-width-1]))
		}
		out[i] = plane[i] - pred
	}
	return out
}

// writeTwoSymbolImage writes an entropy-coded VP8L image without transforms
// whose green channel takes lo where bits is false and hi elsewhere. The
// other channels are constant.
func writeTwoSymbolImage(w *bitio.Writer, bits []bool, lo, hi, r, b, a byte) {
	w.WriteBit(false) // No transform
	w.WriteBit(false) // No color cache
	w.WriteBit(false) // No meta prefix codes

	// Green: simple code with two 8-bit symbols.
	w.WriteBit(true)
	w.WriteBits(1, 1)
	w.WriteBits(1, 1)
	w.WriteBits(uint32(lo), 8)
	w.WriteBits(uint32(hi), 8)
	for _, v := range []byte{r, b, a, 0} {
		w.WriteBit(true)
		w.WriteBits(0, 1)
		w.WriteBits(1, 1)
		w.WriteBits(uint32(v), 8)
	}
	for _, bit := range bits {
		w.WriteBit(bit)
	}
}

// losslessChunk encodes a VP8L bitstream of two colors.
func losslessChunk(width, height int, bits []bool, lo, hi, r, b, a byte) testChunk {
	w := bitio.NewWriter(bitio.LSB)
	w.WriteBits(vp8l.Signature, 8)
	w.WriteBits(uint32(width-1), 14)
	w.WriteBits(uint32(height-1), 14)
	w.WriteBit(a != 0xff)
	w.WriteBits(0, 3)
	writeTwoSymbolImage(w, bits, lo, hi, r, b, a)
	return testChunk{"VP8L", w.Bytes(0)}
}

// compressedAlphaChunk stores the residuals, which must take exactly the
// values lo < hi, as a headerless VP8L stream.
func compressedAlphaChunk(residuals []byte, lo, hi byte, filter int) testChunk {
	w := bitio.NewWriter(bitio.LSB)
	w.WriteBits(uint32(filter<<2|alphaLossless), 8)
	bits := make([]bool, len(residuals))
	for i, v := range residuals {
		bits[i] = v == hi
	}
	writeTwoSymbolImage(w, bits, lo, hi, 0, 0, 0xff)
	return testChunk{"ALPH", w.Bytes(0)}
}

func rawAlphaChunk(plane []byte, width, filter int) testChunk {
	return testChunk{"ALPH", append([]byte{byte(filter << 2)}, filterPlane(plane, width, filter)...)}
}

// testPlane returns a deterministic alpha plane with smooth and sharp
// transitions.
func testPlane(width, height int) []byte {
	p := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := 16*x + 9*y
			if (x/4+y/4)%2 == 1 {
				v = 255 - v
			}
			p[y*width+x] = byte(v)
		}
	}
	return p
}
