package common

import (
	"bytes"
	"encoding/binary"

	"github.com/cocosip/go-image-codec/bitio"
)

// Writer assembles a JPEG stream in memory. The decoders never need it; it
// builds streams with hand-picked tables, restart intervals and scan layouts
// that general-purpose encoders do not produce.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates a new JPEG writer
func NewWriter() *Writer {
	return &Writer{}
}

// WriteMarker writes a JPEG marker
func (w *Writer) WriteMarker(marker uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], marker)
	w.buf.Write(b[:])
}

// WriteSegment writes a segment with length
// The length field is automatically calculated and includes itself (2 bytes)
func (w *Writer) WriteSegment(marker uint16, data []byte) error {
	if len(data)+2 > 0xFFFF {
		return ErrInvalidData
	}
	w.WriteMarker(marker)
	w.WriteMarker(uint16(len(data) + 2))
	w.buf.Write(data)
	return nil
}

// WriteHuffmanTable writes a DHT segment
// class: 0 for DC, 1 for AC
func (w *Writer) WriteHuffmanTable(class byte, id byte, table *HuffmanTable) error {
	data := make([]byte, 1+16+len(table.Values))
	data[0] = class<<4 | id
	for i := 0; i < 16; i++ {
		data[1+i] = byte(table.Bits[i])
	}
	copy(data[17:], table.Values)
	return w.WriteSegment(MarkerDHT, data)
}

// WriteQuantTable writes an 8-bit DQT segment. q is in natural order and is
// emitted in zig-zag order.
func (w *Writer) WriteQuantTable(id byte, q *[64]byte) error {
	data := make([]byte, 65)
	data[0] = id
	for k := 0; k < 64; k++ {
		data[1+k] = q[ZigZag[k]]
	}
	return w.WriteSegment(MarkerDQT, data)
}

// Write appends raw bytes, typically entropy-coded data.
func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// Bytes returns the stream written so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// HuffmanEncoder produces entropy-coded data with byte stuffing.
type HuffmanEncoder struct {
	bw *bitio.Writer
}

// NewHuffmanEncoder creates a new Huffman encoder
func NewHuffmanEncoder() *HuffmanEncoder {
	return &HuffmanEncoder{bw: bitio.NewWriter(bitio.MSB)}
}

// EncodeCategory returns the magnitude category of val and its extra bits.
func EncodeCategory(val int32) (cat int, bits uint32) {
	if val == 0 {
		return 0, 0
	}
	absVal := val
	if absVal < 0 {
		absVal = -absVal
	}
	cat = 1
	for int32(1)<<uint(cat) <= absVal {
		cat++
	}
	if val > 0 {
		return cat, uint32(val)
	}
	return cat, uint32(int32(1)<<uint(cat) + val - 1)
}

func (e *HuffmanEncoder) emit(table *HuffmanTable, v byte) error {
	code, length, ok := table.Code(v)
	if !ok {
		return ErrHuffmanDecode
	}
	e.bw.WriteBits(code, length)
	return nil
}

// EncodeBlock encodes the DC difference and the AC coefficients of one
// quantized block given in natural order.
func (e *HuffmanEncoder) EncodeBlock(dc, ac *HuffmanTable, diff int32, block *[64]int32) error {
	cat, bits := EncodeCategory(diff)
	if err := e.emit(dc, byte(cat)); err != nil {
		return err
	}
	e.bw.WriteBits(bits, cat)

	run := 0
	for k := 1; k < 64; k++ {
		coef := block[ZigZag[k]]
		if coef == 0 {
			run++
			continue
		}
		for run >= 16 {
			if err := e.emit(ac, 0xF0); err != nil {
				return err
			}
			run -= 16
		}
		cat, bits := EncodeCategory(coef)
		if err := e.emit(ac, byte(run<<4|cat)); err != nil {
			return err
		}
		e.bw.WriteBits(bits, cat)
		run = 0
	}
	if run > 0 {
		return e.emit(ac, 0x00)
	}
	return nil
}

// Flush pads the last byte with 1s and returns the stuffed data. The
// encoder is reset for the next restart interval.
func (e *HuffmanEncoder) Flush() []byte {
	raw := e.bw.Bytes(1)
	out := make([]byte, 0, len(raw)+len(raw)/16)
	for _, b := range raw {
		out = append(out, b)
		if b == 0xFF {
			out = append(out, 0x00)
		}
	}
	e.bw = bitio.NewWriter(bitio.MSB)
	return out
}
