package common

import (
	"fmt"

	"github.com/cocosip/go-image-codec/bitio"
	"github.com/cocosip/go-image-codec/huffman"
)

// HuffmanTable represents a Huffman coding table
type HuffmanTable struct {
	// Number of codes of each length (1-16 bits)
	Bits [16]int
	// Values for each code, in order of code length
	Values []byte

	// tree decodes to positions in Values.
	tree *huffman.Tree
	// pos maps a value back to its position, -1 if absent.
	pos [256]int16
}

// Build assigns the canonical codes. Codes are handed out in the order the
// values are listed, which is the canonical order of the shared builder when
// each value is keyed by its list position.
func (h *HuffmanTable) Build() error {
	total := 0
	for _, n := range h.Bits {
		if n < 0 {
			return ErrInvalidDHT
		}
		total += n
	}
	if total == 0 || total > 256 || total != len(h.Values) {
		return fmt.Errorf("%w: %d codes for %d values", ErrInvalidDHT, total, len(h.Values))
	}

	lengths := make([]uint8, 0, total)
	for l, n := range h.Bits {
		for i := 0; i < n; i++ {
			lengths = append(lengths, uint8(l+1))
		}
	}
	tree, err := huffman.Build(lengths, 16, bitio.MSB)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDHT, err)
	}
	h.tree = tree

	for i := range h.pos {
		h.pos[i] = -1
	}
	for i, v := range h.Values {
		if h.pos[v] < 0 {
			h.pos[v] = int16(i)
		}
	}
	return nil
}

// MaxValue returns the largest value in the table.
func (h *HuffmanTable) MaxValue() byte {
	var m byte
	for _, v := range h.Values {
		if v > m {
			m = v
		}
	}
	return m
}

// Code returns the code assigned to value v, MSB first. ok is false when
// the table has no code for v.
func (h *HuffmanTable) Code(v byte) (code uint32, length int, ok bool) {
	if h.tree == nil || h.pos[v] < 0 {
		return 0, 0, false
	}
	code, length = h.tree.Code(int(h.pos[v]))
	return code, length, true
}

// HuffmanDecoder decodes Huffman-encoded data from one restart interval of
// unstuffed entropy-coded bytes.
type HuffmanDecoder struct {
	r *bitio.Reader
}

// NewHuffmanDecoder creates a new Huffman decoder
func NewHuffmanDecoder(data []byte) *HuffmanDecoder {
	return &HuffmanDecoder{r: bitio.NewReader(data, bitio.MSB)}
}

// Reset restarts decoding on a new interval.
func (d *HuffmanDecoder) Reset(data []byte) {
	d.r.Reset(data)
}

// Overrun reports whether decoding ran past the end of the interval.
func (d *HuffmanDecoder) Overrun() bool {
	return d.r.Overrun()
}

// ReadBits reads n bits as an unsigned integer
func (d *HuffmanDecoder) ReadBits(n int) (uint32, error) {
	v := d.r.ReadBits(n)
	if d.r.Overrun() {
		return 0, ErrUnexpectedEOF
	}
	return v, nil
}

// Decode decodes the next Huffman symbol
func (d *HuffmanDecoder) Decode(table *HuffmanTable) (byte, error) {
	if table == nil || table.tree == nil {
		return 0, ErrMissingHuffman
	}
	s := huffman.DecodeSymbol(d.r, table.tree)
	if s == huffman.InvalidSymbol || int(s) >= len(table.Values) {
		return 0, ErrHuffmanDecode
	}
	if d.r.Overrun() {
		return 0, ErrUnexpectedEOF
	}
	return table.Values[s], nil
}

// ReceiveExtend decodes a coefficient value
// This combines RECEIVE and EXTEND operations
func (d *HuffmanDecoder) ReceiveExtend(ssss int) (int32, error) {
	if ssss == 0 {
		return 0, nil
	}
	if ssss > 16 {
		return 0, ErrHuffmanDecode
	}

	bits, err := d.ReadBits(ssss)
	if err != nil {
		return 0, err
	}
	return Extend(int32(bits), ssss), nil
}

// Extend converts the ssss-bit magnitude v to a signed value.
func Extend(v int32, ssss int) int32 {
	if v < 1<<uint(ssss-1) {
		v += (-1 << uint(ssss)) + 1
	}
	return v
}
