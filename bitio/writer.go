package bitio

// Writer packs bits into bytes in the given order. It is the inverse of
// Reader and is used to build bitstreams, mostly in tests.
type Writer struct {
	order Order
	buf   []byte
	acc   uint64
	nacc  int
}

// NewWriter returns an empty Writer.
func NewWriter(order Order) *Writer {
	return &Writer{order: order}
}

// WriteBits appends the low n bits of v (n ≤ 32). For LSB writers the
// least significant bit of v is emitted first, for MSB writers the most
// significant of the n bits goes first.
func (w *Writer) WriteBits(v uint32, n int) {
	if n == 0 {
		return
	}
	v &= uint32(uint64(1)<<uint(n) - 1)
	if w.order == LSB {
		w.acc |= uint64(v) << uint(w.nacc)
		w.nacc += n
		for w.nacc >= 8 {
			w.buf = append(w.buf, byte(w.acc))
			w.acc >>= 8
			w.nacc -= 8
		}
		return
	}
	w.acc = w.acc<<uint(n) | uint64(v)
	w.nacc += n
	for w.nacc >= 8 {
		w.buf = append(w.buf, byte(w.acc>>uint(w.nacc-8)))
		w.nacc -= 8
		w.acc &= uint64(1)<<uint(w.nacc) - 1
	}
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(b bool) {
	if b {
		w.WriteBits(1, 1)
	} else {
		w.WriteBits(0, 1)
	}
}

// WriteCode appends a Huffman code of the given length. Codes are defined
// MSB-first, so for LSB writers the code is bit-reversed before packing.
func (w *Writer) WriteCode(code uint32, length int) {
	if w.order == LSB {
		code = Reverse(code, length)
	}
	w.WriteBits(code, length)
}

// Len returns the number of bits written so far.
func (w *Writer) Len() int {
	return len(w.buf)*8 + w.nacc
}

// Bytes flushes pending bits, padding the last byte with pad bits (0 or 1),
// and returns the buffer.
func (w *Writer) Bytes(pad uint32) []byte {
	if w.nacc > 0 {
		fill := 8 - w.nacc
		p := uint32(0)
		if pad != 0 {
			p = 1<<uint(fill) - 1
		}
		w.WriteBits(p, fill)
	}
	return w.buf
}

// Reverse returns the low n bits of v in reverse order.
func Reverse(v uint32, n int) uint32 {
	var r uint32
	for i := 0; i < n; i++ {
		r = r<<1 | v&1
		v >>= 1
	}
	return r
}
