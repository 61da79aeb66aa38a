// Package bitio provides bit-level cursors over in-memory byte buffers.
//
// A Reader extracts bounded runs of bits either least-significant-bit first
// (VP8L, DEFLATE style) or most-significant-bit first (JPEG entropy data).
// Reads past the end of the buffer are well defined and yield zero bits; the
// reader never fails on its own, callers detect truncation through
// HasMoreData, RemainingBytes or Overrun.
package bitio

// Order specifies the bit ordering inside each byte.
type Order int

const (
	// LSB means the first bit read is the least significant bit of a byte.
	LSB Order = iota
	// MSB means the first bit read is the most significant bit of a byte.
	MSB
)

// MaxReadBits is the largest n accepted by EnsureBits, PeekBits and ReadBits.
const MaxReadBits = 32

// Reader is a bit cursor over an immutable byte slice.
type Reader struct {
	data  []byte
	order Order

	// next is the index of the next byte to load into the cache.
	next int
	// acc holds nacc valid bits. For LSB the next bit is acc&1, for MSB the
	// valid bits are right-aligned and the next bit is the highest one.
	acc  uint64
	nacc int
	// pos is the number of bits consumed so far.
	pos int
}

// NewReader returns a Reader positioned at the first bit of data.
func NewReader(data []byte, order Order) *Reader {
	return &Reader{data: data, order: order}
}

// Order returns the bit order of the reader.
func (r *Reader) Order() Order {
	return r.order
}

// EnsureBits guarantees that the cache holds at least n valid bits.
// Bytes past the end of the buffer are supplied as zeros.
func (r *Reader) EnsureBits(n int) {
	for r.nacc < n {
		var b byte
		if r.next < len(r.data) {
			b = r.data[r.next]
		}
		r.next++
		if r.order == LSB {
			r.acc |= uint64(b) << uint(r.nacc)
		} else {
			r.acc = r.acc<<8 | uint64(b)
		}
		r.nacc += 8
	}
}

// PeekBits returns the next n bits without consuming them.
func (r *Reader) PeekBits(n int) uint32 {
	if n == 0 {
		return 0
	}
	r.EnsureBits(n)
	mask := uint64(1)<<uint(n) - 1
	if r.order == LSB {
		return uint32(r.acc & mask)
	}
	return uint32((r.acc >> uint(r.nacc-n)) & mask)
}

// AdvanceBits consumes n bits.
func (r *Reader) AdvanceBits(n int) {
	for n > 0 {
		step := n
		if step > MaxReadBits {
			step = MaxReadBits
		}
		r.EnsureBits(step)
		if r.order == LSB {
			r.acc >>= uint(step)
		} else {
			r.acc &= uint64(1)<<uint(r.nacc-step) - 1
		}
		r.nacc -= step
		r.pos += step
		n -= step
	}
}

// ReadBits returns and consumes the next n bits (n ≤ MaxReadBits).
func (r *Reader) ReadBits(n int) uint32 {
	v := r.PeekBits(n)
	r.AdvanceBits(n)
	return v
}

// ReadBit returns the next bit.
func (r *Reader) ReadBit() bool {
	return r.ReadBits(1) == 1
}

// AlignToByte skips the remaining bits of the current byte.
func (r *Reader) AlignToByte() {
	if rem := r.pos & 7; rem != 0 {
		r.AdvanceBits(8 - rem)
	}
}

// BitPos returns the number of bits consumed so far.
func (r *Reader) BitPos() int {
	return r.pos
}

// BytePos returns the index of the byte holding the next unread bit.
func (r *Reader) BytePos() int {
	return r.pos >> 3
}

// HasMoreData reports whether unread bits of the buffer remain.
func (r *Reader) HasMoreData() bool {
	return r.pos < len(r.data)*8
}

// RemainingBytes returns the number of whole or partial bytes not yet consumed.
func (r *Reader) RemainingBytes() int {
	n := len(r.data) - r.pos>>3
	if n < 0 {
		return 0
	}
	return n
}

// Overrun reports whether bits beyond the end of the buffer were consumed.
func (r *Reader) Overrun() bool {
	return r.pos > len(r.data)*8
}

// Reset repositions the reader at the start of data.
func (r *Reader) Reset(data []byte) {
	*r = Reader{data: data, order: r.order}
}
