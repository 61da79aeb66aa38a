package vp8

import "math/bits"

// boolDecoder reads the boolean-coded (binary arithmetic coded) data of one
// partition. Bytes are loaded only when their bits are needed, so eof is
// set exactly when the partition is too short for what was decoded.
type boolDecoder struct {
	buf []byte
	pos int

	rangeM1 uint32 // range - 1, in [127, 254] between calls
	value   uint32 // nbits valid bits, aligned so that value>>8 is compared
	nbits   int
	eof     bool
}

func newBoolDecoder(buf []byte) *boolDecoder {
	return &boolDecoder{buf: buf, rangeM1: 254}
}

// readBool decodes one boolean whose probability of being false is
// prob/256.
func (d *boolDecoder) readBool(prob uint8) bool {
	if d.nbits < 8 {
		var b uint32
		if d.pos < len(d.buf) {
			b = uint32(d.buf[d.pos])
			d.pos++
		} else {
			d.eof = true
		}
		d.value |= b << uint(8-d.nbits)
		d.nbits += 8
	}

	split := (d.rangeM1*uint32(prob))>>8 + 1
	bit := d.value >= split<<8
	if bit {
		d.rangeM1 -= split
		d.value -= split << 8
	} else {
		d.rangeM1 = split - 1
	}
	if d.rangeM1 < 127 {
		shift := bits.LeadingZeros8(uint8(d.rangeM1 + 1))
		d.rangeM1 = (d.rangeM1+1)<<uint(shift) - 1
		d.value <<= uint(shift)
		d.nbits -= shift
	}
	return bit
}

// readFlag decodes an evenly distributed boolean.
func (d *boolDecoder) readFlag() bool {
	return d.readBool(128)
}

// readLiteral decodes an n-bit unsigned value, most significant bit first.
func (d *boolDecoder) readLiteral(n int) int {
	v := 0
	for ; n > 0; n-- {
		v <<= 1
		if d.readFlag() {
			v |= 1
		}
	}
	return v
}

// readSigned decodes an n-bit magnitude followed by a sign flag.
func (d *boolDecoder) readSigned(n int) int {
	v := d.readLiteral(n)
	if d.readFlag() {
		return -v
	}
	return v
}

// readOptionalSigned decodes a presence flag and, if set, a signed value.
func (d *boolDecoder) readOptionalSigned(n int) int {
	if !d.readFlag() {
		return 0
	}
	return d.readSigned(n)
}
