package bitio

import "encoding/binary"

// Uint16LE reads a little-endian uint16 at off. ok is false when the slice is
// too short.
func Uint16LE(b []byte, off int) (v uint16, ok bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b[off:]), true
}

// Uint24LE reads a little-endian 24-bit value at off.
func Uint24LE(b []byte, off int) (v uint32, ok bool) {
	if off < 0 || off+3 > len(b) {
		return 0, false
	}
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16, true
}

// Uint32LE reads a little-endian uint32 at off.
func Uint32LE(b []byte, off int) (v uint32, ok bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[off:]), true
}

// Uint16BE reads a big-endian uint16 at off.
func Uint16BE(b []byte, off int) (v uint16, ok bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	return binary.BigEndian.Uint16(b[off:]), true
}

// PutUint24LE writes v as a little-endian 24-bit value.
func PutUint24LE(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
