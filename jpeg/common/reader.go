package common

import "github.com/cocosip/go-image-codec/bitio"

// Reader walks the marker segments of an in-memory JPEG stream.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new JPEG reader
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the offset of the next unread byte.
func (r *Reader) Pos() int {
	return r.pos
}

// ReadByte reads a single byte
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadUint16 reads a 16-bit big-endian value
func (r *Reader) ReadUint16() (uint16, error) {
	v, ok := bitio.Uint16BE(r.data, r.pos)
	if !ok {
		return 0, ErrUnexpectedEOF
	}
	r.pos += 2
	return v, nil
}

// ReadMarker reads the next JPEG marker
// Returns the marker value including the 0xFF prefix
func (r *Reader) ReadMarker() (uint16, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xFF {
		return 0, ErrInvalidMarker
	}

	// Skip fill bytes
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			break
		}
	}

	// 0x00 is a stuffed byte (escaped 0xFF in data), not a marker
	if b == 0x00 {
		return 0, ErrInvalidMarker
	}

	return uint16(0xFF00) | uint16(b), nil
}

// ReadSegment reads a segment with its length
// Returns the segment payload (without the length field). The slice aliases
// the input.
func (r *Reader) ReadSegment() ([]byte, error) {
	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}

	// Length includes itself (2 bytes)
	if length < 2 {
		return nil, ErrInvalidData
	}
	n := int(length) - 2
	if r.pos+n > len(r.data) {
		return nil, ErrUnexpectedEOF
	}
	seg := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return seg, nil
}

// ScanData consumes the entropy-coded data that follows an SOS segment.
// It returns one unstuffed byte slice per restart interval and the RSTn
// index (0-7) of the marker that closed each interval but the last. The
// reader is left on the 0xFF of the marker that terminated the scan.
// All intervals share one buffer no longer than the remaining input.
func (r *Reader) ScanData() (intervals [][]byte, restarts []int, err error) {
	buf := make([]byte, 0, len(r.data)-r.pos)
	start := 0
	for {
		if r.pos >= len(r.data) {
			return nil, nil, ErrUnexpectedEOF
		}
		b := r.data[r.pos]
		if b != 0xFF {
			buf = append(buf, b)
			r.pos++
			continue
		}

		// Skip fill bytes before a marker.
		next := r.pos + 1
		for next < len(r.data) && r.data[next] == 0xFF {
			next++
		}
		if next >= len(r.data) {
			return nil, nil, ErrUnexpectedEOF
		}

		m := r.data[next]
		switch {
		case m == 0x00:
			buf = append(buf, 0xFF)
			r.pos = next + 1
		case IsRST(uint16(0xFF00) | uint16(m)):
			intervals = append(intervals, buf[start:len(buf):len(buf)])
			restarts = append(restarts, int(m-0xD0))
			start = len(buf)
			r.pos = next + 1
		default:
			intervals = append(intervals, buf[start:len(buf):len(buf)])
			r.pos = next - 1
			return intervals, restarts, nil
		}
	}
}
