package vp8

// Intra prediction modes. 16x16 luma and chroma blocks use the first four;
// the DC variants at the end replace DC at the frame edges.
const (
	predDC = iota
	predTM
	predVE
	predHE
	predRD
	predVR
	predLD
	predVL
	predHD
	predHU
	predDCNoTop
	predDCNoLeft
	predDCNoTopLeft

	numBModes = predHU + 1
)

// bps is the stride of the reconstruction workspace. The workspace keeps one
// macroblock with its top row and left column of neighbours:
//
//	row 0      top neighbours of Y (cols 7..27, 24..27 are above-right)
//	rows 1-16  Y in cols 8..23, left neighbours in col 7
//	row 17     top neighbours of U (cols 7..15) and V (cols 23..31)
//	rows 18-25 U in cols 8..15 and V in cols 24..31
const (
	bps       = 32
	yOffset   = 1*bps + 8
	uOffset   = 18*bps + 8
	vOffset   = 18*bps + 24
	workspace = 26 * bps
)

func avg2(a, b uint8) uint8 {
	return uint8((int(a) + int(b) + 1) >> 1)
}

func avg3(a, b, c uint8) uint8 {
	return uint8((int(a) + 2*int(b) + int(c) + 2) >> 2)
}

func clip8(v int) uint8 {
	if v&^0xff == 0 {
		return uint8(v)
	}
	if v < 0 {
		return 0
	}
	return 255
}

// edgeMode replaces DC prediction with the variant that only averages the
// neighbours that exist.
func edgeMode(mode uint8, mbx, mby int) uint8 {
	if mode != predDC {
		return mode
	}
	switch {
	case mbx == 0 && mby == 0:
		return predDCNoTopLeft
	case mbx == 0:
		return predDCNoLeft
	case mby == 0:
		return predDCNoTop
	}
	return predDC
}

func fill(b []uint8, off, size int, v uint8) {
	for y := 0; y < size; y++ {
		row := b[off+y*bps : off+y*bps+size]
		for x := range row {
			row[x] = v
		}
	}
}

// predictBlock predicts a size x size block (16 for luma, 8 for chroma)
// with one of the whole-block modes.
func predictBlock(b []uint8, off, size int, mode uint8) {
	shift := 4
	if size == 16 {
		shift = 5
	}
	switch mode {
	case predDC:
		sum := size
		for i := 0; i < size; i++ {
			sum += int(b[off-bps+i]) + int(b[off-1+i*bps])
		}
		fill(b, off, size, uint8(sum>>uint(shift)))
	case predDCNoTop:
		sum := size >> 1
		for i := 0; i < size; i++ {
			sum += int(b[off-1+i*bps])
		}
		fill(b, off, size, uint8(sum>>uint(shift-1)))
	case predDCNoLeft:
		sum := size >> 1
		for i := 0; i < size; i++ {
			sum += int(b[off-bps+i])
		}
		fill(b, off, size, uint8(sum>>uint(shift-1)))
	case predDCNoTopLeft:
		fill(b, off, size, 0x80)
	case predTM:
		trueMotion(b, off, size)
	case predVE:
		top := b[off-bps : off-bps+size]
		for y := 0; y < size; y++ {
			copy(b[off+y*bps:off+y*bps+size], top)
		}
	case predHE:
		for y := 0; y < size; y++ {
			row := b[off+y*bps : off+y*bps+size]
			left := b[off+y*bps-1]
			for x := range row {
				row[x] = left
			}
		}
	}
}

func trueMotion(b []uint8, off, size int) {
	topLeft := int(b[off-bps-1])
	for y := 0; y < size; y++ {
		left := int(b[off+y*bps-1]) - topLeft
		for x := 0; x < size; x++ {
			b[off+y*bps+x] = clip8(left + int(b[off-bps+x]))
		}
	}
}

// predictSubblock predicts a 4x4 luma block. The four pixels above and to
// the right of the block must be in place for the diagonal modes.
func predictSubblock(b []uint8, off int, mode uint8) {
	top := b[off-bps-1 : off-bps+8] // top[0] is the top-left corner
	x, a, bb, c, d := top[0], top[1], top[2], top[3], top[4]
	e, f, g, h := top[5], top[6], top[7], top[8]
	i, j, k, l := b[off-1], b[off-1+bps], b[off-1+2*bps], b[off-1+3*bps]
	dst := func(col, row int, v uint8) {
		b[off+row*bps+col] = v
	}

	switch mode {
	case predDC:
		sum := 4
		for n := 0; n < 4; n++ {
			sum += int(top[1+n]) + int(b[off-1+n*bps])
		}
		fill(b, off, 4, uint8(sum>>3))

	case predTM:
		trueMotion(b, off, 4)

	case predVE:
		vals := [4]uint8{avg3(x, a, bb), avg3(a, bb, c), avg3(bb, c, d), avg3(c, d, e)}
		for row := 0; row < 4; row++ {
			copy(b[off+row*bps:off+row*bps+4], vals[:])
		}

	case predHE:
		vals := [4]uint8{avg3(x, i, j), avg3(i, j, k), avg3(j, k, l), avg3(k, l, l)}
		for row, v := range vals {
			for col := 0; col < 4; col++ {
				dst(col, row, v)
			}
		}

	case predRD:
		dst(0, 3, avg3(j, k, l))
		v := avg3(i, j, k)
		dst(1, 3, v)
		dst(0, 2, v)
		v = avg3(x, i, j)
		dst(2, 3, v)
		dst(1, 2, v)
		dst(0, 1, v)
		v = avg3(a, x, i)
		dst(3, 3, v)
		dst(2, 2, v)
		dst(1, 1, v)
		dst(0, 0, v)
		v = avg3(bb, a, x)
		dst(3, 2, v)
		dst(2, 1, v)
		dst(1, 0, v)
		v = avg3(c, bb, a)
		dst(3, 1, v)
		dst(2, 0, v)
		dst(3, 0, avg3(d, c, bb))

	case predVR:
		v := avg2(x, a)
		dst(0, 0, v)
		dst(1, 2, v)
		v = avg2(a, bb)
		dst(1, 0, v)
		dst(2, 2, v)
		v = avg2(bb, c)
		dst(2, 0, v)
		dst(3, 2, v)
		dst(3, 0, avg2(c, d))
		dst(0, 3, avg3(k, j, i))
		dst(0, 2, avg3(j, i, x))
		v = avg3(i, x, a)
		dst(0, 1, v)
		dst(1, 3, v)
		v = avg3(x, a, bb)
		dst(1, 1, v)
		dst(2, 3, v)
		v = avg3(a, bb, c)
		dst(2, 1, v)
		dst(3, 3, v)
		dst(3, 1, avg3(bb, c, d))

	case predLD:
		dst(0, 0, avg3(a, bb, c))
		v := avg3(bb, c, d)
		dst(1, 0, v)
		dst(0, 1, v)
		v = avg3(c, d, e)
		dst(2, 0, v)
		dst(1, 1, v)
		dst(0, 2, v)
		v = avg3(d, e, f)
		dst(3, 0, v)
		dst(2, 1, v)
		dst(1, 2, v)
		dst(0, 3, v)
		v = avg3(e, f, g)
		dst(3, 1, v)
		dst(2, 2, v)
		dst(1, 3, v)
		v = avg3(f, g, h)
		dst(3, 2, v)
		dst(2, 3, v)
		dst(3, 3, avg3(g, h, h))

	case predVL:
		dst(0, 0, avg2(a, bb))
		v := avg2(bb, c)
		dst(1, 0, v)
		dst(0, 2, v)
		v = avg2(c, d)
		dst(2, 0, v)
		dst(1, 2, v)
		v = avg2(d, e)
		dst(3, 0, v)
		dst(2, 2, v)
		dst(0, 1, avg3(a, bb, c))
		v = avg3(bb, c, d)
		dst(1, 1, v)
		dst(0, 3, v)
		v = avg3(c, d, e)
		dst(2, 1, v)
		dst(1, 3, v)
		v = avg3(d, e, f)
		dst(3, 1, v)
		dst(2, 3, v)
		dst(3, 2, avg3(e, f, g))
		dst(3, 3, avg3(f, g, h))

	case predHD:
		v := avg2(i, x)
		dst(0, 0, v)
		dst(2, 1, v)
		v = avg2(j, i)
		dst(0, 1, v)
		dst(2, 2, v)
		v = avg2(k, j)
		dst(0, 2, v)
		dst(2, 3, v)
		dst(0, 3, avg2(l, k))
		dst(3, 0, avg3(a, bb, c))
		dst(2, 0, avg3(x, a, bb))
		v = avg3(i, x, a)
		dst(1, 0, v)
		dst(3, 1, v)
		v = avg3(j, i, x)
		dst(1, 1, v)
		dst(3, 2, v)
		v = avg3(k, j, i)
		dst(1, 2, v)
		dst(3, 3, v)
		dst(1, 3, avg3(l, k, j))

	case predHU:
		dst(0, 0, avg2(i, j))
		v := avg2(j, k)
		dst(2, 0, v)
		dst(0, 1, v)
		v = avg2(k, l)
		dst(2, 1, v)
		dst(0, 2, v)
		dst(1, 0, avg3(i, j, k))
		v = avg3(j, k, l)
		dst(3, 0, v)
		dst(1, 1, v)
		v = avg3(k, l, l)
		dst(3, 1, v)
		dst(1, 2, v)
		for _, p := range [][2]int{{3, 2}, {2, 2}, {0, 3}, {1, 3}, {2, 3}, {3, 3}} {
			dst(p[0], p[1], l)
		}
	}
}
