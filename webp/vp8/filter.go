package vp8

// filterParams are the loop filter settings of one macroblock.
type filterParams struct {
	limit     int // Edge limit, 0 disables filtering
	ilevel    int // Interior limit
	hevThresh int
	inner     bool // Filter the edges between subblocks too
}

// computeFilterStrengths derives the filter settings for every segment,
// without [0] and with [1] 4x4 prediction.
func (d *decoder) computeFilterStrengths() {
	f := &d.filter
	for s := range d.strengths {
		base := f.level
		if d.segment.enabled {
			base = d.segment.level[s]
			if !d.segment.absolute {
				base += f.level
			}
		}
		for i4x4 := range d.strengths[s] {
			p := &d.strengths[s][i4x4]
			level := base
			if f.useDeltas {
				// Key frames are intra coded, so only the first reference
				// delta and the 4x4 mode delta apply.
				level += f.refDelta[0]
				if i4x4 == 1 {
					level += f.modeDelta[0]
				}
			}
			level = min(max(level, 0), 63)
			*p = filterParams{inner: i4x4 == 1}
			if level == 0 {
				continue
			}

			ilevel := level
			if f.sharpness > 0 {
				if f.sharpness > 4 {
					ilevel >>= 2
				} else {
					ilevel >>= 1
				}
				ilevel = min(ilevel, 9-f.sharpness)
			}
			ilevel = max(ilevel, 1)

			p.ilevel = ilevel
			p.limit = 2*level + ilevel
			switch {
			case level >= 40:
				p.hevThresh = 2
			case level >= 15:
				p.hevThresh = 1
			}
		}
	}
}

// loopFilter filters the reconstructed frame macroblock by macroblock in
// raster order.
func (d *decoder) loopFilter() {
	f := d.frame
	for mby := 0; mby < d.mbh; mby++ {
		for mbx := 0; mbx < d.mbw; mbx++ {
			p := &d.mbFilter[mby*d.mbw+mbx]
			if p.limit == 0 {
				continue
			}
			yoff := 16*mby*f.YStride + 16*mbx
			if d.filter.simple {
				simpleFilterMB(f.Y, yoff, f.YStride, mbx, mby, p)
				continue
			}
			coff := 8*mby*f.CStride + 8*mbx
			normalFilterMB(f.Y, yoff, f.YStride, 16, mbx, mby, p)
			normalFilterMB(f.U, coff, f.CStride, 8, mbx, mby, p)
			normalFilterMB(f.V, coff, f.CStride, 8, mbx, mby, p)
		}
	}
}

// simpleFilterMB filters the luma edges of one macroblock: the left edge,
// the inner vertical edges, the top edge and the inner horizontal edges.
func simpleFilterMB(b []uint8, off, stride, mbx, mby int, p *filterParams) {
	if mbx > 0 {
		simpleLoop(b, off, 1, stride, p.limit+4)
	}
	if p.inner {
		for x := 4; x < 16; x += 4 {
			simpleLoop(b, off+x, 1, stride, p.limit)
		}
	}
	if mby > 0 {
		simpleLoop(b, off, stride, 1, p.limit+4)
	}
	if p.inner {
		for y := 4; y < 16; y += 4 {
			simpleLoop(b, off+y*stride, stride, 1, p.limit)
		}
	}
}

// normalFilterMB filters one plane of a macroblock of the given size. Chroma
// has a single inner edge in each direction.
func normalFilterMB(b []uint8, off, stride, size, mbx, mby int, p *filterParams) {
	if mbx > 0 {
		filterLoop26(b, off, 1, stride, size, p.limit+4, p.ilevel, p.hevThresh)
	}
	if p.inner {
		for x := 4; x < size; x += 4 {
			filterLoop24(b, off+x, 1, stride, size, p.limit, p.ilevel, p.hevThresh)
		}
	}
	if mby > 0 {
		filterLoop26(b, off, stride, 1, size, p.limit+4, p.ilevel, p.hevThresh)
	}
	if p.inner {
		for y := 4; y < size; y += 4 {
			filterLoop24(b, off+y*stride, stride, 1, size, p.limit, p.ilevel, p.hevThresh)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// sclip1 clamps to a signed byte, sclip2 to [-16, 15].
func sclip1(v int) int { return min(max(v, -128), 127) }
func sclip2(v int) int { return min(max(v, -16), 15) }

// Edge filters. i is the first pixel past the edge (q0) and step is the
// distance between pixels across the edge.

func needsFilter(b []uint8, i, step, t int) bool {
	p1, p0 := int(b[i-2*step]), int(b[i-step])
	q0, q1 := int(b[i]), int(b[i+step])
	return 4*abs(p0-q0)+abs(p1-q1) <= t
}

func needsFilter2(b []uint8, i, step, t, it int) bool {
	p3, p2, p1, p0 := int(b[i-4*step]), int(b[i-3*step]), int(b[i-2*step]), int(b[i-step])
	q0, q1, q2, q3 := int(b[i]), int(b[i+step]), int(b[i+2*step]), int(b[i+3*step])
	if 4*abs(p0-q0)+abs(p1-q1) > t {
		return false
	}
	return abs(p3-p2) <= it && abs(p2-p1) <= it && abs(p1-p0) <= it &&
		abs(q3-q2) <= it && abs(q2-q1) <= it && abs(q1-q0) <= it
}

func hev(b []uint8, i, step, thresh int) bool {
	p1, p0 := int(b[i-2*step]), int(b[i-step])
	q0, q1 := int(b[i]), int(b[i+step])
	return abs(p1-p0) > thresh || abs(q1-q0) > thresh
}

// doFilter2 adjusts p0 and q0 using the outer taps.
func doFilter2(b []uint8, i, step int) {
	p1, p0 := int(b[i-2*step]), int(b[i-step])
	q0, q1 := int(b[i]), int(b[i+step])
	a := 3*(q0-p0) + sclip1(p1-q1)
	a1 := sclip2((a + 4) >> 3)
	a2 := sclip2((a + 3) >> 3)
	b[i-step] = clip8(p0 + a2)
	b[i] = clip8(q0 - a1)
}

// doFilter4 adjusts p1, p0, q0 and q1 without the outer taps.
func doFilter4(b []uint8, i, step int) {
	p1, p0 := int(b[i-2*step]), int(b[i-step])
	q0, q1 := int(b[i]), int(b[i+step])
	a := 3 * (q0 - p0)
	a1 := sclip2((a + 4) >> 3)
	a2 := sclip2((a + 3) >> 3)
	a3 := (a1 + 1) >> 1
	b[i-2*step] = clip8(p1 + a3)
	b[i-step] = clip8(p0 + a2)
	b[i] = clip8(q0 - a1)
	b[i+step] = clip8(q1 - a3)
}

// doFilter6 is the macroblock edge filter, adjusting three pixels on each
// side.
func doFilter6(b []uint8, i, step int) {
	p2, p1, p0 := int(b[i-3*step]), int(b[i-2*step]), int(b[i-step])
	q0, q1, q2 := int(b[i]), int(b[i+step]), int(b[i+2*step])
	a := sclip1(3*(q0-p0) + sclip1(p1-q1))
	a1 := (27*a + 63) >> 7
	a2 := (18*a + 63) >> 7
	a3 := (9*a + 63) >> 7
	b[i-3*step] = clip8(p2 + a3)
	b[i-2*step] = clip8(p1 + a2)
	b[i-step] = clip8(p0 + a1)
	b[i] = clip8(q0 - a1)
	b[i+step] = clip8(q1 - a2)
	b[i+2*step] = clip8(q2 - a3)
}

// simpleLoop runs the simple filter along a 16 pixel edge. hstride crosses
// the edge, vstride moves along it.
func simpleLoop(b []uint8, i, hstride, vstride, thresh int) {
	t := 2*thresh + 1
	for n := 0; n < 16; n++ {
		if needsFilter(b, i, hstride, t) {
			doFilter2(b, i, hstride)
		}
		i += vstride
	}
}

func filterLoop26(b []uint8, i, hstride, vstride, size, thresh, ithresh, hevThresh int) {
	t := 2*thresh + 1
	for n := 0; n < size; n++ {
		if needsFilter2(b, i, hstride, t, ithresh) {
			if hev(b, i, hstride, hevThresh) {
				doFilter2(b, i, hstride)
			} else {
				doFilter6(b, i, hstride)
			}
		}
		i += vstride
	}
}

func filterLoop24(b []uint8, i, hstride, vstride, size, thresh, ithresh, hevThresh int) {
	t := 2*thresh + 1
	for n := 0; n < size; n++ {
		if needsFilter2(b, i, hstride, t, ithresh) {
			if hev(b, i, hstride, hevThresh) {
				doFilter2(b, i, hstride)
			} else {
				doFilter4(b, i, hstride)
			}
		}
		i += vstride
	}
}
