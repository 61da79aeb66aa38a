package vp8

// nzContext records which neighbouring 4x4 blocks had non-zero
// coefficients. It provides the token probability context of the blocks
// below and to the right.
type nzContext struct {
	y  [4]uint8
	u  [2]uint8
	v  [2]uint8
	y2 uint8
}

// macroblock holds the header fields of one macroblock.
type macroblock struct {
	segment uint8
	skip    bool // No non-zero coefficients
	i4x4    bool
	ymode   uint8
	bmodes  [16]uint8
	uvMode  uint8
}

// parseModes reads the macroblock header from the first partition.
func (d *decoder) parseModes(mbx int, mb *macroblock) {
	fp := d.fp
	*mb = macroblock{}

	if d.segment.updateMap {
		p := &d.segment.probs
		if !fp.readBool(p[0]) {
			mb.segment = btou(fp.readBool(p[1]))
		} else {
			mb.segment = 2 + btou(fp.readBool(p[2]))
		}
	}
	if d.useSkipProb {
		mb.skip = fp.readBool(d.skipProb)
	}

	top := d.intraTop[4*mbx : 4*mbx+4]
	mb.i4x4 = !fp.readBool(145)
	if !mb.i4x4 {
		switch {
		case !fp.readBool(156):
			if fp.readBool(163) {
				mb.ymode = predVE
			} else {
				mb.ymode = predDC
			}
		case fp.readBool(128):
			mb.ymode = predTM
		default:
			mb.ymode = predHE
		}
		for i := range top {
			top[i] = mb.ymode
			d.intraLeft[i] = mb.ymode
		}
	} else {
		for y := 0; y < 4; y++ {
			left := d.intraLeft[y]
			for x := 0; x < 4; x++ {
				mode := readBMode(fp, &bmodeProbs[top[x]][left])
				mb.bmodes[4*y+x] = mode
				top[x] = mode
				left = mode
			}
			d.intraLeft[y] = left
		}
	}

	switch {
	case !fp.readBool(142):
		mb.uvMode = predDC
	case !fp.readBool(114):
		mb.uvMode = predVE
	case !fp.readBool(183):
		mb.uvMode = predHE
	default:
		mb.uvMode = predTM
	}
}

// readBMode walks the 4x4 luma mode tree.
func readBMode(fp *boolDecoder, p *[numBModes - 1]uint8) uint8 {
	switch {
	case !fp.readBool(p[0]):
		return predDC
	case !fp.readBool(p[1]):
		return predTM
	case !fp.readBool(p[2]):
		return predVE
	case !fp.readBool(p[3]):
		switch {
		case !fp.readBool(p[4]):
			return predHE
		case !fp.readBool(p[5]):
			return predRD
		}
		return predVR
	case !fp.readBool(p[6]):
		return predLD
	case !fp.readBool(p[7]):
		return predVL
	case !fp.readBool(p[8]):
		return predHD
	}
	return predHU
}

func btou(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// parseResiduals reads and dequantizes the coefficients of one macroblock
// into d.coeffs and reports whether any of them is non-zero. The nzAC and
// nzDC masks select the inverse transform per block: bits 0-15 luma, 16-19
// U and 20-23 V.
func (d *decoder) parseResiduals(part *boolDecoder, mbx int, mb *macroblock) bool {
	q := &d.quant[mb.segment]
	top, left := &d.nzTop[mbx], &d.nzLeft
	c := d.coeffs[:]
	for i := range c {
		c[i] = 0
	}

	plane, first := planeY1, 0
	if !mb.i4x4 {
		nz := d.parseBlock(part, planeY2, top.y2+left.y2, &q.y2, 0, c[384:400])
		top.y2, left.y2 = nz, nz
		inverseWHT(c[384:400], c)
		plane, first = planeY1WithY2, 1
	}

	var nzAC, nzDC uint32
	for y := 0; y < 4; y++ {
		l := left.y[y]
		for x := 0; x < 4; x++ {
			n := 4*y + x
			nz := d.parseBlock(part, plane, l+top.y[x], &q.y1, first, c[16*n:16*n+16])
			top.y[x], l = nz, nz
			nzAC |= uint32(nz) << uint(n)
			nzDC |= uint32(btou(c[16*n] != 0)) << uint(n)
		}
		left.y[y] = l
	}

	chroma := func(topNZ, leftNZ *[2]uint8, base int) {
		for y := 0; y < 2; y++ {
			l := leftNZ[y]
			for x := 0; x < 2; x++ {
				n := base + 2*y + x
				nz := d.parseBlock(part, planeUV, l+topNZ[x], &q.uv, 0, c[16*n:16*n+16])
				topNZ[x], l = nz, nz
				nzAC |= uint32(nz) << uint(n)
				nzDC |= uint32(btou(c[16*n] != 0)) << uint(n)
			}
			leftNZ[y] = l
		}
	}
	chroma(&top.u, &left.u, 16)
	chroma(&top.v, &left.v, 20)

	d.nzAC, d.nzDC = nzAC, nzDC
	return nzAC|nzDC != 0
}

// skipResiduals clears the contexts of a macroblock without coefficients.
func (d *decoder) skipResiduals(mbx int, mb *macroblock) {
	top, left := &d.nzTop[mbx], &d.nzLeft
	top.y, top.u, top.v = [4]uint8{}, [2]uint8{}, [2]uint8{}
	left.y, left.u, left.v = [4]uint8{}, [2]uint8{}, [2]uint8{}
	if !mb.i4x4 {
		top.y2, left.y2 = 0, 0
	}
	d.nzAC, d.nzDC = 0, 0
}

// parseBlock decodes the tokens of one 4x4 block starting at scan position
// first. It returns 1 if any token other than end-of-block was read.
func (d *decoder) parseBlock(part *boolDecoder, plane int, ctx uint8, q *[2]int32, first int, out []int16) uint8 {
	probs := &d.probs[plane]
	n := first
	p := &probs[bands[n]][ctx]
	if !part.readBool(p[0]) {
		return 0
	}
	for n < 16 {
		n++
		if !part.readBool(p[1]) {
			p = &probs[bands[n]][0]
			continue
		}

		var v int32
		if !part.readBool(p[2]) {
			v = 1
			p = &probs[bands[n]][1]
		} else {
			v = readLargeValue(part, p)
			p = &probs[bands[n]][2]
		}

		z := zigzag[n-1]
		qi := 0
		if z > 0 {
			qi = 1
		}
		v *= q[qi]
		if part.readFlag() {
			v = -v
		}
		out[z] = int16(v)

		if n == 16 || !part.readBool(p[0]) {
			return 1
		}
	}
	return 1
}

// readLargeValue decodes a coefficient magnitude of at least 2.
func readLargeValue(part *boolDecoder, p *[numProbs]uint8) int32 {
	if !part.readBool(p[3]) {
		if !part.readBool(p[4]) {
			return 2
		}
		return 3 + int32(btou(part.readBool(p[5])))
	}
	if !part.readBool(p[6]) {
		if !part.readBool(p[7]) {
			return 5 + int32(btou(part.readBool(159)))
		}
		v := 7 + 2*int32(btou(part.readBool(165)))
		return v + int32(btou(part.readBool(145)))
	}

	hi := btou(part.readBool(p[8]))
	cat := 2*hi + btou(part.readBool(p[9+hi]))
	var v int32
	for _, prob := range catProbs[cat] {
		if prob == 0 {
			break
		}
		v = 2*v + int32(btou(part.readBool(prob)))
	}
	return v + 3 + 8<<cat
}

// loadEdges fills the neighbour row and column of the workspace for the
// macroblock at (mbx, mby). Missing neighbours are 127 above and 129 to
// the left; the corner takes the value of the top row.
func (d *decoder) loadEdges(mbx, mby int) {
	ws := d.ws[:]
	f := d.frame

	if mbx == 0 {
		for y := 0; y < 17; y++ {
			ws[y*bps+7] = 129
		}
		for y := 17; y < 26; y++ {
			ws[y*bps+7] = 129
			ws[y*bps+23] = 129
		}
	} else {
		// The right column of the previous macroblock becomes the left one.
		for y := 0; y < 17; y++ {
			ws[y*bps+7] = ws[y*bps+23]
		}
		for y := 17; y < 26; y++ {
			ws[y*bps+7] = ws[y*bps+15]
			ws[y*bps+23] = ws[y*bps+31]
		}
	}

	if mby == 0 {
		for x := 7; x < 28; x++ {
			ws[x] = 127
		}
		for x := 7; x < 16; x++ {
			ws[17*bps+x] = 127
		}
		for x := 23; x < 32; x++ {
			ws[17*bps+x] = 127
		}
	} else {
		yrow := f.Y[(16*mby-1)*f.YStride+16*mbx:]
		copy(ws[8:24], yrow[:16])
		if mbx == d.mbw-1 {
			for x := 24; x < 28; x++ {
				ws[x] = yrow[15]
			}
		} else {
			copy(ws[24:28], yrow[16:20])
		}
		crow := (8*mby-1)*f.CStride + 8*mbx
		copy(ws[17*bps+8:17*bps+16], f.U[crow:crow+8])
		copy(ws[17*bps+24:17*bps+32], f.V[crow:crow+8])
	}

	// Subblocks on the right edge predict from the macroblock's
	// above-right pixels.
	for y := 4; y < 16; y += 4 {
		copy(ws[y*bps+24:y*bps+28], ws[24:28])
	}
}

// reconstruct predicts the macroblock, adds the residuals and stores the
// result in the frame planes.
func (d *decoder) reconstruct(mbx, mby int, mb *macroblock) {
	ws := d.ws[:]
	c := d.coeffs[:]
	d.loadEdges(mbx, mby)

	addResidual := func(n, off int) {
		switch {
		case d.nzAC&(1<<uint(n)) != 0:
			inverseDCT(c[16*n:16*n+16], ws, off)
		case d.nzDC&(1<<uint(n)) != 0:
			inverseDCTDC(c[16*n], ws, off)
		}
	}

	if mb.i4x4 {
		for n := 0; n < 16; n++ {
			off := yOffset + 4*(n>>2)*bps + 4*(n&3)
			predictSubblock(ws, off, mb.bmodes[n])
			addResidual(n, off)
		}
	} else {
		predictBlock(ws, yOffset, 16, edgeMode(mb.ymode, mbx, mby))
		for n := 0; n < 16; n++ {
			addResidual(n, yOffset+4*(n>>2)*bps+4*(n&3))
		}
	}

	uvMode := edgeMode(mb.uvMode, mbx, mby)
	predictBlock(ws, uOffset, 8, uvMode)
	predictBlock(ws, vOffset, 8, uvMode)
	for n := 0; n < 4; n++ {
		off := 4*(n>>1)*bps + 4*(n&1)
		addResidual(16+n, uOffset+off)
		addResidual(20+n, vOffset+off)
	}

	f := d.frame
	for y := 0; y < 16; y++ {
		dst := f.Y[(16*mby+y)*f.YStride+16*mbx:]
		copy(dst[:16], ws[yOffset+y*bps:yOffset+y*bps+16])
	}
	for y := 0; y < 8; y++ {
		off := (8*mby+y)*f.CStride + 8*mbx
		copy(f.U[off:off+8], ws[uOffset+y*bps:uOffset+y*bps+8])
		copy(f.V[off:off+8], ws[vOffset+y*bps:vOffset+y*bps+8])
	}
}
