package vp8

import (
	"encoding/binary"
	"math/rand/v2"
)

// boolEncoder is the arithmetic coder matching boolDecoder.
type boolEncoder struct {
	out      []byte
	rng      uint32
	bottom   uint32
	bitCount int
}

func newBoolEncoder() *boolEncoder {
	return &boolEncoder{rng: 255, bitCount: 24}
}

func (e *boolEncoder) carry() {
	i := len(e.out) - 1
	for i >= 0 && e.out[i] == 0xff {
		e.out[i] = 0
		i--
	}
	e.out[i]++
}

func (e *boolEncoder) writeBool(prob uint8, b bool) {
	split := 1 + ((e.rng-1)*uint32(prob))>>8
	if b {
		e.bottom += split
		e.rng -= split
	} else {
		e.rng = split
	}
	for e.rng < 128 {
		e.rng <<= 1
		if e.bottom&(1<<31) != 0 {
			e.carry()
		}
		e.bottom <<= 1
		e.bitCount--
		if e.bitCount == 0 {
			e.out = append(e.out, byte(e.bottom>>24))
			e.bottom &= 1<<24 - 1
			e.bitCount = 8
		}
	}
}

func (e *boolEncoder) writeFlag(b bool) {
	e.writeBool(128, b)
}

func (e *boolEncoder) writeLiteral(v, n int) {
	for n--; n >= 0; n-- {
		e.writeFlag((v>>uint(n))&1 == 1)
	}
}

func (e *boolEncoder) writeSigned(v, n int) {
	if v < 0 {
		e.writeLiteral(-v, n)
		e.writeFlag(true)
		return
	}
	e.writeLiteral(v, n)
	e.writeFlag(false)
}

func (e *boolEncoder) writeOptionalSigned(v, n int) {
	e.writeFlag(v != 0)
	if v != 0 {
		e.writeSigned(v, n)
	}
}

// bytes pads the stream with 32 zero bits so that every coded bit reaches
// the output.
func (e *boolEncoder) bytes() []byte {
	for i := 0; i < 32; i++ {
		e.writeBool(128, false)
	}
	return e.out
}

// modeChoice selects the luma prediction of generated macroblocks.
type modeChoice int

const (
	modesMixed modeChoice = iota
	modes16
	modes4
)

// frameParams describes a synthetic key frame. Prediction modes,
// coefficients and per-macroblock fields are drawn from seed.
type frameParams struct {
	width, height int
	log2Parts     int

	segments    bool
	updateMap   bool
	absolute    bool
	segQuant    [numSegments]int
	segLevel    [numSegments]int
	segProbs    [3]uint8
	simple      bool
	level       int
	sharpness   int
	refDelta    int
	modeDelta   int
	useDeltas   bool
	baseQ       int
	qDeltas     [5]int // y1dc, y2dc, y2ac, uvdc, uvac
	probUpdates bool
	skipProb    int // Negative disables the skip flag
	modes       modeChoice
	maxCoeff    int
	zeroBlocks  int // Percentage of blocks without coefficients
	seed        uint64
}

type frameWriter struct {
	p     frameParams
	rnd   *rand.Rand
	fp    *boolEncoder
	parts []*boolEncoder
	probs tokenProbs

	mbw, mbh  int
	intraTop  []uint8
	intraLeft [4]uint8
	nzTop     []nzContext
	nzLeft    nzContext
}

// encodeFrame builds a complete VP8 key frame, header included.
func encodeFrame(p frameParams) []byte {
	w := &frameWriter{
		p:   p,
		rnd: rand.New(rand.NewPCG(p.seed, 0x5eed)),
		fp:  newBoolEncoder(),
		mbw: (p.width + 15) >> 4,
		mbh: (p.height + 15) >> 4,
	}
	w.parts = make([]*boolEncoder, 1<<uint(p.log2Parts))
	for i := range w.parts {
		w.parts[i] = newBoolEncoder()
	}
	w.intraTop = make([]uint8, 4*w.mbw)
	w.nzTop = make([]nzContext, w.mbw)

	w.writeHeader()
	for mby := 0; mby < w.mbh; mby++ {
		w.intraLeft = [4]uint8{}
		w.nzLeft = nzContext{}
		part := w.parts[mby&(len(w.parts)-1)]
		for mbx := 0; mbx < w.mbw; mbx++ {
			w.writeMacroblock(part, mbx)
		}
	}

	first := w.fp.bytes()
	out := make([]byte, HeaderSize, HeaderSize+len(first))
	tag := uint32(len(first))<<5 | 1<<4
	out[0], out[1], out[2] = byte(tag), byte(tag>>8), byte(tag>>16)
	copy(out[3:6], startCode[:])
	binary.LittleEndian.PutUint16(out[6:], uint16(p.width))
	binary.LittleEndian.PutUint16(out[8:], uint16(p.height))
	out = append(out, first...)

	var partData [][]byte
	for _, e := range w.parts {
		partData = append(partData, e.bytes())
	}
	for _, b := range partData[:len(partData)-1] {
		n := len(b)
		out = append(out, byte(n), byte(n>>8), byte(n>>16))
	}
	for _, b := range partData {
		out = append(out, b...)
	}
	return out
}

func (w *frameWriter) writeHeader() {
	fp, p := w.fp, &w.p
	fp.writeLiteral(0, 1) // Color space
	fp.writeLiteral(0, 1) // Clamping

	fp.writeFlag(p.segments)
	if p.segments {
		fp.writeFlag(p.updateMap)
		fp.writeFlag(true)
		fp.writeFlag(p.absolute)
		for _, q := range p.segQuant {
			fp.writeOptionalSigned(q, 7)
		}
		for _, l := range p.segLevel {
			fp.writeOptionalSigned(l, 6)
		}
		if p.updateMap {
			for _, prob := range p.segProbs {
				fp.writeFlag(true)
				fp.writeLiteral(int(prob), 8)
			}
		}
	}

	fp.writeFlag(p.simple)
	fp.writeLiteral(p.level, 6)
	fp.writeLiteral(p.sharpness, 3)
	fp.writeFlag(p.useDeltas)
	if p.useDeltas {
		fp.writeFlag(true)
		for i := 0; i < numRefDeltas; i++ {
			fp.writeFlag(i == 0)
			if i == 0 {
				fp.writeSigned(p.refDelta, 6)
			}
		}
		for i := 0; i < numModeDeltas; i++ {
			fp.writeFlag(i == 0)
			if i == 0 {
				fp.writeSigned(p.modeDelta, 6)
			}
		}
	}

	fp.writeLiteral(p.log2Parts, 2)

	fp.writeLiteral(p.baseQ, 7)
	for _, dq := range p.qDeltas {
		fp.writeOptionalSigned(dq, 4)
	}

	fp.writeFlag(false) // refresh_entropy_probs

	w.probs = defaultCoeffProbs
	for t := range w.probs {
		for b := range w.probs[t] {
			for c := range w.probs[t][b] {
				for i := range w.probs[t][b][c] {
					update := p.probUpdates && w.rnd.IntN(6) == 0
					fp.writeBool(coeffUpdateProbs[t][b][c][i], update)
					if update {
						prob := 1 + w.rnd.IntN(255)
						fp.writeLiteral(prob, 8)
						w.probs[t][b][c][i] = uint8(prob)
					}
				}
			}
		}
	}

	fp.writeFlag(p.skipProb >= 0)
	if p.skipProb >= 0 {
		fp.writeLiteral(p.skipProb, 8)
	}
}

func (w *frameWriter) writeMacroblock(part *boolEncoder, mbx int) {
	fp, p := w.fp, &w.p

	if p.segments && p.updateMap {
		seg := w.rnd.IntN(numSegments)
		fp.writeBool(p.segProbs[0], seg >= 2)
		if seg < 2 {
			fp.writeBool(p.segProbs[1], seg == 1)
		} else {
			fp.writeBool(p.segProbs[2], seg == 3)
		}
	}
	skip := false
	if p.skipProb >= 0 {
		skip = w.rnd.IntN(4) == 0
		fp.writeBool(uint8(p.skipProb), skip)
	}

	i4x4 := w.rnd.IntN(2) == 0
	switch p.modes {
	case modes16:
		i4x4 = false
	case modes4:
		i4x4 = true
	}
	fp.writeBool(145, !i4x4)
	top := w.intraTop[4*mbx : 4*mbx+4]
	if !i4x4 {
		ymode := uint8(w.rnd.IntN(4))
		switch ymode {
		case predDC, predVE:
			fp.writeBool(156, false)
			fp.writeBool(163, ymode == predVE)
		case predHE, predTM:
			fp.writeBool(156, true)
			fp.writeBool(128, ymode == predTM)
		}
		for i := range top {
			top[i] = ymode
			w.intraLeft[i] = ymode
		}
	} else {
		for y := 0; y < 4; y++ {
			left := w.intraLeft[y]
			for x := 0; x < 4; x++ {
				mode := uint8(w.rnd.IntN(numBModes))
				writeBMode(fp, &bmodeProbs[top[x]][left], mode)
				top[x] = mode
				left = mode
			}
			w.intraLeft[y] = left
		}
	}

	uvMode := w.rnd.IntN(4)
	fp.writeBool(142, uvMode != predDC)
	if uvMode != predDC {
		fp.writeBool(114, uvMode != predVE)
		if uvMode != predVE {
			fp.writeBool(183, uvMode == predTM)
		}
	}

	nzTop, nzLeft := &w.nzTop[mbx], &w.nzLeft
	if skip {
		nzTop.y, nzTop.u, nzTop.v = [4]uint8{}, [2]uint8{}, [2]uint8{}
		nzLeft.y, nzLeft.u, nzLeft.v = [4]uint8{}, [2]uint8{}, [2]uint8{}
		if !i4x4 {
			nzTop.y2, nzLeft.y2 = 0, 0
		}
		return
	}

	plane, first := planeY1, 0
	if !i4x4 {
		nz := w.writeBlock(part, planeY2, nzTop.y2+nzLeft.y2, 0, w.coefficients(0))
		nzTop.y2, nzLeft.y2 = nz, nz
		plane, first = planeY1WithY2, 1
	}
	for y := 0; y < 4; y++ {
		l := nzLeft.y[y]
		for x := 0; x < 4; x++ {
			nz := w.writeBlock(part, plane, l+nzTop.y[x], first, w.coefficients(first))
			nzTop.y[x], l = nz, nz
		}
		nzLeft.y[y] = l
	}
	for _, ctx := range []struct{ top, left *[2]uint8 }{{&nzTop.u, &nzLeft.u}, {&nzTop.v, &nzLeft.v}} {
		for y := 0; y < 2; y++ {
			l := ctx.left[y]
			for x := 0; x < 2; x++ {
				nz := w.writeBlock(part, planeUV, l+ctx.top[x], 0, w.coefficients(0))
				ctx.top[x], l = nz, nz
			}
			ctx.left[y] = l
		}
	}
}

func writeBMode(fp *boolEncoder, p *[numBModes - 1]uint8, mode uint8) {
	fp.writeBool(p[0], mode != predDC)
	if mode == predDC {
		return
	}
	fp.writeBool(p[1], mode != predTM)
	if mode == predTM {
		return
	}
	fp.writeBool(p[2], mode != predVE)
	if mode == predVE {
		return
	}
	switch mode {
	case predHE, predRD, predVR:
		fp.writeBool(p[3], false)
		fp.writeBool(p[4], mode != predHE)
		if mode != predHE {
			fp.writeBool(p[5], mode == predVR)
		}
		return
	}
	fp.writeBool(p[3], true)
	fp.writeBool(p[6], mode != predLD)
	if mode == predLD {
		return
	}
	fp.writeBool(p[7], mode != predVL)
	if mode == predVL {
		return
	}
	fp.writeBool(p[8], mode == predHU)
}

// coefficients draws the quantized levels of one block in scan order.
func (w *frameWriter) coefficients(first int) [16]int {
	var c [16]int
	switch r := w.rnd.IntN(100); {
	case r < w.p.zeroBlocks:
		return c
	case r < w.p.zeroBlocks+(100-w.p.zeroBlocks)/4:
		// A single coefficient.
		c[first] = w.level()
		return c
	}
	last := first + w.rnd.IntN(16-first)
	for n := first; n <= last; n++ {
		if w.rnd.IntN(3) != 0 {
			c[n] = w.level()
		}
	}
	c[last] = w.level()
	return c
}

// level returns a non-zero level covering every token category up to
// maxCoeff.
func (w *frameWriter) level() int {
	var v int
	switch w.rnd.IntN(8) {
	case 0, 1, 2:
		v = 1
	case 3:
		v = 2 + w.rnd.IntN(3)
	case 4:
		v = 5 + w.rnd.IntN(6)
	case 5:
		v = 11 + w.rnd.IntN(24)
	default:
		v = 35 + w.rnd.IntN(max(w.p.maxCoeff-34, 1))
	}
	v = min(v, w.p.maxCoeff)
	if w.rnd.IntN(2) == 0 {
		return -v
	}
	return v
}

// writeBlock codes the levels of one block from scan position first and
// returns the context flag for its neighbours.
func (w *frameWriter) writeBlock(e *boolEncoder, plane int, ctx uint8, first int, c [16]int) uint8 {
	probs := &w.probs[plane]
	last := -1
	for n := first; n < 16; n++ {
		if c[n] != 0 {
			last = n
		}
	}
	p := &probs[bands[first]][ctx]
	if last < 0 {
		e.writeBool(p[0], false)
		return 0
	}
	e.writeBool(p[0], true)
	for n := first; n < 16; {
		v := c[n]
		n++
		if v == 0 {
			e.writeBool(p[1], false)
			p = &probs[bands[n]][0]
			continue
		}
		e.writeBool(p[1], true)
		mag := v
		if mag < 0 {
			mag = -mag
		}
		if mag == 1 {
			e.writeBool(p[2], false)
			p = &probs[bands[n]][1]
		} else {
			e.writeBool(p[2], true)
			writeLargeValue(e, p, mag)
			p = &probs[bands[n]][2]
		}
		e.writeFlag(v < 0)
		if n == 16 {
			return 1
		}
		if n-1 == last {
			e.writeBool(p[0], false)
			return 1
		}
		e.writeBool(p[0], true)
	}
	return 1
}

func writeLargeValue(e *boolEncoder, p *[numProbs]uint8, v int) {
	switch {
	case v <= 4:
		e.writeBool(p[3], false)
		e.writeBool(p[4], v != 2)
		if v != 2 {
			e.writeBool(p[5], v == 4)
		}
	case v <= 10:
		e.writeBool(p[3], true)
		e.writeBool(p[6], false)
		e.writeBool(p[7], v >= 7)
		if v < 7 {
			e.writeBool(159, v == 6)
		} else {
			extra := v - 7
			e.writeBool(165, extra&2 != 0)
			e.writeBool(145, extra&1 != 0)
		}
	default:
		e.writeBool(p[3], true)
		e.writeBool(p[6], true)
		cat := 3
		for cat > 0 && v < 3+8<<uint(cat) {
			cat--
		}
		e.writeBool(p[8], cat >= 2)
		e.writeBool(p[9+cat>>1], cat&1 == 1)
		extra := v - (3 + 8<<uint(cat))
		nbits := len(catProbs[cat]) - 1
		for i := 0; i < nbits; i++ {
			e.writeBool(catProbs[cat][i], (extra>>uint(nbits-1-i))&1 == 1)
		}
	}
}

// wrapRIFF packs a VP8 frame into a simple lossy WebP file.
func wrapRIFF(vp8 []byte) []byte {
	chunk := make([]byte, 8, 8+len(vp8)+1)
	copy(chunk, "VP8 ")
	binary.LittleEndian.PutUint32(chunk[4:], uint32(len(vp8)))
	chunk = append(chunk, vp8...)
	if len(vp8)%2 == 1 {
		chunk = append(chunk, 0)
	}
	out := make([]byte, 12, 12+len(chunk))
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(4+len(chunk)))
	copy(out[8:], "WEBP")
	return append(out, chunk...)
}
