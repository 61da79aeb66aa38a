package vp8l

import (
	"encoding/binary"
	"math/bits"

	"github.com/cocosip/go-image-codec/bitio"
	"github.com/cocosip/go-image-codec/huffman"
)

// streamWriter builds VP8L bitstreams for tests. It favours coverage of
// the bitstream features over compression.
type streamWriter struct {
	w *bitio.Writer
}

func newStreamWriter() *streamWriter {
	return &streamWriter{w: bitio.NewWriter(bitio.LSB)}
}

func (s *streamWriter) header(width, height int, alpha bool) {
	s.w.WriteBits(Signature, 8)
	s.w.WriteBits(uint32(width-1), 14)
	s.w.WriteBits(uint32(height-1), 14)
	s.w.WriteBit(alpha)
	s.w.WriteBits(version, 3)
}

func (s *streamWriter) bytes() []byte {
	return s.w.Bytes(0)
}

// encodeOptions selects the features used for one entropy-coded image.
type encodeOptions struct {
	cacheBits   int
	backRefs    bool
	metaBits    int  // Level-0 only: two groups alternating per tile
	forceNormal bool // Never use the simple code form
	maxSymbol   bool // Write the optional max_symbol field
}

type tokenKind int

const (
	literalToken tokenKind = iota
	cacheToken
	copyToken
)

type token struct {
	kind     tokenKind
	pos      int
	argb     uint32
	key      int
	length   int
	distCode int
}

// tokenize splits pixels into literals, cache hits and copies, tracking the
// color cache exactly as the decoder does.
func tokenize(pix []uint32, width int, o encodeOptions) []token {
	var cache *colorCache
	if o.cacheBits > 0 {
		cache = newColorCache(o.cacheBits)
	}
	insert := func(argb uint32) {
		if cache != nil {
			cache.insert(argb)
		}
	}

	// Candidate distances with their distance codes: one row up, one pixel
	// left and a linear distance of three.
	type candidate struct{ dist, code int }
	candidates := []candidate{{width, 1}, {1, 2}, {3, 123}}

	var tokens []token
	for pos := 0; pos < len(pix); {
		if o.backRefs {
			best := candidate{}
			bestLen := 0
			for _, c := range candidates {
				if c.dist > pos {
					continue
				}
				n := 0
				for pos+n < len(pix) && n < 4096 && pix[pos+n] == pix[pos+n-c.dist] {
					n++
				}
				if n > bestLen {
					best, bestLen = c, n
				}
			}
			if bestLen >= 3 {
				tokens = append(tokens, token{kind: copyToken, pos: pos, length: bestLen, distCode: best.code})
				for i := 0; i < bestLen; i++ {
					insert(pix[pos+i])
				}
				pos += bestLen
				continue
			}
		}

		argb := pix[pos]
		if cache != nil {
			if k := cache.key(argb); cache.colors[k] == argb {
				tokens = append(tokens, token{kind: cacheToken, pos: pos, key: k})
				insert(argb)
				pos++
				continue
			}
		}
		tokens = append(tokens, token{kind: literalToken, pos: pos, argb: argb})
		insert(argb)
		pos++
	}
	return tokens
}

// prefixEncode is the inverse of decoder.prefixValue.
func prefixEncode(v int) (sym int, extra uint32, nbits int) {
	if v <= 4 {
		return v - 1, 0, 0
	}
	d := v - 1
	h := bits.Len(uint(d)) - 1
	second := (d >> uint(h-1)) & 1
	nbits = h - 1
	return 2*h + second, uint32(d & (1<<uint(nbits) - 1)), nbits
}

// completeLengths assigns a complete canonical code to the used symbols.
// An empty set gets symbol 0.
func completeLengths(used []bool) []uint8 {
	lengths := make([]uint8, len(used))
	var syms []int
	for s, u := range used {
		if u {
			syms = append(syms, s)
		}
	}
	if len(syms) == 0 {
		syms = []int{0}
	}
	if len(syms) == 1 {
		lengths[syms[0]] = 1
		return lengths
	}
	k := bits.Len(uint(len(syms) - 1))
	short := 1<<uint(k) - len(syms)
	for i, s := range syms {
		if i < short {
			lengths[s] = uint8(k - 1)
		} else {
			lengths[s] = uint8(k)
		}
	}
	return lengths
}

func treeFor(lengths []uint8) *huffman.Tree {
	t, err := buildTree(lengths, maxCodeLength)
	if err != nil {
		panic(err)
	}
	return t
}

type clToken struct {
	sym   int
	extra uint32
	nbits int
}

// rleLengths run-length codes a length array with symbols 16, 17 and 18.
func rleLengths(lengths []uint8) []clToken {
	var out []clToken
	prev := uint8(defaultCodeLength)
	for i := 0; i < len(lengths); {
		v := lengths[i]
		run := 1
		for i+run < len(lengths) && lengths[i+run] == v {
			run++
		}
		switch {
		case v == 0 && run >= 11:
			n := min(run, 138)
			out = append(out, clToken{18, uint32(n - 11), 7})
			i += n
		case v == 0 && run >= 3:
			n := min(run, 10)
			out = append(out, clToken{17, uint32(n - 3), 3})
			i += n
		case v != 0 && v == prev && run >= 3:
			n := min(run, 6)
			out = append(out, clToken{16, uint32(n - 3), 2})
			i += n
		default:
			out = append(out, clToken{sym: int(v)})
			if v != 0 {
				prev = v
			}
			i++
		}
	}
	return out
}

// writeCode writes the prefix code for lengths and returns the tree used
// to emit symbols with it.
func (s *streamWriter) writeCode(lengths []uint8, o encodeOptions) *huffman.Tree {
	var syms []int
	for sym, l := range lengths {
		if l != 0 {
			syms = append(syms, sym)
		}
	}

	simple := !o.forceNormal && len(syms) <= 2 && syms[len(syms)-1] < 256
	if simple {
		s.w.WriteBit(true)
		s.w.WriteBits(uint32(len(syms)-1), 1)
		if syms[0] < 2 {
			s.w.WriteBits(0, 1)
			s.w.WriteBits(uint32(syms[0]), 1)
		} else {
			s.w.WriteBits(1, 1)
			s.w.WriteBits(uint32(syms[0]), 8)
		}
		if len(syms) == 2 {
			s.w.WriteBits(uint32(syms[1]), 8)
		}
		return treeFor(lengths)
	}

	// Thirteen 4-bit and six 5-bit code-length codes form a complete code
	// over all 19 symbols.
	var cl [numCodeLengthCodes]uint8
	for i := range cl {
		if i < 13 {
			cl[i] = 4
		} else {
			cl[i] = 5
		}
	}
	s.w.WriteBit(false)
	s.w.WriteBits(numCodeLengthCodes-4, 4)
	for _, sym := range codeLengthCodeOrder {
		s.w.WriteBits(uint32(cl[sym]), 3)
	}
	clTree := treeFor(cl[:])

	tokens := rleLengths(lengths)
	if o.maxSymbol {
		// max_symbol counts tokens, so trailing zero runs can be dropped.
		n := len(tokens)
		for n > 2 && (tokens[n-1].sym == 0 || tokens[n-1].sym == 17 || tokens[n-1].sym == 18) {
			n--
		}
		tokens = tokens[:n]
	}
	if o.maxSymbol && len(tokens) >= 2 {
		s.w.WriteBit(true)
		s.w.WriteBits(7, 3)
		s.w.WriteBits(uint32(len(tokens)-2), 16)
	} else {
		s.w.WriteBit(false)
	}
	for _, t := range tokens {
		huffman.Encode(s.w, clTree, t.sym)
		s.w.WriteBits(t.extra, t.nbits)
	}
	return treeFor(lengths)
}

// writeImage entropy-codes pixels, starting at the color cache bit.
// Transforms must already have been written for level-0 images.
func (s *streamWriter) writeImage(pix []uint32, width, height int, level0 bool, o encodeOptions) {
	if o.cacheBits > 0 {
		s.w.WriteBit(true)
		s.w.WriteBits(uint32(o.cacheBits), 4)
	} else {
		s.w.WriteBit(false)
	}

	numGroups := 1
	groupAt := func(pos int) int { return 0 }
	if level0 {
		if o.metaBits > 0 {
			numGroups = 2
			tw := subSampleSize(width, o.metaBits)
			th := subSampleSize(height, o.metaBits)
			meta := make([]uint32, tw*th)
			for ty := 0; ty < th; ty++ {
				for tx := 0; tx < tw; tx++ {
					meta[ty*tw+tx] = uint32((tx+ty)%2) << 8
				}
			}
			groupAt = func(pos int) int {
				x, y := pos%width, pos/width
				return int(meta[(y>>uint(o.metaBits))*tw+x>>uint(o.metaBits)]>>8) & 0xffff
			}
			s.w.WriteBit(true)
			s.w.WriteBits(uint32(o.metaBits-2), 3)
			s.writeImage(meta, tw, th, false, encodeOptions{})
		} else {
			s.w.WriteBit(false)
		}
	}

	tokens := tokenize(pix, width, o)
	greenSize := numLiteralCodes + numLengthCodes
	if o.cacheBits > 0 {
		greenSize += 1 << uint(o.cacheBits)
	}

	used := make([][treesPerGroup][]bool, numGroups)
	for g := range used {
		used[g] = [treesPerGroup][]bool{
			make([]bool, greenSize),
			make([]bool, numLiteralCodes),
			make([]bool, numLiteralCodes),
			make([]bool, numLiteralCodes),
			make([]bool, numDistanceCodes),
		}
	}
	for _, t := range tokens {
		u := &used[groupAt(t.pos)]
		switch t.kind {
		case literalToken:
			u[greenTree][(t.argb>>8)&0xff] = true
			u[redTree][(t.argb>>16)&0xff] = true
			u[blueTree][t.argb&0xff] = true
			u[alphaTree][t.argb>>24] = true
		case cacheToken:
			u[greenTree][numLiteralCodes+numLengthCodes+t.key] = true
		case copyToken:
			lsym, _, _ := prefixEncode(t.length)
			dsym, _, _ := prefixEncode(t.distCode)
			u[greenTree][numLiteralCodes+lsym] = true
			u[distanceTree][dsym] = true
		}
	}

	trees := make([]htreeGroup, numGroups)
	for g := range trees {
		for i := range trees[g] {
			trees[g][i] = s.writeCode(completeLengths(used[g][i]), o)
		}
	}

	for _, t := range tokens {
		g := &trees[groupAt(t.pos)]
		switch t.kind {
		case literalToken:
			huffman.Encode(s.w, g[greenTree], int((t.argb>>8)&0xff))
			huffman.Encode(s.w, g[redTree], int((t.argb>>16)&0xff))
			huffman.Encode(s.w, g[blueTree], int(t.argb&0xff))
			huffman.Encode(s.w, g[alphaTree], int(t.argb>>24))
		case cacheToken:
			huffman.Encode(s.w, g[greenTree], numLiteralCodes+numLengthCodes+t.key)
		case copyToken:
			lsym, lextra, lbits := prefixEncode(t.length)
			huffman.Encode(s.w, g[greenTree], numLiteralCodes+lsym)
			s.w.WriteBits(lextra, lbits)
			dsym, dextra, dbits := prefixEncode(t.distCode)
			huffman.Encode(s.w, g[distanceTree], dsym)
			s.w.WriteBits(dextra, dbits)
		}
	}
}

// Forward transforms. Each returns the residual image the matching inverse
// transform turns back into pix.

func subPixels(a, b uint32) uint32 {
	ag := 0x00ff00ff + (a & 0xff00ff00) - (b & 0xff00ff00)
	rb := 0xff00ff00 + (a & 0x00ff00ff) - (b & 0x00ff00ff)
	return ag&0xff00ff00 | rb&0x00ff00ff
}

func (s *streamWriter) subtractGreen(pix []uint32) []uint32 {
	s.w.WriteBit(true)
	s.w.WriteBits(uint32(subtractGreenTransform), 2)
	out := make([]uint32, len(pix))
	for i, argb := range pix {
		g := (argb >> 8) & 0xff
		out[i] = subPixels(argb, g<<16|g)
	}
	return out
}

// predictor writes a predictor transform whose tile modes are chosen by
// mode(tx, ty) and returns the residuals.
func (s *streamWriter) predictor(pix []uint32, width, height, sizeBits int, mode func(tx, ty int) uint32) []uint32 {
	tw, th := subSampleSize(width, sizeBits), subSampleSize(height, sizeBits)
	tiles := make([]uint32, tw*th)
	for ty := 0; ty < th; ty++ {
		for tx := 0; tx < tw; tx++ {
			tiles[ty*tw+tx] = argbBlack | mode(tx, ty)<<8
		}
	}
	s.w.WriteBit(true)
	s.w.WriteBits(uint32(predictorTransform), 2)
	s.w.WriteBits(uint32(sizeBits-2), 3)
	s.writeImage(tiles, tw, th, false, encodeOptions{})

	out := make([]uint32, len(pix))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := y*width + x
			var pred uint32
			switch {
			case x == 0 && y == 0:
				pred = argbBlack
			case y == 0:
				pred = pix[p-1]
			case x == 0:
				pred = pix[p-width]
			default:
				m := (tiles[(y>>uint(sizeBits))*tw+x>>uint(sizeBits)] >> 8) & 0xf
				pred = predict(m, pix, p, width)
			}
			out[p] = subPixels(pix[p], pred)
		}
	}
	return out
}

// crossColor writes a cross-color transform with per-tile multipliers
// packed as red_to_blue<<16 | green_to_blue<<8 | green_to_red.
func (s *streamWriter) crossColor(pix []uint32, width, height, sizeBits int, mult func(tx, ty int) uint32) []uint32 {
	tw, th := subSampleSize(width, sizeBits), subSampleSize(height, sizeBits)
	tiles := make([]uint32, tw*th)
	for ty := 0; ty < th; ty++ {
		for tx := 0; tx < tw; tx++ {
			tiles[ty*tw+tx] = argbBlack | mult(tx, ty)&0xffffff
		}
	}
	s.w.WriteBit(true)
	s.w.WriteBits(uint32(crossColorTransform), 2)
	s.w.WriteBits(uint32(sizeBits-2), 3)
	s.writeImage(tiles, tw, th, false, encodeOptions{})

	out := make([]uint32, len(pix))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := y*width + x
			m := tiles[(y>>uint(sizeBits))*tw+x>>uint(sizeBits)]
			argb := pix[p]
			green := int8(argb >> 8)
			red := channel(argb, 16)
			newRed := (red - colorTransformDelta(int8(m), green)) & 0xff
			newBlue := (channel(argb, 0) - colorTransformDelta(int8(m>>8), green) -
				colorTransformDelta(int8(m>>16), int8(red))) & 0xff
			out[p] = argb&0xff00ff00 | uint32(newRed)<<16 | uint32(newBlue)
		}
	}
	return out
}

// colorIndexing writes a color-indexing transform for palette and returns
// the packed index image and its width.
func (s *streamWriter) colorIndexing(pix []uint32, width, height int, palette []uint32) ([]uint32, int) {
	s.w.WriteBit(true)
	s.w.WriteBits(uint32(colorIndexingTransform), 2)
	s.w.WriteBits(uint32(len(palette)-1), 8)
	delta := make([]uint32, len(palette))
	delta[0] = palette[0]
	for i := 1; i < len(palette); i++ {
		delta[i] = subPixels(palette[i], palette[i-1])
	}
	s.writeImage(delta, len(palette), 1, false, encodeOptions{})

	index := make(map[uint32]uint32, len(palette))
	for i, c := range palette {
		index[c] = uint32(i)
	}

	xbits := 0
	switch n := len(palette); {
	case n > 16:
		xbits = 0
	case n > 4:
		xbits = 1
	case n > 2:
		xbits = 2
	default:
		xbits = 3
	}
	packedW := subSampleSize(width, xbits)
	bitsPerPixel := uint(8 >> uint(xbits))
	out := make([]uint32, packedW*height)
	for i := range out {
		out[i] = argbBlack
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := index[pix[y*width+x]]
			out[y*packedW+x>>uint(xbits)] |= idx << (8 + uint(x&(1<<uint(xbits)-1))*bitsPerPixel)
		}
	}
	return out, packedW
}

func (s *streamWriter) endTransforms() {
	s.w.WriteBit(false)
}

// wrapRIFF packs a VP8L bitstream into a simple lossless WebP file.
func wrapRIFF(vp8l []byte) []byte {
	chunk := make([]byte, 8, 8+len(vp8l)+1)
	copy(chunk, "VP8L")
	binary.LittleEndian.PutUint32(chunk[4:], uint32(len(vp8l)))
	chunk = append(chunk, vp8l...)
	if len(vp8l)%2 == 1 {
		chunk = append(chunk, 0)
	}
	out := make([]byte, 12, 12+len(chunk))
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(4+len(chunk)))
	copy(out[8:], "WEBP")
	return append(out, chunk...)
}
