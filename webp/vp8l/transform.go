package vp8l

import "fmt"

type transformType int

const (
	predictorTransform transformType = iota
	crossColorTransform
	subtractGreenTransform
	colorIndexingTransform
)

func (t transformType) String() string {
	switch t {
	case predictorTransform:
		return "predictor"
	case crossColorTransform:
		return "cross-color"
	case subtractGreenTransform:
		return "subtract-green"
	case colorIndexingTransform:
		return "color-indexing"
	}
	return fmt.Sprintf("transform(%d)", int(t))
}

const argbBlack = 0xff000000

// transform is one decoded image transform. xsize is the width of the
// image it applies to, which for color indexing is wider than the packed
// pixels it receives.
type transform struct {
	kind  transformType
	xsize int
	bits  int
	data  []uint32 // Tile image or palette
}

func subSampleSize(size, bits int) int {
	return (size + 1<<uint(bits) - 1) >> uint(bits)
}

// readTransform reads the header and data of one transform. For color
// indexing xsize is replaced by the packed width.
func (d *decoder) readTransform(xsize *int, ysize int) (transform, error) {
	t := transform{kind: transformType(d.br.ReadBits(2)), xsize: *xsize}

	switch t.kind {
	case predictorTransform, crossColorTransform:
		t.bits = int(d.br.ReadBits(3)) + 2
		data, err := d.decodeImageStream(subSampleSize(*xsize, t.bits), subSampleSize(ysize, t.bits), false)
		if err != nil {
			return t, err
		}
		t.data = data

	case colorIndexingTransform:
		n := int(d.br.ReadBits(8)) + 1
		switch {
		case n > 16:
			t.bits = 0
		case n > 4:
			t.bits = 1
		case n > 2:
			t.bits = 2
		default:
			t.bits = 3
		}
		palette, err := d.decodeImageStream(n, 1, false)
		if err != nil {
			return t, err
		}
		for i := 1; i < n; i++ {
			palette[i] = addPixels(palette[i], palette[i-1])
		}
		t.data = palette
		*xsize = subSampleSize(*xsize, t.bits)
	}
	return t, nil
}

// inverse undoes the transform. pix holds height rows of the width the
// transform produced during encoding.
func (t *transform) inverse(pix []uint32, height int) []uint32 {
	switch t.kind {
	case predictorTransform:
		t.inversePredictor(pix, height)
	case crossColorTransform:
		t.inverseCrossColor(pix, height)
	case subtractGreenTransform:
		addGreen(pix)
	case colorIndexingTransform:
		return t.expandColorIndex(pix, height)
	}
	return pix
}

// addPixels adds two ARGB values channel by channel modulo 256.
func addPixels(a, b uint32) uint32 {
	ag := (a & 0xff00ff00) + (b & 0xff00ff00)
	rb := (a & 0x00ff00ff) + (b & 0x00ff00ff)
	return ag&0xff00ff00 | rb&0x00ff00ff
}

func average2(a, b uint32) uint32 {
	return ((a^b)&0xfefefefe)>>1 + a&b
}

func channel(p uint32, shift uint) int {
	return int(p>>shift) & 0xff
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clip255(v int) uint32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint32(v)
}

// selectPredictor returns whichever of top or left is closer to the
// gradient estimate left+top-topLeft.
func selectPredictor(top, left, topLeft uint32) uint32 {
	diff := 0
	for shift := uint(0); shift < 32; shift += 8 {
		t, l, tl := channel(top, shift), channel(left, shift), channel(topLeft, shift)
		diff += abs(l-tl) - abs(t-tl)
	}
	if diff <= 0 {
		return top
	}
	return left
}

func clampAddSubtractFull(a, b, c uint32) uint32 {
	var out uint32
	for shift := uint(0); shift < 32; shift += 8 {
		out |= clip255(channel(a, shift)+channel(b, shift)-channel(c, shift)) << shift
	}
	return out
}

func clampAddSubtractHalf(a, b uint32) uint32 {
	var out uint32
	for shift := uint(0); shift < 32; shift += 8 {
		ca, cb := channel(a, shift), channel(b, shift)
		out |= clip255(ca+(ca-cb)/2) << shift
	}
	return out
}

// predict returns the prediction of the given mode for pixel p of an image
// w pixels wide. p is neither in the first row nor in the first column.
func predict(mode uint32, pix []uint32, p, w int) uint32 {
	left := pix[p-1]
	top := pix[p-w]
	switch mode {
	case 1:
		return left
	case 2:
		return top
	case 3:
		return pix[p-w+1]
	case 4:
		return pix[p-w-1]
	case 5:
		return average2(average2(left, pix[p-w+1]), top)
	case 6:
		return average2(left, pix[p-w-1])
	case 7:
		return average2(left, top)
	case 8:
		return average2(pix[p-w-1], top)
	case 9:
		return average2(top, pix[p-w+1])
	case 10:
		return average2(average2(left, pix[p-w-1]), average2(top, pix[p-w+1]))
	case 11:
		return selectPredictor(top, left, pix[p-w-1])
	case 12:
		return clampAddSubtractFull(left, top, pix[p-w-1])
	case 13:
		return clampAddSubtractHalf(average2(left, top), pix[p-w-1])
	}
	// Mode 0, and the unused modes 14 and 15.
	return argbBlack
}

func (t *transform) inversePredictor(pix []uint32, height int) {
	w := t.xsize

	// The first row predicts from the left, its first pixel from black.
	pix[0] = addPixels(pix[0], argbBlack)
	for x := 1; x < w; x++ {
		pix[x] = addPixels(pix[x], pix[x-1])
	}

	tilesPerRow := subSampleSize(w, t.bits)
	for y := 1; y < height; y++ {
		row := y * w
		// The first column predicts from the top.
		pix[row] = addPixels(pix[row], pix[row-w])
		tiles := t.data[(y>>uint(t.bits))*tilesPerRow:]
		for x := 1; x < w; x++ {
			mode := (tiles[x>>uint(t.bits)] >> 8) & 0xf
			p := row + x
			pix[p] = addPixels(pix[p], predict(mode, pix, p, w))
		}
	}
}

func colorTransformDelta(t, c int8) int {
	return (int(t) * int(c)) >> 5
}

func (t *transform) inverseCrossColor(pix []uint32, height int) {
	w := t.xsize
	tilesPerRow := subSampleSize(w, t.bits)
	for y := 0; y < height; y++ {
		tiles := t.data[(y>>uint(t.bits))*tilesPerRow:]
		row := pix[y*w : (y+1)*w]
		for x, argb := range row {
			m := tiles[x>>uint(t.bits)]
			greenToRed, greenToBlue, redToBlue := int8(m), int8(m>>8), int8(m>>16)

			green := int8(argb >> 8)
			red := (channel(argb, 16) + colorTransformDelta(greenToRed, green)) & 0xff
			blue := channel(argb, 0) + colorTransformDelta(greenToBlue, green)
			blue = (blue + colorTransformDelta(redToBlue, int8(red))) & 0xff
			row[x] = argb&0xff00ff00 | uint32(red)<<16 | uint32(blue)
		}
	}
}

func addGreen(pix []uint32) {
	for i, argb := range pix {
		g := (argb >> 8) & 0xff
		rb := (argb & 0x00ff00ff) + (g<<16 | g)
		pix[i] = argb&0xff00ff00 | rb&0x00ff00ff
	}
}

// expandColorIndex replaces packed palette indices with palette colors.
// Indices past the end of the palette map to transparent black.
func (t *transform) expandColorIndex(pix []uint32, height int) []uint32 {
	w := t.xsize
	out := make([]uint32, w*height)
	color := func(i uint32) uint32 {
		if int(i) < len(t.data) {
			return t.data[i]
		}
		return 0
	}

	if t.bits == 0 {
		for i := range out {
			out[i] = color((pix[i] >> 8) & 0xff)
		}
		return out
	}

	packedW := subSampleSize(w, t.bits)
	bitsPerPixel := uint(8 >> uint(t.bits))
	mask := uint32(1)<<bitsPerPixel - 1
	xmask := 1<<uint(t.bits) - 1
	for y := 0; y < height; y++ {
		packed := pix[y*packedW : (y+1)*packedW]
		dst := out[y*w : (y+1)*w]
		for x := range dst {
			idx := (packed[x>>uint(t.bits)] >> 8) >> (uint(x&xmask) * bitsPerPixel) & mask
			dst[x] = color(idx)
		}
	}
	return out
}
