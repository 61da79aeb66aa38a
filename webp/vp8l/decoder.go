package vp8l

import (
	"errors"
	"fmt"

	"github.com/cocosip/go-image-codec/bitio"
	"github.com/cocosip/go-image-codec/codec"
	"github.com/cocosip/go-image-codec/huffman"
	"github.com/cocosip/go-image-codec/raster"
)

const colorCacheMultiplier = 0x1e35a7bd

// colorCache is a hash-indexed table of recently written ARGB values.
type colorCache struct {
	colors []uint32
	shift  uint
}

func newColorCache(bits int) *colorCache {
	return &colorCache{colors: make([]uint32, 1<<uint(bits)), shift: uint(32 - bits)}
}

func (c *colorCache) key(argb uint32) int {
	return int((argb * colorCacheMultiplier) >> c.shift)
}

func (c *colorCache) insert(argb uint32) {
	c.colors[c.key(argb)] = argb
}

// distanceMap maps the first 120 distance codes to (dy, 8-dx) offsets
// packed as dy<<4 | (8-dx).
var distanceMap = [120]uint8{
	0x18, 0x07, 0x17, 0x19, 0x28, 0x06, 0x27, 0x29, 0x16, 0x1a,
	0x26, 0x2a, 0x38, 0x05, 0x37, 0x39, 0x15, 0x1b, 0x36, 0x3a,
	0x25, 0x2b, 0x48, 0x04, 0x47, 0x49, 0x14, 0x1c, 0x35, 0x3b,
	0x46, 0x4a, 0x24, 0x2c, 0x58, 0x45, 0x4b, 0x34, 0x3c, 0x03,
	0x57, 0x59, 0x13, 0x1d, 0x56, 0x5a, 0x23, 0x2d, 0x44, 0x4c,
	0x55, 0x5b, 0x33, 0x3d, 0x68, 0x02, 0x67, 0x69, 0x12, 0x1e,
	0x66, 0x6a, 0x22, 0x2e, 0x54, 0x5c, 0x43, 0x4d, 0x65, 0x6b,
	0x32, 0x3e, 0x78, 0x01, 0x77, 0x79, 0x53, 0x5d, 0x11, 0x1f,
	0x64, 0x6c, 0x42, 0x4e, 0x76, 0x7a, 0x21, 0x2f, 0x75, 0x7b,
	0x31, 0x3f, 0x63, 0x6d, 0x52, 0x5e, 0x00, 0x74, 0x7c, 0x41,
	0x4f, 0x10, 0x20, 0x62, 0x6e, 0x30, 0x73, 0x7d, 0x51, 0x5f,
	0x40, 0x72, 0x7e, 0x61, 0x6f, 0x50, 0x71, 0x7f, 0x60, 0x70,
}

// planeCodeToDistance converts a distance code into a linear pixel
// distance for an image xsize pixels wide.
func planeCodeToDistance(xsize, code int) int {
	if code > len(distanceMap) {
		return code - len(distanceMap)
	}
	c := distanceMap[code-1]
	dy := int(c >> 4)
	dx := 8 - int(c&0xf)
	if dist := dy*xsize + dx; dist >= 1 {
		return dist
	}
	return 1
}

type decoder struct {
	br *bitio.Reader
}

// Decode decodes a VP8L bitstream, starting at the signature byte, into an
// RGBA8 image.
func Decode(data []byte, opts *codec.Options) (*raster.Image, error) {
	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if limit := opts.Limit(); limit > 0 && hdr.Width > limit/hdr.Height {
		return nil, fmt.Errorf("%w: %dx%d", codec.ErrImageTooLarge, hdr.Width, hdr.Height)
	}
	codec.Logger().Debug("vp8l: header",
		"width", hdr.Width, "height", hdr.Height, "alpha", hdr.HasAlpha)

	d := &decoder{br: bitio.NewReader(data[HeaderSize:], bitio.LSB)}
	argb, err := d.decodeImageStream(hdr.Width, hdr.Height, true)
	if err != nil {
		return nil, err
	}

	img, err := raster.New(hdr.Width, hdr.Height, opts.Limit())
	if err != nil {
		if errors.Is(err, raster.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %dx%d", codec.ErrImageTooLarge, hdr.Width, hdr.Height)
		}
		return nil, err
	}
	for i, p := range argb {
		px := img.Pix[i*4 : i*4+4 : i*4+4]
		px[0] = byte(p >> 16)
		px[1] = byte(p >> 8)
		px[2] = byte(p)
		px[3] = byte(p >> 24)
	}
	return img, nil
}

// DecodeAlpha decodes a headerless VP8L stream of the given size and
// returns the green channel of every pixel, as used by compressed ALPH
// chunks.
func DecodeAlpha(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	d := &decoder{br: bitio.NewReader(data, bitio.LSB)}
	argb, err := d.decodeImageStream(width, height, true)
	if err != nil {
		return nil, err
	}
	alpha := make([]byte, len(argb))
	for i, p := range argb {
		alpha[i] = byte(p >> 8)
	}
	return alpha, nil
}

// decodeImageStream decodes one entropy-coded image. Only the main image
// (level 0) may carry transforms and an entropy image; transform data,
// palettes and entropy images themselves are plain images.
func (d *decoder) decodeImageStream(xsize, ysize int, level0 bool) ([]uint32, error) {
	width := xsize

	var transforms []transform
	if level0 {
		var seen [4]bool
		for d.br.ReadBit() {
			t, err := d.readTransform(&width, ysize)
			if err != nil {
				return nil, err
			}
			if seen[t.kind] {
				return nil, fmt.Errorf("%w: %v used twice", ErrInvalidTransform, t.kind)
			}
			seen[t.kind] = true
			codec.Logger().Debug("vp8l: transform", "type", t.kind.String(), "bits", t.bits)
			transforms = append(transforms, t)
			if d.br.Overrun() {
				return nil, ErrTruncated
			}
		}
	}

	var cache *colorCache
	if d.br.ReadBit() {
		bits := int(d.br.ReadBits(4))
		if bits < 1 || bits > maxCacheBits {
			return nil, fmt.Errorf("%w: %d bits", ErrInvalidColorCache, bits)
		}
		cache = newColorCache(bits)
	}
	cacheBits := 0
	if cache != nil {
		cacheBits = 32 - int(cache.shift)
	}

	groups, meta, metaBits, err := d.readHuffmanCodes(width, ysize, cacheBits, level0)
	if err != nil {
		return nil, err
	}

	pix := make([]uint32, width*ysize)
	if err := d.decodePixels(pix, width, ysize, groups, meta, metaBits, cache); err != nil {
		return nil, err
	}

	for i := len(transforms) - 1; i >= 0; i-- {
		pix = transforms[i].inverse(pix, ysize)
	}
	return pix, nil
}

// prefixValue reads the extra bits of a length or distance prefix symbol
// and returns the value it codes.
func (d *decoder) prefixValue(sym int) int {
	if sym < 4 {
		return sym + 1
	}
	extra := (sym - 2) >> 1
	offset := (2 + sym&1) << uint(extra)
	return offset + int(d.br.ReadBits(extra)) + 1
}

func (d *decoder) decodePixels(pix []uint32, width, height int, groups []htreeGroup, meta []uint32, metaBits int, cache *colorCache) error {
	total := width * height
	metaW := subSampleSize(width, metaBits)
	g := &groups[0]

	for pos := 0; pos < total; {
		if d.br.Overrun() {
			return ErrTruncated
		}
		if meta != nil {
			x, y := pos%width, pos/width
			g = &groups[meta[(y>>uint(metaBits))*metaW+x>>uint(metaBits)]]
		}

		sym := int(huffman.DecodeSymbol(d.br, g[greenTree]))
		switch {
		case sym < numLiteralCodes:
			red := huffman.DecodeSymbol(d.br, g[redTree])
			blue := huffman.DecodeSymbol(d.br, g[blueTree])
			alpha := huffman.DecodeSymbol(d.br, g[alphaTree])
			if red|blue|alpha > 0xff {
				return ErrInvalidSymbol
			}
			argb := uint32(alpha)<<24 | uint32(red)<<16 | uint32(sym)<<8 | uint32(blue)
			pix[pos] = argb
			if cache != nil {
				cache.insert(argb)
			}
			pos++

		case sym < numLiteralCodes+numLengthCodes:
			length := d.prefixValue(sym - numLiteralCodes)
			dsym := int(huffman.DecodeSymbol(d.br, g[distanceTree]))
			if dsym >= numDistanceCodes {
				return ErrInvalidSymbol
			}
			dist := planeCodeToDistance(width, d.prefixValue(dsym))
			if dist > pos || length > total-pos {
				return fmt.Errorf("%w: distance %d length %d at pixel %d of %d",
					ErrInvalidBackReference, dist, length, pos, total)
			}
			for end := pos + length; pos < end; pos++ {
				argb := pix[pos-dist]
				pix[pos] = argb
				if cache != nil {
					cache.insert(argb)
				}
			}

		default:
			key := sym - numLiteralCodes - numLengthCodes
			if cache == nil || key >= len(cache.colors) {
				return fmt.Errorf("%w: color cache index %d", ErrInvalidSymbol, key)
			}
			argb := cache.colors[key]
			pix[pos] = argb
			cache.insert(argb)
			pos++
		}
	}
	if d.br.Overrun() {
		return ErrTruncated
	}
	return nil
}
