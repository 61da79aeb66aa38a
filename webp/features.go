package webp

import (
	"fmt"
	"image/color"

	"github.com/cocosip/go-image-codec/bitio"
	"github.com/cocosip/go-image-codec/codec"
	"github.com/cocosip/go-image-codec/webp/vp8"
	"github.com/cocosip/go-image-codec/webp/vp8l"
)

// Format is the layout of a WebP file.
type Format int

const (
	// FormatLossy is a simple file holding a single VP8 chunk.
	FormatLossy Format = iota
	// FormatLossless is a simple file holding a single VP8L chunk.
	FormatLossless
	// FormatExtended starts with a VP8X chunk and may carry alpha,
	// metadata and animation.
	FormatExtended
)

func (f Format) String() string {
	switch f {
	case FormatLossy:
		return "lossy"
	case FormatLossless:
		return "lossless"
	case FormatExtended:
		return "extended"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// VP8X feature flags.
const (
	flagAnimation = 0x02
	flagXMP       = 0x04
	flagEXIF      = 0x08
	flagAlpha     = 0x10
	flagICC       = 0x20

	vp8xSize = 10
	animSize = 6
)

// AnimationInfo describes an animated file.
type AnimationInfo struct {
	FrameCount   int
	LoopCount    int // 0 loops forever
	Background   color.NRGBA
	CanvasWidth  int
	CanvasHeight int
}

// Features describes a WebP file without decoding its pixels.
type Features struct {
	Format       Format
	Width        int
	Height       int
	HasAlpha     bool
	HasAnimation bool

	ICCProfile []byte
	EXIF       []byte
	XMP        []byte

	// Animation is set for animated files only.
	Animation *AnimationInfo
}

// container is a parsed WebP file: its features plus the chunks needed to
// decode the still image.
type container struct {
	features  Features
	bitstream *chunk // VP8 or VP8L
	alpha     *chunk
}

// GetFeatures reads the container and bitstream headers of a WebP file.
func GetFeatures(data []byte) (*Features, error) {
	c, err := parseContainer(data)
	if err != nil {
		return nil, err
	}
	return &c.features, nil
}

func parseContainer(data []byte) (*container, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	c := &container{}
	f := &c.features
	first := &chunks[0]
	switch first.tag {
	case fccVP8:
		f.Format = FormatLossy
		c.bitstream = first
	case fccVP8L:
		f.Format = FormatLossless
		c.bitstream = first
	case fccVP8X:
		f.Format = FormatExtended
		if err := c.parseExtended(chunks); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: file starts with %s", ErrInvalidLayout, first.tag[:])
	}

	if c.bitstream != nil && !f.HasAnimation {
		w, h, alpha, err := bitstreamInfo(c.bitstream)
		if err != nil {
			return nil, err
		}
		if f.Format == FormatExtended {
			if w != f.Width || h != f.Height {
				return nil, fmt.Errorf("%w: canvas %dx%d, %s bitstream %dx%d",
					ErrDimensionMismatch, f.Width, f.Height, c.bitstream.tag[:], w, h)
			}
		} else {
			f.Width, f.Height = w, h
		}
		f.HasAlpha = f.HasAlpha || alpha
	}

	codec.Logger().Debug("webp: container",
		"format", f.Format, "width", f.Width, "height", f.Height,
		"chunks", len(chunks), "alpha", f.HasAlpha, "animation", f.HasAnimation)
	return c, nil
}

// parseExtended reads the VP8X header and the chunks that follow it.
func (c *container) parseExtended(chunks []chunk) error {
	f := &c.features
	x := chunks[0].data
	if len(x) < vp8xSize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidVP8X, len(x))
	}
	flags := x[0]
	w, _ := bitio.Uint24LE(x, 4)
	h, _ := bitio.Uint24LE(x, 7)
	f.Width, f.Height = int(w)+1, int(h)+1
	f.HasAlpha = flags&flagAlpha != 0
	f.HasAnimation = flags&flagAnimation != 0
	codec.Logger().Debug("webp: VP8X",
		"flags", fmt.Sprintf("%#02x", flags), "canvas_width", f.Width, "canvas_height", f.Height)

	var anim *AnimationInfo
	animation := func() *AnimationInfo {
		if anim == nil {
			anim = &AnimationInfo{CanvasWidth: f.Width, CanvasHeight: f.Height}
		}
		return anim
	}
	for i := 1; i < len(chunks); i++ {
		ch := &chunks[i]
		switch ch.tag {
		case fccVP8X:
			return fmt.Errorf("%w: second VP8X at offset %d", ErrInvalidLayout, ch.offset)
		case fccICCP:
			f.ICCProfile = ch.data
		case fccEXIF:
			f.EXIF = ch.data
		case fccXMP:
			f.XMP = ch.data
		case fccANIM:
			if len(ch.data) < animSize {
				return fmt.Errorf("%w: ANIM of %d bytes", ErrTruncated, len(ch.data))
			}
			a := animation()
			b := ch.data
			a.Background = color.NRGBA{R: b[2], G: b[1], B: b[0], A: b[3]}
			loops, _ := bitio.Uint16LE(b, 4)
			a.LoopCount = int(loops)
		case fccANMF:
			animation().FrameCount++
		case fccALPH:
			if c.alpha == nil && c.bitstream == nil {
				c.alpha = ch
			}
		case fccVP8, fccVP8L:
			if c.bitstream != nil {
				return fmt.Errorf("%w: second bitstream at offset %d", ErrInvalidLayout, ch.offset)
			}
			c.bitstream = ch
		}
	}

	if anim != nil {
		f.HasAnimation = true
	}
	if f.HasAnimation {
		f.Animation = animation()
	}
	if c.bitstream != nil && c.bitstream.tag == fccVP8L {
		// Lossless bitstreams carry their own alpha.
		c.alpha = nil
	}
	if c.alpha != nil {
		f.HasAlpha = true
	}
	return nil
}

// bitstreamInfo reads the size and alpha hint from a VP8 or VP8L header.
func bitstreamInfo(ch *chunk) (width, height int, alpha bool, err error) {
	if ch.tag == fccVP8L {
		h, err := vp8l.DecodeHeader(ch.data)
		if err != nil {
			return 0, 0, false, err
		}
		return h.Width, h.Height, h.HasAlpha, nil
	}
	h, err := vp8.DecodeHeader(ch.data)
	if err != nil {
		return 0, 0, false, err
	}
	return h.Width, h.Height, false, nil
}
