package vp8

import (
	"errors"
	"fmt"

	"github.com/cocosip/go-image-codec/codec"
	"github.com/cocosip/go-image-codec/raster"
)

// Frame holds the decoded 4:2:0 planes of a key frame. The planes cover
// whole macroblocks; Width and Height give the visible area.
type Frame struct {
	Width   int
	Height  int
	Y       []uint8
	U       []uint8
	V       []uint8
	YStride int
	CStride int
}

// YUV returns the samples of the visible pixel (x, y).
func (f *Frame) YUV(x, y int) (yy, u, v uint8) {
	c := (y>>1)*f.CStride + x>>1
	return f.Y[y*f.YStride+x], f.U[c], f.V[c]
}

// RGBA converts the frame into an opaque RGBA8 image. Chroma is upsampled
// by pixel replication.
func (f *Frame) RGBA(maxPixels int) (*raster.Image, error) {
	img, err := raster.New(f.Width, f.Height, maxPixels)
	if err != nil {
		if errors.Is(err, raster.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %dx%d", codec.ErrImageTooLarge, f.Width, f.Height)
		}
		return nil, err
	}
	for y := 0; y < f.Height; y++ {
		row := img.Pix[y*img.Stride() : (y+1)*img.Stride()]
		for x := 0; x < f.Width; x++ {
			r, g, b := raster.YUVToRGB(f.YUV(x, y))
			px := row[4*x : 4*x+4 : 4*x+4]
			px[0], px[1], px[2], px[3] = r, g, b, 0xff
		}
	}
	return img, nil
}

type decoder struct {
	hdr      Header
	mbw, mbh int

	fp    *boolDecoder
	parts []*boolDecoder

	colorSpace  int
	clampType   int
	segment     segmentHeader
	filter      filterHeader
	quant       [numSegments]quantMatrix
	probs       tokenProbs
	useSkipProb bool
	skipProb    uint8

	frame *Frame

	intraTop  []uint8 // 4x4 modes along the bottom of the row above
	intraLeft [4]uint8
	nzTop     []nzContext
	nzLeft    nzContext
	nzAC      uint32
	nzDC      uint32
	coeffs    [25 * 16]int16
	ws        [workspace]uint8

	strengths [numSegments][2]filterParams
	mbFilter  []filterParams
}

// Decode decodes a VP8 key frame into an opaque RGBA8 image.
func Decode(data []byte, opts *codec.Options) (*raster.Image, error) {
	f, err := DecodeFrame(data, opts)
	if err != nil {
		return nil, err
	}
	return f.RGBA(opts.Limit())
}

// DecodeFrame decodes a VP8 key frame into YUV planes.
func DecodeFrame(data []byte, opts *codec.Options) (*Frame, error) {
	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if limit := opts.Limit(); limit > 0 && hdr.Width > limit/hdr.Height {
		return nil, fmt.Errorf("%w: %dx%d", codec.ErrImageTooLarge, hdr.Width, hdr.Height)
	}

	body := data[HeaderSize:]
	if hdr.FirstPartitionSize > len(body) {
		return nil, fmt.Errorf("%w: first partition of %d bytes, %d available",
			ErrTruncated, hdr.FirstPartitionSize, len(body))
	}

	d := &decoder{
		hdr: hdr,
		mbw: (hdr.Width + 15) >> 4,
		mbh: (hdr.Height + 15) >> 4,
		fp:  newBoolDecoder(body[:hdr.FirstPartitionSize]),
	}
	if err := d.parseFrameHeader(body[hdr.FirstPartitionSize:]); err != nil {
		return nil, err
	}
	codec.Logger().Debug("vp8: frame header",
		"width", hdr.Width, "height", hdr.Height, "version", hdr.Version,
		"color_space", d.colorSpace, "clamp", d.clampType,
		"partitions", len(d.parts), "segments", d.segment.enabled,
		"filter_simple", d.filter.simple, "filter_level", d.filter.level)

	if err := d.decodeMacroblocks(); err != nil {
		return nil, err
	}
	return d.frame, nil
}

func (d *decoder) decodeMacroblocks() error {
	ystride, cstride := 16*d.mbw, 8*d.mbw
	d.frame = &Frame{
		Width:   d.hdr.Width,
		Height:  d.hdr.Height,
		Y:       make([]uint8, ystride*16*d.mbh),
		U:       make([]uint8, cstride*8*d.mbh),
		V:       make([]uint8, cstride*8*d.mbh),
		YStride: ystride,
		CStride: cstride,
	}
	d.intraTop = make([]uint8, 4*d.mbw)
	d.nzTop = make([]nzContext, d.mbw)
	useFilter := d.filter.level != 0
	if useFilter {
		d.computeFilterStrengths()
		d.mbFilter = make([]filterParams, d.mbw*d.mbh)
	}

	var mb macroblock
	for mby := 0; mby < d.mbh; mby++ {
		part := d.parts[mby&(len(d.parts)-1)]
		d.intraLeft = [4]uint8{}
		d.nzLeft = nzContext{}

		for mbx := 0; mbx < d.mbw; mbx++ {
			d.parseModes(mbx, &mb)
			if !mb.skip {
				mb.skip = !d.parseResiduals(part, mbx, &mb)
			} else {
				d.skipResiduals(mbx, &mb)
			}
			d.reconstruct(mbx, mby, &mb)

			if useFilter {
				p := d.strengths[mb.segment][btou(mb.i4x4)]
				p.inner = p.inner || !mb.skip
				d.mbFilter[mby*d.mbw+mbx] = p
			}
		}
		if d.fp.eof {
			return fmt.Errorf("%w: first partition ends in macroblock row %d", ErrTruncated, mby)
		}
		if part.eof {
			return fmt.Errorf("%w: token partition ends in macroblock row %d", ErrTruncated, mby)
		}
	}

	if useFilter {
		d.loopFilter()
	}
	return nil
}
