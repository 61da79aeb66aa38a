// Package webp decodes still WebP images.
//
// The RIFF container is parsed here; lossy frames are decoded by package
// vp8, lossless ones by package vp8l. Extended files may add an ALPH chunk
// to a lossy frame and carry ICC, EXIF and XMP metadata. Animated files are
// recognised and described by GetFeatures, but their frames are not
// decoded.
package webp

import (
	"fmt"

	"github.com/cocosip/go-image-codec/codec"
	"github.com/cocosip/go-image-codec/raster"
	"github.com/cocosip/go-image-codec/webp/vp8"
	"github.com/cocosip/go-image-codec/webp/vp8l"
)

// Decode decodes a still WebP file into an RGBA8 image.
func Decode(data []byte, opts *codec.Options) (*raster.Image, error) {
	c, err := parseContainer(data)
	if err != nil {
		return nil, err
	}
	f := &c.features
	if f.HasAnimation {
		frames := 0
		if f.Animation != nil {
			frames = f.Animation.FrameCount
		}
		return nil, fmt.Errorf("%w: %d frames", ErrAnimationUnsupported, frames)
	}
	if c.bitstream == nil {
		return nil, ErrMissingBitstream
	}
	if limit := opts.Limit(); limit > 0 && f.Width > limit/f.Height {
		return nil, fmt.Errorf("%w: %dx%d", codec.ErrImageTooLarge, f.Width, f.Height)
	}

	if c.bitstream.tag == fccVP8L {
		return vp8l.Decode(c.bitstream.data, opts)
	}

	frame, err := vp8.DecodeFrame(c.bitstream.data, opts)
	if err != nil {
		return nil, err
	}
	img, err := frame.RGBA(opts.Limit())
	if err != nil {
		return nil, err
	}
	if c.alpha != nil {
		alpha, err := decodeAlpha(c.alpha.data, img.Width, img.Height)
		if err != nil {
			return nil, err
		}
		for i, a := range alpha {
			img.Pix[4*i+3] = a
		}
	}
	return img, nil
}

// DecodeConfig returns the canvas size of a WebP file without decoding
// pixels.
func DecodeConfig(data []byte) (codec.Config, error) {
	f, err := GetFeatures(data)
	if err != nil {
		return codec.Config{}, err
	}
	return codec.Config{
		Width:    f.Width,
		Height:   f.Height,
		Format:   codecName,
		HasAlpha: f.HasAlpha,
	}, nil
}
