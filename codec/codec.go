// Package codec defines the decoder interface shared by the image formats,
// the registry that selects a decoder from magic bytes, the common result
// type and the error taxonomy every format wraps.
package codec

import (
	"image"

	"github.com/cocosip/go-image-codec/raster"
)

// Codec is the interface implemented by every image decoder
type Codec interface {
	// Decode decodes a complete file into RGBA8 pixels
	Decode(data []byte, opts *Options) (*DecodeResult, error)

	// DecodeConfig reads the image dimensions without decoding pixels
	DecodeConfig(data []byte) (Config, error)

	// Sniff reports whether data starts with this format's magic bytes
	Sniff(data []byte) bool

	// MIMEType returns the media type, e.g. "image/jpeg"
	MIMEType() string

	// Name returns a human-readable name
	Name() string
}

// Config describes an image without its pixels
type Config struct {
	Width    int
	Height   int
	Format   string // Codec name
	HasAlpha bool
}

// DecodeResult contains the result of decoding
type DecodeResult struct {
	PixelData  []byte // RGBA8, row-major, top to bottom
	Width      int    // Image width
	Height     int    // Image height
	Components int    // Always 4
	BitDepth   int    // Always 8
	Format     string // Codec name
}

// NewDecodeResult wraps a decoded raster.
func NewDecodeResult(img *raster.Image, format string) *DecodeResult {
	return &DecodeResult{
		PixelData:  img.Pix,
		Width:      img.Width,
		Height:     img.Height,
		Components: 4,
		BitDepth:   8,
		Format:     format,
	}
}

// Image returns the result as a raster.Image sharing the pixel slice.
func (r *DecodeResult) Image() *raster.Image {
	return &raster.Image{Width: r.Width, Height: r.Height, Pix: r.PixelData}
}

// NRGBA returns the result as an image.NRGBA sharing the pixel slice.
func (r *DecodeResult) NRGBA() *image.NRGBA {
	return r.Image().NRGBA()
}

// Options controls decoding
type Options struct {
	// MaxPixels bounds width*height before the output buffer is allocated.
	// 0 means no limit.
	MaxPixels int
}

// DefaultOptions returns the options used when nil is passed to Decode
func DefaultOptions() *Options {
	return &Options{MaxPixels: 0}
}

// Validate validates the options
func (o *Options) Validate() error {
	if o.MaxPixels < 0 {
		return ErrInvalidParameter
	}
	return nil
}

// Limit returns the pixel budget, treating a nil receiver as unlimited.
func (o *Options) Limit() int {
	if o == nil {
		return 0
	}
	return o.MaxPixels
}
