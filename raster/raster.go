// Package raster holds the RGBA8 pixel buffer produced by every decoder and
// the fixed-point colour conversions they share.
package raster

import (
	"errors"
	"image"

	"golang.org/x/exp/constraints"
)

// ErrTooLarge is returned when a buffer for the requested dimensions would
// exceed the pixel budget.
var ErrTooLarge = errors.New("raster: image too large")

// Image is a row-major RGBA8 buffer, four bytes per pixel, top to bottom.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates an opaque-black image. maxPixels ≤ 0 disables the limit.
func New(width, height, maxPixels int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrTooLarge
	}
	if maxPixels > 0 && width > maxPixels/height {
		return nil, ErrTooLarge
	}
	if width > (1<<31-1)/4/height {
		return nil, ErrTooLarge
	}
	return &Image{Width: width, Height: height, Pix: make([]byte, width*height*4)}, nil
}

// Stride returns the number of bytes per row.
func (m *Image) Stride() int {
	return m.Width * 4
}

// Set stores one pixel.
func (m *Image) Set(x, y int, r, g, b, a byte) {
	i := (y*m.Width + x) * 4
	p := m.Pix[i : i+4 : i+4]
	p[0] = r
	p[1] = g
	p[2] = b
	p[3] = a
}

// At returns the pixel at (x, y).
func (m *Image) At(x, y int) (r, g, b, a byte) {
	i := (y*m.Width + x) * 4
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]
}

// RGB returns the pixels without the alpha channel.
func (m *Image) RGB() []byte {
	out := make([]byte, m.Width*m.Height*3)
	for i, j := 0, 0; i < len(m.Pix); i, j = i+4, j+3 {
		out[j] = m.Pix[i]
		out[j+1] = m.Pix[i+1]
		out[j+2] = m.Pix[i+2]
	}
	return out
}

// NRGBA wraps the buffer as an image.NRGBA without copying.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Stride(),
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampByte limits v to [0, 255].
func ClampByte[T ~int | ~int16 | ~int32 | ~int64](v T) byte {
	return byte(Clamp(v, 0, 255))
}

// DivCeil returns ceil(a / b) for positive b.
func DivCeil[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}
