package common

import "github.com/cocosip/go-image-codec/raster"

// Fixed point constants, scaled by 2048.
const (
	w1 = 2841 // 2048*sqrt(2)*cos(1*pi/16)
	w2 = 2676 // 2048*sqrt(2)*cos(2*pi/16)
	w3 = 2408 // 2048*sqrt(2)*cos(3*pi/16)
	w5 = 1609 // 2048*sqrt(2)*cos(5*pi/16)
	w6 = 1108 // 2048*sqrt(2)*cos(6*pi/16)
	w7 = 565  // 2048*sqrt(2)*cos(7*pi/16)

	w1pw7 = w1 + w7
	w1mw7 = w1 - w7
	w2pw6 = w2 + w6
	w2mw6 = w2 - w6
	w3pw5 = w3 + w5
	w3mw5 = w3 - w5

	r2 = 181 // 256/sqrt(2)
)

// IDCT performs the inverse DCT of one dequantized 8x8 block.
// coef holds 64 coefficients in natural (row-major) order and is used as
// scratch space. The 1-D butterfly runs on columns first, then rows; the
// result is level shifted by 128, clamped to [0,255] and written to out
// with the given stride.
func IDCT(coef *[64]int32, out []byte, stride int) {
	// Vertical pass.
	for x := 0; x < 8; x++ {
		s := coef[x : x+57 : x+57]
		if s[8] == 0 && s[16] == 0 && s[24] == 0 && s[32] == 0 &&
			s[40] == 0 && s[48] == 0 && s[56] == 0 {
			dc := s[0] << 3
			s[0], s[8], s[16], s[24] = dc, dc, dc, dc
			s[32], s[40], s[48], s[56] = dc, dc, dc, dc
			continue
		}

		x0 := (s[0] << 11) + 128
		x1 := s[32] << 11
		x2 := s[48]
		x3 := s[16]
		x4 := s[8]
		x5 := s[56]
		x6 := s[40]
		x7 := s[24]

		// Stage 1.
		x8 := w7 * (x4 + x5)
		x4 = x8 + w1mw7*x4
		x5 = x8 - w1pw7*x5
		x8 = w3 * (x6 + x7)
		x6 = x8 - w3mw5*x6
		x7 = x8 - w3pw5*x7

		// Stage 2.
		x8 = x0 + x1
		x0 -= x1
		x1 = w6 * (x3 + x2)
		x2 = x1 - w2pw6*x2
		x3 = x1 + w2mw6*x3
		x1 = x4 + x6
		x4 -= x6
		x6 = x5 + x7
		x5 -= x7

		// Stage 3.
		x7 = x8 + x3
		x8 -= x3
		x3 = x0 + x2
		x0 -= x2
		x2 = (r2*(x4+x5) + 128) >> 8
		x4 = (r2*(x4-x5) + 128) >> 8

		// Stage 4.
		s[0] = (x7 + x1) >> 8
		s[8] = (x3 + x2) >> 8
		s[16] = (x0 + x4) >> 8
		s[24] = (x8 + x6) >> 8
		s[32] = (x8 - x6) >> 8
		s[40] = (x0 - x4) >> 8
		s[48] = (x3 - x2) >> 8
		s[56] = (x7 - x1) >> 8
	}

	// Horizontal pass.
	for y := 0; y < 8; y++ {
		s := coef[y*8 : y*8+8 : y*8+8]

		y0 := (s[0] << 8) + 8192
		y1 := s[4] << 8
		y2 := s[6]
		y3 := s[2]
		y4 := s[1]
		y5 := s[7]
		y6 := s[5]
		y7 := s[3]

		// Stage 1.
		y8 := w7*(y4+y5) + 4
		y4 = (y8 + w1mw7*y4) >> 3
		y5 = (y8 - w1pw7*y5) >> 3
		y8 = w3*(y6+y7) + 4
		y6 = (y8 - w3mw5*y6) >> 3
		y7 = (y8 - w3pw5*y7) >> 3

		// Stage 2.
		y8 = y0 + y1
		y0 -= y1
		y1 = w6*(y3+y2) + 4
		y2 = (y1 - w2pw6*y2) >> 3
		y3 = (y1 + w2mw6*y3) >> 3
		y1 = y4 + y6
		y4 -= y6
		y6 = y5 + y7
		y5 -= y7

		// Stage 3.
		y7 = y8 + y3
		y8 -= y3
		y3 = y0 + y2
		y0 -= y2
		y2 = (r2*(y4+y5) + 128) >> 8
		y4 = (r2*(y4-y5) + 128) >> 8

		// Stage 4, level shift and clamp.
		o := out[y*stride : y*stride+8 : y*stride+8]
		o[0] = raster.ClampByte((y7+y1)>>14 + 128)
		o[1] = raster.ClampByte((y3+y2)>>14 + 128)
		o[2] = raster.ClampByte((y0+y4)>>14 + 128)
		o[3] = raster.ClampByte((y8+y6)>>14 + 128)
		o[4] = raster.ClampByte((y8-y6)>>14 + 128)
		o[5] = raster.ClampByte((y0-y4)>>14 + 128)
		o[6] = raster.ClampByte((y3-y2)>>14 + 128)
		o[7] = raster.ClampByte((y7-y1)>>14 + 128)
	}
}
