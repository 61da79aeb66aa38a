package raster

// YCbCrToRGB converts full-range JFIF YCbCr to RGB with 16-bit fixed point
// coefficients and rounding.
func YCbCrToRGB(y, cb, cr byte) (r, g, b byte) {
	yy := int32(y)<<16 + 1<<15
	cb1 := int32(cb) - 128
	cr1 := int32(cr) - 128
	r = ClampByte((yy + 91881*cr1) >> 16)
	g = ClampByte((yy - 22554*cb1 - 46802*cr1) >> 16)
	b = ClampByte((yy + 116130*cb1) >> 16)
	return r, g, b
}

// CMYKToRGB converts Adobe-style inverted CMYK samples to RGB.
func CMYKToRGB(c, m, y, k byte) (r, g, b byte) {
	kk := uint32(k)
	r = byte(uint32(c) * kk / 255)
	g = byte(uint32(m) * kk / 255)
	b = byte(uint32(y) * kk / 255)
	return r, g, b
}

const (
	yuvFix2  = 6
	yuvMask2 = (256 << yuvFix2) - 1
)

func mulHi(v, coeff int) int {
	return (v * coeff) >> 8
}

func clip8(v int) byte {
	if v&^yuvMask2 == 0 {
		return byte(v >> yuvFix2)
	}
	if v < 0 {
		return 0
	}
	return 255
}

// YUVToRGB converts limited-range BT.601 YUV, as produced by VP8, to RGB.
func YUVToRGB(y, u, v byte) (r, g, b byte) {
	yy := mulHi(int(y), 19077)
	r = clip8(yy + mulHi(int(v), 26149) - 14234)
	g = clip8(yy - mulHi(int(u), 6419) - mulHi(int(v), 13320) + 8708)
	b = clip8(yy + mulHi(int(u), 33050) - 17685)
	return r, g, b
}
