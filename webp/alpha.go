package webp

import (
	"fmt"

	"github.com/cocosip/go-image-codec/raster"
	"github.com/cocosip/go-image-codec/webp/vp8l"
)

// ALPH header fields.
const (
	alphaNoCompression    = 0
	alphaLossless         = 1
	alphaMaxPreprocessing = 1 // Level reduction, informative only

	filterNone       = 0
	filterHorizontal = 1
	filterVertical   = 2
	filterGradient   = 3
)

// decodeAlpha decodes an ALPH chunk into width*height alpha values.
func decodeAlpha(data []byte, width, height int) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty chunk", ErrInvalidAlpha)
	}
	hdr := data[0]
	compression := int(hdr & 3)
	filter := int(hdr>>2) & 3
	preprocessing := int(hdr>>4) & 3
	if hdr>>6 != 0 || compression > alphaLossless || preprocessing > alphaMaxPreprocessing {
		return nil, fmt.Errorf("%w: header 0x%02x", ErrInvalidAlpha, hdr)
	}

	payload := data[1:]
	var alpha []byte
	switch compression {
	case alphaNoCompression:
		n := width * height
		if len(payload) < n {
			return nil, fmt.Errorf("%w: %d raw bytes for %dx%d", ErrInvalidAlpha, len(payload), width, height)
		}
		alpha = make([]byte, n)
		copy(alpha, payload)
	case alphaLossless:
		var err error
		alpha, err = vp8l.DecodeAlpha(payload, width, height)
		if err != nil {
			return nil, fmt.Errorf("webp: alpha plane: %w", err)
		}
	}

	unfilterAlpha(alpha, width, filter)
	return alpha, nil
}

// unfilterAlpha undoes the spatial prediction of an alpha plane in place.
// The first row predicts from the left and the first column from above;
// the top-left value is stored as is.
func unfilterAlpha(alpha []byte, width, filter int) {
	if filter == filterNone || len(alpha) == 0 {
		return
	}
	for x := 1; x < width; x++ {
		alpha[x] += alpha[x-1]
	}
	for row := width; row < len(alpha); row += width {
		cur, up := alpha[row:row+width], alpha[row-width:row]
		cur[0] += up[0]
		for x := 1; x < width; x++ {
			switch filter {
			case filterHorizontal:
				cur[x] += cur[x-1]
			case filterVertical:
				cur[x] += up[x]
			case filterGradient:
				cur[x] += raster.ClampByte(int(cur[x-1]) + int(up[x]) - int(up[x-1]))
			}
		}
	}
}
