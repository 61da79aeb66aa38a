package baseline

import (
	"fmt"

	dicomcodec "github.com/cocosip/go-dicom/pkg/imaging/codec"

	"github.com/cocosip/go-image-codec/codec"
)

// ParamMaxPixels is the generic parameter name of the pixel budget.
const ParamMaxPixels = "maxPixels"

var _ dicomcodec.Parameters = (*JPEGBaselineParameters)(nil)

// JPEGBaselineParameters bounds JPEG Baseline decompression.
type JPEGBaselineParameters struct {
	// MaxPixels bounds width*height of every decoded frame.
	// 0 means no limit.
	MaxPixels int
}

// NewBaselineParameters returns parameters without a pixel budget.
func NewBaselineParameters() *JPEGBaselineParameters {
	return &JPEGBaselineParameters{}
}

// GetParameter returns the value of a named parameter, or nil for names the
// decoder does not read.
func (p *JPEGBaselineParameters) GetParameter(name string) interface{} {
	if name == ParamMaxPixels {
		return p.MaxPixels
	}
	return nil
}

// SetParameter sets a named parameter. Any integer type is accepted for
// maxPixels; other names and value types are ignored.
func (p *JPEGBaselineParameters) SetParameter(name string, value interface{}) {
	if name != ParamMaxPixels {
		return
	}
	switch v := value.(type) {
	case int:
		p.MaxPixels = v
	case int32:
		p.MaxPixels = int(v)
	case int64:
		p.MaxPixels = int(v)
	case uint32:
		p.MaxPixels = int(v)
	}
}

// Validate rejects a negative pixel budget.
func (p *JPEGBaselineParameters) Validate() error {
	if p.MaxPixels < 0 {
		return fmt.Errorf("%w: maxPixels %d", codec.ErrInvalidParameter, p.MaxPixels)
	}
	return nil
}

// WithMaxPixels sets the pixel budget and returns the parameters for chaining
func (p *JPEGBaselineParameters) WithMaxPixels(maxPixels int) *JPEGBaselineParameters {
	p.MaxPixels = maxPixels
	return p
}
