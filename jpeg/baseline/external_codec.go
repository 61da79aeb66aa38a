package baseline

import (
	"fmt"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	dicomcodec "github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"

	"github.com/cocosip/go-image-codec/codec"
	"github.com/cocosip/go-image-codec/jpeg/common"
)

// ErrEncodeUnsupported is returned by BaselineCodec.Encode.
var ErrEncodeUnsupported = fmt.Errorf("%w: JPEG Baseline encoding", codec.ErrUnsupportedFormat)

var _ dicomcodec.Codec = (*BaselineCodec)(nil)

// BaselineCodec implements the external codec.Codec interface for JPEG
// Baseline (Process 1). It only decodes.
type BaselineCodec struct {
	maxPixels int
}

// NewBaselineCodec creates a new JPEG Baseline codec
// maxPixels bounds every frame, 0 means no limit
func NewBaselineCodec(maxPixels int) *BaselineCodec {
	if maxPixels < 0 {
		maxPixels = 0
	}
	return &BaselineCodec{maxPixels: maxPixels}
}

// Name returns the codec name
func (c *BaselineCodec) Name() string {
	return "JPEG Baseline (Process 1)"
}

// TransferSyntax returns the transfer syntax this codec handles
func (c *BaselineCodec) TransferSyntax() *transfer.Syntax {
	return transfer.JPEGBaseline8Bit
}

// GetDefaultParameters returns the default codec parameters
func (c *BaselineCodec) GetDefaultParameters() dicomcodec.Parameters {
	return NewBaselineParameters().WithMaxPixels(c.maxPixels)
}

// Encode is not supported
func (c *BaselineCodec) Encode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters dicomcodec.Parameters) error {
	return ErrEncodeUnsupported
}

// extractParameters resolves the pixel budget from typed or generic parameters.
func (c *BaselineCodec) extractParameters(parameters dicomcodec.Parameters) (*JPEGBaselineParameters, error) {
	params := NewBaselineParameters().WithMaxPixels(c.maxPixels)
	if parameters == nil {
		return params, nil
	}
	if bp, ok := parameters.(*JPEGBaselineParameters); ok {
		params.MaxPixels = bp.MaxPixels
	} else if v, ok := parameters.GetParameter(ParamMaxPixels).(int); ok {
		params.MaxPixels = v
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Decode decodes JPEG Baseline frames to interleaved 8-bit samples
func (c *BaselineCodec) Decode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters dicomcodec.Parameters) error {
	if oldPixelData == nil || newPixelData == nil {
		return fmt.Errorf("source and destination PixelData cannot be nil")
	}

	frameCount := oldPixelData.FrameCount()
	if frameCount == 0 {
		return fmt.Errorf("source pixel data is empty (no frames)")
	}

	params, err := c.extractParameters(parameters)
	if err != nil {
		return err
	}
	opts := &codec.Options{MaxPixels: params.MaxPixels}
	frameInfo := oldPixelData.GetFrameInfo()

	for frameIndex := 0; frameIndex < frameCount; frameIndex++ {
		frameData, err := oldPixelData.GetFrame(frameIndex)
		if err != nil {
			return fmt.Errorf("failed to get frame %d: %w", frameIndex, err)
		}
		if len(frameData) == 0 {
			return fmt.Errorf("frame %d pixel data is empty", frameIndex)
		}

		samples, width, height, components, err := DecodeSamples(frameData, opts)
		if err != nil {
			return fmt.Errorf("JPEG Baseline decode failed for frame %d: %w", frameIndex, err)
		}

		if frameInfo != nil {
			if frameInfo.Width != 0 && (width != int(frameInfo.Width) || height != int(frameInfo.Height)) {
				return fmt.Errorf("%w: frame %d decoded %dx%d, expected %dx%d", codec.ErrDimensionMismatch,
					frameIndex, width, height, frameInfo.Width, frameInfo.Height)
			}
			if frameInfo.SamplesPerPixel != 0 && components != int(frameInfo.SamplesPerPixel) {
				return fmt.Errorf("%w: frame %d decoded %d components, expected %d", codec.ErrDimensionMismatch,
					frameIndex, components, frameInfo.SamplesPerPixel)
			}
			bitsStored := int(frameInfo.BitsStored)
			if common.NeedsSignedRestore(samples, bitsStored, int(frameInfo.PixelRepresentation)) {
				common.RestoreSigned(samples, bitsStored)
			}
		}

		if err := newPixelData.AddFrame(samples); err != nil {
			return fmt.Errorf("failed to add decoded frame %d: %w", frameIndex, err)
		}
	}

	return nil
}

// RegisterBaselineCodec registers the JPEG Baseline codec with the global registry
func RegisterBaselineCodec() {
	registry := dicomcodec.GetGlobalRegistry()
	registry.RegisterCodec(transfer.JPEGBaseline8Bit, NewBaselineCodec(0))
}
