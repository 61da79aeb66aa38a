package codec

import (
	"fmt"

	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"
)

var _ imagetypes.PixelData = (*FrameBuffer)(nil)

// FrameBuffer is an in-memory imagetypes.PixelData. It carries compressed
// frames into a DICOM codec and collects the decoded ones.
type FrameBuffer struct {
	frames       [][]byte
	frameInfo    *imagetypes.FrameInfo
	encapsulated bool
}

// NewFrameBuffer creates an empty buffer of native (uncompressed) frames
func NewFrameBuffer(frameInfo *imagetypes.FrameInfo) *FrameBuffer {
	return &FrameBuffer{frameInfo: frameInfo}
}

// NewEncapsulatedFrameBuffer creates an empty buffer of compressed frames
func NewEncapsulatedFrameBuffer(frameInfo *imagetypes.FrameInfo) *FrameBuffer {
	return &FrameBuffer{frameInfo: frameInfo, encapsulated: true}
}

// GetFrame returns frame frameIndex (0-indexed)
func (p *FrameBuffer) GetFrame(frameIndex int) ([]byte, error) {
	if frameIndex < 0 || frameIndex >= len(p.frames) {
		return nil, fmt.Errorf("frame %d out of range (have %d)", frameIndex, len(p.frames))
	}
	return p.frames[frameIndex], nil
}

// AddFrame appends a frame. Empty frames are rejected.
func (p *FrameBuffer) AddFrame(frameData []byte) error {
	if len(frameData) == 0 {
		return fmt.Errorf("frame %d is empty", len(p.frames))
	}
	p.frames = append(p.frames, frameData)
	return nil
}

// FrameCount returns the number of frames
func (p *FrameBuffer) FrameCount() int {
	return len(p.frames)
}

// GetFrameInfo returns the frame metadata, possibly nil
func (p *FrameBuffer) GetFrameInfo() *imagetypes.FrameInfo {
	return p.frameInfo
}

// IsEncapsulated reports whether frames hold compressed data
func (p *FrameBuffer) IsEncapsulated() bool {
	return p.encapsulated
}
