package baseline

import (
	"errors"
	"testing"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	dicomcodec "github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"

	codecHelpers "github.com/cocosip/go-image-codec/codec"
)

func TestBaselineCodecInterface(t *testing.T) {
	baselineCodec := NewBaselineCodec(0)

	// Verify interface implementation
	var _ dicomcodec.Codec = baselineCodec

	name := baselineCodec.Name()
	if name == "" {
		t.Error("Codec name should not be empty")
	}
	t.Logf("Codec name: %s", name)

	ts := baselineCodec.TransferSyntax()
	if ts == nil {
		t.Fatal("Transfer syntax should not be nil")
	}
	if ts.UID().UID() != transfer.JPEGBaseline8Bit.UID().UID() {
		t.Errorf("Transfer syntax UID mismatch: got %s, want %s",
			ts.UID().UID(), transfer.JPEGBaseline8Bit.UID().UID())
	}
}

func TestBaselineCodecRegistration(t *testing.T) {
	registry := dicomcodec.GetGlobalRegistry()

	retrievedCodec, exists := registry.GetCodec(transfer.JPEGBaseline8Bit)
	if !exists {
		t.Fatal("JPEG Baseline codec not found in global registry")
	}
	if retrievedCodec.Name() != "JPEG Baseline (Process 1)" {
		t.Errorf("Expected codec name 'JPEG Baseline (Process 1)', got '%s'", retrievedCodec.Name())
	}
}

func grayFrameInfo(width, height int) *imagetypes.FrameInfo {
	return &imagetypes.FrameInfo{
		Width:                     uint16(width),
		Height:                    uint16(height),
		BitsAllocated:             8,
		BitsStored:                8,
		HighBit:                   7,
		SamplesPerPixel:           1,
		PixelRepresentation:       0,
		PlanarConfiguration:       0,
		PhotometricInterpretation: "MONOCHROME2",
	}
}

func TestBaselineCodecDecode(t *testing.T) {
	width, height := 32, 24
	frameInfo := grayFrameInfo(width, height)

	src := codecHelpers.NewEncapsulatedFrameBuffer(frameInfo)
	frames := [][]byte{
		stdlibEncode(t, testGray(width, height)),
		stdlibEncode(t, testGray(width, height)),
	}
	for _, f := range frames {
		if err := src.AddFrame(f); err != nil {
			t.Fatal(err)
		}
	}

	dst := codecHelpers.NewFrameBuffer(frameInfo)
	if err := NewBaselineCodec(0).Decode(src, dst, nil); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if dst.FrameCount() != len(frames) {
		t.Fatalf("decoded %d frames, want %d", dst.FrameCount(), len(frames))
	}

	for i, f := range frames {
		got, err := dst.GetFrame(i)
		if err != nil {
			t.Fatal(err)
		}
		want, _, _, _, err := DecodeSamples(f, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != width*height {
			t.Fatalf("frame %d has %d bytes, want %d", i, len(got), width*height)
		}
		for j := range got {
			if got[j] != want[j] {
				t.Fatalf("frame %d sample %d = %d, want %d", i, j, got[j], want[j])
			}
		}
	}
}

func TestBaselineCodecErrors(t *testing.T) {
	c := NewBaselineCodec(0)

	src := codecHelpers.NewEncapsulatedFrameBuffer(grayFrameInfo(16, 16))
	if err := src.AddFrame(stdlibEncode(t, testGray(8, 8))); err != nil {
		t.Fatal(err)
	}
	dst := codecHelpers.NewFrameBuffer(grayFrameInfo(16, 16))
	if err := c.Decode(src, dst, nil); !errors.Is(err, codecHelpers.ErrDimensionMismatch) {
		t.Errorf("size mismatch: got %v, want ErrDimensionMismatch", err)
	}

	if err := c.Encode(src, dst, nil); !errors.Is(err, ErrEncodeUnsupported) {
		t.Errorf("Encode: got %v, want ErrEncodeUnsupported", err)
	}

	empty := codecHelpers.NewEncapsulatedFrameBuffer(grayFrameInfo(16, 16))
	if err := c.Decode(empty, dst, nil); err == nil {
		t.Error("expected error for pixel data without frames")
	}
}

func TestBaselineParameters(t *testing.T) {
	params := NewBaselineParameters().WithMaxPixels(100)
	if got := params.GetParameter("maxPixels"); got != 100 {
		t.Errorf("maxPixels = %v, want 100", got)
	}
	params.SetParameter("custom", "value")
	if got := params.GetParameter("custom"); got != nil {
		t.Errorf("unknown parameter = %v, want nil", got)
	}
	params.SetParameter(ParamMaxPixels, int64(4096))
	if params.MaxPixels != 4096 {
		t.Errorf("int64 maxPixels gave %d, want 4096", params.MaxPixels)
	}
	params.SetParameter(ParamMaxPixels, "4096")
	if params.MaxPixels != 4096 {
		t.Errorf("string value changed maxPixels to %d", params.MaxPixels)
	}
	params.SetParameter(ParamMaxPixels, -5)
	if err := params.Validate(); !errors.Is(err, codecHelpers.ErrInvalidParameter) {
		t.Errorf("Validate(-5) = %v, want ErrInvalidParameter", err)
	}

	// A typed budget smaller than the frame is enforced.
	src := codecHelpers.NewEncapsulatedFrameBuffer(grayFrameInfo(16, 16))
	if err := src.AddFrame(stdlibEncode(t, testGray(16, 16))); err != nil {
		t.Fatal(err)
	}
	dst := codecHelpers.NewFrameBuffer(grayFrameInfo(16, 16))
	err := NewBaselineCodec(0).Decode(src, dst, NewBaselineParameters().WithMaxPixels(100))
	if !errors.Is(err, codecHelpers.ErrImageTooLarge) {
		t.Errorf("got %v, want ErrImageTooLarge", err)
	}

	// A negative budget is refused before any frame is decoded.
	dst = codecHelpers.NewFrameBuffer(grayFrameInfo(16, 16))
	err = NewBaselineCodec(0).Decode(src, dst, NewBaselineParameters().WithMaxPixels(-1))
	if !errors.Is(err, codecHelpers.ErrInvalidParameter) {
		t.Errorf("got %v, want ErrInvalidParameter", err)
	}
	if dst.FrameCount() != 0 {
		t.Errorf("%d frames written despite invalid parameters", dst.FrameCount())
	}
}
