package baseline

import (
	"image"
	"image/color"
	"io"

	"github.com/cocosip/go-image-codec/codec"
)

const codecName = "jpeg-baseline"

var _ codec.Codec = (*Codec)(nil)

// Codec implements the codec.Codec interface for JPEG Baseline
type Codec struct{}

// NewCodec creates a new JPEG Baseline codec
func NewCodec() *Codec {
	return &Codec{}
}

// Decode decodes JPEG Baseline data
func (c *Codec) Decode(data []byte, opts *codec.Options) (*codec.DecodeResult, error) {
	if opts != nil {
		if err := opts.Validate(); err != nil {
			return nil, err
		}
	}
	img, err := DecodeImage(data, opts)
	if err != nil {
		return nil, err
	}
	return codec.NewDecodeResult(img, codecName), nil
}

// DecodeConfig reads the image dimensions without decoding pixels
func (c *Codec) DecodeConfig(data []byte) (codec.Config, error) {
	return DecodeConfig(data)
}

// Sniff reports whether data starts with an SOI marker followed by another marker
func (c *Codec) Sniff(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

// MIMEType returns the media type
func (c *Codec) MIMEType() string {
	return "image/jpeg"
}

// Name returns the human-readable name
func (c *Codec) Name() string {
	return codecName
}

func decodeStdImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := DecodeImage(data, nil)
	if err != nil {
		return nil, err
	}
	return img.NRGBA(), nil
}

func decodeStdConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: cfg.Width, Height: cfg.Height}, nil
}

// Register registers this codec with the global registry
func init() {
	codec.Register(NewCodec())
	image.RegisterFormat("jpeg", "\xff\xd8", decodeStdImage, decodeStdConfig)
	RegisterBaselineCodec()
}
