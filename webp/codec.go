package webp

import (
	"image"
	"image/color"
	"io"

	"github.com/cocosip/go-image-codec/codec"
)

const codecName = "webp"

var _ codec.Codec = (*Codec)(nil)

// Codec implements the codec.Codec interface for WebP
type Codec struct{}

// NewCodec creates a new WebP codec
func NewCodec() *Codec {
	return &Codec{}
}

// Decode decodes a still WebP file
func (c *Codec) Decode(data []byte, opts *codec.Options) (*codec.DecodeResult, error) {
	if opts != nil {
		if err := opts.Validate(); err != nil {
			return nil, err
		}
	}
	img, err := Decode(data, opts)
	if err != nil {
		return nil, err
	}
	return codec.NewDecodeResult(img, codecName), nil
}

// DecodeConfig reads the image dimensions without decoding pixels
func (c *Codec) DecodeConfig(data []byte) (codec.Config, error) {
	return DecodeConfig(data)
}

// Sniff reports whether data starts with a RIFF header of form type WEBP
func (c *Codec) Sniff(data []byte) bool {
	return sniff(data)
}

// MIMEType returns the media type
func (c *Codec) MIMEType() string {
	return "image/webp"
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
	img, err := Decode(data, nil)
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
	image.RegisterFormat("webp", "RIFF????WEBP", decodeStdImage, decodeStdConfig)
}
