package codec

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the available codecs
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec // key can be either name or MIME type
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

var defaultRegistry = NewRegistry()

// Register registers a codec using both its name and MIME type
func Register(codec Codec) {
	defaultRegistry.Register(codec)
}

// Get retrieves a codec by name or MIME type
func Get(nameOrMIME string) (Codec, error) {
	return defaultRegistry.Get(nameOrMIME)
}

// List returns all registered codecs
func List() []Codec {
	return defaultRegistry.List()
}

// Detect returns the registered codec whose magic bytes match data
func Detect(data []byte) (Codec, error) {
	return defaultRegistry.Detect(data)
}

// Decode sniffs the format of data and decodes it with default options
func Decode(data []byte) (*DecodeResult, error) {
	return defaultRegistry.Decode(data, nil)
}

// DecodeWithOptions sniffs the format of data and decodes it
func DecodeWithOptions(data []byte, opts *Options) (*DecodeResult, error) {
	return defaultRegistry.Decode(data, opts)
}

// DecodeConfig sniffs the format of data and reads its dimensions
func DecodeConfig(data []byte) (Config, error) {
	c, err := defaultRegistry.Detect(data)
	if err != nil {
		return Config{}, err
	}
	return c.DecodeConfig(data)
}

// Register registers a codec using both its name and MIME type
func (r *Registry) Register(codec Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codecs[codec.Name()] = codec
	r.codecs[codec.MIMEType()] = codec
}

// Get retrieves a codec by name or MIME type
func (r *Registry) Get(nameOrMIME string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codec, ok := r.codecs[nameOrMIME]
	if !ok {
		return nil, ErrCodecNotFound
	}
	return codec, nil
}

// List returns all registered codecs (deduplicated, sorted by name)
func (r *Registry) List() []Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Codec]bool)
	codecs := make([]Codec, 0)

	for _, codec := range r.codecs {
		if !seen[codec] {
			seen[codec] = true
			codecs = append(codecs, codec)
		}
	}

	sort.Slice(codecs, func(i, j int) bool { return codecs[i].Name() < codecs[j].Name() })
	return codecs
}

// Detect returns the codec whose magic bytes match data
func (r *Registry) Detect(data []byte) (Codec, error) {
	for _, c := range r.List() {
		if c.Sniff(data) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: unrecognized magic bytes", ErrCodecNotFound)
}

// Decode sniffs the format of data and decodes it. opts may be nil.
func (r *Registry) Decode(data []byte, opts *Options) (*DecodeResult, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c, err := r.Detect(data)
	if err != nil {
		return nil, err
	}
	Logger().Debug("codec: decoding", "codec", c.Name(), "bytes", len(data))

	res, err := c.Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	return res, nil
}
