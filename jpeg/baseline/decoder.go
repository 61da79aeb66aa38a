package baseline

import (
	"fmt"

	"github.com/cocosip/go-image-codec/codec"
	"github.com/cocosip/go-image-codec/jpeg/common"
	"github.com/cocosip/go-image-codec/raster"
)

// Adobe APP14 colour transforms.
const (
	adobeTransformNone  = 0 // RGB or CMYK
	adobeTransformYCbCr = 1
	adobeTransformYCCK  = 2
)

// Component represents a color component in the image
type Component struct {
	ID byte // Component identifier
	H  int  // Horizontal sampling factor
	V  int  // Vertical sampling factor
	Tq int  // Quantization table selector

	blocksW int // Blocks per row, padded to whole MCUs
	blocksH int // Block rows, padded to whole MCUs
	scanW   int // Blocks per row in a non-interleaved scan
	scanH   int // Block rows in a non-interleaved scan

	dcTableSelector int   // DC Huffman table selector
	acTableSelector int   // AC Huffman table selector
	dcPred          int32 // DC prediction value

	data []byte // Decoded samples, stride blocksW*8
}

// stride returns the number of samples per plane row.
func (c *Component) stride() int {
	return c.blocksW * 8
}

// blockObserver sees the DC difference and the running prediction of every
// decoded block.
type blockObserver func(comp, bx, by int, diff, pred int32)

// Decoder represents a JPEG Baseline decoder
type Decoder struct {
	maxPixels int

	width      int          // Image width
	height     int          // Image height
	components []*Component // Color components
	maxH       int          // Largest horizontal sampling factor
	maxV       int          // Largest vertical sampling factor
	mcuCols    int          // MCUs per row
	mcuRows    int          // MCU rows

	qtables  [4][64]int32            // Quantization tables, natural order
	qdefined [4]bool                 // Tables seen in DQT
	dcTables [4]*common.HuffmanTable // DC Huffman tables
	acTables [4]*common.HuffmanTable // AC Huffman tables
	sawDHT   bool

	restartInt int // Restart interval in MCUs

	adobe          bool
	adobeTransform byte

	sawSOF bool
	sawSOS bool

	observe blockObserver
}

func newDecoder(maxPixels int) *Decoder {
	return &Decoder{maxPixels: maxPixels}
}

// Decode decodes JPEG Baseline data to RGBA8 pixels
func Decode(jpegData []byte) (pixelData []byte, width, height int, err error) {
	img, err := DecodeImage(jpegData, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	return img.Pix, img.Width, img.Height, nil
}

// DecodeImage decodes JPEG Baseline data into an RGBA8 raster. opts may be nil.
func DecodeImage(jpegData []byte, opts *codec.Options) (*raster.Image, error) {
	d := newDecoder(opts.Limit())
	if err := d.decode(jpegData); err != nil {
		return nil, err
	}
	return d.toRGBA()
}

// DecodeSamples decodes JPEG Baseline data to interleaved 8-bit samples:
// one per pixel for grayscale, RGB triplets otherwise.
func DecodeSamples(jpegData []byte, opts *codec.Options) (samples []byte, width, height, components int, err error) {
	d := newDecoder(opts.Limit())
	if err := d.decode(jpegData); err != nil {
		return nil, 0, 0, 0, err
	}
	if len(d.components) == 1 {
		return d.toGray(), d.width, d.height, 1, nil
	}
	img, err := d.toRGBA()
	if err != nil {
		return nil, 0, 0, 0, err
	}
	return img.RGB(), d.width, d.height, 3, nil
}

// DecodeConfig reads the frame header without decoding any scan.
func DecodeConfig(jpegData []byte) (codec.Config, error) {
	d := newDecoder(0)
	reader := common.NewReader(jpegData)
	if err := d.readSOI(reader); err != nil {
		return codec.Config{}, err
	}
	for {
		marker, err := reader.ReadMarker()
		if err != nil {
			return codec.Config{}, err
		}
		switch {
		case marker == common.MarkerSOF0 || marker == common.MarkerSOF1:
			data, err := reader.ReadSegment()
			if err != nil {
				return codec.Config{}, err
			}
			if err := d.parseSOF(data); err != nil {
				return codec.Config{}, err
			}
			return codec.Config{Width: d.width, Height: d.height, Format: codecName}, nil
		case common.IsSOF(marker):
			return codec.Config{}, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, common.MarkerName(marker))
		case marker == common.MarkerEOI || marker == common.MarkerSOS:
			return codec.Config{}, common.ErrMissingFrame
		case common.HasLength(marker):
			if _, err := reader.ReadSegment(); err != nil {
				return codec.Config{}, err
			}
		}
	}
}

func (d *Decoder) readSOI(reader *common.Reader) error {
	marker, err := reader.ReadMarker()
	if err != nil || marker != common.MarkerSOI {
		return common.ErrInvalidSOI
	}
	return nil
}

// decode runs the marker state machine up to and including EOI.
func (d *Decoder) decode(jpegData []byte) error {
	reader := common.NewReader(jpegData)
	if err := d.readSOI(reader); err != nil {
		return err
	}

	// Parse JPEG segments
	for {
		marker, err := reader.ReadMarker()
		if err != nil {
			return err
		}

		switch {
		case marker == common.MarkerSOF0 || marker == common.MarkerSOF1:
			data, err := reader.ReadSegment()
			if err != nil {
				return err
			}
			if err := d.parseSOF(data); err != nil {
				return err
			}

		case marker == common.MarkerSOF2:
			return fmt.Errorf("%w: progressive DCT", common.ErrUnsupportedFormat)

		case common.IsSOF(marker):
			return fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, common.MarkerName(marker))

		case marker == common.MarkerDQT:
			data, err := reader.ReadSegment()
			if err != nil {
				return err
			}
			if err := d.parseDQT(data); err != nil {
				return err
			}

		case marker == common.MarkerDHT:
			data, err := reader.ReadSegment()
			if err != nil {
				return err
			}
			if err := d.parseDHT(data); err != nil {
				return err
			}

		case marker == common.MarkerDRI:
			data, err := reader.ReadSegment()
			if err != nil {
				return err
			}
			if err := d.parseDRI(data); err != nil {
				return err
			}

		case marker == common.MarkerAPP14:
			data, err := reader.ReadSegment()
			if err != nil {
				return err
			}
			d.parseAdobe(data)

		case marker == common.MarkerSOS:
			data, err := reader.ReadSegment()
			if err != nil {
				return err
			}
			scan, err := d.parseSOS(data)
			if err != nil {
				return err
			}
			if err := d.decodeScan(reader, scan); err != nil {
				return err
			}

		case marker == common.MarkerEOI:
			if !d.sawSOS {
				return fmt.Errorf("%w: no scan before EOI", common.ErrInvalidSOS)
			}
			if rest := len(jpegData) - reader.Pos(); rest > 0 {
				codec.Logger().Warn("jpeg: trailing data after EOI", "bytes", rest)
			}
			return nil

		case common.IsRST(marker):
			return fmt.Errorf("%w: %s outside entropy-coded data", common.ErrInvalidRestart, common.MarkerName(marker))

		default:
			// APPn, COM and anything else with a length field are skipped
			if common.HasLength(marker) {
				data, err := reader.ReadSegment()
				if err != nil {
					return err
				}
				codec.Logger().Debug("jpeg: skipping segment", "marker", common.MarkerName(marker), "bytes", len(data))
			}
		}
	}
}

// parseSOF parses Start of Frame marker
func (d *Decoder) parseSOF(data []byte) error {
	if d.sawSOF {
		return fmt.Errorf("%w: duplicate SOF", common.ErrInvalidSOF)
	}
	if len(data) < 6 {
		return common.ErrInvalidSOF
	}

	if precision := int(data[0]); precision != 8 {
		return fmt.Errorf("%w: %d bits (only 8-bit supported for baseline)", common.ErrUnsupportedPrecision, precision)
	}

	d.height = int(data[1])<<8 | int(data[2])
	d.width = int(data[3])<<8 | int(data[4])
	numComponents := int(data[5])

	if d.width <= 0 || d.height <= 0 {
		return common.ErrInvalidDimensions
	}
	if d.maxPixels > 0 && d.width > d.maxPixels/d.height {
		return fmt.Errorf("%w: %dx%d", codec.ErrImageTooLarge, d.width, d.height)
	}

	if numComponents != 1 && numComponents != 3 && numComponents != 4 {
		return common.ErrInvalidComponents
	}
	if len(data) != 6+numComponents*3 {
		return common.ErrInvalidSOF
	}

	// Parse component specifications
	d.maxH, d.maxV = 1, 1
	d.components = make([]*Component, numComponents)
	for i := 0; i < numComponents; i++ {
		offset := 6 + i*3
		comp := &Component{
			ID: data[offset],
			H:  int(data[offset+1] >> 4),
			V:  int(data[offset+1] & 0x0F),
			Tq: int(data[offset+2]),
		}

		if comp.H <= 0 || comp.H > 4 || comp.V <= 0 || comp.V > 4 || comp.Tq > 3 {
			return common.ErrInvalidSOF
		}
		for _, prev := range d.components[:i] {
			if prev.ID == comp.ID {
				return fmt.Errorf("%w: duplicate component %d", common.ErrInvalidSOF, comp.ID)
			}
		}
		// A single-component image is always coded as one block per MCU.
		if numComponents == 1 {
			comp.H, comp.V = 1, 1
		}

		d.maxH = max(d.maxH, comp.H)
		d.maxV = max(d.maxV, comp.V)
		d.components[i] = comp
	}

	d.mcuCols = raster.DivCeil(d.width, d.maxH*8)
	d.mcuRows = raster.DivCeil(d.height, d.maxV*8)

	for _, comp := range d.components {
		comp.blocksW = d.mcuCols * comp.H
		comp.blocksH = d.mcuRows * comp.V
		comp.scanW = raster.DivCeil(raster.DivCeil(d.width*comp.H, d.maxH), 8)
		comp.scanH = raster.DivCeil(raster.DivCeil(d.height*comp.V, d.maxV), 8)
	}

	d.sawSOF = true
	codec.Logger().Debug("jpeg: frame header",
		"width", d.width, "height", d.height, "components", numComponents,
		"maxH", d.maxH, "maxV", d.maxV)
	return nil
}

// parseDQT parses Define Quantization Table marker
func (d *Decoder) parseDQT(data []byte) error {
	offset := 0
	for offset < len(data) {
		pqTq := data[offset]
		pq := pqTq >> 4   // Precision (0=8-bit, 1=16-bit)
		tq := pqTq & 0x0F // Table ID
		if tq > 3 || pq > 1 {
			return common.ErrInvalidDQT
		}
		offset++

		table := &d.qtables[tq]
		if pq == 0 {
			if offset+64 > len(data) {
				return common.ErrInvalidDQT
			}
			for k := 0; k < 64; k++ {
				table[common.ZigZag[k]] = int32(data[offset+k])
			}
			offset += 64
		} else {
			if offset+128 > len(data) {
				return common.ErrInvalidDQT
			}
			for k := 0; k < 64; k++ {
				table[common.ZigZag[k]] = int32(data[offset+k*2])<<8 | int32(data[offset+k*2+1])
			}
			offset += 128
		}
		d.qdefined[tq] = true
	}
	return nil
}

// parseDHT parses Define Huffman Table marker
func (d *Decoder) parseDHT(data []byte) error {
	offset := 0
	for offset < len(data) {
		tcTh := data[offset]
		tc := tcTh >> 4   // Table class (0=DC, 1=AC)
		th := tcTh & 0x0F // Table ID
		if tc > 1 || th > 3 {
			return common.ErrInvalidDHT
		}
		offset++

		if offset+16 > len(data) {
			return common.ErrInvalidDHT
		}
		table := &common.HuffmanTable{}
		totalCodes := 0
		for i := 0; i < 16; i++ {
			table.Bits[i] = int(data[offset+i])
			totalCodes += table.Bits[i]
		}
		offset += 16

		if offset+totalCodes > len(data) {
			return common.ErrInvalidDHT
		}
		table.Values = append([]byte(nil), data[offset:offset+totalCodes]...)
		offset += totalCodes

		if err := table.Build(); err != nil {
			return err
		}

		if tc == 0 {
			if table.MaxValue() > 11 {
				return fmt.Errorf("%w: DC category %d", common.ErrInvalidDHT, table.MaxValue())
			}
			d.dcTables[th] = table
		} else {
			d.acTables[th] = table
		}
	}
	d.sawDHT = true
	return nil
}

// parseDRI parses Define Restart Interval marker
func (d *Decoder) parseDRI(data []byte) error {
	if len(data) != 2 {
		return common.ErrInvalidDRI
	}
	d.restartInt = int(data[0])<<8 | int(data[1])
	return nil
}

// parseAdobe records the colour transform of an Adobe APP14 segment.
func (d *Decoder) parseAdobe(data []byte) {
	if len(data) < 12 || string(data[:5]) != "Adobe" {
		return
	}
	d.adobe = true
	d.adobeTransform = data[11]
	codec.Logger().Debug("jpeg: Adobe APP14", "transform", d.adobeTransform)
}

// scanHeader lists the frame components coded in one scan.
type scanHeader struct {
	comps []*Component
	index []int // Position of each scan component in the frame
}

// parseSOS parses Start of Scan marker
func (d *Decoder) parseSOS(data []byte) (*scanHeader, error) {
	if !d.sawSOF {
		return nil, common.ErrMissingFrame
	}
	if len(data) < 1 {
		return nil, common.ErrInvalidSOS
	}

	ns := int(data[0]) // Number of components in scan
	if ns < 1 || ns > len(d.components) || len(data) != 1+ns*2+3 {
		return nil, common.ErrInvalidSOS
	}

	ss, se, ahal := data[1+ns*2], data[2+ns*2], data[3+ns*2]
	if ss != 0 || se != 63 || ahal != 0 {
		return nil, fmt.Errorf("%w: spectral selection %d..%d, approximation 0x%02X",
			common.ErrInvalidSOS, ss, se, ahal)
	}

	if !d.sawDHT && d.dcTables[0] == nil {
		d.dcTables, d.acTables = common.DefaultHuffmanTables()
		codec.Logger().Debug("jpeg: no DHT segment, using standard Huffman tables")
	}

	scan := &scanHeader{}
	for i := 0; i < ns; i++ {
		cs := data[1+i*2]      // Component selector
		tdTa := data[1+i*2+1]  // DC and AC table selectors
		td := int(tdTa >> 4)   // DC table
		ta := int(tdTa & 0x0F) // AC table
		if td > 3 || ta > 3 {
			return nil, common.ErrInvalidSOS
		}

		idx := -1
		for j, c := range d.components {
			if c.ID == cs {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: unknown component %d", common.ErrInvalidSOS, cs)
		}
		for _, prev := range scan.index {
			if prev == idx {
				return nil, fmt.Errorf("%w: component %d repeated", common.ErrInvalidSOS, cs)
			}
		}

		comp := d.components[idx]
		if d.dcTables[td] == nil || d.acTables[ta] == nil {
			return nil, fmt.Errorf("%w: component %d uses DC%d/AC%d", common.ErrMissingHuffman, cs, td, ta)
		}
		if !d.qdefined[comp.Tq] {
			return nil, fmt.Errorf("%w: table %d not defined", common.ErrInvalidDQT, comp.Tq)
		}
		comp.dcTableSelector = td
		comp.acTableSelector = ta
		scan.comps = append(scan.comps, comp)
		scan.index = append(scan.index, idx)
	}

	if ns > 1 {
		blocks := 0
		for _, c := range scan.comps {
			blocks += c.H * c.V
		}
		if blocks > 10 {
			return nil, fmt.Errorf("%w: %d blocks per MCU", common.ErrInvalidSOS, blocks)
		}
	}
	return scan, nil
}

// maxPlaneBytes bounds the sample planes of one frame, budget or not.
const maxPlaneBytes = 1<<31 - 1

// allocPlanes allocates the component planes on the first scan. Headers
// alone never cost more than their own bytes.
func (d *Decoder) allocPlanes() error {
	if d.components[0].data != nil {
		return nil
	}
	total := 0
	for _, comp := range d.components {
		if comp.blocksW > (maxPlaneBytes-total)/64/comp.blocksH {
			return fmt.Errorf("%w: %dx%d", codec.ErrImageTooLarge, d.width, d.height)
		}
		total += comp.blocksW * comp.blocksH * 64
	}
	for _, comp := range d.components {
		comp.data = make([]byte, comp.blocksW*comp.blocksH*64)
	}
	return nil
}

// decodeScan decodes the entropy-coded data of one scan
func (d *Decoder) decodeScan(reader *common.Reader, scan *scanHeader) error {
	intervals, restarts, err := reader.ScanData()
	if err != nil {
		return err
	}
	if d.restartInt == 0 && len(intervals) > 1 {
		return fmt.Errorf("%w: RST marker without restart interval", common.ErrInvalidRestart)
	}
	if err := d.allocPlanes(); err != nil {
		return err
	}

	for _, c := range scan.comps {
		c.dcPred = 0
	}

	// A single-component scan codes one block per MCU over the component's
	// own block grid; interleaved scans follow the frame MCU grid.
	mcuCols, mcuRows := d.mcuCols, d.mcuRows
	if len(scan.comps) == 1 {
		mcuCols, mcuRows = scan.comps[0].scanW, scan.comps[0].scanH
	}

	huffDec := common.NewHuffmanDecoder(intervals[0])
	interval := 0
	mcu := 0
	for mcuY := 0; mcuY < mcuRows; mcuY++ {
		for mcuX := 0; mcuX < mcuCols; mcuX++ {
			if d.restartInt > 0 && mcu > 0 && mcu%d.restartInt == 0 {
				if interval >= len(restarts) {
					return fmt.Errorf("%w: missing RST after MCU %d", common.ErrInvalidRestart, mcu)
				}
				if restarts[interval] != interval%8 {
					return fmt.Errorf("%w: got RST%d, want RST%d", common.ErrInvalidRestart, restarts[interval], interval%8)
				}
				interval++
				huffDec.Reset(intervals[interval])
				for _, c := range scan.comps {
					c.dcPred = 0
				}
			}

			if len(scan.comps) == 1 {
				if err := d.decodeBlock(huffDec, scan.index[0], mcuX, mcuY); err != nil {
					return err
				}
			} else {
				for i, comp := range scan.comps {
					for v := 0; v < comp.V; v++ {
						for h := 0; h < comp.H; h++ {
							if err := d.decodeBlock(huffDec, scan.index[i], mcuX*comp.H+h, mcuY*comp.V+v); err != nil {
								return err
							}
						}
					}
				}
			}
			mcu++
		}
	}

	if interval != len(intervals)-1 {
		return fmt.Errorf("%w: %d restart intervals, used %d", common.ErrInvalidRestart, len(intervals), interval+1)
	}
	d.sawSOS = true
	return nil
}

// decodeBlock decodes a single 8x8 block
func (d *Decoder) decodeBlock(huffDec *common.HuffmanDecoder, compIndex, blockX, blockY int) error {
	comp := d.components[compIndex]
	qtable := &d.qtables[comp.Tq]
	var coef [64]int32

	// Decode DC coefficient
	s, err := huffDec.Decode(d.dcTables[comp.dcTableSelector])
	if err != nil {
		return err
	}
	if s > 11 {
		return fmt.Errorf("%w: DC category %d", common.ErrHuffmanDecode, s)
	}
	diff, err := huffDec.ReceiveExtend(int(s))
	if err != nil {
		return err
	}
	comp.dcPred += diff
	coef[0] = comp.dcPred * qtable[0]
	if d.observe != nil {
		d.observe(compIndex, blockX, blockY, diff, comp.dcPred)
	}

	// Decode AC coefficients
	acTable := d.acTables[comp.acTableSelector]
	for k := 1; k < 64; {
		rs, err := huffDec.Decode(acTable)
		if err != nil {
			return err
		}

		r := int(rs >> 4)   // Run length of zeros
		s := int(rs & 0x0F) // Coefficient size

		if s == 0 {
			if r != 15 {
				// EOB: end of block
				break
			}
			// ZRL: skip 16 zeros
			k += 16
			if k > 64 {
				return common.ErrCoefficientSpan
			}
			continue
		}

		k += r
		if k > 63 {
			return common.ErrCoefficientSpan
		}
		val, err := huffDec.ReceiveExtend(s)
		if err != nil {
			return err
		}
		z := common.ZigZag[k]
		coef[z] = val * qtable[z]
		k++
	}

	stride := comp.stride()
	common.IDCT(&coef, comp.data[blockY*8*stride+blockX*8:], stride)
	return nil
}

// isRGB reports whether a three-component image stores RGB directly.
func (d *Decoder) isRGB() bool {
	if d.adobe {
		return d.adobeTransform == adobeTransformNone
	}
	c := d.components
	return c[0].ID == 'R' && c[1].ID == 'G' && c[2].ID == 'B'
}

// sample returns component c at image position (x, y), nearest neighbour.
func (d *Decoder) sample(c *Component, x, y int) byte {
	sx := x * c.H / d.maxH
	sy := y * c.V / d.maxV
	return c.data[sy*c.stride()+sx]
}

// toGray returns the luma plane cropped to the image size.
func (d *Decoder) toGray() []byte {
	comp := d.components[0]
	out := make([]byte, d.width*d.height)
	for y := 0; y < d.height; y++ {
		copy(out[y*d.width:(y+1)*d.width], comp.data[y*comp.stride():])
	}
	return out
}

// toRGBA converts component data to interleaved RGBA8 pixels
func (d *Decoder) toRGBA() (*raster.Image, error) {
	img, err := raster.New(d.width, d.height, d.maxPixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d", codec.ErrImageTooLarge, d.width, d.height)
	}

	comps := d.components
	switch len(comps) {
	case 1:
		comp := comps[0]
		for y := 0; y < d.height; y++ {
			row := comp.data[y*comp.stride():]
			for x := 0; x < d.width; x++ {
				v := row[x]
				img.Set(x, y, v, v, v, 255)
			}
		}

	case 3:
		rgb := d.isRGB()
		for y := 0; y < d.height; y++ {
			for x := 0; x < d.width; x++ {
				c0 := d.sample(comps[0], x, y)
				c1 := d.sample(comps[1], x, y)
				c2 := d.sample(comps[2], x, y)
				if rgb {
					img.Set(x, y, c0, c1, c2, 255)
					continue
				}
				r, g, b := raster.YCbCrToRGB(c0, c1, c2)
				img.Set(x, y, r, g, b, 255)
			}
		}

	case 4:
		// Adobe stores CMYK inverted; YCCK carries inverted CMY as YCbCr.
		ycck := d.adobe && d.adobeTransform == adobeTransformYCCK
		for y := 0; y < d.height; y++ {
			for x := 0; x < d.width; x++ {
				c0 := d.sample(comps[0], x, y)
				c1 := d.sample(comps[1], x, y)
				c2 := d.sample(comps[2], x, y)
				k := d.sample(comps[3], x, y)
				if ycck {
					c0, c1, c2 = raster.YCbCrToRGB(c0, c1, c2)
				}
				r, g, b := raster.CMYKToRGB(c0, c1, c2, k)
				img.Set(x, y, r, g, b, 255)
			}
		}
	}
	return img, nil
}
