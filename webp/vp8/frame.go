package vp8

import (
	"fmt"

	"github.com/cocosip/go-image-codec/bitio"
	"github.com/cocosip/go-image-codec/raster"
)

const (
	numSegments   = 4
	numRefDeltas  = 4
	numModeDeltas = 4

	// Token probability planes.
	planeY1WithY2 = 0 // Luma AC of 16x16 predicted macroblocks
	planeY2       = 1
	planeUV       = 2
	planeY1       = 3 // Luma of 4x4 predicted macroblocks

	numPlanes   = 4
	numBands    = 8
	numContexts = 3
	numProbs    = 11
)

type segmentHeader struct {
	enabled   bool
	updateMap bool
	absolute  bool
	quantizer [numSegments]int
	level     [numSegments]int
	probs     [3]uint8
}

type filterHeader struct {
	simple    bool
	level     int
	sharpness int
	useDeltas bool
	refDelta  [numRefDeltas]int
	modeDelta [numModeDeltas]int
}

// quantMatrix holds the DC and AC dequantization factors of one segment.
type quantMatrix struct {
	y1, y2, uv [2]int32
}

type tokenProbs [numPlanes][numBands][numContexts][numProbs]uint8

// parseFrameHeader reads the frame-level fields of the first partition and
// splits the token partitions out of rest.
func (d *decoder) parseFrameHeader(rest []byte) error {
	fp := d.fp

	d.colorSpace = fp.readLiteral(1)
	d.clampType = fp.readLiteral(1)
	d.parseSegmentHeader()
	d.parseFilterHeader()
	if err := d.parsePartitions(rest); err != nil {
		return err
	}
	d.parseQuant()

	// The refresh_entropy_probs flag only matters for later frames.
	fp.readFlag()

	d.probs = defaultCoeffProbs
	for t := range d.probs {
		for b := range d.probs[t] {
			for c := range d.probs[t][b] {
				for p := range d.probs[t][b][c] {
					if fp.readBool(coeffUpdateProbs[t][b][c][p]) {
						d.probs[t][b][c][p] = uint8(fp.readLiteral(8))
					}
				}
			}
		}
	}

	d.useSkipProb = fp.readFlag()
	if d.useSkipProb {
		d.skipProb = uint8(fp.readLiteral(8))
	}
	if fp.eof {
		return fmt.Errorf("%w: frame header", ErrTruncated)
	}
	return nil
}

func (d *decoder) parseSegmentHeader() {
	fp, s := d.fp, &d.segment
	s.absolute = true
	s.enabled = fp.readFlag()
	if !s.enabled {
		return
	}
	s.updateMap = fp.readFlag()
	if fp.readFlag() {
		s.absolute = fp.readFlag()
		for i := range s.quantizer {
			s.quantizer[i] = fp.readOptionalSigned(7)
		}
		for i := range s.level {
			s.level[i] = fp.readOptionalSigned(6)
		}
	}
	if s.updateMap {
		for i := range s.probs {
			s.probs[i] = 255
			if fp.readFlag() {
				s.probs[i] = uint8(fp.readLiteral(8))
			}
		}
	}
}

func (d *decoder) parseFilterHeader() {
	fp, f := d.fp, &d.filter
	f.simple = fp.readFlag()
	f.level = fp.readLiteral(6)
	f.sharpness = fp.readLiteral(3)
	f.useDeltas = fp.readFlag()
	if f.useDeltas && fp.readFlag() {
		for i := range f.refDelta {
			if fp.readFlag() {
				f.refDelta[i] = fp.readSigned(6)
			}
		}
		for i := range f.modeDelta {
			if fp.readFlag() {
				f.modeDelta[i] = fp.readSigned(6)
			}
		}
	}
}

// parsePartitions reads the partition count and the 3-byte sizes of all
// token partitions but the last, which takes the remaining bytes.
func (d *decoder) parsePartitions(rest []byte) error {
	n := 1 << uint(d.fp.readLiteral(2))
	sizesLen := 3 * (n - 1)
	if len(rest) < sizesLen {
		return fmt.Errorf("%w: %d partitions in %d bytes", ErrInvalidPartitions, n, len(rest))
	}
	data := rest[sizesLen:]
	d.parts = make([]*boolDecoder, n)
	for i := 0; i < n-1; i++ {
		size, _ := bitio.Uint24LE(rest, 3*i)
		if int(size) > len(data) {
			return fmt.Errorf("%w: partition %d of %d bytes, %d left", ErrInvalidPartitions, i, size, len(data))
		}
		d.parts[i] = newBoolDecoder(data[:size])
		data = data[size:]
	}
	d.parts[n-1] = newBoolDecoder(data)
	return nil
}

func (d *decoder) parseQuant() {
	fp := d.fp
	base := fp.readLiteral(7)
	y1dc := fp.readOptionalSigned(4)
	y2dc := fp.readOptionalSigned(4)
	y2ac := fp.readOptionalSigned(4)
	uvdc := fp.readOptionalSigned(4)
	uvac := fp.readOptionalSigned(4)

	for i := range d.quant {
		q := base
		if d.segment.enabled {
			q = d.segment.quantizer[i]
			if !d.segment.absolute {
				q += base
			}
		}
		m := &d.quant[i]
		m.y1[0] = int32(dcTable[raster.Clamp(q+y1dc, 0, 127)])
		m.y1[1] = int32(acTable[raster.Clamp(q, 0, 127)])
		m.y2[0] = int32(dcTable[raster.Clamp(q+y2dc, 0, 127)]) * 2
		// x*155/100 equals (x*101581)>>16 over the whole table.
		m.y2[1] = int32(acTable[raster.Clamp(q+y2ac, 0, 127)]) * 101581 >> 16
		if m.y2[1] < 8 {
			m.y2[1] = 8
		}
		m.uv[0] = int32(dcTable[raster.Clamp(q+uvdc, 0, 117)])
		m.uv[1] = int32(acTable[raster.Clamp(q+uvac, 0, 127)])
	}
}
