package vp8l

import (
	"fmt"

	"github.com/cocosip/go-image-codec/bitio"
	"github.com/cocosip/go-image-codec/huffman"
)

const (
	numLiteralCodes  = 256
	numLengthCodes   = 24
	numDistanceCodes = 40
	maxCacheBits     = 11

	numCodeLengthCodes    = 19
	maxCodeLengthCodeLen  = 7
	maxCodeLength         = 15
	defaultCodeLength     = 8
	codeLengthRepeatFirst = 16
)

// Trees of one group, in bitstream order.
const (
	greenTree = iota
	redTree
	blueTree
	alphaTree
	distanceTree
	treesPerGroup
)

// codeLengthCodeOrder is the order in which the code-length code lengths
// are stored.
var codeLengthCodeOrder = [numCodeLengthCodes]int{
	17, 18, 0, 1, 2, 3, 4, 5, 16, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Extra bits and base repeat counts of code-length symbols 16, 17 and 18.
var (
	codeLengthExtraBits     = [3]int{2, 3, 7}
	codeLengthRepeatOffsets = [3]int{3, 3, 11}
)

var alphabetSizes = [treesPerGroup]int{
	numLiteralCodes + numLengthCodes,
	numLiteralCodes,
	numLiteralCodes,
	numLiteralCodes,
	numDistanceCodes,
}

// htreeGroup holds the five prefix codes used for one region of the image.
type htreeGroup [treesPerGroup]*huffman.Tree

// readHuffmanCodes reads the optional entropy image and every Huffman
// group. The returned meta slice maps each tile to an index into groups
// and is nil when the whole image uses one group.
func (d *decoder) readHuffmanCodes(xsize, ysize, cacheBits int, allowMeta bool) (groups []htreeGroup, meta []uint32, bits int, err error) {
	numGroups := 1
	if allowMeta && d.br.ReadBit() {
		bits = int(d.br.ReadBits(3)) + 2
		meta, err = d.decodeImageStream(subSampleSize(xsize, bits), subSampleSize(ysize, bits), false)
		if err != nil {
			return nil, nil, 0, err
		}
		for i, p := range meta {
			meta[i] = (p >> 8) & 0xffff
			if int(meta[i]) >= numGroups {
				numGroups = int(meta[i]) + 1
			}
		}
	}
	if d.br.Overrun() {
		return nil, nil, 0, ErrTruncated
	}

	// Groups nobody references are parsed and dropped.
	mapping := make([]int, numGroups)
	used := 0
	if meta == nil {
		used = 1
	} else {
		for i := range mapping {
			mapping[i] = -1
		}
		for i, g := range meta {
			if mapping[g] < 0 {
				mapping[g] = used
				used++
			}
			meta[i] = uint32(mapping[g])
		}
	}

	groups = make([]htreeGroup, used)
	for g := 0; g < numGroups; g++ {
		grp, err := d.readHtreeGroup(cacheBits)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("group %d: %w", g, err)
		}
		if mapping[g] >= 0 {
			groups[mapping[g]] = grp
		}
	}
	return groups, meta, bits, nil
}

func (d *decoder) readHtreeGroup(cacheBits int) (htreeGroup, error) {
	var g htreeGroup
	for i := range g {
		size := alphabetSizes[i]
		if i == greenTree && cacheBits > 0 {
			size += 1 << uint(cacheBits)
		}
		t, err := d.readHuffmanCode(size)
		if err != nil {
			return g, err
		}
		g[i] = t
	}
	return g, nil
}

// readHuffmanCode reads one prefix code over an alphabet of the given size.
func (d *decoder) readHuffmanCode(alphabetSize int) (*huffman.Tree, error) {
	lengths := make([]uint8, alphabetSize)

	if d.br.ReadBit() {
		// Simple code: one or two symbols of length 1.
		numSymbols := int(d.br.ReadBits(1)) + 1
		firstBits := 1
		if d.br.ReadBit() {
			firstBits = 8
		}
		s0 := int(d.br.ReadBits(firstBits))
		if s0 >= alphabetSize {
			return nil, fmt.Errorf("%w: symbol %d outside alphabet of %d", ErrInvalidCodeLengths, s0, alphabetSize)
		}
		lengths[s0] = 1
		if numSymbols == 2 {
			s1 := int(d.br.ReadBits(8))
			if s1 >= alphabetSize {
				return nil, fmt.Errorf("%w: symbol %d outside alphabet of %d", ErrInvalidCodeLengths, s1, alphabetSize)
			}
			lengths[s1] = 1
		}
		if d.br.Overrun() {
			return nil, ErrTruncated
		}
		return buildTree(lengths, 1)
	}

	var clLengths [numCodeLengthCodes]uint8
	n := int(d.br.ReadBits(4)) + 4
	for i := 0; i < n; i++ {
		clLengths[codeLengthCodeOrder[i]] = uint8(d.br.ReadBits(3))
	}
	if d.br.Overrun() {
		return nil, ErrTruncated
	}
	clTree, err := buildTree(clLengths[:], maxCodeLengthCodeLen)
	if err != nil {
		return nil, err
	}
	if err := d.readCodeLengths(clTree, lengths); err != nil {
		return nil, err
	}
	return buildTree(lengths, maxCodeLength)
}

// readCodeLengths decodes the run-length coded length array of a normal
// prefix code.
func (d *decoder) readCodeLengths(clTree *huffman.Tree, lengths []uint8) error {
	maxSymbol := len(lengths)
	if d.br.ReadBit() {
		nbits := 2 + 2*int(d.br.ReadBits(3))
		maxSymbol = 2 + int(d.br.ReadBits(nbits))
		if maxSymbol > len(lengths) {
			return fmt.Errorf("%w: max symbol %d exceeds alphabet of %d", ErrInvalidCodeLengths, maxSymbol, len(lengths))
		}
	}

	prev := uint8(defaultCodeLength)
	for s := 0; s < len(lengths); {
		if maxSymbol == 0 {
			break
		}
		maxSymbol--
		if d.br.Overrun() {
			return ErrTruncated
		}

		c := huffman.DecodeSymbol(d.br, clTree)
		if c == huffman.InvalidSymbol {
			return ErrInvalidSymbol
		}
		if c < codeLengthRepeatFirst {
			lengths[s] = uint8(c)
			s++
			if c != 0 {
				prev = uint8(c)
			}
			continue
		}

		slot := int(c) - codeLengthRepeatFirst
		repeat := int(d.br.ReadBits(codeLengthExtraBits[slot])) + codeLengthRepeatOffsets[slot]
		if s+repeat > len(lengths) {
			return fmt.Errorf("%w: repeat of %d past symbol %d", ErrInvalidCodeLengths, repeat, len(lengths))
		}
		l := uint8(0)
		if c == codeLengthRepeatFirst {
			l = prev
		}
		for ; repeat > 0; repeat-- {
			lengths[s] = l
			s++
		}
	}
	if d.br.Overrun() {
		return ErrTruncated
	}
	return nil
}

// buildTree turns a length array into a decoding tree. A single used
// symbol yields a zero-bit code; otherwise the code must be complete.
func buildTree(lengths []uint8, maxLen int) (*huffman.Tree, error) {
	used, last := 0, 0
	for s, l := range lengths {
		if l != 0 {
			used++
			last = s
		}
	}
	switch used {
	case 0:
		return nil, fmt.Errorf("%w: empty code", ErrInvalidCodeLengths)
	case 1:
		return huffman.Single(uint16(last), bitio.LSB), nil
	}

	t, err := huffman.Build(lengths, maxLen, bitio.LSB)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCodeLengths, err)
	}
	if !t.Complete() {
		return nil, fmt.Errorf("%w: incomplete code", ErrInvalidCodeLengths)
	}
	return t, nil
}
