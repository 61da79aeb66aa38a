// Package huffman builds canonical Huffman codes from code-length arrays and
// decodes symbols from a bitio.Reader through a flat two-level lookup table.
//
// The first level is indexed by the next FirstBits bits of the stream. Codes
// no longer than FirstBits are replicated across every slot they prefix.
// Longer codes share a first-level slot that records the longest residual
// length and the base offset of an overflow region in the same arena.
package huffman

import (
	"errors"
	"fmt"

	"github.com/cocosip/go-image-codec/bitio"
)

const (
	// FirstBits is the number of bits resolved by the first-level table.
	FirstBits = 9

	// InvalidSymbol is returned by DecodeSymbol for bit patterns that do not
	// map to any symbol.
	InvalidSymbol = 0xFFFF

	// MaxCodeLength is the longest code length accepted by Build.
	MaxCodeLength = 16
)

var (
	// ErrInvalidLengths is returned when a length array cannot describe a prefix code.
	ErrInvalidLengths = errors.New("huffman: invalid code lengths")
)

type entry struct {
	length uint8
	// value is a symbol, or an arena offset for first-level slots of long codes.
	value uint32
}

// Tree is a canonical Huffman code plus its lookup table.
type Tree struct {
	order      bitio.Order
	lengths    []uint8
	codes      []uint32
	table      []entry
	numSymbols int
	maxLen     int
	complete   bool
	single     bool
}

// Build constructs the canonical code described by lengths, where lengths[s]
// is the code length of symbol s and zero means the symbol is unused.
// Lengths must not exceed maxLen. The lookup table is keyed for reading
// with the given bit order: MSB streams see codes as written, LSB streams
// see them bit-reversed.
func Build(lengths []uint8, maxLen int, order bitio.Order) (*Tree, error) {
	if maxLen < 1 || maxLen > MaxCodeLength {
		return nil, fmt.Errorf("%w: max length %d", ErrInvalidLengths, maxLen)
	}
	if len(lengths) > InvalidSymbol {
		return nil, fmt.Errorf("%w: %d symbols", ErrInvalidLengths, len(lengths))
	}

	blCount := make([]int, maxLen+1)
	numSymbols := 0
	for s, l := range lengths {
		if int(l) > maxLen {
			return nil, fmt.Errorf("%w: symbol %d has length %d > %d", ErrInvalidLengths, s, l, maxLen)
		}
		if l != 0 {
			blCount[l]++
			numSymbols++
		}
	}
	if numSymbols == 0 {
		return nil, fmt.Errorf("%w: no symbols", ErrInvalidLengths)
	}

	// Kraft inequality: reject oversubscribed sets.
	left := 1
	for l := 1; l <= maxLen; l++ {
		left <<= 1
		left -= blCount[l]
		if left < 0 {
			return nil, fmt.Errorf("%w: oversubscribed at length %d", ErrInvalidLengths, l)
		}
	}

	nextCode := make([]uint32, maxLen+1)
	code := uint32(0)
	for l := 1; l <= maxLen; l++ {
		code = (code + uint32(blCount[l-1])) << 1
		nextCode[l] = code
	}

	t := &Tree{
		order:      order,
		lengths:    append([]uint8(nil), lengths...),
		codes:      make([]uint32, len(lengths)),
		numSymbols: numSymbols,
		complete:   left == 0,
	}
	for s, l := range lengths {
		if l == 0 {
			continue
		}
		t.codes[s] = nextCode[l]
		nextCode[l]++
		if int(l) > t.maxLen {
			t.maxLen = int(l)
		}
	}

	t.buildTable()
	return t, nil
}

// Single returns a tree with one symbol that is decoded without consuming
// any bits.
func Single(symbol uint16, order bitio.Order) *Tree {
	lengths := make([]uint8, int(symbol)+1)
	t := &Tree{
		order:      order,
		lengths:    lengths,
		codes:      make([]uint32, len(lengths)),
		numSymbols: 1,
		complete:   true,
		single:     true,
		table:      make([]entry, 1<<FirstBits),
	}
	for i := range t.table {
		t.table[i] = entry{length: 0, value: uint32(symbol)}
	}
	return t
}

// key returns the bits of a code as the reader will present them.
func (t *Tree) key(code uint32, length int) uint32 {
	if t.order == bitio.LSB {
		return bitio.Reverse(code, length)
	}
	return code
}

// firstIndex returns the first-level slot for a code longer than FirstBits.
func (t *Tree) firstIndex(code uint32, length int) uint32 {
	if t.order == bitio.LSB {
		return bitio.Reverse(code, length) & (1<<FirstBits - 1)
	}
	return code >> uint(length-FirstBits)
}

func (t *Tree) buildTable() {
	const firstSize = 1 << FirstBits

	// Longest residual per first-level slot.
	maxLens := make([]int, firstSize)
	for s, l8 := range t.lengths {
		l := int(l8)
		if l <= FirstBits {
			continue
		}
		idx := t.firstIndex(t.codes[s], l)
		if l > maxLens[idx] {
			maxLens[idx] = l
		}
	}

	size := firstSize
	for _, l := range maxLens {
		if l > FirstBits {
			size += 1 << uint(l-FirstBits)
		}
	}

	t.table = make([]entry, size)
	for i := 0; i < firstSize; i++ {
		t.table[i] = entry{length: 1, value: InvalidSymbol}
	}
	for i := firstSize; i < size; i++ {
		t.table[i] = entry{length: FirstBits + 1, value: InvalidSymbol}
	}

	// Allocate overflow regions in slot order.
	base := firstSize
	for i, l := range maxLens {
		if l <= FirstBits {
			continue
		}
		t.table[i] = entry{length: uint8(l), value: uint32(base)}
		base += 1 << uint(l-FirstBits)
	}

	for s, l8 := range t.lengths {
		l := int(l8)
		if l == 0 {
			continue
		}
		code := t.codes[s]
		if l <= FirstBits {
			k := t.key(code, l)
			if t.order == bitio.LSB {
				// Free high bits vary.
				for j := uint32(0); j < 1<<uint(FirstBits-l); j++ {
					t.table[k|j<<uint(l)] = entry{length: uint8(l), value: uint32(s)}
				}
			} else {
				// Free low bits vary.
				start := k << uint(FirstBits-l)
				for j := uint32(0); j < 1<<uint(FirstBits-l); j++ {
					t.table[start|j] = entry{length: uint8(l), value: uint32(s)}
				}
			}
			continue
		}

		slot := t.table[t.firstIndex(code, l)]
		tableLen := int(slot.length) - FirstBits
		start := int(slot.value)
		residual := l - FirstBits
		free := tableLen - residual
		if t.order == bitio.LSB {
			sub := bitio.Reverse(code, l) >> FirstBits
			for j := 0; j < 1<<uint(free); j++ {
				t.table[start+(int(sub)|j<<uint(residual))] = entry{length: uint8(l), value: uint32(s)}
			}
		} else {
			sub := code & (1<<uint(residual) - 1)
			for j := 0; j < 1<<uint(free); j++ {
				t.table[start+int(sub<<uint(free))+j] = entry{length: uint8(l), value: uint32(s)}
			}
		}
	}
}

// NumSymbols returns the number of symbols with a non-zero code length.
func (t *Tree) NumSymbols() int {
	return t.numSymbols
}

// Complete reports whether the code uses the whole code space.
func (t *Tree) Complete() bool {
	return t.complete
}

// IsSingle reports whether the tree decodes one symbol using zero bits.
func (t *Tree) IsSingle() bool {
	return t.single
}

// Code returns the canonical code and length of symbol s. The code is given
// MSB-first; length is zero for unused symbols.
func (t *Tree) Code(s int) (code uint32, length int) {
	if s < 0 || s >= len(t.lengths) {
		return 0, 0
	}
	return t.codes[s], int(t.lengths[s])
}

// TableSize returns the number of entries of the lookup arena.
func (t *Tree) TableSize() int {
	return len(t.table)
}
