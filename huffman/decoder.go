package huffman

import "github.com/cocosip/go-image-codec/bitio"

// DecodeSymbol reads one symbol from r. It returns InvalidSymbol when the
// bits do not form a valid code; callers must treat that as corrupt input.
func DecodeSymbol(r *bitio.Reader, t *Tree) uint16 {
	r.EnsureBits(FirstBits)
	e := t.table[r.PeekBits(FirstBits)]
	if e.length <= FirstBits {
		r.AdvanceBits(int(e.length))
		return uint16(e.value)
	}

	r.AdvanceBits(FirstBits)
	residual := int(e.length) - FirstBits
	idx := int(e.value) + int(r.PeekBits(residual))
	if idx >= len(t.table) {
		return InvalidSymbol
	}
	e = t.table[idx]
	r.AdvanceBits(int(e.length) - FirstBits)
	return uint16(e.value)
}

// Encode writes symbol s with its canonical code. It is the inverse of
// DecodeSymbol and returns false for symbols without a code.
func Encode(w *bitio.Writer, t *Tree, s int) bool {
	if t.single {
		return s == len(t.lengths)-1
	}
	code, length := t.Code(s)
	if length == 0 {
		return false
	}
	w.WriteCode(code, length)
	return true
}
