package common

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/cocosip/go-image-codec/codec"
)

func TestStandardTablesBuild(t *testing.T) {
	dc, ac := DefaultHuffmanTables()
	for i := 0; i < 2; i++ {
		if dc[i] == nil || ac[i] == nil {
			t.Fatalf("default table %d missing", i)
		}
	}

	tests := []struct {
		name   string
		table  *HuffmanTable
		value  byte
		code   uint32
		length int
	}{
		{"DC lum cat 0", dc[0], 0, 0b00, 2},
		{"DC lum cat 1", dc[0], 1, 0b010, 3},
		{"DC lum cat 6", dc[0], 6, 0b1110, 4},
		{"DC lum cat 7", dc[0], 7, 0b11110, 5},
		{"DC chroma cat 0", dc[1], 0, 0b00, 2},
		{"AC lum 0x01", ac[0], 0x01, 0b00, 2},
		{"AC lum EOB", ac[0], 0x00, 0b1010, 4},
		{"AC lum ZRL", ac[0], 0xF0, 0b11111111001, 11},
		{"AC chroma EOB", ac[1], 0x00, 0b00, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, length, ok := tt.table.Code(tt.value)
			if !ok {
				t.Fatalf("no code for 0x%02x", tt.value)
			}
			if code != tt.code || length != tt.length {
				t.Errorf("code = %b/%d, want %b/%d", code, length, tt.code, tt.length)
			}
		})
	}
}

func TestHuffmanTableBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		table HuffmanTable
	}{
		{"empty", HuffmanTable{}},
		{"count mismatch", HuffmanTable{Bits: [16]int{0, 2}, Values: []byte{1}}},
		{"oversubscribed", HuffmanTable{Bits: [16]int{3}, Values: []byte{1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Build()
			if !errors.Is(err, ErrInvalidDHT) {
				t.Fatalf("Build() = %v, want ErrInvalidDHT", err)
			}
			if !errors.Is(err, codec.ErrInvalidHuffmanTable) {
				t.Errorf("error %v does not wrap codec.ErrInvalidHuffmanTable", err)
			}
		})
	}
}

func TestHuffmanRoundTrip(t *testing.T) {
	dc, ac := DefaultHuffmanTables()

	blocks := []struct {
		diff  int32
		block [64]int32
	}{
		{diff: 0},
		{diff: 72},
		{diff: -300},
		{diff: 5, block: [64]int32{1: 3, 8: -2, 63: 1}},
		{diff: -1, block: [64]int32{2: 1023, 40: -7}},
	}

	enc := NewHuffmanEncoder()
	for i := range blocks {
		if err := enc.EncodeBlock(dc[0], ac[0], blocks[i].diff, &blocks[i].block); err != nil {
			t.Fatalf("EncodeBlock(%d): %v", i, err)
		}
	}
	data := unstuff(enc.Flush())

	dec := NewHuffmanDecoder(data)
	for i, want := range blocks {
		s, err := dec.Decode(dc[0])
		if err != nil {
			t.Fatalf("block %d DC: %v", i, err)
		}
		diff, err := dec.ReceiveExtend(int(s))
		if err != nil {
			t.Fatalf("block %d DC bits: %v", i, err)
		}
		if diff != want.diff {
			t.Errorf("block %d diff = %d, want %d", i, diff, want.diff)
		}

		var got [64]int32
		for k := 1; k < 64; {
			rs, err := dec.Decode(ac[0])
			if err != nil {
				t.Fatalf("block %d AC: %v", i, err)
			}
			r, s := int(rs>>4), int(rs&0x0F)
			if s == 0 {
				if r != 15 {
					break
				}
				k += 16
				continue
			}
			k += r
			v, err := dec.ReceiveExtend(s)
			if err != nil {
				t.Fatalf("block %d AC bits: %v", i, err)
			}
			got[ZigZag[k]] = v
			k++
		}
		if got != want.block {
			t.Errorf("block %d AC mismatch: got %v, want %v", i, got, want.block)
		}
	}
}

func unstuff(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte{0xFF, 0x00}, []byte{0xFF})
}

func TestDecodeOverrun(t *testing.T) {
	dc, _ := DefaultHuffmanTables()
	// '11110' selects category 7, whose extra bits run past the end.
	dec := NewHuffmanDecoder([]byte{0xF0})
	s, err := dec.Decode(dc[0])
	if err != nil || s != 7 {
		t.Fatalf("Decode = %d, %v; want 7", s, err)
	}
	if _, err := dec.ReceiveExtend(int(s)); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("ReceiveExtend past end = %v, want ErrUnexpectedEOF", err)
	}
}

func TestDecodeInvalidSymbol(t *testing.T) {
	// Two codes of length 2 leave half of the code space unused.
	table := &HuffmanTable{Bits: [16]int{0, 2}, Values: []byte{3, 4}}
	if err := table.Build(); err != nil {
		t.Fatal(err)
	}
	dec := NewHuffmanDecoder([]byte{0xC0})
	if _, err := dec.Decode(table); !errors.Is(err, codec.ErrInvalidSymbol) {
		t.Errorf("Decode = %v, want ErrInvalidSymbol", err)
	}
}

func TestExtend(t *testing.T) {
	tests := []struct {
		v    int32
		ssss int
		want int32
	}{
		{0, 1, -1},
		{1, 1, 1},
		{0, 3, -7},
		{3, 3, -4},
		{4, 3, 4},
		{7, 3, 7},
		{72, 7, 72},
		{0, 11, -2047},
	}
	for _, tt := range tests {
		if got := Extend(tt.v, tt.ssss); got != tt.want {
			t.Errorf("Extend(%d, %d) = %d, want %d", tt.v, tt.ssss, got, tt.want)
		}
		if tt.want != 0 {
			cat, bits := EncodeCategory(tt.want)
			if cat != tt.ssss || int32(bits) != tt.v {
				t.Errorf("EncodeCategory(%d) = %d/%d, want %d/%d", tt.want, cat, bits, tt.ssss, tt.v)
			}
		}
	}
}

func TestReaderMarkers(t *testing.T) {
	data := []byte{
		0xFF, 0xD8,
		0xFF, 0xFF, 0xFE, 0x00, 0x04, 'h', 'i',
		0xFF, 0x00,
	}
	r := NewReader(data)

	m, err := r.ReadMarker()
	if err != nil || m != MarkerSOI {
		t.Fatalf("first marker = %04x, %v", m, err)
	}
	m, err = r.ReadMarker()
	if err != nil || m != MarkerCOM {
		t.Fatalf("fill bytes not skipped: %04x, %v", m, err)
	}
	seg, err := r.ReadSegment()
	if err != nil || string(seg) != "hi" {
		t.Fatalf("segment = %q, %v", seg, err)
	}
	if _, err := r.ReadMarker(); !errors.Is(err, ErrInvalidMarker) {
		t.Errorf("stuffed byte accepted as marker: %v", err)
	}
}

func TestReaderSegmentTruncated(t *testing.T) {
	r := NewReader([]byte{0x00, 0x10, 1, 2, 3})
	if _, err := r.ReadSegment(); !errors.Is(err, codec.ErrMalformed) {
		t.Errorf("ReadSegment = %v, want malformed", err)
	}
	r = NewReader([]byte{0x00, 0x01})
	if _, err := r.ReadSegment(); !errors.Is(err, ErrInvalidData) {
		t.Errorf("short length = %v, want ErrInvalidData", err)
	}
}

func TestScanData(t *testing.T) {
	data := []byte{
		0x12, 0xFF, 0x00, 0x34,
		0xFF, 0xD0,
		0x56,
		0xFF, 0xD1,
		0x78, 0xFF, 0xFF, 0xD9,
	}
	r := NewReader(data)
	intervals, restarts, err := r.ScanData()
	if err != nil {
		t.Fatal(err)
	}

	want := [][]byte{{0x12, 0xFF, 0x34}, {0x56}, {0x78}}
	if len(intervals) != len(want) {
		t.Fatalf("got %d intervals, want %d", len(intervals), len(want))
	}
	for i := range want {
		if !bytes.Equal(intervals[i], want[i]) {
			t.Errorf("interval %d = % x, want % x", i, intervals[i], want[i])
		}
	}
	if len(restarts) != 2 || restarts[0] != 0 || restarts[1] != 1 {
		t.Errorf("restarts = %v, want [0 1]", restarts)
	}

	m, err := r.ReadMarker()
	if err != nil || m != MarkerEOI {
		t.Errorf("marker after scan = %04x, %v; want EOI", m, err)
	}
}

func TestScanDataIntervalsDisjoint(t *testing.T) {
	var data []byte
	for i := 0; i < 1000; i++ {
		data = append(data, byte(i%0x80), 0xFF, byte(0xD0+i%8))
	}
	data = append(data, 0x42, 0xFF, 0xD9)

	intervals, restarts, err := NewReader(data).ScanData()
	if err != nil {
		t.Fatal(err)
	}
	if len(intervals) != 1001 || len(restarts) != 1000 {
		t.Fatalf("got %d intervals and %d restarts, want 1001 and 1000", len(intervals), len(restarts))
	}

	// Growing one interval must never write into its neighbour.
	grown := append(intervals[0], 0xEE)
	if len(grown) != 2 || intervals[1][0] != 1 {
		t.Errorf("append to interval 0 changed interval 1 to % x", intervals[1])
	}
	for i, iv := range intervals[:1000] {
		if len(iv) != 1 || iv[0] != byte(i%0x80) || restarts[i] != i%8 {
			t.Fatalf("interval %d = % x restart %d", i, iv, restarts[i])
		}
	}
	if got := intervals[1000]; !bytes.Equal(got, []byte{0x42}) {
		t.Errorf("last interval = % x, want 42", got)
	}
}

func TestScanDataTruncated(t *testing.T) {
	for _, data := range [][]byte{{0x12, 0x34}, {0x12, 0xFF}, {0xFF, 0xFF}} {
		r := NewReader(data)
		if _, _, err := r.ScanData(); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("ScanData(% x) = %v, want ErrUnexpectedEOF", data, err)
		}
	}
}

// referenceIDCT is the textbook floating point inverse DCT plus level shift.
func referenceIDCT(coef *[64]int32) [64]float64 {
	var out [64]float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			sum := 0.0
			for v := 0; v < 8; v++ {
				for u := 0; u < 8; u++ {
					cu, cv := 1.0, 1.0
					if u == 0 {
						cu = 1 / math.Sqrt2
					}
					if v == 0 {
						cv = 1 / math.Sqrt2
					}
					sum += cu * cv * float64(coef[v*8+u]) *
						math.Cos(float64(2*x+1)*float64(u)*math.Pi/16) *
						math.Cos(float64(2*y+1)*float64(v)*math.Pi/16)
				}
			}
			out[y*8+x] = math.Max(0, math.Min(255, sum/4+128))
		}
	}
	return out
}

func TestIDCT(t *testing.T) {
	tests := []struct {
		name string
		coef [64]int32
	}{
		{"zero", [64]int32{}},
		{"dc only", [64]int32{0: 576}},
		{"negative dc", [64]int32{0: -1024}},
		{"first row", [64]int32{0: 80, 1: -120, 2: 64, 7: 30}},
		{"first column", [64]int32{0: -40, 8: 200, 16: -33, 56: 12}},
		{"mixed", [64]int32{0: 300, 1: 21, 9: -50, 18: 77, 27: -9, 36: 14, 45: 60, 54: -2, 63: 31}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := referenceIDCT(&tt.coef)
			coef := tt.coef
			out := make([]byte, 8*10)
			IDCT(&coef, out, 10)

			maxDiff := 0.0
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					d := math.Abs(float64(out[y*10+x]) - ref[y*8+x])
					if d > maxDiff {
						maxDiff = d
					}
				}
			}
			t.Logf("max difference from float reference: %.2f", maxDiff)
			if maxDiff > 1.5 {
				t.Errorf("IDCT deviates from reference by %.2f", maxDiff)
			}
		})
	}
}

func TestIDCTDCOnly(t *testing.T) {
	// DC of a flat block is eight times its level-shifted value.
	for _, gray := range []int32{0, 1, 127, 128, 200, 255} {
		coef := [64]int32{0: (gray - 128) * 8}
		out := make([]byte, 64)
		IDCT(&coef, out, 8)
		for i, v := range out {
			if int32(v) != gray {
				t.Fatalf("gray %d: sample %d = %d", gray, i, v)
			}
		}
	}
}

func TestMarkerClassification(t *testing.T) {
	tests := []struct {
		marker    uint16
		name      string
		sof       bool
		hasLength bool
	}{
		{MarkerSOI, "SOI", false, false},
		{MarkerEOI, "EOI", false, false},
		{MarkerTEM, "TEM", false, false},
		{MarkerSOF0, "SOF0", true, true},
		{MarkerSOF2, "SOF2", true, true},
		{0xFFC9, "SOF9", true, true},
		{MarkerSOF15, "SOF15", true, true},
		{MarkerDHT, "DHT", false, true},
		{MarkerJPG, "JPG", false, true},
		{MarkerDAC, "DAC", false, true},
		{MarkerRST0 + 3, "RST3", false, false},
		{MarkerAPP14, "APP14", false, true},
		{MarkerSOS, "SOS", false, true},
		{MarkerCOM, "COM", false, true},
		{0xFFF0, "0xFFF0", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MarkerName(tt.marker); got != tt.name {
				t.Errorf("MarkerName(0x%04X) = %q, want %q", tt.marker, got, tt.name)
			}
			if got := IsSOF(tt.marker); got != tt.sof {
				t.Errorf("IsSOF(0x%04X) = %v, want %v", tt.marker, got, tt.sof)
			}
			if got := HasLength(tt.marker); got != tt.hasLength {
				t.Errorf("HasLength(0x%04X) = %v, want %v", tt.marker, got, tt.hasLength)
			}
		})
	}
}
