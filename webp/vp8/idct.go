package vp8

// The products are formed in 64 bits so coefficients anywhere in the int16
// range transform without wrapping.
func mul1(a int32) int32 { return int32(int64(a)*20091>>16) + a }
func mul2(a int32) int32 { return int32(int64(a) * 35468 >> 16) }

// inverseDCT adds the inverse transform of the 16 coefficients in src to
// the 4x4 block at off.
func inverseDCT(src []int16, b []uint8, off int) {
	var tmp [16]int32
	for i := 0; i < 4; i++ {
		in0, in4 := int32(src[i]), int32(src[4+i])
		in8, in12 := int32(src[8+i]), int32(src[12+i])
		a := in0 + in8
		bb := in0 - in8
		c := mul2(in4) - mul1(in12)
		d := mul1(in4) + mul2(in12)
		tmp[4*i+0] = a + d
		tmp[4*i+1] = bb + c
		tmp[4*i+2] = bb - c
		tmp[4*i+3] = a - d
	}
	for i := 0; i < 4; i++ {
		dc := tmp[i] + 4
		a := dc + tmp[8+i]
		bb := dc - tmp[8+i]
		c := mul2(tmp[4+i]) - mul1(tmp[12+i])
		d := mul1(tmp[4+i]) + mul2(tmp[12+i])
		row := b[off+i*bps : off+i*bps+4]
		row[0] = clip8(int(row[0]) + int((a+d)>>3))
		row[1] = clip8(int(row[1]) + int((bb+c)>>3))
		row[2] = clip8(int(row[2]) + int((bb-c)>>3))
		row[3] = clip8(int(row[3]) + int((a-d)>>3))
	}
}

// inverseDCTDC is inverseDCT for a block whose only non-zero coefficient
// is the DC.
func inverseDCTDC(dc int16, b []uint8, off int) {
	v := (int(dc) + 4) >> 3
	for y := 0; y < 4; y++ {
		row := b[off+y*bps : off+y*bps+4]
		for x := range row {
			row[x] = clip8(int(row[x]) + v)
		}
	}
}

// inverseWHT transforms the Y2 block and stores the results as the DC
// coefficients of the 16 luma blocks in out.
func inverseWHT(src []int16, out []int16) {
	var tmp [16]int32
	for i := 0; i < 4; i++ {
		a0 := int32(src[i]) + int32(src[12+i])
		a1 := int32(src[4+i]) + int32(src[8+i])
		a2 := int32(src[4+i]) - int32(src[8+i])
		a3 := int32(src[i]) - int32(src[12+i])
		tmp[i] = a0 + a1
		tmp[8+i] = a0 - a1
		tmp[4+i] = a3 + a2
		tmp[12+i] = a3 - a2
	}
	for i := 0; i < 4; i++ {
		dc := tmp[4*i] + 3
		a0 := dc + tmp[4*i+3]
		a1 := tmp[4*i+1] + tmp[4*i+2]
		a2 := tmp[4*i+1] - tmp[4*i+2]
		a3 := dc - tmp[4*i+3]
		o := out[64*i:]
		o[0] = int16((a0 + a1) >> 3)
		o[16] = int16((a3 + a2) >> 3)
		o[32] = int16((a0 - a1) >> 3)
		o[48] = int16((a3 - a2) >> 3)
	}
}
