package common

// NeedsSignedRestore reports whether decoded 8-bit samples of a DICOM image
// tagged PixelRepresentation=1 are still in the level-shifted unsigned range
// and must be moved back to two's complement.
//
// Shifted data has every sample in [0, 2^(bitsStored-1)) or above; original
// signed data with negatives keeps its minimum at or above the sign bit.
// The check therefore looks at the minimum sample.
func NeedsSignedRestore(samples []byte, bitsStored int, pixelRepresentation int) bool {
	if pixelRepresentation == 0 {
		return false
	}
	if bitsStored <= 0 || bitsStored > 8 || len(samples) == 0 {
		return false
	}

	signBit := byte(1) << uint(bitsStored-1)
	minRaw := byte(255)
	for _, b := range samples {
		if b < minRaw {
			minRaw = b
		}
	}
	return minRaw < signBit
}

// RestoreSigned converts level-shifted unsigned samples in [0, 2^n-1] to
// n-bit two's complement stored in the low bits of each byte. The data is
// modified in place.
func RestoreSigned(samples []byte, bitsStored int) {
	if bitsStored <= 0 || bitsStored > 8 {
		return
	}

	offset := int32(1) << uint(bitsStored-1)
	for i, b := range samples {
		val := int32(b) - offset
		if val < 0 {
			val += 1 << uint(bitsStored)
		}
		samples[i] = byte(val)
	}
}
