package common

import "fmt"

// JPEG marker codes, as read by Reader.ReadMarker (0xFF prefix included).
const (
	MarkerTEM = 0xFF01 // Temporary use in arithmetic coding, no length

	// Start of Frame markers
	MarkerSOF0  = 0xFFC0 // Baseline DCT
	MarkerSOF1  = 0xFFC1 // Extended Sequential DCT, decoded when 8-bit
	MarkerSOF2  = 0xFFC2 // Progressive DCT
	MarkerSOF3  = 0xFFC3 // Lossless (Sequential)
	MarkerSOF15 = 0xFFCF // Differential Lossless, Arithmetic coding

	MarkerDHT = 0xFFC4 // Define Huffman Table
	MarkerJPG = 0xFFC8 // Reserved for JPEG extensions
	MarkerDAC = 0xFFCC // Define Arithmetic Coding conditioning

	// Restart markers RST0..RST7
	MarkerRST0 = 0xFFD0
	MarkerRST7 = 0xFFD7

	MarkerSOI = 0xFFD8 // Start of Image
	MarkerEOI = 0xFFD9 // End of Image
	MarkerSOS = 0xFFDA // Start of Scan
	MarkerDQT = 0xFFDB // Define Quantization Table
	MarkerDNL = 0xFFDC // Define Number of Lines
	MarkerDRI = 0xFFDD // Define Restart Interval

	// Application segments APP0..APP15
	MarkerAPP0  = 0xFFE0
	MarkerAPP14 = 0xFFEE // Adobe colour transform
	MarkerAPP15 = 0xFFEF

	MarkerCOM = 0xFFFE // Comment
)

// IsSOF reports whether marker starts a frame of any JPEG process.
// DHT, JPG and DAC share the SOFn range and are excluded.
func IsSOF(marker uint16) bool {
	if marker < MarkerSOF0 || marker > MarkerSOF15 {
		return false
	}
	return marker != MarkerDHT && marker != MarkerJPG && marker != MarkerDAC
}

// IsRST reports whether marker is one of RST0..RST7
func IsRST(marker uint16) bool {
	return marker >= MarkerRST0 && marker <= MarkerRST7
}

// IsAPP reports whether marker is one of APP0..APP15
func IsAPP(marker uint16) bool {
	return marker >= MarkerAPP0 && marker <= MarkerAPP15
}

// HasLength reports whether marker is followed by a 16-bit segment length.
// SOI, EOI, TEM and the restart markers stand alone.
func HasLength(marker uint16) bool {
	switch {
	case marker == MarkerSOI, marker == MarkerEOI, marker == MarkerTEM:
		return false
	case IsRST(marker):
		return false
	}
	return true
}

// MarkerName returns a short mnemonic such as "SOF2" or "APP14" for use in
// errors and log records.
func MarkerName(marker uint16) string {
	switch {
	case marker == MarkerDHT:
		return "DHT"
	case marker == MarkerJPG:
		return "JPG"
	case marker == MarkerDAC:
		return "DAC"
	case IsSOF(marker):
		return fmt.Sprintf("SOF%d", marker-MarkerSOF0)
	case IsRST(marker):
		return fmt.Sprintf("RST%d", marker-MarkerRST0)
	case IsAPP(marker):
		return fmt.Sprintf("APP%d", marker-MarkerAPP0)
	}
	switch marker {
	case MarkerTEM:
		return "TEM"
	case MarkerSOI:
		return "SOI"
	case MarkerEOI:
		return "EOI"
	case MarkerSOS:
		return "SOS"
	case MarkerDQT:
		return "DQT"
	case MarkerDNL:
		return "DNL"
	case MarkerDRI:
		return "DRI"
	case MarkerCOM:
		return "COM"
	}
	return fmt.Sprintf("0x%04X", marker)
}
