package tsmux

// findH264StartCode locates the next Annex B start code (00 00 01 or
// 00 00 00 01) at or after off, returning the offset of the byte after
// the code, or -1 if none remains.
func findH264StartCode(data []byte, off int) int {
	for i := off; i+2 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			return i + 3
		}
	}
	return -1
}

func h264NALType(b byte) byte {
	return b & 0x1F
}

const h264AUDNALType = 9

// hasAccessUnitDelimiter scans the first few NAL units of an Annex B
// buffer for an AUD (spec §4.4 step 5: H.264 must lead each PES payload
// with one, but many encoders omit it).
func hasAccessUnitDelimiter(data []byte) bool {
	const maxNALsChecked = 5
	pos := findH264StartCode(data, 0)
	for i := 0; i < maxNALsChecked && pos >= 0 && pos < len(data); i++ {
		if h264NALType(data[pos]) == h264AUDNALType {
			return true
		}
		pos = findH264StartCode(data, pos)
	}
	return false
}

// audNAL is a minimal access unit delimiter NAL (primary_pic_type=7,
// "any slice type").
var audNAL = []byte{0x00, 0x00, 0x00, 0x01, 0x09, 0xF0}

// ensureAccessUnitDelimiter prepends an AUD NAL to an Annex B access
// unit that's missing one, so downstream decoders can find frame
// boundaries without parsing slice headers.
func ensureAccessUnitDelimiter(data []byte) []byte {
	if len(data) < 4 {
		return data
	}
	if !(data[0] == 0 && data[1] == 0 && (data[2] == 1 || (data[2] == 0 && data[3] == 1))) {
		return data
	}
	if hasAccessUnitDelimiter(data) {
		return data
	}
	out := make([]byte, 0, len(audNAL)+len(data))
	out = append(out, audNAL...)
	return append(out, data...)
}

// validateH264StartCode checks the access unit begins with a proper
// Annex B start code, as the muxer loop requires before framing (spec
// §7, invalid bitstream).
func validateH264StartCode(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return data[0] == 0 && data[1] == 0 && (data[2] == 1 || (data[2] == 0 && data[3] == 1))
}
