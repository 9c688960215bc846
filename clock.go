package tsmux

// ClockReference is a 33-bit base (90kHz) plus 9-bit extension (27MHz)
// clock value, used for PTS/DTS (base only) and PCR (base+extension).
type ClockReference struct {
	Base      int64 // 33 bits, units of 1/90_000s
	Extension int64 // 9 bits, units of 1/27_000_000s, only meaningful for PCR
}

func newClockReference(base, ext int64) ClockReference {
	return ClockReference{Base: base & 0x1FFFFFFFF, Extension: ext & 0x1FF}
}

// pcrFromNinetyKHz builds a PCR from a 90kHz timestamp (no sub-tick
// extension).
func pcrFromNinetyKHz(ts int64) ClockReference {
	return newClockReference(ts, 0)
}

// appendPTSOrDTS writes a 5-byte PTS or DTS field with the given 4-bit
// marker prefix (spec §4.3: '0010' for PTS-only, '0011'/'0001' for
// PTS+DTS pairs), appending directly to the PES packetizer's plain byte
// slice.
func appendPTSOrDTS(dst []byte, marker uint8, cr ClockReference) []byte {
	b := cr.Base
	dst = append(dst, marker<<4|byte(b>>30)<<1|1)
	v1 := uint16(b>>15)<<1 | 1
	dst = append(dst, byte(v1>>8), byte(v1))
	v2 := uint16(b<<1) | 1
	dst = append(dst, byte(v2>>8), byte(v2))
	return dst
}

// appendPCR encodes the 48-bit PCR field: 33-bit base, 6 reserved bits
// (0x7E -> '111111'), 9-bit extension.
func appendPCR(dst []byte, cr ClockReference) []byte {
	base := uint64(cr.Base) & 0x1FFFFFFFF
	ext := uint64(cr.Extension) & 0x1FF
	v := base<<15 | 0x3F<<9 | ext
	return append(dst,
		byte(v>>40), byte(v>>32), byte(v>>24),
		byte(v>>16), byte(v>>8), byte(v))
}
