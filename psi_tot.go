package tsmux

import "time"

const (
	pidTOT uint16 = 0x0014
	tidTOT uint8  = 0x73
)

// currentTOTTime is the wall-clock source for TOT emission, split out
// so tests can substitute a fixed time.
var currentTOTTime = func() time.Time { return time.Now() }

func bcd(v int) byte {
	return byte((v/10)<<4 | (v % 10))
}

// modifiedJulianDay computes the 16-bit MJD DVB SI fields encode dates
// with (ETSI EN 300 468 annex C).
func modifiedJulianDay(t time.Time) uint16 {
	y, m, d := t.Year()-1900, int(t.Month()), t.Day()
	yp, mp := y, m+1
	if m == 1 || m == 2 {
		yp, mp = y-1, m+1+12
	}
	v := 14956 + d + int(float64(yp)*365.25) + int(float64(mp)*30.6001)
	return uint16(v)
}

func appendMJDTime(dst []byte, t time.Time) []byte {
	mjd := modifiedJulianDay(t)
	return append(dst, byte(mjd>>8), byte(mjd), bcd(t.Hour()), bcd(t.Minute()), bcd(t.Second()))
}

// buildTOT assembles the Time Offset Table section (spec §4.2). Unlike
// PAT/PMT/SDT/NIT it's a short-form section with no table_id_extension,
// version, or section_number fields.
func buildTOT(now time.Time) ([]byte, error) {
	b := &sectionBuilder{}
	b.writeByte(tidTOT)
	lengthOff := b.reserve(2)

	b.writeBytes(appendMJDTime(nil, now))

	offsetDesc := localTimeOffsetDescriptor(now)
	descLenOff := b.reserve(2)
	b.writeBytes(offsetDesc)
	b.backpatchLen12(descLenOff, 0xF000, uint16(len(offsetDesc)))

	crcOff := b.reserve(4)
	if b.n > maxSectionLength {
		return nil, ErrSectionTooLarge
	}

	// section length covers everything after the 2-byte length field,
	// including the CRC, per spec §4.2.
	sectionLen := uint16(b.n - (lengthOff + 2))
	v := 0xB000 | (sectionLen & 0x0FFF)
	b.buf[lengthOff] = byte(v >> 8)
	b.buf[lengthOff+1] = byte(v)

	crc := crc32MPEG(b.buf[:crcOff])
	b.buf[crcOff] = byte(crc >> 24)
	b.buf[crcOff+1] = byte(crc >> 16)
	b.buf[crcOff+2] = byte(crc >> 8)
	b.buf[crcOff+3] = byte(crc)

	return b.bytes(), nil
}

func localTimeOffsetDescriptor(now time.Time) []byte {
	var data []byte
	data = append(data, 'B', 'R', 'A')
	data = append(data, 0x03<<2|0x2) // country_region_id | reserved | polarity
	data = append(data, 0x00, 0x00)  // local_time_offset
	data = appendMJDTime(data, now)  // time_of_change
	data = append(data, 0x01, 0x00)  // next_time_offset

	out := make([]byte, 0, 2+len(data))
	out = append(out, 0x58, byte(len(data)))
	return append(out, data...)
}
