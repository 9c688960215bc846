package tsmux

import (
	"github.com/asticode/go-astikit"
)

// sectionCC tracks the continuity counter of a fixed-PID section stream
// (PAT/SDT/NIT/TOT, and one per PMT).
type sectionCC struct {
	pid uint16
	cc  uint8
}

func (c *sectionCC) next() uint8 {
	v := c.cc
	c.cc = (c.cc + 1) & 0xF
	return v
}

// current returns the counter without advancing it, for adaptation-field-
// only packets that carry no payload: ISO/IEC 13818-1 section 2.4.3.3
// only increments continuity_counter on packets with a payload.
func (c *sectionCC) current() uint8 {
	return c.cc
}

// writeSection chops a complete section (table_id .. CRC) into one or
// more 188-byte TS packets, per spec §4.1 step 2-3: the first packet
// gets PUSI=1 and a leading pointer_field byte of 0x00, continuity
// counters increment per payload-bearing packet, and the tail of the
// last packet is padded with 0xFF.
func writeSection(w *astikit.BitsWriter, cc *sectionCC, section []byte) (int, error) {
	written := 0
	offset := 0
	first := true

	for offset < len(section) || first {
		header := PacketHeader{
			PID:                cc.pid,
			HasPayload:         true,
			ContinuityCounter:  cc.next(),
		}

		payloadCap := TSPacketSize - 4 // header only, no adaptation field in PSI packets
		var payload []byte
		if first {
			payload = make([]byte, 0, payloadCap)
			payload = append(payload, 0x00) // pointer_field
			header.PayloadUnitStartIndicator = true
		}

		remaining := payloadCap - len(payload)
		n := len(section) - offset
		if n > remaining {
			n = remaining
		}
		payload = append(payload, section[offset:offset+n]...)
		offset += n

		pkt := Packet{Header: header, Payload: payload}
		nw, err := writePacket(w, &pkt, TSPacketSize)
		if err != nil {
			return written, err
		}
		written += nw
		first = false
	}

	return written, nil
}
