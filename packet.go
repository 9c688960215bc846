package tsmux

import (
	"encoding/binary"

	"github.com/asticode/go-astikit"
)

const (
	// TSPacketSize is the fixed length of every emitted transport packet.
	TSPacketSize = 188
	// M2TSPacketSize adds the 4-byte arrival-timestamp prefix (m2ts.go).
	M2TSPacketSize = 192

	syncByte = 0x47

	// NullPID carries stuffing packets used for CBR pacing.
	NullPID uint16 = 0x1FFF
)

// PacketHeader is the 4-byte base header of every TS packet.
type PacketHeader struct {
	TransportErrorIndicator    bool
	PayloadUnitStartIndicator  bool
	TransportPriority          bool
	PID                        uint16 // 13 bits
	TransportScramblingControl uint8  // 2 bits
	HasAdaptationField         bool
	HasPayload                 bool
	ContinuityCounter          uint8 // 4 bits
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (h *PacketHeader) write(w *astikit.BitsWriter) error {
	var v uint32
	v |= uint32(syncByte) << 24
	v |= b2u(h.TransportErrorIndicator) << 23
	v |= b2u(h.PayloadUnitStartIndicator) << 22
	v |= b2u(h.TransportPriority) << 21
	v |= uint32(h.PID&0x1FFF) << 8
	v |= uint32(h.TransportScramblingControl&0x3) << 6
	v |= b2u(h.HasAdaptationField) << 5
	v |= b2u(h.HasPayload) << 4
	v |= uint32(h.ContinuityCounter & 0xF)

	var bs [4]byte
	binary.BigEndian.PutUint32(bs[:], v)
	return w.Write(bs[:])
}

// PacketAdaptationField represents the optional adaptation field. Only
// the subset spec.md requires (PCR, random-access, stuffing) is
// implemented; splicing/private-data/legal-time-window fields are not
// needed by this core and are intentionally absent.
type PacketAdaptationField struct {
	DiscontinuityIndicator bool
	RandomAccessIndicator  bool
	HasPCR                 bool
	PCR                    ClockReference
	StuffingLength         int // extra 0xFF bytes after the real content
	IsOneByteStuffing      bool
}

func (af *PacketAdaptationField) calcLength() int {
	if af.IsOneByteStuffing {
		return 0 // signaled separately: a single length byte of 0
	}
	length := 1 // flags byte
	if af.HasPCR {
		length += 6
	}
	length += af.StuffingLength
	return length
}

func (af *PacketAdaptationField) write(w *astikit.BitsWriter) error {
	if af.IsOneByteStuffing {
		return w.Write(uint8(0))
	}

	length := af.calcLength()
	if err := w.Write(uint8(length)); err != nil {
		return err
	}

	var flags uint8
	if af.DiscontinuityIndicator {
		flags |= 0x80
	}
	if af.RandomAccessIndicator {
		flags |= 0x40
	}
	if af.HasPCR {
		flags |= 0x10
	}
	if err := w.Write(flags); err != nil {
		return err
	}

	if af.HasPCR {
		pcrBytes := appendPCR(nil, af.PCR)
		if err := w.Write(pcrBytes); err != nil {
			return err
		}
	}

	if af.StuffingLength > 0 {
		stuffing := make([]byte, af.StuffingLength)
		for i := range stuffing {
			stuffing[i] = 0xFF
		}
		if err := w.Write(stuffing); err != nil {
			return err
		}
	}
	return nil
}

// newStuffingAdaptationField builds an adaptation field purely to pad a
// packet to exactly TSPacketSize, following the teacher's
// newStuffingAdaptationField helper.
func newStuffingAdaptationField(bytesToStuff int) *PacketAdaptationField {
	if bytesToStuff == 1 {
		return &PacketAdaptationField{IsOneByteStuffing: true}
	}
	return &PacketAdaptationField{StuffingLength: bytesToStuff - 2}
}

// Packet is a single 188-byte transport packet in the process of being
// assembled.
type Packet struct {
	Header          PacketHeader
	AdaptationField *PacketAdaptationField
	Payload         []byte
}

// write serializes the packet to exactly targetSize bytes (TSPacketSize
// in practice), stuffing any leftover space with 0xFF via an
// adaptation-field-less trailing pad only when the caller didn't already
// account for it with an adaptation field (spec §4.1 step 3).
func writePacket(w *astikit.BitsWriter, p *Packet, targetSize int) (int, error) {
	written := 0
	if err := p.Header.write(w); err != nil {
		return 0, err
	}
	written += 4

	if p.Header.HasAdaptationField {
		if err := p.AdaptationField.write(w); err != nil {
			return written, err
		}
		written += 1 + p.AdaptationField.calcLength()
		if p.AdaptationField.IsOneByteStuffing {
			written = 4 + 1
		}
	}

	if p.Header.HasPayload {
		if err := w.Write(p.Payload); err != nil {
			return written, err
		}
		written += len(p.Payload)
	}

	if written < targetSize {
		pad := make([]byte, targetSize-written)
		for i := range pad {
			pad[i] = 0xFF
		}
		if err := w.Write(pad); err != nil {
			return written, err
		}
		written = targetSize
	}

	return written, nil
}
