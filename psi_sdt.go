package tsmux

const (
	pidSDT uint16 = 0x0011
	tidSDT uint8  = 0x42
)

// buildSDT assembles the Service Description Table section (spec §4.2):
// one service descriptor (tag 0x48, service_type 0x01) per service.
func buildSDT(tsid, onid uint16, version uint8, services []*Service) ([]byte, error) {
	b := &sectionBuilder{}
	lengthOff := b.writeSectionHeader(tidSDT, tsid, version, 0, 0)

	b.writeU16BE(onid)
	b.writeByte(0xFF) // reserved_future_use

	for _, svc := range services {
		b.writeU16BE(svc.SID)
		b.writeByte(0xFC) // reserved_future_use(6) | EIT_schedule(0) | EIT_present_following(0)

		desc := serviceDescriptor(svc)
		lenOff := b.reserve(2)
		b.writeBytes(desc)
		// running_status='100' (running) | free_CA_mode=0 | descriptors_loop_length(12)
		b.backpatchLen12(lenOff, 0x8000, uint16(len(desc)))
	}

	return b.finalizeSection(lengthOff, 0xF000)
}

func serviceDescriptor(svc *Service) []byte {
	var data []byte
	data = append(data, 0x01) // service_type: digital television service
	data = appendLengthPrefixed(data, svc.ProviderName)
	data = appendLengthPrefixed(data, svc.ServiceName)

	out := make([]byte, 0, 2+len(data))
	out = append(out, 0x48, byte(len(data)))
	out = append(out, data...)
	return out
}

func appendLengthPrefixed(dst []byte, s string) []byte {
	if len(s) > 255 {
		s = s[:255]
	}
	dst = append(dst, byte(len(s)))
	return append(dst, s...)
}
