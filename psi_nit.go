package tsmux

const (
	pidNIT uint16 = 0x0010
	tidNIT uint8  = 0x40
)

// buildNIT assembles the Network Information Table section with the
// ISDB-Tb extensions spec §4.2 requires (TS Information, Service List,
// Partial Reception, Terrestrial Delivery System descriptors).
func buildNIT(tsid, onid uint16, version uint8, cfg *Config, services []*Service) ([]byte, error) {
	b := &sectionBuilder{}
	lengthOff := b.writeSectionHeader(tidNIT, onid, version, 0, 0)

	netDesc := networkDescriptors(cfg.NetworkName)
	netLenOff := b.reserve(2)
	b.writeBytes(netDesc)
	b.backpatchLen12(netLenOff, 0xF000, uint16(len(netDesc)))

	tsLoop := transportStreamLoop(tsid, onid, cfg, services)
	loopLenOff := b.reserve(2)
	b.writeBytes(tsLoop)
	b.backpatchLen12(loopLenOff, 0xF000, uint16(len(tsLoop)))

	return b.finalizeSection(lengthOff, 0xB000)
}

func networkDescriptors(networkName string) []byte {
	var out []byte
	out = append(out, 0x40, byte(len(networkName)))
	out = append(out, networkName...)
	out = append(out, 0xFE, 0x02, 0x03, 0x01) // system management descriptor
	return out
}

// is1Seg implements the corrected precedence spec §9 calls for:
// (sid>>3)&0x3 == 0x3, not the source's buggy "sid & 0x18 >> 3".
func is1Seg(sid uint16) bool {
	return (sid>>3)&0x3 == 0x3
}

func transportStreamLoop(tsid, onid uint16, cfg *Config, services []*Service) []byte {
	var entry []byte
	entry = append(entry, byte(tsid>>8), byte(tsid), byte(onid>>8), byte(onid))

	descs := tsInfoDescriptor(cfg, services)
	descs = append(descs, serviceListDescriptor(services)...)
	descs = append(descs, partialReceptionDescriptors(services)...)
	descs = append(descs, terrestrialDeliveryDescriptor(cfg)...)

	entry = append(entry, 0xF0|byte(len(descs)>>8), byte(len(descs)))
	entry = append(entry, descs...)
	return entry
}

func tsInfoDescriptor(cfg *Config, services []*Service) []byte {
	var data []byte
	data = append(data, byte(cfg.VirtualChannel))
	name := cfg.NetworkName
	if len(name) > 63 {
		name = name[:63]
	}
	data = append(data, byte(len(name))<<2|0x2) // transmission_type_count=2
	data = append(data, name...)

	for _, svc := range services {
		if is1Seg(svc.SID) {
			data = append(data, 0xAF, 0x01, byte(svc.SID>>8), byte(svc.SID))
		} else {
			data = append(data, 0x0F, 0x01, byte(svc.SID>>8), byte(svc.SID))
		}
	}

	out := make([]byte, 0, 2+len(data))
	out = append(out, 0xCD, byte(len(data)))
	return append(out, data...)
}

func serviceListDescriptor(services []*Service) []byte {
	var data []byte
	for _, svc := range services {
		data = append(data, byte(svc.SID>>8), byte(svc.SID), 0x01)
	}
	out := make([]byte, 0, 2+len(data))
	out = append(out, 0x41, byte(len(data)))
	return append(out, data...)
}

func partialReceptionDescriptors(services []*Service) []byte {
	var out []byte
	for _, svc := range services {
		if is1Seg(svc.SID) {
			out = append(out, 0xFB, 0x02, byte(svc.SID>>8), byte(svc.SID))
		}
	}
	return out
}

func terrestrialDeliveryDescriptor(cfg *Config) []byte {
	areaGuardMode := uint16(cfg.AreaCode)<<4 | uint16(cfg.GuardInterval)<<2 | uint16(cfg.TransmissionMode)

	// Frequency in units of 1/7MHz: ((473 + 6*(ch-14) + 1/7) * 7). The
	// "+1/7" term truncates to zero under the original muxer's integer
	// arithmetic; spec §8 scenario 4 pins the resulting value, so it is
	// reproduced verbatim rather than "fixed".
	freq := (473 + 6*(int(cfg.PhysicalChannel)-14)) * 7

	data := []byte{
		byte(areaGuardMode >> 8), byte(areaGuardMode),
		byte(uint16(freq) >> 8), byte(uint16(freq)),
	}
	out := make([]byte, 0, 2+len(data))
	out = append(out, 0xFA, byte(len(data)))
	return append(out, data...)
}
