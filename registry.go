package tsmux

// PID range reserved for program-specific tables the caller can never
// collide with a stream PID (spec §3 invariant: PID >= 16).
const reservedPIDCount = 16

// pmtPIDForSID implements ABNT NBR 15608 §27.4's PMT PID assignment:
// 0x1FC8 | (SID & 0x03).
func pmtPIDForSID(sid uint16) uint16 {
	return 0x1FC8 | (sid & 0x03)
}

// buildServices composes the service set for the configured
// TransmissionProfile (spec §4.5).
//
// Profile 1 (default): exactly two services, an HD service and a 1-seg
// LD service, with SIDs derived from ONID per spec §4.5. Profile 2 has
// no special composition documented upstream (see DESIGN.md Open
// Question); it falls back to FinalNbServices generic services whose
// SIDs are ServiceID+i, still routed through the same PMT PID formula.
func buildServices(cfg *Config) []*Service {
	onid := cfg.OriginalNetworkID

	var services []*Service
	switch cfg.TransmissionProfile {
	case 2:
		n := cfg.FinalNbServices
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			sid := cfg.ServiceID + uint16(i)
			services = append(services, newService(sid, pmtPIDForSID(sid)))
		}
	default: // profile 1
		hdSID := (onid&0x7FF)<<5 | 0x0<<3 | 0x0
		ldSID := (onid&0x7FF)<<5 | 0x3<<3 | 0x1
		services = append(services,
			newService(hdSID, pmtPIDForSID(hdSID)),
			newService(ldSID, pmtPIDForSID(ldSID)),
		)
	}

	for i, svc := range services {
		svc.ServiceName = cfg.ServiceName
		svc.ProviderName = cfg.ServiceProvider
		if len(services) > 1 {
			svc.ServiceName = cfg.ServiceName
		}
		_ = i
	}
	return services
}

// assignStreamPID implements spec §4.5's PID assignment rule: rawID<16
// assigns StartPID+index, rawID<0x1FFF uses rawID verbatim, otherwise
// InvalidStreamId. usedPIDs tracks every PID already claimed by a
// stream or a PMT, for the DuplicatePid check.
func assignStreamPID(cfg *Config, rawID uint16, index int, usedPIDs map[uint16]bool) (uint16, error) {
	var pid uint16
	switch {
	case rawID == 0 || rawID < reservedPIDCount:
		pid = cfg.StartPID + uint16(index)
	case rawID < NullPID:
		pid = rawID
	default:
		return 0, ErrInvalidStreamId
	}

	if usedPIDs[pid] {
		return 0, ErrDuplicatePid
	}
	usedPIDs[pid] = true
	return pid, nil
}

// assignServices spreads streams across services round-robin (index mod
// nb_services) and designates each service's PCR PID as its first video
// stream, or its first stream if none is video (spec §4.5).
func assignServices(services []*Service, streams []*Stream) {
	n := len(services)
	if n == 0 {
		return
	}
	for i, st := range streams {
		svc := services[i%n]
		st.service = svc
		svc.Streams = append(svc.Streams, st)
	}
	for _, svc := range services {
		if len(svc.Streams) == 0 {
			continue
		}
		svc.PCRPID = svc.Streams[0].PID
		for _, st := range svc.Streams {
			if st.Descriptor.Codec.Kind() == KindVideo {
				svc.PCRPID = st.PID
				break
			}
		}
	}
}
