package tsmux

import (
	"fmt"

	"github.com/asticode/go-astikit"
)

// Muxer interleaves per-stream PES output with periodic PSI/SI
// retransmission and PCR pacing, mirroring the teacher's single-pass,
// single-threaded write loop (spec §4.4, §5 concurrency model: no
// internal goroutines, callers serialize externally).
type Muxer struct {
	cfg  Config
	sink Sink
	m2ts *m2tsWriter
	w    *astikit.BitsWriter

	streamDescs []StreamDescriptor
	streams     []*Stream
	services    []*Service

	tsid uint16

	patCC      sectionCC
	patVersion wrappingCounter
	sdtCC      sectionCC
	sdtVersion wrappingCounter
	nitCC      sectionCC
	nitVersion wrappingCounter
	totCC      sectionCC

	patPeriod, sdtPeriod, nitPeriod, totPeriod, pcrPeriod int
	patCount, sdtCount, nitCount, totCount                int

	firstPCR     int64
	lastPCRTicks int64 // most recent PCR written, in 27MHz ticks

	maxDelayUS int64 // microseconds, ffmpeg's mpegts muxer default is 700ms

	headerWritten  bool
	trailerWritten bool

	log Logger
}

// NewMuxer constructs a muxer around sink. Call AddStream for every
// elementary stream before WriteHeader.
func NewMuxer(sink Sink, cfg Config) *Muxer {
	cfg.withDefaults()
	m := &Muxer{
		cfg:        cfg,
		sink:       sink,
		maxDelayUS: 700_000,
		log:        cfg.Logger,
	}
	m2tsEnabled := detectM2TSMode(cfg.M2TSMode, cfg.OutputName)
	m.m2ts = newM2TSWriter(sink, m2tsEnabled, m.currentPCRTicks)
	m.w = astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: m.m2ts})
	return m
}

// AddStream registers an elementary stream descriptor and returns its
// stream index, the handle WritePacket addresses it by. PID assignment
// and duplicate/invalid-id validation happen at WriteHeader time (spec
// §4.5), once every descriptor is known.
func (m *Muxer) AddStream(d StreamDescriptor) int {
	m.streamDescs = append(m.streamDescs, d)
	return len(m.streamDescs) - 1
}

func (m *Muxer) currentPCRTicks() int64 {
	return m.lastPCRTicks
}

func (m *Muxer) maxDelayTicks() int64 {
	// max_delay converted to 90kHz ticks, per spec §4.4 step 2.
	return m.maxDelayUS * 9 / 100
}

// WriteHeader builds the service/stream registry, assigns PIDs,
// computes retransmission periods, and emits the first PAT/PMT/SDT/NIT
// set so an empty transport still produces tables (spec §8 scenario 1).
func (m *Muxer) WriteHeader() error {
	if m.headerWritten {
		return nil
	}

	// tsid := onid unconditionally, per spec §9's documented (and
	// preserved) source behavior.
	if m.cfg.TransportStreamID != m.cfg.OriginalNetworkID {
		m.log.Warnf("tsmux: transport_stream_id %d overridden by original_network_id %d", m.cfg.TransportStreamID, m.cfg.OriginalNetworkID)
	}
	m.tsid = m.cfg.OriginalNetworkID

	m.services = buildServices(&m.cfg)

	usedPIDs := map[uint16]bool{pidPAT: true, pidSDT: true, pidNIT: true, pidTOT: true}
	for _, svc := range m.services {
		usedPIDs[svc.PMTPID] = true
	}

	streams := make([]*Stream, len(m.streamDescs))
	for i, d := range m.streamDescs {
		pid, err := assignStreamPID(&m.cfg, d.PID, i, usedPIDs)
		if err != nil {
			return fmt.Errorf("tsmux: assigning PID for stream %d: %w", i, err)
		}
		st := newStream(d, pid)
		if d.Codec == CodecAACAudio && len(d.Extradata) > 0 {
			sm, err := newAACSubMuxer(d.Extradata)
			if err != nil {
				return err
			}
			st.subMuxer = sm
		}
		streams[i] = st
	}
	m.streams = streams
	assignServices(m.services, m.streams)

	m.patVersion = newWrappingCounter(0x1F)
	m.sdtVersion = newWrappingCounter(0x1F)
	m.nitVersion = newWrappingCounter(0x1F)
	m.patCC = sectionCC{pid: pidPAT}
	m.sdtCC = sectionCC{pid: pidSDT}
	m.nitCC = sectionCC{pid: pidNIT}
	m.totCC = sectionCC{pid: pidTOT}

	pat, sdt, nit, tot, pcr := computeRetransmitPeriods(&m.cfg)
	m.patPeriod, m.sdtPeriod, m.nitPeriod, m.totPeriod, m.pcrPeriod = pat, sdt, nit, tot, pcr
	// CBR PCR starts max_delay ahead of the byte clock, so the first PES
	// is not held back by the null-packet pacing in emitPES.
	if m.cfg.MuxRate > 1 {
		m.firstPCR = m.maxDelayTicks() * 300
	}
	// Prime every counter to period-1 so the very first retransmit call
	// emits immediately (spec §4 supplement: "PCR retransmission counter
	// priming").
	m.patCount, m.sdtCount, m.nitCount, m.totCount = pat-1, sdt-1, nit-1, tot-1
	for _, svc := range m.services {
		svc.packetPeriod = pcr
		svc.packetCount = pcr - 1
	}

	m.headerWritten = true

	if err := m.retransmitTables(true); err != nil {
		return err
	}
	return nil
}

// computeRetransmitPeriods implements spec §4.4's CBR formula and VBR
// fallback constants.
func computeRetransmitPeriods(cfg *Config) (pat, sdt, nit, tot, pcr int) {
	if cfg.MuxRate > 1 {
		period := func(ms int) int {
			p := int(cfg.MuxRate * int64(ms) / (188 * 8 * 1000))
			if p < 1 {
				p = 1
			}
			return p
		}
		return period(100), period(500), period(50), period(100), period(20)
	}
	return 40, 200, 200, 200, 1
}

// WritePacket pushes one inbound access unit through the muxer loop
// (spec §4.4 steps 2-8).
func (m *Muxer) WritePacket(streamIndex int, data []byte, pts, dts int64, isKey bool) error {
	if !m.headerWritten {
		return ErrHeaderNotWritten
	}
	if m.trailerWritten {
		return ErrTrailerWritten
	}
	if streamIndex < 0 || streamIndex >= len(m.streams) {
		return ErrPIDNotFound
	}
	st := m.streams[streamIndex]

	// resend_headers: force every SI/PSI counter due on the very next
	// retransmitTables call, then consume the one-shot flag (spec §4.4
	// step 1).
	if m.cfg.Flags&FlagReemitPatPmt != 0 {
		m.patCount, m.sdtCount, m.nitCount, m.totCount = m.patPeriod-1, m.sdtPeriod-1, m.nitPeriod-1, m.totPeriod-1
		m.cfg.Flags &^= FlagReemitPatPmt
	}

	if m.cfg.CopyTS < 0 {
		off := m.maxDelayTicks()
		if pts != NoPTS {
			pts += off
		}
		if dts != NoPTS {
			dts += off
		}
	}

	if !st.firstPTSChecked {
		if pts == NoPTS {
			return ErrMissingFirstPts
		}
		st.firstPTSChecked = true
	}

	switch st.Descriptor.Codec {
	case CodecH264Video:
		if !validateH264StartCode(data) {
			return ErrInvalidH264
		}
		data = ensureAccessUnitDelimiter(data)
	case CodecAACAudio:
		if !(len(data) >= 2 && data[0] == 0xFF && data[1]&0xF0 == 0xF0) {
			if st.subMuxer == nil {
				return ErrAacWithoutAdts
			}
			framed, err := st.subMuxer.Frame(data)
			if err != nil {
				return err
			}
			data = framed
		}
	}

	half := m.maxDelayTicks() / 2
	for _, other := range m.streams {
		if other == st || !other.buffer.set {
			continue
		}
		if dts != NoPTS && other.buffer.dts != NoPTS && dts-other.buffer.dts > half {
			if err := m.flushStreamBuffer(other); err != nil {
				return err
			}
		}
	}

	kind := st.Descriptor.Codec.Kind()
	bypass := kind == KindVideo || kind == KindSubtitle || (kind == KindAudio && len(data) > m.cfg.PESPayloadSize)

	if bypass {
		if st.buffer.set {
			if err := m.flushStreamBuffer(st); err != nil {
				return err
			}
		}
		forcePAT := kind == KindVideo && isKey && !st.prevPayloadKey
		if err := m.emitPES(st, data, pts, dts, isKey, forcePAT); err != nil {
			return err
		}
		st.prevPayloadKey = isKey
		return nil
	}

	if st.buffer.set && len(st.buffer.data)+len(data) > m.cfg.PESPayloadSize {
		if err := m.flushStreamBuffer(st); err != nil {
			return err
		}
	}

	if !st.buffer.set {
		st.buffer.pts, st.buffer.dts, st.buffer.isKey = pts, dts, isKey
		st.buffer.set = true
	}
	st.buffer.data = append(st.buffer.data, data...)
	return nil
}

func (m *Muxer) flushStreamBuffer(st *Stream) error {
	if !st.buffer.set {
		return nil
	}
	err := m.emitPES(st, st.buffer.data, st.buffer.pts, st.buffer.dts, st.buffer.isKey, false)
	st.buffer.reset()
	return err
}

// WriteTrailer flushes every stream's buffered payload synchronously
// (spec §5, "unflushed bytes at process abort are lost" — a clean
// trailer call is the one guaranteed flush point).
func (m *Muxer) WriteTrailer() error {
	if !m.headerWritten {
		return ErrHeaderNotWritten
	}
	if m.trailerWritten {
		return nil
	}
	for _, st := range m.streams {
		if err := m.flushStreamBuffer(st); err != nil {
			return err
		}
	}
	m.trailerWritten = true
	return m.sink.flush()
}

// retransmitTables advances every SI/PSI counter and emits the tables
// whose period elapsed, or all of them when force is set (spec §4.4,
// "Before every PES emission, invoke retransmission").
func (m *Muxer) retransmitTables(force bool) error {
	m.patCount++
	m.sdtCount++
	m.nitCount++
	m.totCount++

	if force || m.sdtCount >= m.sdtPeriod {
		if err := m.writeSDT(); err != nil {
			return err
		}
		m.sdtCount = 0
	}
	if force || m.nitCount >= m.nitPeriod {
		if err := m.writeNIT(); err != nil {
			return err
		}
		m.nitCount = 0
	}
	if force || m.totCount >= m.totPeriod {
		if err := m.writeTOT(); err != nil {
			return err
		}
		m.totCount = 0
	}
	if force || m.patCount >= m.patPeriod {
		if err := m.writePAT(); err != nil {
			return err
		}
		for _, svc := range m.services {
			if err := m.writePMT(svc); err != nil {
				return err
			}
		}
		m.patCount = 0
	}
	return nil
}

func (m *Muxer) writePAT() error {
	section, err := buildPAT(m.tsid, m.patVersion.get(), m.services)
	if err != nil {
		return err
	}
	_, err = writeSection(m.w, &m.patCC, section)
	return err
}

func (m *Muxer) writePMT(svc *Service) error {
	section, err := buildPMT(svc, m.cfg.Flags&FlagAacLatm != 0)
	if err != nil {
		return err
	}
	_, err = writeSection(m.w, &svc.cc, section)
	return err
}

func (m *Muxer) writeSDT() error {
	section, err := buildSDT(m.tsid, m.cfg.OriginalNetworkID, m.sdtVersion.get(), m.services)
	if err != nil {
		return err
	}
	_, err = writeSection(m.w, &m.sdtCC, section)
	return err
}

func (m *Muxer) writeNIT() error {
	section, err := buildNIT(m.tsid, m.cfg.OriginalNetworkID, m.nitVersion.get(), &m.cfg, m.services)
	if err != nil {
		return err
	}
	_, err = writeSection(m.w, &m.nitCC, section)
	return err
}

func (m *Muxer) writeTOT() error {
	section, err := buildTOT(currentTOTTime())
	if err != nil {
		return err
	}
	_, err = writeSection(m.w, &m.totCC, section)
	return err
}

// emitPES wraps payload into one PES packet and writes the TS packets
// that carry it, handling PCR insertion, random-access signaling,
// CBR null/PCR-only pacing, and trailing stuffing (spec §4.3, §4.4).
func (m *Muxer) emitPES(st *Stream, payload []byte, pts, dts int64, isKey, forcePAT bool) error {
	if st.Descriptor.Codec == CodecDVBSubtitle {
		payload = wrapDVBSubtitlePayload(payload)
	}

	hasDTS := dts != NoPTS && dts != pts
	header := buildPESHeader(st, len(payload), pts, dts, hasDTS, m.m2ts.enabled)

	full := make([]byte, 0, len(header)+len(payload))
	full = append(full, header...)
	full = append(full, payload...)

	svc := st.service
	delayTicks := m.maxDelayTicks()
	first := true
	offset := 0
	for offset < len(full) {
		if err := m.retransmitTables(forcePAT); err != nil {
			return err
		}
		forcePAT = false

		needsPCR := svc != nil && st.PID == svc.PCRPID
		wantsPCR := false
		if needsPCR {
			if m.cfg.MuxRate > 1 || first { // VBR PCR period is based on frames
				svc.packetCount++
			}
			if svc.packetCount >= svc.packetPeriod {
				svc.packetCount = 0
				wantsPCR = true
			}
		}

		// PCR-delay null insertion: when CBR output has fallen behind
		// the access unit's dts by more than max_delay, hold off on the
		// real packet and pad with a PCR-only or null packet instead. A
		// due PCR retransmit takes priority over a plain null packet.
		if m.cfg.MuxRate > 1 && dts != NoPTS {
			pcrNow, err := m.derivePCR(dts)
			if err != nil {
				return err
			}
			if dts-pcrNow/300 > delayTicks {
				if wantsPCR {
					if err := m.insertPCROnly(svc, st, pcrNow); err != nil {
						return err
					}
				} else if err := m.insertNullPacket(); err != nil {
					return err
				}
				continue
			}
		}

		hdr := PacketHeader{
			PID:               st.PID,
			HasPayload:        true,
			ContinuityCounter: st.cc.next(),
		}

		var af *PacketAdaptationField
		wantsRAI := first && isKey && pts != NoPTS
		if wantsRAI && needsPCR {
			wantsPCR = true
		}

		if wantsPCR || wantsRAI {
			pcrTicks, err := m.derivePCR(dts)
			if err != nil {
				return err
			}
			af = &PacketAdaptationField{RandomAccessIndicator: wantsRAI}
			if wantsPCR {
				af.HasPCR = true
				af.PCR = newClockReference(pcrTicks/300, pcrTicks%300)
				m.lastPCRTicks = pcrTicks
			}
			hdr.HasAdaptationField = true
		}

		if first {
			hdr.PayloadUnitStartIndicator = true
		}

		capacity := TSPacketSize - 4
		if af != nil {
			capacity -= 1 + af.calcLength()
		}
		remaining := len(full) - offset
		n := remaining
		if n > capacity {
			n = capacity
		} else if n < capacity {
			pad := capacity - n
			if af == nil {
				af = newStuffingAdaptationField(pad)
				hdr.HasAdaptationField = true
			} else {
				af.StuffingLength += pad
			}
		}

		pkt := Packet{Header: hdr, AdaptationField: af, Payload: full[offset : offset+n]}
		if _, err := writePacket(m.w, &pkt, TSPacketSize); err != nil {
			return err
		}
		offset += n
		first = false
	}
	return nil
}

// insertNullPacket writes a single stuffing packet on the null PID
// (spec §4.4 "PCR-delay null insertion"). Its continuity_counter is
// always 0: PID 0x1FFF packets are discarded by decoders before CC
// validation, so the field carries no meaning here.
func (m *Muxer) insertNullPacket() error {
	payload := make([]byte, TSPacketSize-4)
	for i := range payload {
		payload[i] = 0xFF
	}
	pkt := Packet{Header: PacketHeader{PID: NullPID, HasPayload: true}, Payload: payload}
	_, err := writePacket(m.w, &pkt, TSPacketSize)
	return err
}

// insertPCROnly writes a single adaptation-field-only packet on st's
// PID carrying a fresh PCR and no payload, used when a PCR retransmit
// is due at the same moment a null packet would otherwise be inserted.
// The continuity counter does not advance: ISO/IEC 13818-1 section
// 2.4.3.3 only increments it on packets that carry a payload.
func (m *Muxer) insertPCROnly(svc *Service, st *Stream, pcrTicks int64) error {
	af := &PacketAdaptationField{HasPCR: true, PCR: newClockReference(pcrTicks/300, pcrTicks%300)}
	capacity := TSPacketSize - 4
	af.StuffingLength = capacity - 1 - af.calcLength()
	hdr := PacketHeader{PID: st.PID, HasAdaptationField: true, ContinuityCounter: st.cc.current()}
	pkt := Packet{Header: hdr, AdaptationField: af}
	if _, err := writePacket(m.w, &pkt, TSPacketSize); err != nil {
		return err
	}
	m.lastPCRTicks = pcrTicks
	svc.packetCount = 0
	return nil
}

// derivePCR implements spec §4.3's CBR/VBR PCR formulas. The CBR branch
// mirrors the original muxer's get_pcr(), which reads the real output
// byte offset (avio_tell) rather than a separately tracked counter.
func (m *Muxer) derivePCR(dts int64) (int64, error) {
	if m.cfg.MuxRate > 1 {
		n, err := m.sink.tell()
		if err != nil {
			return 0, err
		}
		return (n+11)*8*27_000_000/m.cfg.MuxRate + m.firstPCR, nil
	}
	if dts == NoPTS {
		dts = 0
	}
	return (dts - m.maxDelayTicks()) * 300, nil
}
