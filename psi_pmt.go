package tsmux

import "strings"

const tidPMT uint8 = 0x02

// pmtOverflowMargin is the 32-byte safety margin spec §4.2 reserves
// below the 1024-byte hard cap for the descriptor area.
const pmtOverflowMargin = 32

func splitLanguages(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendDescriptor(b *sectionBuilder, tag byte, data []byte) {
	b.writeByte(tag)
	b.writeByte(byte(len(data)))
	b.writeBytes(data)
}

// parentalRatingDescriptor builds the country="BRA"/rating=0x01
// descriptor spec §4.2 requires at the PMT's program level.
func parentalRatingDescriptor() []byte {
	return []byte{0x55, 0x04, 'B', 'R', 'A', 0x01}
}

func audioDescriptors(st *Stream) []byte {
	var out []byte
	switch st.Descriptor.Codec {
	case CodecEAC3Audio:
		out = append(out, 0x7A, 0x01, 0x00)
	case CodecAACLATMAudio:
		out = append(out, 0x7C, 0x02, 0x2E, 0x00)
	case CodecSMPTE302MAudio:
		out = append(out, 0x05, 0x04, 'B', 'S', 'S', 'D')
	}

	if langs := splitLanguages(st.Descriptor.Language); len(langs) > 0 {
		data := make([]byte, 0, 4*len(langs))
		audioType := st.Descriptor.Disposition.audioType()
		for _, l := range langs {
			code := (l + "\x00\x00\x00")[:3]
			data = append(data, code[0], code[1], code[2], audioType)
		}
		tagged := make([]byte, 0, 2+len(data))
		tagged = append(tagged, 0x0A, byte(len(data)))
		tagged = append(tagged, data...)
		out = append(out, tagged...)
	}
	return out
}

func subtitleDescriptors(st *Stream) []byte {
	var out []byte
	ed := st.Descriptor.Extradata
	langs := splitLanguages(st.Descriptor.Language)
	if len(langs) == 0 {
		langs = []string{"por"}
	}

	subData := make([]byte, 0, 8*len(langs))
	for _, l := range langs {
		code := (l + "\x00\x00\x00")[:3]
		var subtitlingType byte = 0x10
		var compositionPage uint16 = 1
		var ancillaryPage uint16 = 1
		if len(ed) >= 5 {
			subtitlingType = ed[0]
			compositionPage = uint16(ed[1])<<8 | uint16(ed[2])
			ancillaryPage = uint16(ed[3])<<8 | uint16(ed[4])
		}
		subData = append(subData, code[0], code[1], code[2], subtitlingType,
			byte(compositionPage>>8), byte(compositionPage),
			byte(ancillaryPage>>8), byte(ancillaryPage))
	}
	out = append(out, 0x59, byte(len(subData)))
	out = append(out, subData...)

	ttData := make([]byte, 0, 5*len(langs))
	for _, l := range langs {
		code := (l + "\x00\x00\x00")[:3]
		var teletextType byte = 0x01
		var magazine byte = 0
		var page byte = 0
		if len(ed) >= 5 {
			teletextType = ed[0] >> 3
			magazine = ed[0] & 0x7
			page = ed[1]
		}
		ttData = append(ttData, code[0], code[1], code[2], teletextType<<3|magazine, page)
	}
	out = append(out, 0x56, byte(len(ttData)))
	out = append(out, ttData...)

	return out
}

func videoDescriptors(st *Stream) []byte {
	if st.Descriptor.Codec == CodecDiracVideo {
		return []byte{0x05, 0x04, 'd', 'r', 'a', 'c'}
	}
	return nil
}

func dataDescriptors(st *Stream) []byte {
	if st.Descriptor.Codec == CodecSMPTEKLVData {
		return []byte{0x05, 0x04, 'K', 'L', 'V', 'A'}
	}
	return nil
}

func esDescriptors(st *Stream) []byte {
	switch st.Descriptor.Codec.Kind() {
	case KindAudio:
		return audioDescriptors(st)
	case KindSubtitle:
		return subtitleDescriptors(st)
	case KindVideo:
		return videoDescriptors(st)
	default:
		return dataDescriptors(st)
	}
}

// buildPMT assembles a service's Program Map Table section (spec §4.2).
func buildPMT(svc *Service, latm bool) ([]byte, error) {
	b := &sectionBuilder{}
	lengthOff := b.writeSectionHeader(tidPMT, svc.SID, svc.version.get(), 0, 0)

	b.writeU16BE(0xE000 | (svc.PCRPID & 0x1FFF))

	programInfo := parentalRatingDescriptor()
	progLenOff := b.reserve(2)
	b.writeBytes(programInfo)
	b.backpatchLen12(progLenOff, 0xF000, uint16(len(programInfo)))

	latmFlag := latm
	for _, st := range svc.Streams {
		b.writeByte(streamType(st.Descriptor.Codec, latmFlag))
		b.writeU16BE(0xE000 | (st.PID & 0x1FFF))

		desc := esDescriptors(st)
		esLenOff := b.reserve(2)
		b.writeBytes(desc)
		b.backpatchLen12(esLenOff, 0xF000, uint16(len(desc)))
	}

	if b.len()+4 > maxSectionLength-pmtOverflowMargin {
		return nil, ErrPmtOverflow
	}

	return b.finalizeSection(lengthOff, 0xB000)
}
