package tsmux

const pesHeaderPrefixLen = 6 // start code(3) + stream id(1) + packet_length(2)

// buildPESHeader assembles a complete PES header (spec §4.3): start
// code, stream id, packet_length, and the optional header carrying
// PTS/DTS and the Dirac/Blu-ray-AC3 extension subheader.
func buildPESHeader(st *Stream, payloadSize int, pts, dts int64, hasDTS bool, m2tsMode bool) []byte {
	kind := st.Descriptor.Codec.Kind()
	streamID := pesStreamID(st.Descriptor.Codec, kind, m2tsMode)

	var optional []byte
	var flags uint8
	hasPTS := pts != NoPTS

	if hasPTS {
		flags |= 0x80
	}
	if hasDTS && dts != pts {
		flags |= 0x40
	}

	needsExtension := st.Descriptor.Codec == CodecDiracVideo ||
		((st.Descriptor.Codec == CodecAC3Audio || st.Descriptor.Codec == CodecEAC3Audio) && m2tsMode)
	if needsExtension {
		flags |= 0x01
	}

	var body []byte
	if hasPTS && flags&0x40 != 0 {
		body = appendPTSOrDTS(body, 0b0011, pcrFromNinetyKHz(pts))
		body = appendPTSOrDTS(body, 0b0001, pcrFromNinetyKHz(dts))
	} else if hasPTS {
		body = appendPTSOrDTS(body, 0b0010, pcrFromNinetyKHz(pts))
	}

	if needsExtension {
		var ext byte = 0x71
		if st.Descriptor.Codec == CodecDiracVideo {
			ext = 0x60
		}
		body = append(body, 0x01, 0x81, ext)
	}

	headerLength := len(body)

	isSubtitleOrData := kind == KindSubtitle || kind == KindData
	var alignmentIndicator uint8
	if isSubtitleOrData {
		alignmentIndicator = 1
	}

	optByte1 := byte(0x80 | alignmentIndicator<<2)
	optional = append(optional, optByte1, flags, byte(headerLength))
	optional = append(optional, body...)

	if st.Descriptor.Codec == CodecDVBTeletext {
		for len(optional) < 0x24-pesHeaderPrefixLen {
			optional = append(optional, 0xFF)
			headerLength++
		}
		optional[2] = byte(headerLength)
	}

	header := make([]byte, 0, pesHeaderPrefixLen+len(optional))
	header = append(header, 0x00, 0x00, 0x01, streamID)

	// packet_length counts only what follows the length field itself:
	// the optional header (already includes its 3 fixed bytes) plus the
	// payload. When that sum overflows 16 bits the field is written as 0
	// (unbounded), for every stream kind.
	packetLength := payloadSize + len(optional)
	if packetLength > 0xFFFF {
		packetLength = 0
	}
	header = append(header, byte(packetLength>>8), byte(packetLength))
	header = append(header, optional...)

	return header
}

// wrapDVBSubtitlePayload applies the 0x20 0x00 prefix and 0xFF suffix
// spec §4.3 requires for DVB subtitle PES payloads.
func wrapDVBSubtitlePayload(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+3)
	out = append(out, 0x20, 0x00)
	out = append(out, payload...)
	out = append(out, 0xFF)
	return out
}
