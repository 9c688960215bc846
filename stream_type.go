package tsmux

// Codec identifies the elementary stream's coding format. It drives the
// stream_type byte, PES stream id, and descriptor selection in the PMT
// (spec §4.2).
type Codec uint8

const (
	CodecMPEGVideo Codec = iota
	CodecMPEG4Video
	CodecH264Video
	CodecH265Video
	CodecCAVSVideo
	CodecDiracVideo

	CodecMP2Audio
	CodecMP3Audio
	CodecAACAudio
	CodecAACLATMAudio
	CodecAC3Audio
	CodecEAC3Audio
	CodecSMPTE302MAudio

	CodecDVBSubtitle
	CodecDVBTeletext

	CodecSMPTEKLVData
	CodecPrivateData
)

// StreamKind groups codecs into the four elementary-stream kinds the
// muxer loop treats differently (spec §4.4 step 7).
type StreamKind uint8

const (
	KindVideo StreamKind = iota
	KindAudio
	KindSubtitle
	KindData
)

func (c Codec) Kind() StreamKind {
	switch c {
	case CodecMPEGVideo, CodecMPEG4Video, CodecH264Video, CodecH265Video, CodecCAVSVideo, CodecDiracVideo:
		return KindVideo
	case CodecMP2Audio, CodecMP3Audio, CodecAACAudio, CodecAACLATMAudio, CodecAC3Audio, CodecEAC3Audio, CodecSMPTE302MAudio:
		return KindAudio
	case CodecDVBSubtitle, CodecDVBTeletext:
		return KindSubtitle
	default:
		return KindData
	}
}

// streamType returns the PMT stream_type byte for the codec (spec §4.2
// table). latm selects the AAC stream_type variant.
func streamType(c Codec, latm bool) uint8 {
	switch c {
	case CodecMPEGVideo:
		return 0x02
	case CodecMPEG4Video:
		return 0x10
	case CodecH264Video:
		return 0x1B
	case CodecH265Video:
		return 0x24
	case CodecCAVSVideo:
		return 0x42
	case CodecDiracVideo:
		return 0xD1
	case CodecMP2Audio:
		return 0x03
	case CodecMP3Audio:
		return 0x04
	case CodecAACAudio:
		if latm {
			return 0x11
		}
		return 0x0F
	case CodecAACLATMAudio:
		return 0x11
	case CodecAC3Audio, CodecEAC3Audio, CodecSMPTE302MAudio:
		return 0x81
	default:
		return 0x06 // private data
	}
}

// pesStreamID picks the PES stream_id for the codec (spec §4.3).
func pesStreamID(c Codec, kind StreamKind, m2tsMode bool) uint8 {
	switch {
	case c == CodecDiracVideo:
		return 0xFD
	case kind == KindVideo:
		return 0xE0
	case c == CodecMP2Audio, c == CodecMP3Audio, c == CodecAACAudio, c == CodecAACLATMAudio:
		return 0xC0
	case (c == CodecAC3Audio || c == CodecEAC3Audio) && m2tsMode:
		return 0xFD
	default:
		return 0xBD
	}
}
