package tsmux

import "fmt"

// AACSubMuxer turns a raw AAC access unit (no ADTS framing) into a
// self-contained ADTS frame so it can ride a PES payload like any other
// audio stream. Only engaged when a stream's extradata carries an
// AudioSpecificConfig instead of already-framed ADTS (spec §4.3, "AAC
// without ADTS").
type AACSubMuxer interface {
	Frame(accessUnit []byte) ([]byte, error)
}

// adtsSubMuxer builds a synthetic 7-byte ADTS header from the stream's
// AudioSpecificConfig so a raw AAC access unit can ride a PES payload
// like any other audio elementary stream.
type adtsSubMuxer struct {
	profile       byte
	sampleFreqIdx byte
	channelConfig byte
}

// newAACSubMuxer derives ADTS framing parameters from a 2-byte
// AudioSpecificConfig (ISO 14496-3), the form extradata carries for
// ADTS-less AAC streams.
func newAACSubMuxer(audioSpecificConfig []byte) (*adtsSubMuxer, error) {
	if len(audioSpecificConfig) < 2 {
		return nil, fmt.Errorf("tsmux: %w: audio specific config too short", ErrAacWithoutAdts)
	}
	asc := uint16(audioSpecificConfig[0])<<8 | uint16(audioSpecificConfig[1])
	return &adtsSubMuxer{
		profile:       byte(asc>>11) & 0x1F,
		sampleFreqIdx: byte(asc>>7) & 0x0F,
		channelConfig: byte(asc>>3) & 0x0F,
	}, nil
}

// Frame prepends a 7-byte fixed-length ADTS header (no CRC) to a raw
// AAC access unit.
func (m *adtsSubMuxer) Frame(accessUnit []byte) ([]byte, error) {
	frameLen := len(accessUnit) + 7
	if frameLen > 0x1FFF {
		return nil, fmt.Errorf("tsmux: %w: access unit too large for ADTS", ErrAacWithoutAdts)
	}

	header := make([]byte, 7, frameLen)
	header[0] = 0xFF
	header[1] = 0xF1 // MPEG-4, no CRC
	profile := m.profile
	if profile == 0 {
		profile = 1 // AAC LC, ADTS profile field is MPEG-4 profile - 1
	} else {
		profile--
	}
	header[2] = profile<<6 | (m.sampleFreqIdx&0x0F)<<2 | (m.channelConfig>>2)&0x1
	header[3] = (m.channelConfig&0x3)<<6 | byte(frameLen>>11)
	header[4] = byte(frameLen >> 3)
	header[5] = byte(frameLen<<5) | 0x1F
	header[6] = 0xFC

	return append(header, accessUnit...), nil
}
