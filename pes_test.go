package tsmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPESHeaderVideoWithPTSAndDTS(t *testing.T) {
	st := newStream(StreamDescriptor{Codec: CodecH264Video}, 0x100)
	header := buildPESHeader(st, 1000, 90000, 80000, true, false)

	assert.Equal(t, []byte{0x00, 0x00, 0x01}, header[:3])
	assert.Equal(t, byte(0xE0), header[3])

	flags := header[7]
	assert.Equal(t, byte(0x80), flags&0x80, "PTS flag must be set")
	assert.Equal(t, byte(0x40), flags&0x40, "DTS flag must be set since dts != pts")

	headerLength := header[8]
	assert.Equal(t, byte(10), headerLength, "5-byte PTS + 5-byte DTS")

	packetLength := int(header[4])<<8 | int(header[5])
	assert.Equal(t, 1000+3+10, packetLength, "packet_length must count the optional header plus payload, not the optional header twice")
}

func TestBuildPESHeaderAudioPTSOnly(t *testing.T) {
	st := newStream(StreamDescriptor{Codec: CodecMP2Audio}, 0x101)
	header := buildPESHeader(st, 500, 90000, NoPTS, false, false)
	assert.Equal(t, byte(0xC0), header[3])
	assert.Equal(t, byte(0x80), header[7]&0xC0)
	assert.Equal(t, byte(5), header[8])

	packetLength := int(header[4])<<8 | int(header[5])
	assert.Equal(t, 500+3+5, packetLength)
}

func TestWrapDVBSubtitlePayload(t *testing.T) {
	wrapped := wrapDVBSubtitlePayload([]byte{0x01, 0x02})
	assert.Equal(t, []byte{0x20, 0x00, 0x01, 0x02, 0xFF}, wrapped)
}

func TestBuildPESHeaderDiracExtension(t *testing.T) {
	st := newStream(StreamDescriptor{Codec: CodecDiracVideo}, 0x100)
	header := buildPESHeader(st, 100, 90000, NoPTS, false, false)
	assert.Equal(t, byte(0xFD), header[3])
	assert.Equal(t, byte(0x01), header[7]&0x01, "extension flag must be set")
}
