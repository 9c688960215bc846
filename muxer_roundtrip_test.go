package tsmux

import (
	"bytes"
	"testing"

	"github.com/Comcast/gots/psi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests feed the muxer's own output back through an independent,
// real-world PSI parser rather than re-deriving expectations from the
// same code that produced the bytes.
func TestMuxerRoundTripPATAndPMT(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TransmissionProfile = 2
	cfg.FinalNbServices = 1
	cfg.MuxRate = 2_000_000
	buf := &bytes.Buffer{}
	m := NewMuxer(NewWriterSink(buf), cfg)

	videoIdx := m.AddStream(StreamDescriptor{Codec: CodecH264Video})
	require.NoError(t, m.WriteHeader())
	require.NoError(t, m.WritePacket(videoIdx, []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0xAA}, 90000, 90000, true))
	require.NoError(t, m.WriteTrailer())

	r := bytes.NewReader(buf.Bytes())
	pat, err := psi.ReadPAT(r)
	require.NoError(t, err)

	pmap := pat.ProgramMap()
	require.NotEmpty(t, pmap)

	expectedPMTPID := int(pmtPIDForSID(m.services[0].SID))
	var sawVideoStream bool
	for _, pid := range pmap {
		assert.Equal(t, expectedPMTPID, pid)

		pmt, err := psi.ReadPMT(r, pid)
		require.NoError(t, err)

		for _, es := range pmt.ElementaryStreams() {
			if es.ElementaryPid() == int(m.streams[videoIdx].PID) {
				sawVideoStream = true
				assert.Equal(t, uint8(0x1B), es.StreamType(), "H.264 stream_type per ISO/IEC 13818-1")
			}
		}
	}
	assert.True(t, sawVideoStream, "PMT must list the added video elementary stream")
}

func TestMuxerRoundTripEmptyTransportPAT(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TransmissionProfile = 2
	cfg.FinalNbServices = 1
	cfg.MuxRate = 1
	buf := &bytes.Buffer{}
	m := NewMuxer(NewWriterSink(buf), cfg)

	require.NoError(t, m.WriteHeader())
	require.NoError(t, m.WriteTrailer())

	r := bytes.NewReader(buf.Bytes())
	pat, err := psi.ReadPAT(r)
	require.NoError(t, err)

	pmap := pat.ProgramMap()
	require.Len(t, pmap, 1)

	for _, pid := range pmap {
		pmt, err := psi.ReadPMT(r, pid)
		require.NoError(t, err)
		assert.Empty(t, pmt.ElementaryStreams(), "empty transport has no elementary streams")
	}
}
