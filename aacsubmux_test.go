package tsmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAACSubMuxerFramesWithADTSHeader(t *testing.T) {
	// AAC-LC, 44.1kHz, stereo AudioSpecificConfig: profile=2, freqIdx=4, chanCfg=2.
	asc := []byte{0x12, 0x10}
	sm, err := newAACSubMuxer(asc)
	require.NoError(t, err)

	au := []byte{0x01, 0x02, 0x03, 0x04}
	frame, err := sm.Frame(au)
	require.NoError(t, err)

	require.Len(t, frame, 7+len(au))
	assert.Equal(t, byte(0xFF), frame[0])
	assert.Equal(t, byte(0xF1), frame[1])
	assert.Equal(t, au, frame[7:])

	frameLen := (int(frame[3]&0x03) << 11) | int(frame[4])<<3 | int(frame[5])>>5
	assert.Equal(t, 7+len(au), frameLen)
}

func TestAACSubMuxerRejectsShortConfig(t *testing.T) {
	_, err := newAACSubMuxer([]byte{0x12})
	assert.ErrorIs(t, err, ErrAacWithoutAdts)
}
