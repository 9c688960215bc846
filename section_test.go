package tsmux

import (
	"bytes"
	"testing"

	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSectionSinglePacket(t *testing.T) {
	var buf bytes.Buffer
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: &buf})
	cc := &sectionCC{pid: pidPAT}

	section, err := buildPAT(1, 0, []*Service{newService(1, 0x1000)})
	require.NoError(t, err)

	n, err := writeSection(w, cc, section)
	require.NoError(t, err)
	assert.Equal(t, TSPacketSize, n)

	pkt := buf.Bytes()
	assert.Len(t, pkt, TSPacketSize)
	assert.Equal(t, byte(syncByte), pkt[0])
	assert.Equal(t, byte(0x40), pkt[1]&0x40, "PUSI must be set on the first packet")
	assert.Equal(t, byte(0x00), pkt[4], "pointer_field must be zero")
	assert.Equal(t, pkt[5:5+len(section)], section)
	for _, b := range pkt[5+len(section):] {
		assert.Equal(t, byte(0xFF), b)
	}
}

func TestWriteSectionContinuityCounterIncrements(t *testing.T) {
	var buf bytes.Buffer
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: &buf})
	cc := &sectionCC{pid: pidPAT}

	var services []*Service
	for i := uint16(0); i < 60; i++ {
		services = append(services, newService(i+1, 0x1000+i))
	}
	section, err := buildPAT(1, 0, services)
	require.NoError(t, err)
	require.Greater(t, len(section), TSPacketSize-5, "fixture must span multiple packets")

	_, err = writeSection(w, cc, section)
	require.NoError(t, err)

	data := buf.Bytes()
	nPackets := len(data) / TSPacketSize
	require.GreaterOrEqual(t, nPackets, 2)
	var prevCC int = -1
	for i := 0; i < nPackets; i++ {
		pkt := data[i*TSPacketSize : (i+1)*TSPacketSize]
		ccVal := int(pkt[3] & 0x0F)
		if prevCC >= 0 {
			assert.Equal(t, (prevCC+1)%16, ccVal)
		}
		prevCC = ccVal
	}
}
