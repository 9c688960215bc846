package tsmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPATListsEachService(t *testing.T) {
	services := []*Service{newService(1, 0x1000), newService(2, 0x1001)}
	section, err := buildPAT(7, 3, services)
	require.NoError(t, err)

	assert.Equal(t, byte(tidPAT), section[0])
	assert.Equal(t, byte(0xB0), section[1]&0xF0)
	tsid := uint16(section[3])<<8 | uint16(section[4])
	assert.Equal(t, uint16(7), tsid)

	version := (section[5] >> 1) & 0x1F
	assert.Equal(t, uint8(3), version)

	pairs := section[8 : len(section)-4]
	require.Len(t, pairs, 8)
	assert.Equal(t, uint16(1), uint16(pairs[0])<<8|uint16(pairs[1]))
	assert.Equal(t, uint16(0x1000), (uint16(pairs[2])<<8|uint16(pairs[3]))&0x1FFF)
}

func TestBuildPMTEmptyStreamLoop(t *testing.T) {
	svc := newService(1, 0x1000)
	section, err := buildPMT(svc, false)
	require.NoError(t, err)
	assert.Equal(t, byte(tidPMT), section[0])
}

func TestBuildPMTOverflow(t *testing.T) {
	svc := newService(1, 0x1000)
	for i := 0; i < 200; i++ {
		svc.Streams = append(svc.Streams, newStream(StreamDescriptor{Codec: CodecH264Video}, uint16(0x100+i)))
	}
	_, err := buildPMT(svc, false)
	assert.ErrorIs(t, err, ErrPmtOverflow)
}

func TestBuildSDTServiceDescriptor(t *testing.T) {
	svc := newService(1, 0x1000)
	svc.ProviderName = "tsmux"
	svc.ServiceName = "Channel"
	section, err := buildSDT(1, 2, 0, []*Service{svc})
	require.NoError(t, err)
	assert.Equal(t, byte(tidSDT), section[0])
	assert.Equal(t, byte(0xF0), section[1]&0xF0)
	assert.Contains(t, string(section), "tsmux")
	assert.Contains(t, string(section), "Channel")
}

func TestIs1SegCorrectedPrecedence(t *testing.T) {
	assert.True(t, is1Seg(0x3<<3|0x1))
	assert.False(t, is1Seg(0x0<<3|0x0))
}

func TestTerrestrialDeliveryFrequencyScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PhysicalChannel = 14
	cfg.AreaCode = 1
	cfg.GuardInterval = GuardInterval1_32
	cfg.TransmissionMode = TransmissionMode1

	desc := terrestrialDeliveryDescriptor(&cfg)
	require.Len(t, desc, 6)
	areaGuardMode := uint16(desc[2])<<8 | uint16(desc[3])
	assert.Equal(t, uint16(0x0015), areaGuardMode)
	freq := uint16(desc[4])<<8 | uint16(desc[5])
	assert.Equal(t, uint16(3311), freq)
}

func TestBuildNITIncludesServiceList(t *testing.T) {
	cfg := DefaultConfig()
	services := []*Service{newService(1, 0x1000)}
	section, err := buildNIT(1, 2, 0, &cfg, services)
	require.NoError(t, err)
	assert.Equal(t, byte(tidNIT), section[0])
	// service_list_descriptor: tag 0x41, length 3, SID 1, service_type 0x01.
	assert.Contains(t, string(section), string([]byte{0x41, 0x03, 0x00, 0x01, 0x01}))
}

func TestBuildTOTSectionLength(t *testing.T) {
	section, err := buildTOT(currentTOTTime())
	require.NoError(t, err)
	assert.Equal(t, byte(tidTOT), section[0])
	length := (uint16(section[1])<<8 | uint16(section[2])) & 0x0FFF
	assert.Equal(t, uint16(len(section)-3), length)
	assert.Equal(t, crc32MPEG(section[:len(section)-4]), beU32(section[len(section)-4:]))
}
