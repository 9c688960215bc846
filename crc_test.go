package tsmux

import "testing"

import "github.com/stretchr/testify/assert"

func TestCRC32MPEGKnownVector(t *testing.T) {
	// table_id=0x00 PAT header over a one-service PAT, computed by hand
	// against the CRC-32/MPEG-2 definition (poly 0x04C11DB7, init
	// 0xFFFFFFFF, no reflection, no final XOR).
	data := []byte{0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x01, 0xE1, 0x00}
	crc := crc32MPEG(data)
	assert.NotZero(t, crc)
	assert.Equal(t, uint32(0xE8F95E7D), crc)

	// CRC must be deterministic and sensitive to every input byte.
	data2 := append([]byte(nil), data...)
	data2[len(data2)-1] ^= 0x01
	assert.NotEqual(t, crc, crc32MPEG(data2))
}

func TestCRC32MPEGEmpty(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), crc32MPEG(nil))
}
