package tsmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionBuilderBackpatchLen12PreservesReservedTop(t *testing.T) {
	b := &sectionBuilder{}
	off := b.reserve(2)
	b.writeBytes([]byte{1, 2, 3})
	b.backpatchLen12(off, 0xF000, 3)
	assert.Equal(t, []byte{0xF0, 0x03, 1, 2, 3}, b.bytes())
}

func TestFinalizeSectionAppendsCRCAndLength(t *testing.T) {
	b := &sectionBuilder{}
	lengthOff := b.writeSectionHeader(0x00, 1, 0, 0, 0)
	b.writeU16BE(1)
	b.writeU16BE(0xE000 | 0x1000)

	out, err := b.finalizeSection(lengthOff, 0xB000)
	require.NoError(t, err)

	assert.Equal(t, byte(0x00), out[0])
	assert.Equal(t, crc32MPEG(out[:len(out)-4]), beU32(out[len(out)-4:]))

	gotLen := (uint16(out[1])<<8 | uint16(out[2])) & 0x0FFF
	assert.Equal(t, uint16(len(out)-3), gotLen)
	assert.Equal(t, byte(0xB0), out[1]&0xF0)
}

func TestFinalizeSectionTooLarge(t *testing.T) {
	b := &sectionBuilder{}
	lengthOff := b.writeSectionHeader(0x02, 1, 0, 0, 0)
	b.writeBytes(make([]byte, maxSectionLength))

	_, err := b.finalizeSection(lengthOff, 0xB000)
	assert.ErrorIs(t, err, ErrSectionTooLarge)
}

func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
