package tsmux

const (
	pidPAT uint16 = 0x0000
	tidPAT uint8  = 0x00
)

// buildPAT assembles the Program Association Table section (spec §4.2):
// table_id 0x00, one (program_number, PMT_PID) pair per service.
func buildPAT(tsid uint16, version uint8, services []*Service) ([]byte, error) {
	b := &sectionBuilder{}
	lengthOff := b.writeSectionHeader(tidPAT, tsid, version, 0, 0)

	for _, svc := range services {
		b.writeU16BE(svc.SID)
		b.writeU16BE(0xE000 | (svc.PMTPID & 0x1FFF))
	}

	return b.finalizeSection(lengthOff, 0xB000)
}
