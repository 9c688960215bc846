package tsmux

// Service is one logical program (spec §3, "Service").
type Service struct {
	SID             uint16
	ProviderName    string
	ServiceName     string
	PMTPID          uint16
	PCRPID          uint16 // 0x1FFF until a stream is designated
	Streams         []*Stream
	cc              sectionCC // PMT section's own continuity counter
	version         wrappingCounter

	packetCount  int // PCR pacing counter
	packetPeriod int
}

func newService(sid uint16, pmtPID uint16) *Service {
	return &Service{
		SID:     sid,
		PCRPID:  NullPID,
		PMTPID:  pmtPID,
		cc:      sectionCC{pid: pmtPID},
		version: newWrappingCounter(0x1F),
	}
}

// wrappingCounter is a fixed-width counter that wraps modulo (mask+1),
// used for table version numbers (5 bits) the same way the teacher's
// muxer.go tracks patVersion/pmtVersion.
type wrappingCounter struct {
	mask uint8
	v    uint8
}

func newWrappingCounter(mask uint8) wrappingCounter {
	return wrappingCounter{mask: mask}
}

func (c *wrappingCounter) get() uint8 {
	return c.v & c.mask
}

func (c *wrappingCounter) increment() {
	c.v = (c.v + 1) & c.mask
}
