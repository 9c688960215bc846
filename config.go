package tsmux

// GuardInterval enumerates the ISDB-Tb guard interval fractions (spec §3).
type GuardInterval uint8

const (
	GuardInterval1_32 GuardInterval = 1
	GuardInterval1_16 GuardInterval = 2
	GuardInterval1_8  GuardInterval = 3
	GuardInterval1_4  GuardInterval = 4
)

// TransmissionMode enumerates the ISDB-Tb transmission modes.
type TransmissionMode uint8

const (
	TransmissionMode1         TransmissionMode = 1
	TransmissionMode2         TransmissionMode = 2
	TransmissionMode3         TransmissionMode = 3
	TransmissionModeUndefined TransmissionMode = 4
)

// Muxer flags bitset (spec §6).
const (
	FlagReemitPatPmt uint32 = 0x01
	FlagAacLatm      uint32 = 0x02
)

// TriState is auto-detect / off / on, used by M2TSMode and CopyTS.
type TriState int8

const (
	TriAuto TriState = -1
	TriOff  TriState = 0
	TriOn   TriState = 1
)

// DefaultPESPayloadSize matches the original muxer's
// (retransmit-frequency-1)*184 + 170, rounded to a TS-packet boundary by
// withDefaults.
const DefaultPESPayloadSize = (16-1)*184 + 170

// Config holds every option spec §6 lists, as an explicit record rather
// than the field-offset option tables the original C muxer used.
type Config struct {
	TransportStreamID uint16 // accepted but overridden by ONID at WriteHeader time, see DESIGN.md
	OriginalNetworkID uint16
	ServiceID         uint16
	FinalNbServices   int

	AreaCode           uint16
	GuardInterval      GuardInterval
	TransmissionMode   TransmissionMode
	TransmissionProfile uint8

	PhysicalChannel uint16
	VirtualChannel  uint16

	// StartPID assigns stream PIDs for indices the caller leaves at 0
	// (spec §4.5). There is no PMTStartPID: PMT PIDs always come from
	// the ABNT NBR 15608 §27.4 formula in registry.go, matching the
	// original muxer's unconditional override of any configurable PMT
	// PID for this ISDB-Tb variant.
	StartPID uint16

	M2TSMode TriState

	MuxRate        int64 // 1 denotes VBR
	PESPayloadSize int

	Flags uint32

	CopyTS TriState

	TablesVersion uint8

	ServiceName     string
	ServiceProvider string
	NetworkName     string

	// OutputName is consulted only when M2TSMode is TriAuto, to detect a
	// ".m2ts" extension the way the original muxer inspects the output
	// filename.
	OutputName string

	Logger Logger
}

// DefaultConfig returns a Config populated with spec §6's documented
// defaults.
func DefaultConfig() Config {
	return Config{
		TransportStreamID:  1,
		OriginalNetworkID:  1,
		ServiceID:          1,
		FinalNbServices:    2,
		AreaCode:           1,
		GuardInterval:      GuardInterval1_32,
		TransmissionMode:   TransmissionMode1,
		TransmissionProfile: 1,
		PhysicalChannel:    20,
		VirtualChannel:     20,
		StartPID:           0x0100,
		M2TSMode:           TriAuto,
		MuxRate:            1,
		PESPayloadSize:     DefaultPESPayloadSize,
		Flags:              0,
		CopyTS:             TriOff,
		TablesVersion:      0,
		NetworkName:        "ISDB-Tb",
		ServiceProvider:    "tsmux",
		ServiceName:        "Service",
	}
}

// withDefaults normalizes zero-valued fields and applies the
// pes_payload_size rounding formula from the original muxer (see
// SPEC_FULL.md §4): round up to a whole number of TS packets.
func (c *Config) withDefaults() {
	d := DefaultConfig()
	if c.OriginalNetworkID == 0 {
		c.OriginalNetworkID = d.OriginalNetworkID
	}
	if c.ServiceID == 0 {
		c.ServiceID = d.ServiceID
	}
	if c.FinalNbServices == 0 {
		c.FinalNbServices = d.FinalNbServices
	}
	if c.AreaCode == 0 {
		c.AreaCode = d.AreaCode
	}
	if c.GuardInterval == 0 {
		c.GuardInterval = d.GuardInterval
	}
	if c.TransmissionMode == 0 {
		c.TransmissionMode = d.TransmissionMode
	}
	if c.TransmissionProfile == 0 {
		c.TransmissionProfile = d.TransmissionProfile
	}
	if c.PhysicalChannel == 0 {
		c.PhysicalChannel = d.PhysicalChannel
	}
	if c.VirtualChannel == 0 {
		c.VirtualChannel = d.VirtualChannel
	}
	if c.StartPID == 0 {
		c.StartPID = d.StartPID
	}
	if c.MuxRate == 0 {
		c.MuxRate = d.MuxRate
	}
	if c.PESPayloadSize == 0 {
		c.PESPayloadSize = d.PESPayloadSize
	}
	// (size + 14 + 183) / 184 * 184 - 14, rounds up to a whole PES-header
	// accounting TS-packet boundary, as in the original C muxer.
	c.PESPayloadSize = (c.PESPayloadSize+14+183)/184*184 - 14
	if c.NetworkName == "" {
		c.NetworkName = d.NetworkName
	}
	if c.ServiceProvider == "" {
		c.ServiceProvider = d.ServiceProvider
	}
	if c.ServiceName == "" {
		c.ServiceName = d.ServiceName
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
}
