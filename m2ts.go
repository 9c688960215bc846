package tsmux

import "strings"

// detectM2TSMode implements the TriAuto ".m2ts" filename sniff spec §6
// describes for m2ts_mode == -1.
func detectM2TSMode(mode TriState, outputName string) bool {
	switch mode {
	case TriOn:
		return true
	case TriOff:
		return false
	default:
		return strings.HasSuffix(strings.ToLower(outputName), ".m2ts")
	}
}

// m2tsWriter prefixes every 188-byte TS packet written through it with
// the 4-byte big-endian (copy_permission_indicator:2 | arrival_time_stamp:30)
// header spec §6 requires when M2TS framing is enabled. It buffers
// partial packets since writePacket issues several small Write calls
// per packet (header, adaptation field, payload) rather than one.
type m2tsWriter struct {
	sink    Sink
	enabled bool
	buf     []byte
	pcrTick func() int64 // current PCR in 27MHz ticks
}

func newM2TSWriter(sink Sink, enabled bool, pcrTick func() int64) *m2tsWriter {
	return &m2tsWriter{sink: sink, enabled: enabled, pcrTick: pcrTick, buf: make([]byte, 0, TSPacketSize)}
}

func (w *m2tsWriter) Write(p []byte) (int, error) {
	if !w.enabled {
		return w.sink.write(p)
	}

	total := len(p)
	for len(p) > 0 {
		need := TSPacketSize - len(w.buf)
		n := need
		if n > len(p) {
			n = len(p)
		}
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]

		if len(w.buf) == TSPacketSize {
			ts := uint32(w.pcrTick() % (1 << 30))
			header := [4]byte{byte(ts >> 24 & 0x3F), byte(ts >> 16), byte(ts >> 8), byte(ts)}
			if _, err := w.sink.write(header[:]); err != nil {
				return 0, err
			}
			if _, err := w.sink.write(w.buf); err != nil {
				return 0, err
			}
			w.buf = w.buf[:0]
		}
	}
	return total, nil
}
