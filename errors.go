package tsmux

import "errors"

// Sentinel errors returned by the muxer. None of these are recovered
// internally: the current call is aborted and the caller decides whether
// to continue.
var (
	ErrSectionTooLarge  = errors.New("tsmux: section exceeds 1024 bytes")
	ErrPmtOverflow      = errors.New("tsmux: PMT descriptor area overflow")
	ErrInvalidStreamId  = errors.New("tsmux: stream id is invalid")
	ErrDuplicatePid     = errors.New("tsmux: PID already in use")
	ErrMissingFirstPts  = errors.New("tsmux: first packet on stream has no PTS")
	// ErrInvalidH264 is returned for every H.264 packet that lacks a
	// leading start code, whether or not earlier frames were written.
	ErrInvalidH264      = errors.New("tsmux: H.264 payload does not begin with an Annex B start code")
	ErrAacWithoutAdts   = errors.New("tsmux: AAC payload lacks ADTS sync and no sub-muxer is configured")
	ErrAllocation       = errors.New("tsmux: allocation failed")
	ErrPCRPIDInvalid    = errors.New("tsmux: PCR PID does not belong to any stream of the service")
	ErrPIDNotFound      = errors.New("tsmux: PID not found")
	ErrNoSuchService    = errors.New("tsmux: service not found")
	ErrHeaderNotWritten = errors.New("tsmux: WriteHeader must be called before writing packets")
	ErrTrailerWritten   = errors.New("tsmux: muxer already closed by WriteTrailer")
)
