package vc1

import "errors"

// Errors.
var (
	ErrInvalidData    = errors.New("vc1: invalid data")
	ErrReservedValue  = errors.New("vc1: SMPTE-reserved value")
	ErrNoSequence     = errors.New("vc1: no sequence header seen yet")
	ErrNoEntryPoint   = errors.New("vc1: no entry-point header seen yet")
	ErrUnsupportedBDU = errors.New("vc1: unsupported BDU type")
)
