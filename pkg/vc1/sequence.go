package vc1

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// HRDParam is the hypothetical reference decoder parameter set carried in
// a sequence header's display extension.
type HRDParam struct {
	NumLeakyBuckets uint8
}

// SequenceHeader is the subset of STRUCT_C / sequence-layer fields this
// parser needs to interpret entry points and pictures, grounded on
// vc1_parse_sequence_header in original_source/codecs/vc1.c.
type SequenceHeader struct {
	Profile         uint8
	Level           uint8
	ColorDiffFormat uint8
	MaxCodedWidth   uint16
	MaxCodedHeight  uint16
	Interlace       bool
	DispHorizSize   uint16
	DispVertSize    uint16
	AspectWidth     uint8
	AspectHeight    uint8
	FrameRateFlag   bool
	FrameRateNum    uint32
	FrameRateDen    uint32
	HRDParamFlag    bool
	HRDParam        HRDParam
}

var vc1AspectRatioTable = [15][2]uint8{
	{0, 0}, {1, 1}, {12, 11}, {10, 11}, {16, 11}, {40, 33}, {24, 11},
	{20, 11}, {32, 11}, {80, 33}, {18, 11}, {15, 11}, {64, 33}, {160, 99},
	{0, 0},
}

var vc1FrameRateNrTable = [8]uint32{0, 24, 25, 30, 50, 60, 48, 72}

// parseSequenceHeader decodes a sequence-header EBDU's RBDU payload (the
// emulation-prevention-stripped bytes following the start code).
func parseSequenceHeader(rbdu []byte) (SequenceHeader, error) {
	br := bitio.NewReader(bytes.NewReader(rbdu))
	var seq SequenceHeader

	profile, err := br.ReadBits(2)
	if err != nil {
		return seq, err
	}
	seq.Profile = uint8(profile)
	if seq.Profile != 3 {
		return seq, fmt.Errorf("vc1: sequence header profile %d is not Advanced Profile: %w", seq.Profile, ErrReservedValue)
	}

	level, err := br.ReadBits(3)
	if err != nil {
		return seq, err
	}
	seq.Level = uint8(level)
	if seq.Level > 4 {
		return seq, fmt.Errorf("vc1: sequence header level %d: %w", seq.Level, ErrReservedValue)
	}

	colorDiff, err := br.ReadBits(2)
	if err != nil {
		return seq, err
	}
	seq.ColorDiffFormat = uint8(colorDiff)
	if seq.ColorDiffFormat != 1 {
		return seq, fmt.Errorf("vc1: sequence header colordiff_format %d: %w", seq.ColorDiffFormat, ErrReservedValue)
	}

	if _, err := br.ReadBits(9); err != nil { // frmrtq_postproc, bitrtq_postproc, postproc_flag
		return seq, err
	}

	maxW, err := br.ReadBits(12)
	if err != nil {
		return seq, err
	}
	seq.MaxCodedWidth = uint16(maxW)

	maxH, err := br.ReadBits(12)
	if err != nil {
		return seq, err
	}
	seq.MaxCodedHeight = uint16(maxH)

	if _, err := br.ReadBits(1); err != nil { // pulldown
		return seq, err
	}
	interlace, err := br.ReadBool()
	if err != nil {
		return seq, err
	}
	seq.Interlace = interlace

	if _, err := br.ReadBits(4); err != nil { // tfcntrflag, finterpflag, reserved, psf
		return seq, err
	}

	displayExt, err := br.ReadBool()
	if err != nil {
		return seq, err
	}
	if displayExt {
		dh, err := br.ReadBits(14)
		if err != nil {
			return seq, err
		}
		seq.DispHorizSize = uint16(dh) + 1

		dv, err := br.ReadBits(14)
		if err != nil {
			return seq, err
		}
		seq.DispVertSize = uint16(dv) + 1

		aspectFlag, err := br.ReadBool()
		if err != nil {
			return seq, err
		}
		if aspectFlag {
			ratio, err := br.ReadBits(4)
			if err != nil {
				return seq, err
			}
			if ratio == 15 {
				aw, err := br.ReadBits(8)
				if err != nil {
					return seq, err
				}
				seq.AspectWidth = uint8(aw) + 1
				ah, err := br.ReadBits(8)
				if err != nil {
					return seq, err
				}
				seq.AspectHeight = uint8(ah) + 1
			} else {
				seq.AspectWidth = vc1AspectRatioTable[ratio][0]
				seq.AspectHeight = vc1AspectRatioTable[ratio][1]
			}
		}

		frameRateFlag, err := br.ReadBool()
		if err != nil {
			return seq, err
		}
		seq.FrameRateFlag = frameRateFlag
		if frameRateFlag {
			frameRateInd, err := br.ReadBool()
			if err != nil {
				return seq, err
			}
			if frameRateInd {
				n, err := br.ReadBits(16)
				if err != nil {
					return seq, err
				}
				seq.FrameRateNum = uint32(n) + 1
				seq.FrameRateDen = 32
			} else {
				nr, err := br.ReadBits(8)
				if err != nil {
					return seq, err
				}
				if nr == 0 {
					return seq, fmt.Errorf("vc1: frameratenr 0: %w", ErrInvalidData)
				}
				if nr > 7 {
					return seq, fmt.Errorf("vc1: frameratenr %d: %w", nr, ErrReservedValue)
				}
				dr, err := br.ReadBits(4)
				if err != nil {
					return seq, err
				}
				switch dr {
				case 1:
					seq.FrameRateNum = vc1FrameRateNrTable[nr]
					seq.FrameRateDen = 1
				case 2:
					seq.FrameRateNum = vc1FrameRateNrTable[nr] * 1000
					seq.FrameRateDen = 1001
				case 0:
					return seq, fmt.Errorf("vc1: frameratedr 0: %w", ErrInvalidData)
				default:
					return seq, fmt.Errorf("vc1: frameratedr %d: %w", dr, ErrReservedValue)
				}
			}
		}

		colorFormatFlag, err := br.ReadBool()
		if err != nil {
			return seq, err
		}
		if colorFormatFlag {
			if _, err := br.ReadBits(24); err != nil { // color_prim, transfer_char, matrix_coef
				return seq, err
			}
		}

		hrdFlag, err := br.ReadBool()
		if err != nil {
			return seq, err
		}
		seq.HRDParamFlag = hrdFlag
		if hrdFlag {
			buckets, err := br.ReadBits(5)
			if err != nil {
				return seq, err
			}
			seq.HRDParam.NumLeakyBuckets = uint8(buckets)
			if _, err := br.ReadBits(8); err != nil { // bitrate_exponent, buffer_size_exponent
				return seq, err
			}
			for i := uint8(0); i < seq.HRDParam.NumLeakyBuckets; i++ {
				if _, err := br.ReadBits(32); err != nil { // hrd_rate, hrd_buffer
					return seq, err
				}
			}
		}
	}

	stuffing, err := br.ReadBool()
	if err != nil {
		return seq, err
	}
	if !stuffing {
		return seq, fmt.Errorf("vc1: missing sequence header marker bit: %w", ErrInvalidData)
	}
	return seq, nil
}
