package vc1

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// EntryPointHeader is the subset of entry-point-layer fields this parser
// needs, grounded on vc1_parse_entry_point_header in
// original_source/codecs/vc1.c.
type EntryPointHeader struct {
	ClosedEntryPoint bool
	CodedWidth       uint16
	CodedHeight      uint16
}

// parseEntryPointHeader decodes an entry-point EBDU's RBDU payload. seq
// must be the most recently parsed sequence header, since entry-point
// parsing both depends on it (hrd_param presence) and may backfill its
// display size.
func parseEntryPointHeader(seq *SequenceHeader, rbdu []byte) (EntryPointHeader, error) {
	br := bitio.NewReader(bytes.NewReader(rbdu))
	var ep EntryPointHeader

	brokenLink, err := br.ReadBool()
	if err != nil {
		return ep, err
	}
	closed, err := br.ReadBool()
	if err != nil {
		return ep, err
	}
	ep.ClosedEntryPoint = closed
	if brokenLink && closed {
		return ep, fmt.Errorf("vc1: broken_link with closed_entry_point: %w", ErrInvalidData)
	}

	if _, err := br.ReadBits(4); err != nil { // panscan_flag, refdist_flag, loopfilter, fastuvmc
		return ep, err
	}
	extendedMV, err := br.ReadBool()
	if err != nil {
		return ep, err
	}
	if _, err := br.ReadBits(6); err != nil { // dquant, vstransform, overlap, quantizer
		return ep, err
	}
	if seq.HRDParamFlag {
		for i := uint8(0); i < seq.HRDParam.NumLeakyBuckets; i++ {
			if _, err := br.ReadBits(8); err != nil { // hrd_full
				return ep, err
			}
		}
	}

	codedSizeFlag, err := br.ReadBool()
	if err != nil {
		return ep, err
	}
	var codedWidth, codedHeight uint64
	if codedSizeFlag {
		codedWidth, err = br.ReadBits(12)
		if err != nil {
			return ep, err
		}
		codedHeight, err = br.ReadBits(12)
		if err != nil {
			return ep, err
		}
	} else {
		codedWidth = uint64(seq.MaxCodedWidth)
		codedHeight = uint64(seq.MaxCodedHeight)
	}
	ep.CodedWidth = uint16(2 * (codedWidth + 1))
	ep.CodedHeight = uint16(2 * (codedHeight + 1))

	if seq.DispHorizSize == 0 || seq.DispVertSize == 0 {
		seq.DispHorizSize = ep.CodedWidth
		seq.DispVertSize = ep.CodedHeight
	}

	if extendedMV {
		if _, err := br.ReadBits(1); err != nil { // extended_dmv
			return ep, err
		}
	}
	rangeMapYFlag, err := br.ReadBool()
	if err != nil {
		return ep, err
	}
	if rangeMapYFlag {
		if _, err := br.ReadBits(3); err != nil {
			return ep, err
		}
	}
	rangeMapUVFlag, err := br.ReadBool()
	if err != nil {
		return ep, err
	}
	if rangeMapUVFlag {
		if _, err := br.ReadBits(3); err != nil {
			return ep, err
		}
	}

	stuffing, err := br.ReadBool()
	if err != nil {
		return ep, err
	}
	if !stuffing {
		return ep, fmt.Errorf("vc1: missing entry point header marker bit: %w", ErrInvalidData)
	}
	return ep, nil
}
