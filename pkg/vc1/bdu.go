// Package vc1 parses VC-1 Advanced Profile elementary streams (SMPTE
// 421M-2006, SMPTE RP 2025-2007) into access units suitable for feeding to
// pkg/mux, shaped after the h264 parser in
// pkg/video/gortsplib/pkg/h264/{sps,annexb,dtsextractor}.go but built for
// VC-1's BDU/EBDU framing instead of H.264's Annex B NAL units.
package vc1

import "fmt"

// BDU (Bitstream Data Unit) type values, SMPTE 421M-2006 Annex E. Values
// 0x0A-0x0F are the "video coded" delimiters this parser groups into
// access units; everything else is either SMPTE-reserved or forbidden.
const (
	BDUEndOfSequence  byte = 0x0A
	BDUSlice          byte = 0x0B
	BDUField          byte = 0x0C
	BDUFrame          byte = 0x0D
	BDUEntryPoint     byte = 0x0E
	BDUSequenceHeader byte = 0x0F
)

const (
	startCodePrefixLength = 3 // 0x00 0x00 0x01
	startCodeLength       = startCodePrefixLength + 1
)

// ebdu is one encapsulated bitstream data unit: its start-code-prefixed
// bytes, trimmed of the trailing zero padding a VC-1 stream never embeds
// inside an EBDU itself.
type ebdu struct {
	bduType byte
	data    []byte // from the 0x000001 prefix through the last non-zero byte
}

func checkBDUType(t byte) error {
	if t <= 0x09 || (t >= 0x20 && t <= 0x7F) {
		return fmt.Errorf("vc1: reserved BDU type 0x%02x: %w", t, ErrReservedValue)
	}
	if t >= 0x80 {
		return fmt.Errorf("vc1: forbidden BDU type 0x%02x: %w", t, ErrInvalidData)
	}
	return nil
}

func findStartCode(buf []byte, from int) int {
	for i := from; i+startCodePrefixLength <= len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 1 {
			return i
		}
	}
	return -1
}

// scanEBDUs splits buf into start-code-delimited EBDUs, following
// vc1_find_next_start_code_prefix's trailing-zero trimming rule.
func scanEBDUs(buf []byte) ([]ebdu, error) {
	var out []ebdu
	i := findStartCode(buf, 0)
	if i < 0 {
		return nil, fmt.Errorf("vc1: no start code found: %w", ErrInvalidData)
	}
	for i >= 0 && i+startCodeLength <= len(buf) {
		bduType := buf[i+3]
		if err := checkBDUType(bduType); err != nil {
			return nil, err
		}
		next := findStartCode(buf, i+startCodeLength)
		end := len(buf)
		if next >= 0 {
			end = next
		}
		for end > i+startCodeLength && buf[end-1] == 0 {
			end--
		}
		out = append(out, ebdu{bduType: bduType, data: buf[i:end]})
		i = next
	}
	return out, nil
}

// shouldDelimitAU reports whether bduType, encountered directly after
// prevBDUType, starts a new access unit, following
// vc1_find_au_delimit_by_bdu_type: within one access unit the EBDU types
// never increase (sequence header, entry point, frame, field, slice), so
// any increase opens a new unit, as does a frame start code directly
// after another frame start code.
func shouldDelimitAU(bduType, prevBDUType byte) bool {
	return bduType > prevBDUType || (bduType == BDUFrame && prevBDUType == BDUFrame)
}

func isCodedBDU(t byte) bool {
	return t >= BDUEndOfSequence && t <= BDUSequenceHeader
}
