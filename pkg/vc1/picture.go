package vc1

import (
	"bytes"

	"github.com/icza/bitio"
)

// Advanced Profile picture types, SMPTE 421M-2006 Table 34 (progressive /
// frame-interlace ptype) and Table 35 (field-interlace fptype).
const (
	pictureTypeP  uint8 = 0x0
	pictureTypeB  uint8 = 0x2
	pictureTypeI  uint8 = 0x6
	pictureTypeBI uint8 = 0xE

	fieldPictureTypeII   uint8 = 0x0
	fieldPictureTypeBB   uint8 = 0x4
	fieldPictureTypeBIBI uint8 = 0x7
)

const frameCodingModeFieldInterlace = 0x3

// picture holds the per-access-unit classification derived from its
// leading frame-header EBDU, mirroring vc1_picture_info_t.
type picture struct {
	frameCodingMode uint8
	pictureType     uint8
}

// readVLC reads a variable-length-coded value built of up-to-length '1'
// bits terminated by a '0' (or by exhausting length), per vc1_get_vlc.
func readVLC(br *bitio.Reader, length int) (uint8, error) {
	var value uint8
	for i := 0; i < length; i++ {
		bit, err := br.ReadBool()
		if err != nil {
			return 0, err
		}
		if bit {
			value = (value << 1) | 1
		} else {
			value <<= 1
			break
		}
	}
	return value, nil
}

// parseAdvancedPicture decodes a frame-start-code EBDU's RBDU payload just
// far enough to recover its frame_coding_mode and picture type, per
// vc1_parse_advanced_picture.
func parseAdvancedPicture(seq SequenceHeader, rbdu []byte) (picture, error) {
	br := bitio.NewReader(bytes.NewReader(rbdu))
	var p picture
	if seq.Interlace {
		mode, err := readVLC(br, 2)
		if err != nil {
			return p, err
		}
		p.frameCodingMode = mode
	}
	if p.frameCodingMode != frameCodingModeFieldInterlace {
		t, err := readVLC(br, 4)
		if err != nil {
			return p, err
		}
		p.pictureType = t
	} else {
		t, err := br.ReadBits(3)
		if err != nil {
			return p, err
		}
		p.pictureType = uint8(t)
	}
	return p, nil
}

// classify derives the dependency classification ISOBMFF sample grouping
// needs from a picture's type, per vc1_update_au_property.
func (p picture) classify() (independent, nonBipredictive, disposable bool) {
	if p.frameCodingMode == frameCodingModeFieldInterlace {
		independent = p.pictureType == fieldPictureTypeII || p.pictureType == fieldPictureTypeBIBI
		nonBipredictive = p.pictureType < fieldPictureTypeBB || p.pictureType == fieldPictureTypeBIBI
		disposable = p.pictureType >= fieldPictureTypeBB
		return
	}
	independent = p.pictureType == pictureTypeI || p.pictureType == pictureTypeBI
	nonBipredictive = p.pictureType != pictureTypeB
	disposable = p.pictureType == pictureTypeB || p.pictureType == pictureTypeBI
	return
}
