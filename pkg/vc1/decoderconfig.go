package vc1

// DecoderConfig is the VC1AdvDecSpecStruc decoder-configuration record
// this package writes as CodecSummary.DecoderConfig, grounded on
// lsmash_create_vc1_specific_info's dvc1-box payload layout (everything
// after the box's size/type header).
type DecoderConfig struct {
	Profile        uint8
	Level          uint8
	CBR            bool
	Interlaced     bool
	MultipleSeq    bool
	MultipleEntry  bool
	SlicePresent   bool
	BFramePresent  bool
	FrameRate      uint32 // 0xFFFFFFFF means unknown/variable
	SequenceHeader []byte // the seqhdr EBDU, start code included
	EntryPoint     []byte // the ephdr EBDU, start code included
}

// Marshal encodes c into the dvc1 box's payload bytes.
func (c DecoderConfig) Marshal() []byte {
	buf := make([]byte, 6, 6+len(c.SequenceHeader)+len(c.EntryPoint))
	buf[0] = (c.Profile << 4) | (c.Level << 1) // reserved bit 0

	var b1 uint8 = c.Level << 5
	if c.CBR {
		b1 |= 1 << 4
	}
	buf[1] = b1

	var b2 uint8
	if !c.Interlaced {
		b2 |= 1 << 5
	}
	if !c.MultipleSeq {
		b2 |= 1 << 4
	}
	if !c.MultipleEntry {
		b2 |= 1 << 3
	}
	if !c.SlicePresent {
		b2 |= 1 << 2
	}
	if !c.BFramePresent {
		b2 |= 1 << 1
	}
	buf[2] = b2

	buf[3] = byte(c.FrameRate >> 24)
	buf[4] = byte(c.FrameRate >> 16)
	buf[5] = byte(c.FrameRate >> 8)
	buf = append(buf, byte(c.FrameRate))
	buf = append(buf, c.SequenceHeader...)
	buf = append(buf, c.EntryPoint...)
	return buf
}
