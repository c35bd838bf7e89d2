package mp4

/*************************** co64 ****************************/

// Co64 is ISOBMFF co64 box type, the 64-bit chunk-offset table used once a
// movie's mdat offset exceeds 32 bits.
type Co64 struct {
	FullBox
	EntryCount  uint32
	ChunkOffset []uint64
}

// Type returns the BoxType.
func (*Co64) Type() BoxType { return boxType("co64") }

// Size returns the marshaled size in bytes.
func (b *Co64) Size() int { return 8 + len(b.ChunkOffset)*8 }

// Marshal box to buffer.
func (b *Co64) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.EntryCount)
	for _, offset := range b.ChunkOffset {
		WriteUint64(buf, pos, offset)
	}
}

// Unmarshal parses a Co64 payload.
func (b *Co64) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	b.ChunkOffset = make([]uint64, b.EntryCount)
	for i := range b.ChunkOffset {
		b.ChunkOffset[i] = ReadUint64(buf, &pos)
	}
	return pos, nil
}

/*************************** ctts ****************************/

// CttsEntry .
type CttsEntry struct {
	SampleCount  uint32
	SampleOffset int32
}

// Ctts is ISOBMFF ctts box type, decode-to-composition offsets.
type Ctts struct {
	FullBox
	EntryCount uint32
	Entries    []CttsEntry
}

// Type returns the BoxType.
func (*Ctts) Type() BoxType { return boxType("ctts") }

// Size returns the marshaled size in bytes.
func (b *Ctts) Size() int { return 8 + len(b.Entries)*8 }

// Marshal box to buffer.
func (b *Ctts) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.EntryCount)
	for _, e := range b.Entries {
		WriteUint32(buf, pos, e.SampleCount)
		WriteUint32(buf, pos, uint32(e.SampleOffset))
	}
}

// Unmarshal parses a Ctts payload. Version 0's unsigned offsets and
// version 1's signed offsets share the same wire width.
func (b *Ctts) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	b.Entries = make([]CttsEntry, b.EntryCount)
	for i := range b.Entries {
		b.Entries[i].SampleCount = ReadUint32(buf, &pos)
		b.Entries[i].SampleOffset = int32(ReadUint32(buf, &pos))
	}
	return pos, nil
}

/*************************** stss ****************************/

// Stss is ISOBMFF stss box type, the sync-sample (random access point) table.
type Stss struct {
	FullBox
	EntryCount    uint32
	SampleNumbers []uint32
}

// Type returns the BoxType.
func (*Stss) Type() BoxType { return boxType("stss") }

// Size returns the marshaled size in bytes.
func (b *Stss) Size() int { return 8 + len(b.SampleNumbers)*4 }

// Marshal box to buffer.
func (b *Stss) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.EntryCount)
	for _, n := range b.SampleNumbers {
		WriteUint32(buf, pos, n)
	}
}

// Unmarshal parses a Stss payload.
func (b *Stss) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	b.SampleNumbers = make([]uint32, b.EntryCount)
	for i := range b.SampleNumbers {
		b.SampleNumbers[i] = ReadUint32(buf, &pos)
	}
	return pos, nil
}

/*************************** sdtp ****************************/

// Sdtp is ISOBMFF sdtp box type, per-sample dependency flags.
type Sdtp struct {
	FullBox
	// One byte per sample: is_leading(2) sample_depends_on(2)
	// sample_is_depended_on(2) sample_has_redundancy(2).
	Entries []byte
}

// Type returns the BoxType.
func (*Sdtp) Type() BoxType { return boxType("sdtp") }

// Size returns the marshaled size in bytes.
func (b *Sdtp) Size() int { return 4 + len(b.Entries) }

// Marshal box to buffer.
func (b *Sdtp) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	Write(buf, pos, b.Entries)
}

// Unmarshal parses a Sdtp payload.
func (b *Sdtp) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.Entries = append([]byte(nil), buf[pos:]...)
	pos += len(b.Entries)
	return pos, nil
}

/*************************** elst ****************************/

// ElstEntry .
type ElstEntry struct {
	SegmentDurationV0 uint32
	MediaTimeV0       int32
	SegmentDurationV1 uint64
	MediaTimeV1       int64
	MediaRateInteger  int16
	MediaRateFraction int16
}

// Elst is ISOBMFF elst box type, the movie-level edit list.
type Elst struct {
	FullBox
	EntryCount uint32
	Entries    []ElstEntry
}

// Type returns the BoxType.
func (*Elst) Type() BoxType { return boxType("elst") }

// Size returns the marshaled size in bytes.
func (b *Elst) Size() int {
	entrySize := 12
	if b.FullBox.Version == 1 {
		entrySize = 20
	}
	return 8 + len(b.Entries)*entrySize
}

// Marshal box to buffer.
func (b *Elst) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.EntryCount)
	for _, e := range b.Entries {
		if b.FullBox.Version == 0 {
			WriteUint32(buf, pos, e.SegmentDurationV0)
			WriteUint32(buf, pos, uint32(e.MediaTimeV0))
		} else {
			WriteUint64(buf, pos, e.SegmentDurationV1)
			WriteUint64(buf, pos, uint64(e.MediaTimeV1))
		}
		WriteUint16(buf, pos, uint16(e.MediaRateInteger))
		WriteUint16(buf, pos, uint16(e.MediaRateFraction))
	}
}

// Unmarshal parses a Elst payload.
func (b *Elst) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	b.Entries = make([]ElstEntry, b.EntryCount)
	for i := range b.Entries {
		e := &b.Entries[i]
		if b.FullBox.Version == 0 {
			e.SegmentDurationV0 = ReadUint32(buf, &pos)
			e.MediaTimeV0 = int32(ReadUint32(buf, &pos))
		} else {
			e.SegmentDurationV1 = ReadUint64(buf, &pos)
			e.MediaTimeV1 = int64(ReadUint64(buf, &pos))
		}
		e.MediaRateInteger = int16(ReadUint16(buf, &pos))
		e.MediaRateFraction = int16(ReadUint16(buf, &pos))
	}
	return pos, nil
}

/*************************** edts ****************************/

// Edts is ISOBMFF edts box type, container for elst.
type Edts struct{}

// Type returns the BoxType.
func (*Edts) Type() BoxType { return boxType("edts") }

// Size returns the marshaled size in bytes.
func (*Edts) Size() int { return 0 }

// Marshal is never called.
func (*Edts) Marshal(buf []byte, pos *int) {}

/*************************** tref ****************************/

// TrefContainer is the outer ISOBMFF tref box, a pure container whose
// children are one Tref per reference type (see Tref below), following the
// teacher's Edts/Udta no-payload-container shape.
type TrefContainer struct{}

// Type returns the BoxType.
func (*TrefContainer) Type() BoxType { return boxType("tref") }

// Size returns the marshaled size in bytes.
func (*TrefContainer) Size() int { return 0 }

// Marshal is never called.
func (*TrefContainer) Marshal(buf []byte, pos *int) {}

// Tref is one track-reference-type child of tref ('hint', 'cdsc', 'chap',
// ...): a list of track IDs this track references for that purpose.
type Tref struct {
	ReferenceType BoxType
	TrackIDs      []uint32
}

// Type returns the reference type as the child box's own 4CC (e.g. 'chap'),
// falling back to "tref" only for backward-compatible direct parsing of a
// childless single-reference tref.
func (b *Tref) Type() BoxType {
	if b.ReferenceType == (BoxType{}) {
		return boxType("tref")
	}
	return b.ReferenceType
}

// Size returns the marshaled size in bytes.
func (b *Tref) Size() int { return len(b.TrackIDs) * 4 }

// Marshal box to buffer.
func (b *Tref) Marshal(buf []byte, pos *int) {
	for _, id := range b.TrackIDs {
		WriteUint32(buf, pos, id)
	}
}

// Unmarshal parses a tref's reference-type child box body (the "tref" box
// itself is a pure container handled by Parse; this applies to its child,
// e.g. 'chap').
func (b *Tref) Unmarshal(buf []byte) (int, error) {
	b.TrackIDs = make([]uint32, len(buf)/4)
	pos := 0
	for i := range b.TrackIDs {
		b.TrackIDs[i] = ReadUint32(buf, &pos)
	}
	return pos, nil
}

/*************************** free / skip **********************/

// Free is ISOBMFF free/skip box type, a padding placeholder with no
// semantic content.
type Free struct {
	BoxT BoxType
	Data []byte
}

// Type returns the BoxType.
func (b *Free) Type() BoxType {
	if b.BoxT == (BoxType{}) {
		return boxType("free")
	}
	return b.BoxT
}

// Size returns the marshaled size in bytes.
func (b *Free) Size() int { return len(b.Data) }

// Marshal box to buffer.
func (b *Free) Marshal(buf []byte, pos *int) {
	Write(buf, pos, b.Data)
}

// Unmarshal parses a Free/Skip payload.
func (b *Free) Unmarshal(buf []byte) (int, error) {
	b.Data = append([]byte(nil), buf...)
	return len(buf), nil
}

/*************************** udta ****************************/

// Udta is ISOBMFF udta box type, a container for free-form user metadata.
type Udta struct{}

// Type returns the BoxType.
func (*Udta) Type() BoxType { return boxType("udta") }

// Size returns the marshaled size in bytes.
func (*Udta) Size() int { return 0 }

// Marshal is never called.
func (*Udta) Marshal(buf []byte, pos *int) {}

/*************************** mehd ****************************/

// Mehd is ISOBMFF mehd box type, the fragmented-movie duration placeholder.
type Mehd struct {
	FullBox
	FragmentDurationV0 uint32
	FragmentDurationV1 uint64
}

// Type returns the BoxType.
func (*Mehd) Type() BoxType { return boxType("mehd") }

// Size returns the marshaled size in bytes.
func (b *Mehd) Size() int {
	if b.FullBox.Version == 0 {
		return 8
	}
	return 12
}

// Marshal box to buffer.
func (b *Mehd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	if b.FullBox.Version == 0 {
		WriteUint32(buf, pos, b.FragmentDurationV0)
	} else {
		WriteUint64(buf, pos, b.FragmentDurationV1)
	}
}

// Unmarshal parses a Mehd payload.
func (b *Mehd) Unmarshal(buf []byte) (int, error) {
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	if b.FullBox.Version == 0 {
		b.FragmentDurationV0 = ReadUint32(buf, &pos)
	} else {
		b.FragmentDurationV1 = ReadUint64(buf, &pos)
	}
	return pos, nil
}

/*************************** tfra ****************************/

// TfraEntry .
type TfraEntry struct {
	TimeV0       uint32
	MoofOffsetV0 uint32
	TimeV1       uint64
	MoofOffsetV1 uint64
	TrafNumber   uint32
	TrunNumber   uint32
	SampleNumber uint32
}

// Tfra is ISOBMFF tfra box type, the per-track fragment random-access index
// stored in the movie fragment random access box.
type Tfra struct {
	FullBox
	TrackID               uint32
	Reserved              uint32 // 26 bits reserved
	LengthSizeOfTrafNum   uint8  // 2 bits
	LengthSizeOfTrunNum   uint8  // 2 bits
	LengthSizeOfSampleNum uint8  // 2 bits
	NumberOfEntry         uint32
	Entries               []TfraEntry
}

// Type returns the BoxType.
func (*Tfra) Type() BoxType { return boxType("tfra") }

// Size returns the marshaled size in bytes.
func (b *Tfra) Size() int {
	entrySize := 8 + int(b.LengthSizeOfTrafNum) + 1 +
		int(b.LengthSizeOfTrunNum) + 1 + int(b.LengthSizeOfSampleNum) + 1
	if b.FullBox.Version == 1 {
		entrySize += 8
	}
	return 16 + len(b.Entries)*entrySize
}

// Marshal box to buffer.
func (b *Tfra) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.TrackID)
	WriteUint32(buf, pos, uint32(b.LengthSizeOfTrafNum&0x3)<<4|uint32(b.LengthSizeOfTrunNum&0x3)<<2|uint32(b.LengthSizeOfSampleNum&0x3))
	WriteUint32(buf, pos, b.NumberOfEntry)
	for _, e := range b.Entries {
		if b.FullBox.Version == 0 {
			WriteUint32(buf, pos, e.TimeV0)
			WriteUint32(buf, pos, e.MoofOffsetV0)
		} else {
			WriteUint64(buf, pos, e.TimeV1)
			WriteUint64(buf, pos, e.MoofOffsetV1)
		}
		writeSizedUint(buf, pos, e.TrafNumber, int(b.LengthSizeOfTrafNum)+1)
		writeSizedUint(buf, pos, e.TrunNumber, int(b.LengthSizeOfTrunNum)+1)
		writeSizedUint(buf, pos, e.SampleNumber, int(b.LengthSizeOfSampleNum)+1)
	}
}

// Unmarshal parses a Tfra payload.
func (b *Tfra) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 12 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.TrackID = ReadUint32(buf, &pos)
	sizes := ReadUint32(buf, &pos)
	b.LengthSizeOfTrafNum = uint8(sizes >> 4 & 0x3)
	b.LengthSizeOfTrunNum = uint8(sizes >> 2 & 0x3)
	b.LengthSizeOfSampleNum = uint8(sizes & 0x3)
	b.NumberOfEntry = ReadUint32(buf, &pos)
	b.Entries = make([]TfraEntry, b.NumberOfEntry)
	for i := range b.Entries {
		e := &b.Entries[i]
		if b.FullBox.Version == 0 {
			e.TimeV0 = ReadUint32(buf, &pos)
			e.MoofOffsetV0 = ReadUint32(buf, &pos)
		} else {
			e.TimeV1 = ReadUint64(buf, &pos)
			e.MoofOffsetV1 = ReadUint64(buf, &pos)
		}
		e.TrafNumber = readSizedUint(buf, &pos, int(b.LengthSizeOfTrafNum)+1)
		e.TrunNumber = readSizedUint(buf, &pos, int(b.LengthSizeOfTrunNum)+1)
		e.SampleNumber = readSizedUint(buf, &pos, int(b.LengthSizeOfSampleNum)+1)
	}
	return pos, nil
}

func writeSizedUint(buf []byte, pos *int, v uint32, size int) {
	for i := size - 1; i >= 0; i-- {
		WriteByte(buf, pos, byte(v>>(8*i)))
	}
}

func readSizedUint(buf []byte, pos *int, size int) uint32 {
	var v uint32
	for i := 0; i < size; i++ {
		v = v<<8 | uint32(ReadByte(buf, pos))
	}
	return v
}

/*************************** mfro ****************************/

// Mfro is ISOBMFF mfro box type, the mfra trailer giving its own total size
// so a reader can locate mfra by seeking back from end-of-file.
type Mfro struct {
	FullBox
	Size_ uint32
}

// Type returns the BoxType.
func (*Mfro) Type() BoxType { return boxType("mfro") }

// Size returns the marshaled size in bytes.
func (b *Mfro) Size() int { return 8 }

// Marshal box to buffer.
func (b *Mfro) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.Size_)
}

// Unmarshal parses a Mfro payload.
func (b *Mfro) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.Size_ = ReadUint32(buf, &pos)
	return pos, nil
}

/*************************** mfra ****************************/

// Mfra is ISOBMFF mfra box type, the fragment random-access index
// container placed at the end of a fragmented file.
type Mfra struct{}

// Type returns the BoxType.
func (*Mfra) Type() BoxType { return boxType("mfra") }

// Size returns the marshaled size in bytes.
func (*Mfra) Size() int { return 0 }

// Marshal is never called.
func (*Mfra) Marshal(buf []byte, pos *int) {}

/*************************** sgpd ****************************/

// SgpdEntry is one sample-group description entry. Payload is the raw
// group-description payload (e.g. 2 bytes for 'roll', 1 byte for 'rap ').
type SgpdEntry struct {
	DescriptionLength uint32 // version >= 1 only
	Payload           []byte
}

// Sgpd is ISOBMFF sgpd box type, sample group description.
type Sgpd struct {
	FullBox
	GroupingType            BoxType
	DefaultLength           uint32 // version == 1
	DefaultSampleDescrIndex uint32 // version >= 2
	EntryCount              uint32
	Entries                 []SgpdEntry
}

// Type returns the BoxType.
func (*Sgpd) Type() BoxType { return boxType("sgpd") }

// Size returns the marshaled size in bytes.
func (b *Sgpd) Size() int {
	total := 8
	if b.FullBox.Version == 1 {
		total += 4
	} else if b.FullBox.Version >= 2 {
		total += 4
	}
	total += 4
	for _, e := range b.Entries {
		if b.FullBox.Version == 1 && b.DefaultLength == 0 {
			total += 4
		}
		total += len(e.Payload)
	}
	return total
}

// Marshal box to buffer.
func (b *Sgpd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	Write(buf, pos, b.GroupingType[:])
	if b.FullBox.Version == 1 {
		WriteUint32(buf, pos, b.DefaultLength)
	} else if b.FullBox.Version >= 2 {
		WriteUint32(buf, pos, b.DefaultSampleDescrIndex)
	}
	WriteUint32(buf, pos, b.EntryCount)
	for _, e := range b.Entries {
		if b.FullBox.Version == 1 && b.DefaultLength == 0 {
			WriteUint32(buf, pos, uint32(len(e.Payload)))
		}
		Write(buf, pos, e.Payload)
	}
}

// Unmarshal parses a Sgpd payload.
func (b *Sgpd) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 12 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	copy(b.GroupingType[:], buf[pos:pos+4])
	pos += 4
	if b.FullBox.Version == 1 {
		b.DefaultLength = ReadUint32(buf, &pos)
	} else if b.FullBox.Version >= 2 {
		b.DefaultSampleDescrIndex = ReadUint32(buf, &pos)
	}
	b.EntryCount = ReadUint32(buf, &pos)
	b.Entries = make([]SgpdEntry, b.EntryCount)
	for i := range b.Entries {
		length := b.DefaultLength
		if b.FullBox.Version == 1 && b.DefaultLength == 0 {
			length = ReadUint32(buf, &pos)
			b.Entries[i].DescriptionLength = length
		}
		b.Entries[i].Payload = append([]byte(nil), buf[pos:pos+int(length)]...)
		pos += int(length)
	}
	return pos, nil
}

/*************************** sbgp ****************************/

// SbgpEntry .
type SbgpEntry struct {
	SampleCount           uint32
	GroupDescriptionIndex uint32
}

// Sbgp is ISOBMFF sbgp box type, sample-to-group mapping.
type Sbgp struct {
	FullBox
	GroupingType          BoxType
	GroupingTypeParameter uint32 // version == 1 only
	EntryCount            uint32
	Entries               []SbgpEntry
}

// Type returns the BoxType.
func (*Sbgp) Type() BoxType { return boxType("sbgp") }

// Size returns the marshaled size in bytes.
func (b *Sbgp) Size() int {
	total := 12
	if b.FullBox.Version == 1 {
		total += 4
	}
	total += len(b.Entries) * 8
	return total
}

// Marshal box to buffer.
func (b *Sbgp) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	Write(buf, pos, b.GroupingType[:])
	if b.FullBox.Version == 1 {
		WriteUint32(buf, pos, b.GroupingTypeParameter)
	}
	WriteUint32(buf, pos, b.EntryCount)
	for _, e := range b.Entries {
		WriteUint32(buf, pos, e.SampleCount)
		WriteUint32(buf, pos, e.GroupDescriptionIndex)
	}
}

// Unmarshal parses a Sbgp payload.
func (b *Sbgp) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 12 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	copy(b.GroupingType[:], buf[pos:pos+4])
	pos += 4
	if b.FullBox.Version == 1 {
		b.GroupingTypeParameter = ReadUint32(buf, &pos)
	}
	b.EntryCount = ReadUint32(buf, &pos)
	b.Entries = make([]SbgpEntry, b.EntryCount)
	for i := range b.Entries {
		b.Entries[i].SampleCount = ReadUint32(buf, &pos)
		b.Entries[i].GroupDescriptionIndex = ReadUint32(buf, &pos)
	}
	return pos, nil
}

/*************************** cslg ****************************/

// Cslg is ISOBMFF cslg box type, the composition-to-decode box summarizing
// the range of composition offsets a track uses.
type Cslg struct {
	FullBox
	CompositionToDTSShift        int32
	LeastDecodeToDisplayDelta    int32
	GreatestDecodeToDisplayDelta int32
	CompositionStartTime         int32
	CompositionEndTime           int32
}

// Type returns the BoxType.
func (*Cslg) Type() BoxType { return boxType("cslg") }

// Size returns the marshaled size in bytes.
func (b *Cslg) Size() int { return 4 + 20 }

// Marshal box to buffer.
func (b *Cslg) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, uint32(b.CompositionToDTSShift))
	WriteUint32(buf, pos, uint32(b.LeastDecodeToDisplayDelta))
	WriteUint32(buf, pos, uint32(b.GreatestDecodeToDisplayDelta))
	WriteUint32(buf, pos, uint32(b.CompositionStartTime))
	WriteUint32(buf, pos, uint32(b.CompositionEndTime))
}

// Unmarshal parses a Cslg payload.
func (b *Cslg) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 24 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.CompositionToDTSShift = int32(ReadUint32(buf, &pos))
	b.LeastDecodeToDisplayDelta = int32(ReadUint32(buf, &pos))
	b.GreatestDecodeToDisplayDelta = int32(ReadUint32(buf, &pos))
	b.CompositionStartTime = int32(ReadUint32(buf, &pos))
	b.CompositionEndTime = int32(ReadUint32(buf, &pos))
	return pos, nil
}

/*************************** stsh ****************************/

// StshEntry .
type StshEntry struct {
	ShadowedSampleNumber uint32
	SyncSampleNumber     uint32
}

// Stsh is ISOBMFF stsh box type, shadow-sync table (rarely used).
type Stsh struct {
	FullBox
	EntryCount uint32
	Entries    []StshEntry
}

// Type returns the BoxType.
func (*Stsh) Type() BoxType { return boxType("stsh") }

// Size returns the marshaled size in bytes.
func (b *Stsh) Size() int { return 8 + len(b.Entries)*8 }

// Marshal box to buffer.
func (b *Stsh) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.EntryCount)
	for _, e := range b.Entries {
		WriteUint32(buf, pos, e.ShadowedSampleNumber)
		WriteUint32(buf, pos, e.SyncSampleNumber)
	}
}

// Unmarshal parses a Stsh payload.
func (b *Stsh) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	b.Entries = make([]StshEntry, b.EntryCount)
	for i := range b.Entries {
		b.Entries[i].ShadowedSampleNumber = ReadUint32(buf, &pos)
		b.Entries[i].SyncSampleNumber = ReadUint32(buf, &pos)
	}
	return pos, nil
}

/*************************** stps ****************************/

// Stps is ISOBMFF stps box type (QT partial-sync table: samples that are
// usable random-access points despite not being full sync samples).
type Stps struct {
	FullBox
	EntryCount    uint32
	SampleNumbers []uint32
}

// Type returns the BoxType.
func (*Stps) Type() BoxType { return boxType("stps") }

// Size returns the marshaled size in bytes.
func (b *Stps) Size() int { return 8 + len(b.SampleNumbers)*4 }

// Marshal box to buffer.
func (b *Stps) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.EntryCount)
	for _, n := range b.SampleNumbers {
		WriteUint32(buf, pos, n)
	}
}

// Unmarshal parses a Stps payload.
func (b *Stps) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	b.SampleNumbers = make([]uint32, b.EntryCount)
	for i := range b.SampleNumbers {
		b.SampleNumbers[i] = ReadUint32(buf, &pos)
	}
	return pos, nil
}

/*************************** chpl ****************************/

// ChplEntry is one QuickTime-style chapter-list entry (used when a chapter
// track is represented as 'chpl' user data rather than a text track).
type ChplEntry struct {
	StartTime uint64
	Title     string
}

// Chpl is ISOBMFF/QT chpl box type, the chapter list.
type Chpl struct {
	FullBox
	Reserved   uint8
	EntryCount uint8
	Entries    []ChplEntry
}

// Type returns the BoxType.
func (*Chpl) Type() BoxType { return boxType("chpl") }

// Size returns the marshaled size in bytes.
func (b *Chpl) Size() int {
	total := 6
	for _, e := range b.Entries {
		total += 9 + len(e.Title)
	}
	return total
}

// Marshal box to buffer.
func (b *Chpl) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteByte(buf, pos, b.Reserved)
	WriteByte(buf, pos, b.EntryCount)
	for _, e := range b.Entries {
		WriteUint64(buf, pos, e.StartTime)
		WriteByte(buf, pos, uint8(len(e.Title)))
		Write(buf, pos, []byte(e.Title))
	}
}

// Unmarshal parses a Chpl payload.
func (b *Chpl) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 6 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.Reserved = ReadByte(buf, &pos)
	b.EntryCount = ReadByte(buf, &pos)
	b.Entries = make([]ChplEntry, b.EntryCount)
	for i := range b.Entries {
		b.Entries[i].StartTime = ReadUint64(buf, &pos)
		titleLen := int(ReadByte(buf, &pos))
		b.Entries[i].Title = string(buf[pos : pos+titleLen])
		pos += titleLen
	}
	return pos, nil
}

/*************************** iods ****************************/

// Iods is a minimal ISOBMFF iods box type: only the object-descriptor
// profile/level bytes an MP4 v1 reader actually inspects, not a full
// MPEG-4 systems object-descriptor tree (see scope limits in DESIGN.md).
type Iods struct {
	FullBox
	ODProfileLevel       uint8
	SceneProfileLevel    uint8
	AudioProfileLevel    uint8
	VisualProfileLevel   uint8
	GraphicsProfileLevel uint8
}

// Type returns the BoxType.
func (*Iods) Type() BoxType { return boxType("iods") }

// Size returns the marshaled size in bytes.
func (b *Iods) Size() int { return 4 + 10 }

// Marshal box to buffer. Encodes a minimal MP4_IOD descriptor
// (tag 0x10) wide enough for an MP4 v1 reader's expectations.
func (b *Iods) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteByte(buf, pos, 0x10) // MP4_IOD_Tag
	WriteByte(buf, pos, 0x08) // expandable class size, 8 remaining bytes
	WriteUint16(buf, pos, 0x4fff)
	WriteByte(buf, pos, 0xff)
	WriteByte(buf, pos, b.ODProfileLevel)
	WriteByte(buf, pos, b.SceneProfileLevel)
	WriteByte(buf, pos, b.AudioProfileLevel)
	WriteByte(buf, pos, b.VisualProfileLevel)
	WriteByte(buf, pos, b.GraphicsProfileLevel)
}

// Unmarshal parses a minimal Iods payload in the layout Marshal produces.
func (b *Iods) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 14 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	pos += 5 // tag, size, ObjectDescriptorID/flags (2 bytes), 0xff filler
	b.ODProfileLevel = ReadByte(buf, &pos)
	b.SceneProfileLevel = ReadByte(buf, &pos)
	b.AudioProfileLevel = ReadByte(buf, &pos)
	b.VisualProfileLevel = ReadByte(buf, &pos)
	b.GraphicsProfileLevel = ReadByte(buf, &pos)
	return pos, nil
}

/*************************** raw / generic sample entries *****/

// Raw is a generic opaque box this module does not decompose structurally
// (rarely-exercised QT/iTunes boxes per DESIGN.md's scope limits): it
// carries the box type and raw payload bytes through untouched.
type Raw struct {
	BoxT    BoxType
	Payload []byte
}

// Type returns the BoxType.
func (b *Raw) Type() BoxType { return b.BoxT }

// Size returns the marshaled size in bytes.
func (b *Raw) Size() int { return len(b.Payload) }

// Marshal box to buffer.
func (b *Raw) Marshal(buf []byte, pos *int) { Write(buf, pos, b.Payload) }

// Unmarshal stores buf verbatim as the payload.
func (b *Raw) Unmarshal(buf []byte) (int, error) {
	b.Payload = append([]byte(nil), buf...)
	return len(buf), nil
}

// GenericVisualSampleEntry is a visual sample-description entry (stsd
// child) for a codec this module represents structurally without a
// bespoke Go type (e.g. 'vc-1'): the fixed ISO visual sample entry header
// fields, plus a caller-supplied codec-config child
// (e.g. a 'dvc1' Raw box) carrying the decoder-specific bytes.
type GenericVisualSampleEntry struct {
	SampleEntry
	Format          BoxType
	Width           uint16
	Height          uint16
	Horizresolution uint32
	Vertresolution  uint32
	FrameCount      uint16
	Compressorname  [32]byte
	Depth           uint16
}

// Type returns the BoxType.
func (b *GenericVisualSampleEntry) Type() BoxType { return b.Format }

// Size returns the marshaled size in bytes.
func (b *GenericVisualSampleEntry) Size() int { return 78 }

// Marshal box to buffer, following the ISO VisualSampleEntry field layout.
func (b *GenericVisualSampleEntry) Marshal(buf []byte, pos *int) {
	b.SampleEntry.Marshal(buf, pos)
	WriteUint16(buf, pos, 0) // pre_defined
	WriteUint16(buf, pos, 0) // reserved
	for i := 0; i < 3; i++ {
		WriteUint32(buf, pos, 0) // pre_defined[3]
	}
	WriteUint16(buf, pos, b.Width)
	WriteUint16(buf, pos, b.Height)
	horiz, vert := b.Horizresolution, b.Vertresolution
	if horiz == 0 {
		horiz = 0x00480000
	}
	if vert == 0 {
		vert = 0x00480000
	}
	WriteUint32(buf, pos, horiz)
	WriteUint32(buf, pos, vert)
	WriteUint32(buf, pos, 0) // reserved
	frameCount := b.FrameCount
	if frameCount == 0 {
		frameCount = 1
	}
	WriteUint16(buf, pos, frameCount)
	Write(buf, pos, b.Compressorname[:])
	depth := b.Depth
	if depth == 0 {
		depth = 0x0018
	}
	WriteUint16(buf, pos, depth)
	WriteUint16(buf, pos, 0xffff) // pre_defined3 (-1)
}

// GenericAudioSampleEntry is an audio sample-description entry (stsd
// child) for a codec without a bespoke Go type, laid out as an ISO
// AudioSampleEntry.
type GenericAudioSampleEntry struct {
	SampleEntry
	Format       BoxType
	ChannelCount uint16
	SampleSize   uint16
	SampleRate   uint32 // integer Hz; Marshal writes it as 16.16 fixed point
}

// Type returns the BoxType.
func (b *GenericAudioSampleEntry) Type() BoxType { return b.Format }

// Size returns the marshaled size in bytes.
func (b *GenericAudioSampleEntry) Size() int { return 28 }

// Marshal box to buffer, following the ISO AudioSampleEntry field layout.
func (b *GenericAudioSampleEntry) Marshal(buf []byte, pos *int) {
	b.SampleEntry.Marshal(buf, pos)
	WriteUint16(buf, pos, 0) // entry_version
	for i := 0; i < 3; i++ {
		WriteUint16(buf, pos, 0) // reserved[3]
	}
	channelCount := b.ChannelCount
	if channelCount == 0 {
		channelCount = 2
	}
	WriteUint16(buf, pos, channelCount)
	sampleSize := b.SampleSize
	if sampleSize == 0 {
		sampleSize = 16
	}
	WriteUint16(buf, pos, sampleSize)
	WriteUint16(buf, pos, 0) // pre_defined
	WriteUint16(buf, pos, 0) // reserved2
	WriteUint32(buf, pos, b.SampleRate<<16)
}

// TextSampleEntry is a minimal QT/3GPP text sample-description entry
// (stsd child) used for chapter reference tracks: just the common
// sample-entry header plus an opaque codec-specific tail (QT 'text' has a
// ~36-byte fixed layout plus an optional font table; 3GPP 'tx3g' has its
// own fixed layout), following the scope limit in DESIGN.md of
// representing rarely-exercised structural detail opaquely.
type TextSampleEntry struct {
	SampleEntry
	Format BoxType
	Tail   []byte
}

// Type returns the BoxType.
func (b *TextSampleEntry) Type() BoxType { return b.Format }

// Size returns the marshaled size in bytes.
func (b *TextSampleEntry) Size() int { return 8 + len(b.Tail) }

// Marshal box to buffer.
func (b *TextSampleEntry) Marshal(buf []byte, pos *int) {
	b.SampleEntry.Marshal(buf, pos)
	Write(buf, pos, b.Tail)
}
