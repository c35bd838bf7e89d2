package mp4

import "fmt"

// Unmarshal parses a Btrt payload.
func (b *Btrt) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 12 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.BufferSizeDB = ReadUint32(buf, &pos)
	b.MaxBitrate = ReadUint32(buf, &pos)
	b.AvgBitrate = ReadUint32(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Dref payload (entries are child boxes, parsed by Parse).
func (b *Dref) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Url payload.
func (b *Url) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	if !b.FullBox.CheckFlag(urlNopt) {
		b.Location = ReadString(buf, &pos)
	}
	return pos, nil
}

// Unmarshal parses a Ftyp payload.
func (b *Ftyp) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	copy(b.MajorBrand[:], buf[pos:pos+4])
	pos += 4
	b.MinorVersion = ReadUint32(buf, &pos)
	for pos+4 <= len(buf) {
		var e CompatibleBrandElem
		copy(e.CompatibleBrand[:], buf[pos:pos+4])
		pos += 4
		b.CompatibleBrands = append(b.CompatibleBrands, e)
	}
	return pos, nil
}

// Unmarshal parses a Hdlr payload.
func (b *Hdlr) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 4+4+4+12 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.PreDefined = ReadUint32(buf, &pos)
	copy(b.HandlerType[:], buf[pos:pos+4])
	pos += 4
	for i := range b.Reserved {
		b.Reserved[i] = ReadUint32(buf, &pos)
	}
	b.Name = ReadString(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Mdat payload. The payload is referenced, not copied.
func (b *Mdat) Unmarshal(buf []byte) (int, error) {
	b.Data = buf
	return len(buf), nil
}

// Unmarshal parses a Mdhd payload.
func (b *Mdhd) Unmarshal(buf []byte) (int, error) {
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	if b.FullBox.Version == 0 {
		if len(buf) < pos+18 {
			return 0, ErrBufferTooShort
		}
		b.CreationTimeV0 = ReadUint32(buf, &pos)
		b.ModificationTimeV0 = ReadUint32(buf, &pos)
	} else {
		if len(buf) < pos+30 {
			return 0, ErrBufferTooShort
		}
		b.CreationTimeV1 = ReadUint64(buf, &pos)
		b.ModificationTimeV1 = ReadUint64(buf, &pos)
	}
	b.Timescale = ReadUint32(buf, &pos)
	if b.FullBox.Version == 0 {
		b.DurationV0 = ReadUint32(buf, &pos)
	} else {
		b.DurationV1 = ReadUint64(buf, &pos)
	}
	byte0 := ReadByte(buf, &pos)
	byte1 := ReadByte(buf, &pos)
	b.Pad = byte0&0x80 != 0
	b.Language[0] = (byte0 >> 2) & 0x1f
	b.Language[1] = (byte0&0x3)<<3 | (byte1 >> 5)
	b.Language[2] = byte1 & 0x1f
	b.PreDefined = ReadUint16(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Mfhd payload.
func (b *Mfhd) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.SequenceNumber = ReadUint32(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Mvhd payload.
func (b *Mvhd) Unmarshal(buf []byte) (int, error) {
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	if b.FullBox.Version == 0 {
		b.CreationTimeV0 = ReadUint32(buf, &pos)
		b.ModificationTimeV0 = ReadUint32(buf, &pos)
	} else {
		b.CreationTimeV1 = ReadUint64(buf, &pos)
		b.ModificationTimeV1 = ReadUint64(buf, &pos)
	}
	b.Timescale = ReadUint32(buf, &pos)
	if b.FullBox.Version == 0 {
		b.DurationV0 = ReadUint32(buf, &pos)
	} else {
		b.DurationV1 = ReadUint64(buf, &pos)
	}
	b.Rate = int32(ReadUint32(buf, &pos))
	b.Volume = int16(ReadUint16(buf, &pos))
	b.Reserved = int16(ReadUint16(buf, &pos))
	for i := range b.Reserved2 {
		b.Reserved2[i] = ReadUint32(buf, &pos)
	}
	for i := range b.Matrix {
		b.Matrix[i] = int32(ReadUint32(buf, &pos))
	}
	for i := range b.PreDefined {
		b.PreDefined[i] = int32(ReadUint32(buf, &pos))
	}
	b.NextTrackID = ReadUint32(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Smhd payload.
func (b *Smhd) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.Balance = int16(ReadUint16(buf, &pos))
	b.Reserved = ReadUint16(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Stco payload.
func (b *Stco) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	if len(buf) < pos+int(b.EntryCount)*4 {
		return 0, fmt.Errorf("%w: stco entries", ErrBufferTooShort)
	}
	b.ChunkOffset = make([]uint32, b.EntryCount)
	for i := range b.ChunkOffset {
		b.ChunkOffset[i] = ReadUint32(buf, &pos)
	}
	return pos, nil
}

// Unmarshal parses a Stsc payload.
func (b *Stsc) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	if len(buf) < pos+int(b.EntryCount)*12 {
		return 0, fmt.Errorf("%w: stsc entries", ErrBufferTooShort)
	}
	b.Entries = make([]StscEntry, b.EntryCount)
	for i := range b.Entries {
		b.Entries[i].FirstChunk = ReadUint32(buf, &pos)
		b.Entries[i].SamplesPerChunk = ReadUint32(buf, &pos)
		b.Entries[i].SampleDescriptionIndex = ReadUint32(buf, &pos)
	}
	return pos, nil
}

// Unmarshal parses a Stsd payload. Sample entries that follow are parsed
// as children by Parse, not by this method.
func (b *Stsd) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Stsz payload.
func (b *Stsz) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 12 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.SampleSize = ReadUint32(buf, &pos)
	b.SampleCount = ReadUint32(buf, &pos)
	if b.SampleSize == 0 {
		if len(buf) < pos+int(b.SampleCount)*4 {
			return 0, fmt.Errorf("%w: stsz entries", ErrBufferTooShort)
		}
		b.EntrySize = make([]uint32, b.SampleCount)
		for i := range b.EntrySize {
			b.EntrySize[i] = ReadUint32(buf, &pos)
		}
	}
	return pos, nil
}

// Unmarshal parses a Stts payload.
func (b *Stts) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.EntryCount = ReadUint32(buf, &pos)
	if len(buf) < pos+int(b.EntryCount)*8 {
		return 0, fmt.Errorf("%w: stts entries", ErrBufferTooShort)
	}
	b.Entries = make([]SttsEntry, b.EntryCount)
	for i := range b.Entries {
		b.Entries[i].SampleCount = ReadUint32(buf, &pos)
		b.Entries[i].SampleDelta = ReadUint32(buf, &pos)
	}
	return pos, nil
}

// Unmarshal parses a Tfdt payload.
func (b *Tfdt) Unmarshal(buf []byte) (int, error) {
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	if b.FullBox.Version == 0 {
		if len(buf) < pos+4 {
			return 0, ErrBufferTooShort
		}
		b.BaseMediaDecodeTimeV0 = ReadUint32(buf, &pos)
	} else {
		if len(buf) < pos+8 {
			return 0, ErrBufferTooShort
		}
		b.BaseMediaDecodeTimeV1 = ReadUint64(buf, &pos)
	}
	return pos, nil
}

// Unmarshal parses a Tfhd payload.
func (b *Tfhd) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.TrackID = ReadUint32(buf, &pos)
	if b.FullBox.CheckFlag(TfhdBaseDataOffsetPresent) {
		b.BaseDataOffset = ReadUint64(buf, &pos)
	}
	if b.FullBox.CheckFlag(TfhdSampleDescriptionIndexPresent) {
		b.SampleDescriptionIndex = ReadUint32(buf, &pos)
	}
	if b.FullBox.CheckFlag(TfhdDefaultSampleDurationPresent) {
		b.DefaultSampleDuration = ReadUint32(buf, &pos)
	}
	if b.FullBox.CheckFlag(TfhdDefaultSampleSizePresent) {
		b.DefaultSampleSize = ReadUint32(buf, &pos)
	}
	if b.FullBox.CheckFlag(TfhdDefaultSampleFlagsPresent) {
		b.DefaultSampleFlags = ReadUint32(buf, &pos)
	}
	return pos, nil
}

// Unmarshal parses a Tkhd payload.
func (b *Tkhd) Unmarshal(buf []byte) (int, error) {
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	if b.FullBox.Version == 0 {
		b.CreationTimeV0 = ReadUint32(buf, &pos)
		b.ModificationTimeV0 = ReadUint32(buf, &pos)
	} else {
		b.CreationTimeV1 = ReadUint64(buf, &pos)
		b.ModificationTimeV1 = ReadUint64(buf, &pos)
	}
	b.TrackID = ReadUint32(buf, &pos)
	b.Reserved0 = ReadUint32(buf, &pos)
	if b.FullBox.Version == 0 {
		b.DurationV0 = ReadUint32(buf, &pos)
	} else {
		b.DurationV1 = ReadUint64(buf, &pos)
	}
	for i := range b.Reserved1 {
		b.Reserved1[i] = ReadUint32(buf, &pos)
	}
	b.Layer = int16(ReadUint16(buf, &pos))
	b.AlternateGroup = int16(ReadUint16(buf, &pos))
	b.Volume = int16(ReadUint16(buf, &pos))
	b.Reserved2 = ReadUint16(buf, &pos)
	for i := range b.Matrix {
		b.Matrix[i] = int32(ReadUint32(buf, &pos))
	}
	b.Width = ReadUint32(buf, &pos)
	b.Height = ReadUint32(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Trex payload.
func (b *Trex) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 24 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.TrackID = ReadUint32(buf, &pos)
	b.DefaultSampleDescriptionIndex = ReadUint32(buf, &pos)
	b.DefaultSampleDuration = ReadUint32(buf, &pos)
	b.DefaultSampleSize = ReadUint32(buf, &pos)
	b.DefaultSampleFlags = ReadUint32(buf, &pos)
	return pos, nil
}

// Unmarshal parses a Trun payload.
func (b *Trun) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.SampleCount = ReadUint32(buf, &pos)
	if b.FullBox.CheckFlag(TrunDataOffsetPresent) {
		b.DataOffset = int32(ReadUint32(buf, &pos))
	}
	if b.FullBox.CheckFlag(TrunFirstSampleFlagsPresent) {
		b.FirstSampleFlags = ReadUint32(buf, &pos)
	}
	b.Entries = make([]TrunEntry, b.SampleCount)
	for i := range b.Entries {
		e := &b.Entries[i]
		if b.FullBox.CheckFlag(TrunSampleDurationPresent) {
			e.SampleDuration = ReadUint32(buf, &pos)
		}
		if b.FullBox.CheckFlag(TrunSampleSizePresent) {
			e.SampleSize = ReadUint32(buf, &pos)
		}
		if b.FullBox.CheckFlag(TrunSampleFlagsPresent) {
			e.SampleFlags = ReadUint32(buf, &pos)
		}
		if b.FullBox.CheckFlag(TrunSampleCompositionTimeOffsetPresent) {
			if b.FullBox.Version == 0 {
				e.SampleCompositionTimeOffsetV0 = ReadUint32(buf, &pos)
			} else {
				e.SampleCompositionTimeOffsetV1 = int32(ReadUint32(buf, &pos))
			}
		}
	}
	return pos, nil
}

// Unmarshal parses a Vmhd payload.
func (b *Vmhd) Unmarshal(buf []byte) (int, error) {
	if len(buf) < 12 {
		return 0, ErrBufferTooShort
	}
	pos := 0
	b.FullBox.UnmarshalFullBox(buf, &pos)
	b.Graphicsmode = ReadUint16(buf, &pos)
	for i := range b.Opcolor {
		b.Opcolor[i] = ReadUint16(buf, &pos)
	}
	return pos, nil
}
