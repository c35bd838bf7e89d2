package mp4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// roundTrip marshals src, unmarshals into a fresh zero value of the same
// type and returns it for comparison against src.
func roundTrip(t *testing.T, src interface {
	ImmutableBox
	Unmarshaler
}, dst interface {
	ImmutableBox
	Unmarshaler
}) {
	t.Helper()
	buf := marshal(t, src)
	n, err := dst.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
}

func TestBtrtRoundTrip(t *testing.T) {
	src := &Btrt{BufferSizeDB: 1, MaxBitrate: 2, AvgBitrate: 3}
	dst := &Btrt{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestDrefRoundTrip(t *testing.T) {
	src := &Dref{FullBox: FullBox{Version: 0}, EntryCount: 3}
	dst := &Dref{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestUrlRoundTripWithLocation(t *testing.T) {
	src := &Url{Location: "file.mp4"}
	dst := &Url{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestUrlRoundTripSelfContained(t *testing.T) {
	src := &Url{FullBox: FullBox{Flags: flagsOf(0x01)}}
	dst := &Url{}
	roundTrip(t, src, dst)
	require.Equal(t, "", dst.Location)
}

func TestFtypRoundTrip(t *testing.T) {
	src := &Ftyp{
		MajorBrand:       [4]byte{'i', 's', 'o', 'm'},
		MinorVersion:     512,
		CompatibleBrands: []CompatibleBrandElem{{[4]byte{'i', 's', 'o', '2'}}, {[4]byte{'m', 'p', '4', '1'}}},
	}
	dst := &Ftyp{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestHdlrRoundTrip(t *testing.T) {
	src := &Hdlr{HandlerType: [4]byte{'s', 'o', 'u', 'n'}, Name: "SoundHandler"}
	dst := &Hdlr{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestMdatUnmarshalReferencesBufferWithoutCopy(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	dst := &Mdat{}
	n, err := dst.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	buf[0] = 0xFF
	require.Equal(t, byte(0xFF), dst.Data[0], "Mdat.Unmarshal must alias the input buffer, not copy it")
}

func TestMdhdRoundTripVersion0(t *testing.T) {
	src := &Mdhd{Timescale: 90000, DurationV0: 123456, Language: [3]byte{21, 21, 14}}
	dst := &Mdhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestMdhdRoundTripVersion1(t *testing.T) {
	src := &Mdhd{
		FullBox:        FullBox{Version: 1},
		Timescale:      1000,
		DurationV1:     1 << 40,
		CreationTimeV1: 1 << 33,
	}
	dst := &Mdhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestMfhdRoundTrip(t *testing.T) {
	src := &Mfhd{SequenceNumber: 42}
	dst := &Mfhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestMvhdRoundTripVersion0(t *testing.T) {
	src := &Mvhd{
		Timescale:   90000,
		DurationV0:  123,
		Rate:        0x00010000,
		Volume:      0x0100,
		Matrix:      [9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000},
		NextTrackID: 2,
	}
	dst := &Mvhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestMvhdRoundTripVersion1(t *testing.T) {
	src := &Mvhd{
		FullBox:     FullBox{Version: 1},
		Timescale:   1000,
		DurationV1:  1 << 40,
		NextTrackID: 5,
	}
	dst := &Mvhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestSmhdRoundTrip(t *testing.T) {
	src := &Smhd{Balance: -1}
	dst := &Smhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestStcoRoundTrip(t *testing.T) {
	src := &Stco{EntryCount: 3, ChunkOffset: []uint32{10, 20, 30}}
	dst := &Stco{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestStcoUnmarshalRejectsTruncatedEntryTable(t *testing.T) {
	b := &Stco{EntryCount: 5, ChunkOffset: []uint32{1}}
	buf := make([]byte, b.Size())
	pos := 0
	b.Marshal(buf, &pos)
	// EntryCount claims 5 entries but the buffer only holds 1.
	_, err := (&Stco{}).Unmarshal(buf)
	require.ErrorIs(t, err, ErrBufferTooShort)
}

func TestStscRoundTrip(t *testing.T) {
	src := &Stsc{EntryCount: 2, Entries: []StscEntry{
		{FirstChunk: 1, SamplesPerChunk: 10, SampleDescriptionIndex: 1},
		{FirstChunk: 11, SamplesPerChunk: 5, SampleDescriptionIndex: 1},
	}}
	dst := &Stsc{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestStsdUnmarshalLeavesEntriesToParse(t *testing.T) {
	src := &Stsd{EntryCount: 1}
	dst := &Stsd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestStszConstantSizeRoundTrip(t *testing.T) {
	src := &Stsz{SampleSize: 188, SampleCount: 10}
	dst := &Stsz{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
	require.Nil(t, dst.EntrySize)
}

func TestStszVaryingSizeRoundTrip(t *testing.T) {
	src := &Stsz{SampleCount: 3, EntrySize: []uint32{100, 200, 300}}
	dst := &Stsz{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestSttsRoundTrip(t *testing.T) {
	src := &Stts{EntryCount: 2, Entries: []SttsEntry{
		{SampleCount: 1, SampleDelta: 3003},
		{SampleCount: 100, SampleDelta: 3000},
	}}
	dst := &Stts{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTfdtRoundTripVersion0(t *testing.T) {
	src := &Tfdt{BaseMediaDecodeTimeV0: 90000}
	dst := &Tfdt{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTfdtRoundTripVersion1(t *testing.T) {
	src := &Tfdt{FullBox: FullBox{Version: 1}, BaseMediaDecodeTimeV1: 1 << 40}
	dst := &Tfdt{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTfhdRoundTripNoOptionalFields(t *testing.T) {
	src := &Tfhd{TrackID: 1}
	dst := &Tfhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTfhdRoundTripAllOptionalFields(t *testing.T) {
	flags := TfhdBaseDataOffsetPresent | TfhdSampleDescriptionIndexPresent |
		TfhdDefaultSampleDurationPresent | TfhdDefaultSampleSizePresent | TfhdDefaultSampleFlagsPresent
	src := &Tfhd{
		FullBox:                FullBox{Flags: flagsOf(uint32(flags))},
		TrackID:                9,
		BaseDataOffset:         1 << 40,
		SampleDescriptionIndex: 1,
		DefaultSampleDuration:  3000,
		DefaultSampleSize:      188,
		DefaultSampleFlags:     0x10000,
	}
	dst := &Tfhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTkhdRoundTripVersion0(t *testing.T) {
	src := &Tkhd{
		TrackID: 1,
		Matrix:  [9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000},
		Width:   1920 << 16,
		Height:  1080 << 16,
	}
	dst := &Tkhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTkhdRoundTripVersion1(t *testing.T) {
	src := &Tkhd{
		FullBox:    FullBox{Version: 1},
		TrackID:    2,
		DurationV1: 1 << 40,
	}
	dst := &Tkhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTrexRoundTrip(t *testing.T) {
	src := &Trex{
		TrackID:                       1,
		DefaultSampleDescriptionIndex: 1,
		DefaultSampleDuration:         3000,
		DefaultSampleSize:             188,
		DefaultSampleFlags:            0x10000,
	}
	dst := &Trex{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTrunRoundTripVersion0CompositionOffset(t *testing.T) {
	flags := TrunSampleDurationPresent | TrunSampleSizePresent | TrunSampleCompositionTimeOffsetPresent
	src := &Trun{
		FullBox:     FullBox{Flags: flagsOf(uint32(flags))},
		SampleCount: 2,
		Entries: []TrunEntry{
			{SampleDuration: 3000, SampleSize: 100, SampleCompositionTimeOffsetV0: 512},
			{SampleDuration: 3000, SampleSize: 200, SampleCompositionTimeOffsetV0: 0},
		},
	}
	dst := &Trun{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestTrunRoundTripVersion1NegativeCompositionOffset(t *testing.T) {
	flags := TrunSampleCompositionTimeOffsetPresent | TrunDataOffsetPresent | TrunFirstSampleFlagsPresent
	src := &Trun{
		FullBox:          FullBox{Version: 1, Flags: flagsOf(uint32(flags))},
		SampleCount:      1,
		DataOffset:       -8,
		FirstSampleFlags: 0x02000000,
		Entries: []TrunEntry{
			{SampleCompositionTimeOffsetV1: -100},
		},
	}
	dst := &Trun{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}

func TestVmhdRoundTrip(t *testing.T) {
	src := &Vmhd{Graphicsmode: 1, Opcolor: [3]uint16{1, 2, 3}}
	dst := &Vmhd{}
	roundTrip(t, src, dst)
	require.Equal(t, src, dst)
}
