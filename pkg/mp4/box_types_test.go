package mp4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, b ImmutableBox) []byte {
	t.Helper()
	buf := make([]byte, b.Size())
	pos := 0
	b.Marshal(buf, &pos)
	require.Equal(t, len(buf), pos)
	return buf
}

func TestFullBoxMarshal(t *testing.T) {
	b := FullBox{Version: 1, Flags: [3]byte{0x00, 0x01, 0x02}}
	buf := make([]byte, b.Size())
	pos := 0
	b.Marshal(buf, &pos)
	require.Equal(t, []byte{1, 0x00, 0x01, 0x02}, buf)
}

func TestFullBoxCheckFlag(t *testing.T) {
	b := FullBox{Flags: [3]byte{0x02, 0x00, 0x01}}
	require.True(t, b.CheckFlag(TfhdDefaultBaseIsMoof))
	require.True(t, b.CheckFlag(TfhdBaseDataOffsetPresent))
	require.False(t, b.CheckFlag(TfhdSampleDescriptionIndexPresent))
}

func TestBtrtMarshal(t *testing.T) {
	b := &Btrt{BufferSizeDB: 1, MaxBitrate: 2, AvgBitrate: 3}
	buf := marshal(t, b)
	require.Equal(t, []byte{
		0, 0, 0, 1,
		0, 0, 0, 2,
		0, 0, 0, 3,
	}, buf)
}

func TestDrefMarshal(t *testing.T) {
	b := &Dref{FullBox: FullBox{Version: 0}, EntryCount: 1}
	buf := marshal(t, b)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, buf)
}

func TestUrlMarshalWithLocation(t *testing.T) {
	b := &Url{Location: "file.mp4"}
	buf := marshal(t, b)
	require.Equal(t, append([]byte{0, 0, 0, 0}, append([]byte("file.mp4"), 0)...), buf)
}

func TestUrlMarshalSelfContainedOmitsLocation(t *testing.T) {
	b := &Url{FullBox: FullBox{Flags: [3]byte{0, 0, 0x01}}, Location: "unused"}
	buf := marshal(t, b)
	require.Equal(t, []byte{0, 0, 0, 0x01}, buf)
}

func TestFtypMarshal(t *testing.T) {
	b := &Ftyp{
		MajorBrand:       [4]byte{'i', 's', 'o', 'm'},
		MinorVersion:     1,
		CompatibleBrands: []CompatibleBrandElem{{[4]byte{'i', 's', 'o', '2'}}, {[4]byte{'m', 'p', '4', '1'}}},
	}
	buf := marshal(t, b)
	require.Equal(t, []byte("isom"), buf[0:4])
	require.Equal(t, []byte{0, 0, 0, 1}, buf[4:8])
	require.Equal(t, []byte("iso2"), buf[8:12])
	require.Equal(t, []byte("mp41"), buf[12:16])
}

func TestHdlrMarshal(t *testing.T) {
	b := &Hdlr{HandlerType: [4]byte{'v', 'i', 'd', 'e'}, Name: "VideoHandler"}
	buf := marshal(t, b)
	require.Equal(t, []byte("vide"), buf[8:12])
	require.Equal(t, append([]byte("VideoHandler"), 0), buf[len(buf)-13:])
}

func TestMdatMarshalWritesRawData(t *testing.T) {
	b := &Mdat{Data: []byte{1, 2, 3, 4}}
	require.Equal(t, []byte{1, 2, 3, 4}, marshal(t, b))
}

func TestMdhdMarshalVersion0(t *testing.T) {
	b := &Mdhd{Timescale: 90000, DurationV0: 123, Language: [3]byte{21, 21, 14}}
	require.Equal(t, 24, b.Size())
	buf := marshal(t, b)
	require.Equal(t, uint32(90000), ReadUint32(buf, ptr(12)))
}

func TestMdhdMarshalVersion1(t *testing.T) {
	b := &Mdhd{FullBox: FullBox{Version: 1}, Timescale: 1000, DurationV1: 99}
	require.Equal(t, 36, b.Size())
	buf := marshal(t, b)
	require.Len(t, buf, 36)
}

func TestMvhdMarshalVersion0And1Differ(t *testing.T) {
	v0 := &Mvhd{Timescale: 1000}
	v1 := &Mvhd{FullBox: FullBox{Version: 1}, Timescale: 1000}
	require.Equal(t, 100, v0.Size())
	require.Equal(t, 112, v1.Size())
}

func TestSmhdMarshal(t *testing.T) {
	b := &Smhd{Balance: 1}
	buf := marshal(t, b)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 1, 0, 0}, buf)
}

func TestStcoMarshal(t *testing.T) {
	b := &Stco{EntryCount: 2, ChunkOffset: []uint32{10, 20}}
	buf := marshal(t, b)
	require.Equal(t, uint32(10), ReadUint32(buf, ptr(8)))
	require.Equal(t, uint32(20), ReadUint32(buf, ptr(12)))
}

func TestStscMarshal(t *testing.T) {
	entries := []StscEntry{{FirstChunk: 1, SamplesPerChunk: 2, SampleDescriptionIndex: 1}}
	b := &Stsc{EntryCount: 1, Entries: entries}
	buf := marshal(t, b)
	require.Equal(t, 8+12, len(buf))
	require.Equal(t, uint32(1), ReadUint32(buf, ptr(8)))
}

func TestStsdMarshal(t *testing.T) {
	b := &Stsd{EntryCount: 1}
	require.Equal(t, 8, b.Size())
}

func TestStszConstantSampleSizeOmitsTable(t *testing.T) {
	b := &Stsz{SampleSize: 512, SampleCount: 10}
	require.Equal(t, 12, b.Size())
}

func TestStszVaryingSampleSizeIncludesTable(t *testing.T) {
	b := &Stsz{SampleCount: 2, EntrySize: []uint32{100, 200}}
	buf := marshal(t, b)
	require.Equal(t, uint32(100), ReadUint32(buf, ptr(12)))
	require.Equal(t, uint32(200), ReadUint32(buf, ptr(16)))
}

func TestSttsMarshal(t *testing.T) {
	b := &Stts{EntryCount: 1, Entries: []SttsEntry{{SampleCount: 5, SampleDelta: 3000}}}
	buf := marshal(t, b)
	require.Equal(t, uint32(5), ReadUint32(buf, ptr(8)))
	require.Equal(t, uint32(3000), ReadUint32(buf, ptr(12)))
}

func TestTfdtSizeByVersion(t *testing.T) {
	require.Equal(t, 8, (&Tfdt{}).Size())
	require.Equal(t, 12, (&Tfdt{FullBox: FullBox{Version: 1}}).Size())
}

func TestTfhdMarshalOmitsUnsetOptionalFields(t *testing.T) {
	b := &Tfhd{TrackID: 1}
	require.Equal(t, 8, b.Size())
	buf := marshal(t, b)
	require.Equal(t, uint32(1), ReadUint32(buf, ptr(4)))
}

func TestTfhdMarshalIncludesFlaggedOptionalFields(t *testing.T) {
	b := &Tfhd{
		FullBox:               FullBox{Flags: flagsOf(TfhdDefaultSampleDurationPresent | TfhdDefaultSampleSizePresent)},
		TrackID:               1,
		DefaultSampleDuration: 3000,
		DefaultSampleSize:     188,
	}
	require.Equal(t, 8+4+4, b.Size())
	buf := marshal(t, b)
	require.Equal(t, uint32(3000), ReadUint32(buf, ptr(8)))
	require.Equal(t, uint32(188), ReadUint32(buf, ptr(12)))
}

func TestTkhdSizeByVersion(t *testing.T) {
	require.Equal(t, 84, (&Tkhd{}).Size())
	require.Equal(t, 96, (&Tkhd{FullBox: FullBox{Version: 1}}).Size())
}

func TestTrexMarshal(t *testing.T) {
	b := &Trex{TrackID: 1, DefaultSampleDescriptionIndex: 1, DefaultSampleDuration: 3000, DefaultSampleSize: 188, DefaultSampleFlags: 0x10000}
	require.Equal(t, 24, b.Size())
	buf := marshal(t, b)
	require.Equal(t, uint32(1), ReadUint32(buf, ptr(4)))
}

func TestTrunMarshalWithEntriesAndFlags(t *testing.T) {
	b := &Trun{
		FullBox: FullBox{Flags: flagsOf(TrunSampleDurationPresent | TrunSampleSizePresent)},
		SampleCount: 2,
		Entries: []TrunEntry{
			{SampleDuration: 3000, SampleSize: 100},
			{SampleDuration: 3000, SampleSize: 200},
		},
	}
	require.Equal(t, 8+2*8, b.Size())
	buf := marshal(t, b)
	require.Equal(t, uint32(2), ReadUint32(buf, ptr(4)))
	require.Equal(t, uint32(3000), ReadUint32(buf, ptr(8)))
	require.Equal(t, uint32(100), ReadUint32(buf, ptr(12)))
}

func TestVmhdMarshal(t *testing.T) {
	b := &Vmhd{Graphicsmode: 1, Opcolor: [3]uint16{1, 2, 3}}
	buf := marshal(t, b)
	require.Equal(t, 12, len(buf))
	require.Equal(t, uint16(1), ReadUint16(buf, ptr(4)))
}

func ptr(v int) *int {
	p := v
	return &p
}

func flagsOf(v uint32) [3]byte {
	return [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
}
