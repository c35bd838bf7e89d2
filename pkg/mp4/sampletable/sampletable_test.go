package sampletable

import (
	"testing"

	"github.com/nazca/isomux/pkg/mp4"
	"github.com/stretchr/testify/require"
)

func TestBuilderSttsCompaction(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 100, Size: 10})
	b.Add(Sample{Duration: 100, Size: 10})
	b.Add(Sample{Duration: 200, Size: 10})

	require.Equal(t, []mp4.SttsEntry{
		{SampleCount: 2, SampleDelta: 100},
		{SampleCount: 1, SampleDelta: 200},
	}, b.Stts().Entries)
}

func TestBuilderStszConstantSize(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 500})
	b.Add(Sample{Duration: 1, Size: 500})

	stsz := b.Stsz()
	require.Equal(t, uint32(500), stsz.SampleSize)
	require.Equal(t, uint32(2), stsz.SampleCount)
	require.Nil(t, stsz.EntrySize)
}

func TestBuilderStszVaryingSize(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 500})
	b.Add(Sample{Duration: 1, Size: 600})

	stsz := b.Stsz()
	require.Equal(t, uint32(0), stsz.SampleSize)
	require.Equal(t, []uint32{500, 600}, stsz.EntrySize)
}

func TestBuilderStssOmittedWhenAllSync(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 1, Sync: true})
	b.Add(Sample{Duration: 1, Size: 1, Sync: true})

	require.False(t, b.HasNonSyncSample())
	require.Equal(t, []uint32{1, 2}, b.Stss().SampleNumbers)
}

func TestBuilderStssTracksNonSync(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 1, Sync: true})
	b.Add(Sample{Duration: 1, Size: 1, Sync: false})
	b.Add(Sample{Duration: 1, Size: 1, Sync: false})
	b.Add(Sample{Duration: 1, Size: 1, Sync: true})

	require.True(t, b.HasNonSyncSample())
	require.Equal(t, []uint32{1, 4}, b.Stss().SampleNumbers)
}

func TestBuilderSdtpNotUsedWhenAllDefault(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 1})
	b.Add(Sample{Duration: 1, Size: 1})

	require.False(t, b.HasNonDefaultDependency())
}

func TestBuilderSdtpUsedAndPacked(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 1})
	b.Add(Sample{Duration: 1, Size: 1, Leading: true, DependsOnOthers: true, IsDependedOn: true, HasRedundancy: true})

	require.True(t, b.HasNonDefaultDependency())
	entries := b.Sdtp().Entries
	require.Equal(t, byte(0x00), entries[0])
	require.Equal(t, byte(1<<6|1<<4|1<<2|1), entries[1])
}

func TestBuilderCompositionOffsetTracking(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 1, CompositionOffset: 0})
	require.False(t, b.HasCompositionOffsets())
	require.False(t, b.HasNegativeComposition())

	b.Add(Sample{Duration: 1, Size: 1, CompositionOffset: 5})
	require.True(t, b.HasCompositionOffsets())
	require.False(t, b.HasNegativeComposition())

	b.Add(Sample{Duration: 1, Size: 1, CompositionOffset: -3})
	require.True(t, b.HasNegativeComposition())
}

func TestBuilderCttsCompaction(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 1, CompositionOffset: 2})
	b.Add(Sample{Duration: 1, Size: 1, CompositionOffset: 2})
	b.Add(Sample{Duration: 1, Size: 1, CompositionOffset: 0})

	ctts := b.Ctts(1)
	require.Equal(t, uint8(1), ctts.Version)
	require.Equal(t, []mp4.CttsEntry{
		{SampleCount: 2, SampleOffset: 2},
		{SampleCount: 1, SampleOffset: 0},
	}, ctts.Entries)
}

func TestBuilderStscAccumulatesRunsAcrossChunks(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 1, ChunkIndex: 0})
	b.Add(Sample{Duration: 1, Size: 1, ChunkIndex: 0})
	b.Add(Sample{Duration: 1, Size: 1, ChunkIndex: 1})
	b.Add(Sample{Duration: 1, Size: 1, ChunkIndex: 2})
	b.Add(Sample{Duration: 1, Size: 1, ChunkIndex: 2})

	require.Equal(t, []mp4.StscEntry{
		{FirstChunk: 1, SamplesPerChunk: 2, SampleDescriptionIndex: 1},
		{FirstChunk: 2, SamplesPerChunk: 1, SampleDescriptionIndex: 1},
		{FirstChunk: 3, SamplesPerChunk: 2, SampleDescriptionIndex: 1},
	}, b.Stsc().Entries)
}

func TestBuilderStscSingleChunk(t *testing.T) {
	b := NewBuilder(1)
	b.Add(Sample{Duration: 1, Size: 1, ChunkIndex: 0})
	b.Add(Sample{Duration: 1, Size: 1, ChunkIndex: 0})

	require.Equal(t, []mp4.StscEntry{
		{FirstChunk: 1, SamplesPerChunk: 2, SampleDescriptionIndex: 1},
	}, b.Stsc().Entries)
}

func TestChunkOffsetBoxChoosesStco(t *testing.T) {
	box := ChunkOffsetBox([]uint64{0, 1000, 2000})
	stco, ok := box.(*mp4.Stco)
	require.True(t, ok)
	require.Equal(t, []uint32{0, 1000, 2000}, stco.ChunkOffset)
}

func TestChunkOffsetBoxPromotesToCo64(t *testing.T) {
	box := ChunkOffsetBox([]uint64{0, 1 << 33})
	co64, ok := box.(*mp4.Co64)
	require.True(t, ok)
	require.Equal(t, []uint64{0, 1 << 33}, co64.ChunkOffset)
}

func TestAllowsNegativeComposition(t *testing.T) {
	require.True(t, AllowsNegativeComposition(true, 0))
	require.True(t, AllowsNegativeComposition(false, 4))
	require.True(t, AllowsNegativeComposition(false, 5))
	require.False(t, AllowsNegativeComposition(false, 3))
}
