// Package sampletable builds the run-length-encoded sample tables
// (stts, ctts, stsc, stsz) and the chunk-offset table (stco/co64) from a
// flat, per-sample description of a track, the way a muxer accumulates
// them sample-by-sample rather than sorting a finished list.
package sampletable

import "github.com/nazca/isomux/pkg/mp4"

// Sample is the subset of per-sample bookkeeping the table builders need.
// Duration is this sample's stts delta (next sample's DTS minus this
// sample's DTS, or the track's default frame duration for the last sample
// of the track). CompositionOffset is PTS-DTS in media timescale units.
type Sample struct {
	Duration          uint32
	Size              uint32
	CompositionOffset int32
	ChunkIndex        int // 0-based index of the chunk this sample belongs to

	// Sync marks a sample as usable for random access without decoding any
	// prior sample (stss membership, S6).
	Sync bool
	// Leading, DependsOnOthers, IsDependedOn, HasRedundancy are the sdtp
	// dependency flags (§3 Sample Table). Only written to the track's
	// sdtp box at all if any sample in the track sets one of them away
	// from its default ("unknown"/false).
	Leading         bool
	DependsOnOthers bool
	IsDependedOn    bool
	HasRedundancy   bool
}

// Builder accumulates samples and produces the four sample-table boxes in
// their run-length-compacted form, mirroring the accumulate-then-flush
// pattern the reference muxer used per track.
type Builder struct {
	stts []mp4.SttsEntry
	ctts []mp4.CttsEntry
	stsz []uint32
	// stsc accumulation: one entry is opened per distinct
	// (chunk samples-per-chunk, sample description index) run.
	stsc                   []mp4.StscEntry
	lastChunk              int
	lastSamplesInChunk     uint32
	sampleDescrIndex       uint32
	constantSize           uint32
	sampleCount            uint32
	sizesVary              bool
	anyCompositionOffset   bool
	anyNegativeComposition bool

	// stss: sample numbers (1-based) of every sync sample seen so far.
	// Per S6 the box is omitted entirely when every sample is sync, so
	// nonSyncSeen tracks whether that omission is still valid.
	syncSamples []uint32
	nonSyncSeen bool

	// sdtp: one byte per sample, only materialized (sdtpUsed) once a
	// sample sets a dependency flag away from its default.
	sdtp     []byte
	sdtpUsed bool
}

// NewBuilder returns a Builder for a track whose sample-description index
// does not change mid-track (the common case; tracks with sample
// description switches should use a fresh Builder per run and merge the
// resulting stsc entries).
func NewBuilder(sampleDescriptionIndex uint32) *Builder {
	return &Builder{sampleDescrIndex: sampleDescriptionIndex, lastChunk: -1}
}

// Add appends one sample's bookkeeping to the table under construction.
func (b *Builder) Add(s Sample) {
	b.sampleCount++

	if n := len(b.stts); n > 0 && b.stts[n-1].SampleDelta == s.Duration {
		b.stts[n-1].SampleCount++
	} else {
		b.stts = append(b.stts, mp4.SttsEntry{SampleCount: 1, SampleDelta: s.Duration})
	}

	if s.CompositionOffset != 0 {
		b.anyCompositionOffset = true
	}
	if s.CompositionOffset < 0 {
		b.anyNegativeComposition = true
	}
	if n := len(b.ctts); n > 0 && b.ctts[n-1].SampleOffset == s.CompositionOffset {
		b.ctts[n-1].SampleCount++
	} else {
		b.ctts = append(b.ctts, mp4.CttsEntry{SampleCount: 1, SampleOffset: s.CompositionOffset})
	}

	if b.sampleCount == 1 {
		b.constantSize = s.Size
	} else if s.Size != b.constantSize {
		b.sizesVary = true
	}
	b.stsz = append(b.stsz, s.Size)

	if s.Sync {
		b.syncSamples = append(b.syncSamples, b.sampleCount)
	} else {
		b.nonSyncSeen = true
	}

	if s.Leading || s.DependsOnOthers || s.IsDependedOn || s.HasRedundancy {
		b.sdtpUsed = true
	}
	b.sdtp = append(b.sdtp, packSdtp(s.Leading, s.DependsOnOthers, s.IsDependedOn, s.HasRedundancy))

	if s.ChunkIndex != b.lastChunk {
		if b.lastChunk >= 0 {
			b.stsc = append(b.stsc, mp4.StscEntry{
				FirstChunk:             uint32(b.lastChunk) + 1,
				SamplesPerChunk:        b.lastSamplesInChunk,
				SampleDescriptionIndex: b.sampleDescrIndex,
			})
		}
		b.lastChunk = s.ChunkIndex
		b.lastSamplesInChunk = 0
	}
	b.lastSamplesInChunk++
}

// packSdtp packs one sample's dependency booleans into the sdtp byte
// layout: is_leading(2) sample_depends_on(2) sample_is_depended_on(2)
// sample_has_redundancy(2), each field 1 ("yes") or 0 ("unknown/no") since
// the muxer side never distinguishes "known-no" from "unknown".
func packSdtp(leading, dependsOnOthers, isDependedOn, hasRedundancy bool) byte {
	var v byte
	if leading {
		v |= 1 << 6
	}
	if dependsOnOthers {
		v |= 1 << 4
	}
	if isDependedOn {
		v |= 1 << 2
	}
	if hasRedundancy {
		v |= 1
	}
	return v
}

// HasNegativeComposition reports whether any sample added so far required
// a negative composition offset (non-monotonic CTS vs. DTS, i.e. B-frame
// reordering), the other half of S3's ctts version-1 decision alongside
// AllowsNegativeComposition.
func (b *Builder) HasNegativeComposition() bool { return b.anyNegativeComposition }

// HasNonSyncSample reports whether any sample added so far was not a sync
// sample. Per S6, an stss box should only be emitted when this is true.
func (b *Builder) HasNonSyncSample() bool { return b.nonSyncSeen }

// Stss returns the sync-sample table listing every sync sample's 1-based
// sample number.
func (b *Builder) Stss() *mp4.Stss {
	return &mp4.Stss{EntryCount: uint32(len(b.syncSamples)), SampleNumbers: b.syncSamples}
}

// HasNonDefaultDependency reports whether any sample set a dependency flag
// away from its default, the trigger for emitting an sdtp box at all.
func (b *Builder) HasNonDefaultDependency() bool { return b.sdtpUsed }

// Sdtp returns the per-sample dependency-flags table.
func (b *Builder) Sdtp() *mp4.Sdtp {
	return &mp4.Sdtp{Entries: b.sdtp}
}

// Stts returns the compacted decoding time-to-sample table.
func (b *Builder) Stts() *mp4.Stts {
	return &mp4.Stts{EntryCount: uint32(len(b.stts)), Entries: b.stts}
}

// HasCompositionOffsets reports whether any sample carried a non-zero PTS
// offset from DTS, i.e. whether a ctts box is worth emitting at all.
func (b *Builder) HasCompositionOffsets() bool { return b.anyCompositionOffset }

// Ctts returns the compacted composition-offset table. version selects
// the wire representation: 0 for unsigned offsets (no B-frame reordering
// across the zero line), 1 to allow negative offsets.
func (b *Builder) Ctts(version uint8) *mp4.Ctts {
	return &mp4.Ctts{
		FullBox:    mp4.FullBox{Version: version},
		EntryCount: uint32(len(b.ctts)),
		Entries:    b.ctts,
	}
}

// Stsz returns the sample-size table, collapsed to the constant-size form
// when every sample shares one size.
func (b *Builder) Stsz() *mp4.Stsz {
	if !b.sizesVary && b.sampleCount > 0 {
		return &mp4.Stsz{SampleSize: b.constantSize, SampleCount: b.sampleCount}
	}
	return &mp4.Stsz{SampleSize: 0, SampleCount: b.sampleCount, EntrySize: b.stsz}
}

// Stsc flushes any open chunk run and returns the finished
// samples-per-chunk table, folding consecutive chunks that share
// samples-per-chunk and sample description index into one entry. Call
// this only after all samples are added.
func (b *Builder) Stsc() *mp4.Stsc {
	var entries []mp4.StscEntry
	add := func(e mp4.StscEntry) {
		if n := len(entries); n > 0 && entries[n-1].SamplesPerChunk == e.SamplesPerChunk &&
			entries[n-1].SampleDescriptionIndex == e.SampleDescriptionIndex {
			return
		}
		entries = append(entries, e)
	}
	for _, e := range b.stsc {
		add(e)
	}
	if b.lastChunk >= 0 {
		add(mp4.StscEntry{
			FirstChunk:             uint32(b.lastChunk) + 1,
			SamplesPerChunk:        b.lastSamplesInChunk,
			SampleDescriptionIndex: b.sampleDescrIndex,
		})
	}
	return &mp4.Stsc{EntryCount: uint32(len(entries)), Entries: entries}
}

// ChunkOffsetBox chooses between stco (32-bit) and co64 (64-bit) based on
// whether any chunk offset exceeds what stco can represent, promoting the
// whole table rather than mixing widths.
func ChunkOffsetBox(offsets []uint64) mp4.ImmutableBox {
	const maxUint32 = (1 << 32) - 1
	needs64 := false
	for _, off := range offsets {
		if off > maxUint32 {
			needs64 = true
			break
		}
	}
	if needs64 {
		return &mp4.Co64{EntryCount: uint32(len(offsets)), ChunkOffset: offsets}
	}
	narrow := make([]uint32, len(offsets))
	for i, off := range offsets {
		narrow[i] = uint32(off)
	}
	return &mp4.Stco{EntryCount: uint32(len(narrow)), ChunkOffset: narrow}
}

// AllowsNegativeComposition reports whether a movie is permitted to emit
// version-1 (signed-offset) ctts boxes: either a QuickTime-compatible
// major/compatible brand, or ISO base media v4 or newer, makes this legal.
// Either predicate alone suffices — requiring both would make a plain
// ISOv4 non-QT file unable to express B-frame reordering.
func AllowsNegativeComposition(qtCompatible bool, isoVersion int) bool {
	return qtCompatible || isoVersion >= 4
}
