// Package samplegroup builds the sgpd/sbgp box pair for the two sample
// grouping types this engine emits: 'rap ' (random access point) and
// 'roll' (audio pre-roll), deduplicating identical group descriptions the
// way a muxer that sees the same roll distance repeat across a track
// would want to.
package samplegroup

import "github.com/nazca/isomux/pkg/mp4"

// RollDistance is the payload of a single 'roll' group description: the
// signed sample count from the recovery point to the sample the decoder
// can first render correctly (see ISO/IEC 14496-12 Annex on sample
// groups).
type RollDistance int16

// Builder accumulates per-sample group-description assignments and
// compacts them into sbgp's run-length "N samples map to group K" form.
type Builder struct {
	groupingType mp4.BoxType
	descriptions [][]byte // deduplicated payloads, in first-seen order
	index        map[string]uint32
	runs         []mp4.SbgpEntry
}

// NewRapBuilder returns a Builder for the 'rap ' grouping type, where
// every description is a single "num_leading_samples_known" flag byte.
func NewRapBuilder() *Builder {
	return newBuilder("rap ")
}

// NewRollBuilder returns a Builder for the 'roll' grouping type.
func NewRollBuilder() *Builder {
	return newBuilder("roll")
}

func newBuilder(grouping string) *Builder {
	var t mp4.BoxType
	copy(t[:], grouping)
	return &Builder{groupingType: t, index: map[string]uint32{}}
}

// AddRap assigns the next sample to the 'rap ' group whose payload encodes
// leadingKnown.
func (b *Builder) AddRap(leadingKnown bool) {
	var v byte
	if leadingKnown {
		v = 0x80
	}
	b.add([]byte{v})
}

// AddRoll assigns the next sample to the 'roll' group with the given
// recovery distance.
func (b *Builder) AddRoll(distance RollDistance) {
	b.add([]byte{byte(distance >> 8), byte(distance)})
}

// AddUngrouped assigns the next sample to no group (group_description_index
// 0), terminating whatever run of grouped samples preceded it.
func (b *Builder) AddUngrouped() {
	b.addIndex(0)
}

func (b *Builder) add(payload []byte) {
	key := string(payload)
	idx, ok := b.index[key]
	if !ok {
		b.descriptions = append(b.descriptions, payload)
		idx = uint32(len(b.descriptions)) // 1-based group_description_index
		b.index[key] = idx
	}
	b.addIndex(idx)
}

func (b *Builder) addIndex(idx uint32) {
	if n := len(b.runs); n > 0 && b.runs[n-1].GroupDescriptionIndex == idx {
		b.runs[n-1].SampleCount++
		return
	}
	b.runs = append(b.runs, mp4.SbgpEntry{SampleCount: 1, GroupDescriptionIndex: idx})
}

// Empty reports whether no sample was ever assigned to a group, in which
// case no sgpd/sbgp pair should be written for this track.
func (b *Builder) Empty() bool { return len(b.runs) == 0 }

// Sgpd returns the deduplicated group-description box. version 1 is used
// so DefaultLength can be 0 and each entry's length is explicit, which
// keeps 'roll' (2-byte) and 'rap ' (1-byte) descriptions uniform code.
func (b *Builder) Sgpd() *mp4.Sgpd {
	entries := make([]mp4.SgpdEntry, len(b.descriptions))
	for i, d := range b.descriptions {
		entries[i] = mp4.SgpdEntry{DescriptionLength: uint32(len(d)), Payload: d}
	}
	return &mp4.Sgpd{
		FullBox:      mp4.FullBox{Version: 1},
		GroupingType: b.groupingType,
		EntryCount:   uint32(len(entries)),
		Entries:      entries,
	}
}

// Sbgp returns the sample-to-group run-length mapping box.
func (b *Builder) Sbgp() *mp4.Sbgp {
	return &mp4.Sbgp{
		GroupingType: b.groupingType,
		EntryCount:   uint32(len(b.runs)),
		Entries:      b.runs,
	}
}
