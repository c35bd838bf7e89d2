package mux

import (
	"fmt"

	"github.com/nazca/isomux/pkg/mp4"
	"github.com/nazca/isomux/pkg/mux/rastore"
)

// Sample flags per ISO/IEC 14496-12 8.8.3.1: the high 16 bits of a
// sample_flags field carry is_leading/depends_on/is_depended_on/
// has_redundancy/padding/non_sync classification; only sample_depends_on
// and sample_is_non_sync_sample are set here, following the minimal set
// most movie-fragment writers emit.
const (
	sampleDependsOnOthers = 1 << 24
	sampleDependsOnNone   = 2 << 24
	sampleIsNonSync       = 1 << 16
)

func sampleFlagsFor(sync bool) uint32 {
	if sync {
		return sampleDependsOnNone
	}
	return sampleDependsOnOthers | sampleIsNonSync
}

// CreateFragmentMovie writes one moof/mdat pair from every track's samples
// accumulated since the previous call (or since Open, for the first),
// following the per-segment GenerateMP4 style of pkg/video/customformat
// but generalized to an arbitrary track count sharing one moof per the
// recommended multi-track fragment layout.
func (r *Root) CreateFragmentMovie() error {
	if !r.opts.Fragmented {
		return fmt.Errorf("mux: create fragment movie: %w", ErrUnsupported)
	}

	type active struct {
		track *trackState
		data  []byte
		tfhd  *mp4.Tfhd
		tfdt  *mp4.Tfdt
		trun  *mp4.Trun
	}
	var actives []active

	for _, t := range r.tracks {
		if len(t.fragmentEntries) == 0 {
			continue
		}
		// The pending sample's bytes stay for the next fragment, where its
		// trun entry will be.
		data := t.fragmentData
		if t.pending != nil {
			data = data[:len(data)-int(t.pending.size)]
		}

		tfhd := &mp4.Tfhd{TrackID: uint32(t.id)}
		tfhd.FullBox.Flags = flagsBytes(mp4.TfhdDefaultBaseIsMoof)

		tfdt := &mp4.Tfdt{}
		if uint64(t.fragmentBaseDTS) > 0xFFFFFFFF {
			tfdt.FullBox.Version = 1
			tfdt.BaseMediaDecodeTimeV1 = uint64(t.fragmentBaseDTS)
		} else {
			tfdt.BaseMediaDecodeTimeV0 = uint32(t.fragmentBaseDTS)
		}

		anyNegativeCTS := false
		entries := make([]mp4.TrunEntry, len(t.fragmentEntries))
		for i, e := range t.fragmentEntries {
			entries[i] = mp4.TrunEntry{
				SampleDuration: e.duration,
				SampleSize:     e.size,
				SampleFlags:    sampleFlagsFor(e.sync),
			}
			if e.ctsDelta < 0 {
				anyNegativeCTS = true
			}
		}
		trun := &mp4.Trun{
			SampleCount: uint32(len(entries)),
			DataOffset:  0, // patched once moof's size is known
			Entries:     entries,
		}
		trunFlags := uint32(mp4.TrunDataOffsetPresent | mp4.TrunSampleDurationPresent | mp4.TrunSampleSizePresent | mp4.TrunSampleFlagsPresent)
		if anyNegativeCTS {
			trunFlags |= mp4.TrunSampleCompositionTimeOffsetPresent
			trun.FullBox.Version = 1
			for i, e := range t.fragmentEntries {
				trun.Entries[i].SampleCompositionTimeOffsetV1 = e.ctsDelta
			}
		} else {
			hasOffset := false
			for _, e := range t.fragmentEntries {
				if e.ctsDelta != 0 {
					hasOffset = true
					break
				}
			}
			if hasOffset {
				trunFlags |= mp4.TrunSampleCompositionTimeOffsetPresent
				for i, e := range t.fragmentEntries {
					trun.Entries[i].SampleCompositionTimeOffsetV0 = uint32(e.ctsDelta)
				}
			}
		}
		trun.FullBox.Flags = flagsBytes(trunFlags)

		actives = append(actives, active{track: t, data: data, tfhd: tfhd, tfdt: tfdt, trun: trun})
	}

	if len(actives) == 0 {
		return nil
	}

	sequence := r.fragmentSequence + 1
	mfhd := &mp4.Mfhd{SequenceNumber: sequence}

	trafBoxes := make([]mp4.Boxes, len(actives))
	for i, a := range actives {
		trafBoxes[i] = mp4.Boxes{
			Box: &mp4.Traf{},
			Children: []mp4.Boxes{
				{Box: a.tfhd},
				{Box: a.tfdt},
				{Box: a.trun},
			},
		}
	}
	moofChildren := append([]mp4.Boxes{{Box: mfhd}}, trafBoxes...)
	moof := mp4.Boxes{Box: &mp4.Moof{}, Children: moofChildren}
	moofSize := moof.Size()

	var cumulative int64
	for _, a := range actives {
		a.trun.DataOffset = int32(int64(moofSize) + 8 + cumulative)
		cumulative += int64(len(a.data))
	}

	moofOffset := uint64(r.sink.Pos())
	moofBuf := make([]byte, moof.Size())
	pos := 0
	moof.Marshal(moofBuf, &pos)
	if _, err := r.sink.Write(moofBuf); err != nil {
		return fmt.Errorf("mux: create fragment movie: write moof: %w", err)
	}

	mdatHeader := make([]byte, 8)
	pos = 0
	mp4.WriteUint32(mdatHeader, &pos, uint32(8+cumulative))
	mdatHeader[4], mdatHeader[5], mdatHeader[6], mdatHeader[7] = 'm', 'd', 'a', 't'
	if _, err := r.sink.Write(mdatHeader); err != nil {
		return fmt.Errorf("mux: create fragment movie: write mdat header: %w", err)
	}
	for _, a := range actives {
		if _, err := r.sink.Write(a.data); err != nil {
			return fmt.Errorf("mux: track %d: write fragment data: %w", a.track.id, err)
		}
	}

	for _, a := range actives {
		t := a.track
		entry := rastore.Entry{Time: uint64(t.fragmentBaseDTS), MoofOffset: moofOffset}
		t.raEntries = append(t.raEntries, entry)
		if r.ra != nil {
			if err := r.ra.Append(uint32(t.id), sequence, entry); err != nil {
				r.log.Warn("persisting random-access entry", err)
			}
		}
		t.fragmentData = append([]byte(nil), t.fragmentData[len(a.data):]...)
		t.fragmentEntries = nil
		t.haveFragmentBase = false
	}
	r.fragmentSequence = sequence
	return nil
}

func flagsBytes(flags uint32) [3]byte {
	return [3]byte{byte(flags >> 16), byte(flags >> 8), byte(flags)}
}

// finalizeFragmented flushes any samples still pooled into a final
// fragment, then writes the trailing mfra/tfra/mfro random-access index
// required for fragmented output, mirroring a fragmented writer's
// end-of-stream index append.
func (r *Root) finalizeFragmented() error {
	if err := r.CreateFragmentMovie(); err != nil {
		return fmt.Errorf("mux: finalize fragmented: final fragment: %w", err)
	}

	var trackBoxes []mp4.Boxes
	for _, t := range r.tracks {
		if len(t.raEntries) == 0 {
			continue
		}
		tfra := &mp4.Tfra{
			TrackID:               uint32(t.id),
			LengthSizeOfTrafNum:   0,
			LengthSizeOfTrunNum:   0,
			LengthSizeOfSampleNum: 0,
			NumberOfEntry:         uint32(len(t.raEntries)),
		}
		any64 := false
		for _, e := range t.raEntries {
			if e.Time > 0xFFFFFFFF || e.MoofOffset > 0xFFFFFFFF {
				any64 = true
			}
		}
		if any64 {
			tfra.FullBox.Version = 1
		}
		tfra.Entries = make([]mp4.TfraEntry, len(t.raEntries))
		for i, e := range t.raEntries {
			if any64 {
				tfra.Entries[i] = mp4.TfraEntry{TimeV1: e.Time, MoofOffsetV1: e.MoofOffset, TrafNumber: 1, TrunNumber: 1, SampleNumber: 1}
			} else {
				tfra.Entries[i] = mp4.TfraEntry{TimeV0: uint32(e.Time), MoofOffsetV0: uint32(e.MoofOffset), TrafNumber: 1, TrunNumber: 1, SampleNumber: 1}
			}
		}
		trackBoxes = append(trackBoxes, mp4.Boxes{Box: tfra})
	}

	mfra := mp4.Boxes{Box: &mp4.Mfra{}, Children: trackBoxes}
	mfraSize := mfra.Size()
	mfro := mp4.Boxes{Box: &mp4.Mfro{Size_: uint32(mfraSize + 16)}}
	mfra.Children = append(mfra.Children, mfro)

	buf := make([]byte, mfra.Size())
	pos := 0
	mfra.Marshal(buf, &pos)
	if _, err := r.sink.Write(buf); err != nil {
		return fmt.Errorf("mux: finalize fragmented: write mfra: %w", err)
	}
	return nil
}
