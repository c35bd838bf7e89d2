package mux

import (
	"github.com/nazca/isomux/pkg/mp4"
	"github.com/nazca/isomux/pkg/mp4/sampletable"
)

// buildMoov assembles the full moov subtree from accumulated track state,
// following the generateVideoTrak/generateAudioTrak style of building a
// fully-ordered mp4.Boxes literal in one call rather than mutating a
// tree incrementally.
func (r *Root) buildMoov() mp4.Boxes {
	mvhd := &mp4.Mvhd{
		Timescale:   r.movie.Timescale,
		NextTrackID: uint32(len(r.tracks) + 1),
		Rate:        0x00010000,
		Volume:      0x0100,
		Matrix:      [9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000},
	}
	if r.movie.Timescale == 0 {
		mvhd.Timescale = 90000
	}

	var maxDurationMovieTS int64
	children := []mp4.Boxes{{Box: mvhd}}

	if r.shouldWriteIods() {
		children = append(children, mp4.Boxes{Box: &mp4.Iods{}})
	}

	var trexEntries []mp4.Boxes
	for _, t := range r.tracks {
		trak, durationMovieTS := r.buildTrak(t, mvhd.Timescale)
		if durationMovieTS > maxDurationMovieTS {
			maxDurationMovieTS = durationMovieTS
		}
		children = append(children, trak)
		if r.opts.Fragmented {
			trexEntries = append(trexEntries, mp4.Boxes{Box: &mp4.Trex{
				TrackID:                       uint32(t.id),
				DefaultSampleDescriptionIndex: 1,
				DefaultSampleDuration:         0,
				DefaultSampleSize:             0,
				DefaultSampleFlags:            0,
			}})
		}
	}
	mvhd.DurationV0 = uint32(maxDurationMovieTS)

	if len(r.chapterEntries) > 0 {
		chpl := &mp4.Chpl{EntryCount: uint8(len(r.chapterEntries))}
		for _, e := range r.chapterEntries {
			chpl.Entries = append(chpl.Entries, mp4.ChplEntry{StartTime: e.StartTime100ns, Title: e.Title})
		}
		children = append(children, mp4.Boxes{
			Box:      &mp4.Udta{},
			Children: []mp4.Boxes{{Box: chpl}},
		})
	}

	if r.opts.Fragmented {
		children = append(children, mp4.Boxes{
			Box:      &mp4.Mvex{},
			Children: append(trexEntries, mp4.Boxes{Box: &mp4.Mehd{FragmentDurationV0: uint32(maxDurationMovieTS)}}),
		})
	}

	return mp4.Boxes{Box: &mp4.Moov{}, Children: children}
}

// movieDurationMovieTS returns the movie-timescale duration mvhd would
// carry if finalized right now: the longest track duration, rescaled from
// each track's own media timescale. Used by SetTyrantChapter, which must
// be called after the latest movie duration is known so it can tell which
// chapters to truncate.
func (r *Root) movieDurationMovieTS() int64 {
	movieTimescale := r.movie.Timescale
	if movieTimescale == 0 {
		movieTimescale = 90000
	}
	var maxDurationMovieTS int64
	for _, t := range r.tracks {
		mediaTimescale := t.mediaParams.Timescale
		if mediaTimescale == 0 {
			mediaTimescale = movieTimescale
		}
		durationMediaTS := sttsTotalDuration(t.table.Stts())
		durationMovieTS := scaleDuration(durationMediaTS, mediaTimescale, movieTimescale)
		if durationMovieTS > maxDurationMovieTS {
			maxDurationMovieTS = durationMovieTS
		}
	}
	return maxDurationMovieTS
}

func (r *Root) buildTrak(t *trackState, movieTimescale uint32) (mp4.Boxes, int64) {
	mediaTimescale := t.mediaParams.Timescale
	if mediaTimescale == 0 {
		mediaTimescale = movieTimescale
	}

	durationMediaTS := int64(t.table.Stts().EntryCount) // placeholder, replaced below
	durationMediaTS = sttsTotalDuration(t.table.Stts())
	durationMovieTS := scaleDuration(durationMediaTS, mediaTimescale, movieTimescale)

	tkhd := &mp4.Tkhd{
		TrackID:    uint32(t.id),
		DurationV0: uint32(durationMovieTS),
		Volume:     t.trackParams.Volume,
		Width:      t.trackParams.Width,
		Height:     t.trackParams.Height,
		Matrix:     [9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000},
	}
	tkhd.FullBox.Flags = [3]byte{0, 0, 0x01} // track_enabled
	if t.trackParams.Disabled {
		tkhd.FullBox.Flags = [3]byte{0, 0, 0}
	}

	mdhd := &mp4.Mdhd{
		Timescale:  mediaTimescale,
		DurationV0: uint32(durationMediaTS),
		Language:   t.mediaParams.Language,
	}

	hdlr := &mp4.Hdlr{HandlerType: t.handlerType, Name: t.mediaParams.HandlerName}

	minfChildren := []mp4.Boxes{mediaHeaderBoxFor(t.handlerType)}
	minfChildren = append(minfChildren, mp4.Boxes{
		Box:      &mp4.Dinf{},
		Children: []mp4.Boxes{{Box: &mp4.Dref{EntryCount: 1}, Children: []mp4.Boxes{{Box: &mp4.Url{FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}}}}}}},
	})
	minfChildren = append(minfChildren, r.buildStbl(t))

	mdiaChildren := []mp4.Boxes{{Box: mdhd}, {Box: hdlr}, {Box: &mp4.Minf{}, Children: minfChildren}}

	trakChildren := []mp4.Boxes{{Box: tkhd}}
	if t.chapterTrackID != 0 {
		trakChildren = append(trakChildren, mp4.Boxes{
			Box: &mp4.TrefContainer{},
			Children: []mp4.Boxes{{Box: &mp4.Tref{
				ReferenceType: mp4.BoxType{'c', 'h', 'a', 'p'},
				TrackIDs:      []uint32{uint32(t.chapterTrackID)},
			}}},
		})
	}
	if len(t.editList) > 0 {
		entries := make([]mp4.ElstEntry, len(t.editList))
		for i, e := range t.editList {
			entries[i] = mp4.ElstEntry{
				SegmentDurationV0: uint32(e.SegmentDuration),
				MediaTimeV0:       int32(e.MediaTime),
				MediaRateInteger:  e.MediaRateInt,
				MediaRateFraction: e.MediaRateFrac,
			}
		}
		trakChildren = append(trakChildren, mp4.Boxes{
			Box:      &mp4.Edts{},
			Children: []mp4.Boxes{{Box: &mp4.Elst{EntryCount: uint32(len(entries)), Entries: entries}}},
		})
	}
	trakChildren = append(trakChildren, mp4.Boxes{Box: &mp4.Mdia{}, Children: mdiaChildren})

	return mp4.Boxes{Box: &mp4.Trak{}, Children: trakChildren}, durationMovieTS
}

// mediaHeaderBoxFor returns the vmhd/smhd/nmhd media header appropriate to
// a track's handler type; unrecognized handlers get nmhd, the generic form.
func mediaHeaderBoxFor(handlerType [4]byte) mp4.Boxes {
	switch handlerType {
	case [4]byte{'v', 'i', 'd', 'e'}:
		return mp4.Boxes{Box: &mp4.Vmhd{}}
	case [4]byte{'s', 'o', 'u', 'n'}:
		return mp4.Boxes{Box: &mp4.Smhd{}}
	default:
		return mp4.Boxes{Box: &mp4.Free{BoxT: [4]byte{'n', 'm', 'h', 'd'}, Data: []byte{0, 0, 0, 0}}}
	}
}

func (r *Root) buildStbl(t *trackState) mp4.Boxes {
	stsd := mp4.Boxes{Box: &mp4.Stsd{EntryCount: uint32(len(t.entries))}}
	for _, e := range t.entries {
		stsd.Children = append(stsd.Children, buildSampleEntry(e))
	}

	children := []mp4.Boxes{
		stsd,
		{Box: t.table.Stts()},
		{Box: t.table.Stsc()},
		{Box: t.table.Stsz()},
		{Box: sampletable.ChunkOffsetBox(t.chunkOffsets)},
	}
	if t.table.HasCompositionOffsets() {
		version := uint8(0)
		qtCompatible := r.movie.QuickTimeCompatible || mp4.IsQuickTimeCompatible(r.movie.MajorBrand, r.movie.Compatible)
		if t.table.HasNegativeComposition() && sampletable.AllowsNegativeComposition(qtCompatible, isoBrandVersion(r.movie.MajorBrand)) {
			version = 1
		}
		children = append(children, mp4.Boxes{Box: t.table.Ctts(version)})
	}
	if t.table.HasNonSyncSample() {
		children = append(children, mp4.Boxes{Box: t.table.Stss()})
	}
	if t.table.HasNonDefaultDependency() {
		children = append(children, mp4.Boxes{Box: t.table.Sdtp()})
	}
	if !t.rap.Empty() {
		children = append(children, mp4.Boxes{Box: t.rap.Sgpd()}, mp4.Boxes{Box: t.rap.Sbgp()})
	}
	if !t.roll.Empty() {
		children = append(children, mp4.Boxes{Box: t.roll.Sgpd()}, mp4.Boxes{Box: t.roll.Sbgp()})
	}
	return mp4.Boxes{Box: &mp4.Stbl{}, Children: children}
}

func sttsTotalDuration(stts *mp4.Stts) int64 {
	var total int64
	for _, e := range stts.Entries {
		total += int64(e.SampleCount) * int64(e.SampleDelta)
	}
	return total
}

// buildSampleEntry converts one AddSampleEntry call's CodecSummary into its
// stsd child box, dispatching on Kind since the 4CC alone does not say
// whether a format is visual, audio, or text.
func buildSampleEntry(s CodecSummary) mp4.Boxes {
	base := mp4.SampleEntry{DataReferenceIndex: 1}
	switch s.Kind {
	case SampleEntryAudio:
		entry := &mp4.GenericAudioSampleEntry{
			SampleEntry:  base,
			Format:       mp4.BoxType(s.Format),
			ChannelCount: s.ChannelCount,
			SampleSize:   s.SampleSize,
			SampleRate:   s.SampleRate,
		}
		box := mp4.Boxes{Box: entry}
		if s.ConfigBoxType != ([4]byte{}) {
			box.Children = append(box.Children, mp4.Boxes{Box: &mp4.Raw{BoxT: mp4.BoxType(s.ConfigBoxType), Payload: s.DecoderConfig}})
		}
		return box
	case SampleEntryText:
		return mp4.Boxes{Box: &mp4.TextSampleEntry{SampleEntry: base, Format: mp4.BoxType(s.Format), Tail: s.DecoderConfig}}
	default: // SampleEntryVisual
		entry := &mp4.GenericVisualSampleEntry{
			SampleEntry: base,
			Format:      mp4.BoxType(s.Format),
			Width:       s.Width,
			Height:      s.Height,
		}
		box := mp4.Boxes{Box: entry}
		if s.ConfigBoxType != ([4]byte{}) {
			box.Children = append(box.Children, mp4.Boxes{Box: &mp4.Raw{BoxT: mp4.BoxType(s.ConfigBoxType), Payload: s.DecoderConfig}})
		}
		return box
	}
}

func scaleDuration(d int64, from, to uint32) int64 {
	if from == 0 {
		return 0
	}
	return d * int64(to) / int64(from)
}

// isoBrandVersion extracts the numeric ISO base media brand generation
// (isom=1, iso2=2, iso4=4, iso5=5, iso6=6) from a movie's major brand
// only, or 0 when the major brand is none of these; compatible brands are
// not consulted.
func isoBrandVersion(major [4]byte) int {
	switch major {
	case mp4.BrandIso2:
		return 2
	case mp4.BrandIso4:
		return 4
	case mp4.BrandIso5:
		return 5
	case mp4.BrandIso6:
		return 6
	case mp4.BrandIsom:
		return 1
	}
	return 0
}
