package mux

import (
	"fmt"
	"io"

	"github.com/nazca/isomux/pkg/applog"
	"github.com/nazca/isomux/pkg/biosink"
	"github.com/nazca/isomux/pkg/mp4"
	"github.com/nazca/isomux/pkg/mux/rastore"
)

// Root is the top-level handle for one output movie, analogous to the
// teacher's muxer struct but generalized across progressive and
// fragmented output and an arbitrary track count.
type Root struct {
	sink     *biosink.Sink
	seekable io.WriteSeeker
	opts     RootOptions
	log      applog.Logger

	movie  MovieParameters
	tracks []*trackState

	mdatOffset    uint64 // absolute offset of the streaming mdat's size field
	mdatBodyStart uint64
	bytesWritten  uint64

	fragmentSequence uint32
	finished         bool

	ra *rastore.Store

	// chapterEntries backs a 'chpl' udta chapter list set by
	// SetTyrantChapter, embedded into moov/udta at finalize.
	chapterEntries []chapterMoovEntry
}

// chapterMoovEntry is one SetTyrantChapter entry, pre-converted to the
// 100ns unit chpl uses on the wire.
type chapterMoovEntry struct {
	StartTime100ns uint64
	Title          string
}

// Open begins a new movie on sink. In progressive mode (the default) the
// ftyp and a placeholder-sized mdat are written immediately, matching the
// teacher's writeFtypAndMdat in pkg/monitor/mp4muxer/muxer.go; the mdat
// size is patched during FinishMovie once its true extent is known.
func Open(sink io.WriteSeeker, opts RootOptions) (*Root, error) {
	r := &Root{
		sink:     biosink.New(sink),
		seekable: sink,
		opts:     opts,
		log:      applog.New("mux"),
	}
	if !opts.Fragmented {
		if err := r.writeFtypAndMdatPlaceholder(); err != nil {
			return nil, fmt.Errorf("mux: open: %w", err)
		}
	} else {
		if err := r.writeFtyp(); err != nil {
			return nil, fmt.Errorf("mux: open: %w", err)
		}
		if opts.RandomAccessIndexPath != "" {
			store, err := rastore.Open(opts.RandomAccessIndexPath)
			if err != nil {
				return nil, fmt.Errorf("mux: open: %w", err)
			}
			r.ra = store
		}
	}
	return r, nil
}

func (r *Root) writeFtyp() error {
	ftyp := &mp4.Ftyp{
		MajorBrand:   r.movie.MajorBrand,
		MinorVersion: r.movie.MinorVersion,
	}
	for _, c := range r.movie.Compatible {
		ftyp.CompatibleBrands = append(ftyp.CompatibleBrands, mp4.CompatibleBrandElem{CompatibleBrand: c})
	}
	if ftyp.MajorBrand == ([4]byte{}) {
		ftyp.MajorBrand = mp4.BrandIsom
		ftyp.CompatibleBrands = append(ftyp.CompatibleBrands, mp4.CompatibleBrandElem{CompatibleBrand: mp4.BrandIsom})
	}
	boxes := mp4.Boxes{Box: ftyp}
	buf := make([]byte, boxes.Size())
	pos := 0
	boxes.Marshal(buf, &pos)
	_, err := r.sink.Write(buf)
	return err
}

func (r *Root) writeFtypAndMdatPlaceholder() error {
	if err := r.writeFtyp(); err != nil {
		return err
	}
	r.mdatOffset = uint64(r.sink.Pos())
	mdat := mp4.Boxes{Box: &mp4.Mdat{}}
	buf := make([]byte, 8)
	pos := 0
	mdat.Marshal(buf, &pos) // size field is wrong until FinishMovie patches it
	if _, err := r.sink.Write(buf); err != nil {
		return err
	}
	r.mdatBodyStart = uint64(r.sink.Pos())
	return nil
}

// SetMovieParameters records the movie configuration used for mvhd and
// for the brand-dependent choices made later (ctts version, iods, chapter
// support). Open has already written ftyp by the time this can be called,
// so the brands set here do not reach the ftyp box, which carries the
// default isom brand.
func (r *Root) SetMovieParameters(p MovieParameters) error {
	r.movie = p
	return nil
}

// CreateTrack allocates a new track, returning its 1-based TrackID.
func (r *Root) CreateTrack(handlerType [4]byte) (TrackID, error) {
	id := TrackID(len(r.tracks) + 1)
	r.tracks = append(r.tracks, newTrackState(id, handlerType))
	return id, nil
}

func (r *Root) track(id TrackID) (*trackState, error) {
	if id < 1 || int(id) > len(r.tracks) {
		return nil, fmt.Errorf("mux: track %d: %w", id, ErrInvalidParameter)
	}
	return r.tracks[id-1], nil
}

// SetTrackParameters configures the tkhd fields for id.
func (r *Root) SetTrackParameters(id TrackID, p TrackParameters) error {
	t, err := r.track(id)
	if err != nil {
		return err
	}
	t.trackParams = p
	return nil
}

// SetMediaParameters configures the mdhd/hdlr fields for id.
func (r *Root) SetMediaParameters(id TrackID, p MediaParameters) error {
	t, err := r.track(id)
	if err != nil {
		return err
	}
	t.mediaParams = p
	return nil
}

// AddSampleEntry appends a sample description to id's stsd, returning its
// 1-based index for use in subsequent Sample.Index fields.
func (r *Root) AddSampleEntry(id TrackID, summary CodecSummary) (SampleDescriptionIndex, error) {
	t, err := r.track(id)
	if err != nil {
		return 0, err
	}
	t.entries = append(t.entries, summary)
	return SampleDescriptionIndex(len(t.entries)), nil
}

// CreateExplicitTimelineMap appends one elst entry to id's edit list.
func (r *Root) CreateExplicitTimelineMap(id TrackID, e EditListEntry) error {
	t, err := r.track(id)
	if err != nil {
		return err
	}
	t.editList = append(t.editList, e)
	return nil
}

// AppendSample writes s's bytes to the sink (in progressive mode; fragmented
// mode pools them for the current fragment) and commits the previously
// pending sample to the sample table once its stts delta is known from s's
// DTS, following a one-sample-lag accumulation pattern.
func (r *Root) AppendSample(id TrackID, s Sample) error {
	t, err := r.track(id)
	if err != nil {
		return err
	}
	if len(s.Data) == 0 {
		return fmt.Errorf("mux: track %d: empty sample: %w", id, ErrInvalidParameter)
	}

	var offset uint64
	if r.opts.Fragmented {
		offset = uint64(len(t.fragmentData))
		t.fragmentData = append(t.fragmentData, s.Data...)
	} else {
		timescale := t.mediaParams.Timescale
		newChunk := t.shouldStartNewChunk(s.Index, s.DTS, timescale)

		offset = uint64(r.sink.Pos())
		if _, err := r.sink.Write(s.Data); err != nil {
			return fmt.Errorf("mux: track %d: write sample: %w", id, err)
		}
		r.bytesWritten += uint64(len(s.Data))

		if newChunk {
			t.openChunk(offset, s.Index, s.DTS)
		}
		t.chunkSamples++
	}

	if t.pending != nil {
		delta := uint32(s.DTS - t.pending.dts)
		r.commitPending(t, delta)
	}
	t.pending = &pendingEntry{
		offset:     offset,
		size:       uint32(len(s.Data)),
		dts:        s.DTS,
		cts:        s.CTS,
		index:      s.Index,
		prop:       s.Prop,
		chunkIndex: t.chunkIndex,
	}
	t.sampleCount++
	t.lastDTS, t.haveLastDTS = s.DTS, true
	return nil
}

func (r *Root) commitPending(t *trackState, delta uint32) {
	p := t.pending
	if r.opts.Fragmented {
		if !t.haveFragmentBase {
			t.fragmentBaseDTS = p.dts
			t.haveFragmentBase = true
		}
		t.fragmentEntries = append(t.fragmentEntries, fragmentSampleEntry{
			duration: delta,
			size:     p.size,
			ctsDelta: int32(p.cts - p.dts),
			sync:     p.prop.RandomAccessType != RandomAccessNone,
		})
		return
	}
	t.table.Add(sampletableSampleOf(p, delta))
	switch p.prop.RandomAccessType {
	case RandomAccessSync, RandomAccessOpenGOP:
		t.rap.AddRap(p.prop.RandomAccessType == RandomAccessOpenGOP)
	default:
		t.rap.AddUngrouped()
	}
	if p.prop.RollDistance != 0 {
		t.roll.AddRoll(samplegroupRollDistance(p.prop.RollDistance))
	} else {
		t.roll.AddUngrouped()
	}
}

// FlushPooledSamples commits the one pending sample held back by the
// one-sample-lag scheme, using lastSampleDelta as its stts delta since no
// following sample exists to derive it from.
func (r *Root) FlushPooledSamples(id TrackID, lastSampleDelta uint32) error {
	t, err := r.track(id)
	if err != nil {
		return err
	}
	if t.pending == nil {
		return nil
	}
	r.commitPending(t, lastSampleDelta)
	t.pending = nil
	return nil
}

// Close releases the sink. Callers that have not called FinishMovie first
// lose the movie's box tree (mdat payload is already durable on disk).
func (r *Root) Close() error {
	if r.ra != nil {
		if err := r.ra.Close(); err != nil {
			r.log.Warn("closing random-access index store", err)
		}
	}
	if c, ok := r.seekable.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
