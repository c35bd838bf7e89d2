package mux

import (
	"time"

	"github.com/nazca/isomux/pkg/mp4/samplegroup"
	"github.com/nazca/isomux/pkg/mp4/sampletable"
	"github.com/nazca/isomux/pkg/mux/rastore"
)

// chunkPolicy bounds how long a chunk may accumulate samples before the
// scheduler forces it closed, generalizing fixed one-sample-per-chunk
// muxing into a duration/size decision.
type chunkPolicy struct {
	maxDuration time.Duration
	maxSamples  int
}

// defaultChunkPolicy matches common muxer practice: close on a ~0.5s
// duration budget or after a generous sample-count cap, whichever comes
// first, and always on a sample-description-index change.
var defaultChunkPolicy = chunkPolicy{
	maxDuration: 500 * time.Millisecond,
	maxSamples:  256,
}

// pendingEntry is the one sample a trackState holds back until the next
// AppendSample call reveals its stts delta, following the one-sample-lag
// inline accumulation style of pkg/video/mp4muxer/muxer.go and
// pkg/monitor/mp4muxer/muxer.go.
type pendingEntry struct {
	offset     uint64
	size       uint32
	dts        int64
	cts        int64
	index      SampleDescriptionIndex
	prop       SampleProperty
	chunkIndex int
}

// trackState is the per-track bookkeeping a Root keeps while samples are
// being appended, mirroring a muxer struct's per-track
// Stts/Stss/Ctts/Stsc/Stsz/Stco accumulator slices (now owned by
// sampletable.Builder) plus prevChunk tracking.
type trackState struct {
	id          TrackID
	handlerType [4]byte
	trackParams TrackParameters
	mediaParams MediaParameters
	entries     []CodecSummary

	table *sampletable.Builder
	rap   *samplegroup.Builder
	roll  *samplegroup.Builder

	pending         *pendingEntry
	chunkOffsets    []uint64
	chunkStart      time.Time
	chunkSamples    int
	chunkIndex      int
	chunkOpenSize   uint32 // sample-description index the open chunk was started with
	haveOpenChunk   bool
	firstDTSInChunk int64

	sampleCount uint64
	editList    []EditListEntry
	lastDTS     int64
	haveLastDTS bool
	policy      chunkPolicy

	// chapterTrackID is non-zero when this track carries a 'chap' tref
	// pointing at a dedicated chapter text track, set by
	// CreateReferenceChapterTrack.
	chapterTrackID TrackID

	// Fragmented-mode accumulation since the last CreateFragmentMovie
	// call, buffered in memory (a fixed-per-call GenerateMP4 holding its
	// whole mdat in memory too): fragmentEntries holds the committed
	// samples, fragmentData their bytes followed by the pending sample's.
	fragmentData     []byte
	fragmentEntries  []fragmentSampleEntry
	fragmentBaseDTS  int64
	haveFragmentBase bool

	// raEntries accumulates this track's random-access index in memory as
	// fragments are created, in addition to whatever a rastore.Store
	// persists, so finalizeFragmented can build mfra/tfra without
	// depending on a store having been configured.
	raEntries []rastore.Entry
}

// fragmentSampleEntry is one trun entry's worth of per-sample data for the
// fragment currently being accumulated.
type fragmentSampleEntry struct {
	duration uint32
	size     uint32
	ctsDelta int32
	sync     bool
}

func newTrackState(id TrackID, handlerType [4]byte) *trackState {
	return &trackState{
		id:          id,
		handlerType: handlerType,
		table:       sampletable.NewBuilder(1),
		rap:         samplegroup.NewRapBuilder(),
		roll:        samplegroup.NewRollBuilder(),
		policy:      defaultChunkPolicy,
	}
}

// shouldStartNewChunk decides whether the next sample must begin a new
// chunk, applying the duration/size/description-switch rules.
func (t *trackState) shouldStartNewChunk(nextIndex SampleDescriptionIndex, nextDTS int64, timescale uint32) bool {
	if !t.haveOpenChunk {
		return true
	}
	if SampleDescriptionIndex(t.chunkOpenSize) != nextIndex {
		return true
	}
	if t.chunkSamples >= t.policy.maxSamples {
		return true
	}
	if timescale > 0 {
		elapsed := time.Duration(nextDTS-t.firstDTSInChunk) * time.Second / time.Duration(timescale)
		if elapsed >= t.policy.maxDuration {
			return true
		}
	}
	return false
}

func (t *trackState) openChunk(offset uint64, index SampleDescriptionIndex, dts int64) {
	t.chunkOffsets = append(t.chunkOffsets, offset)
	t.chunkIndex = len(t.chunkOffsets) - 1
	t.chunkSamples = 0
	t.chunkOpenSize = uint32(index)
	t.firstDTSInChunk = dts
	t.haveOpenChunk = true
}
