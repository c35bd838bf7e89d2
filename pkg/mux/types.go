// Package mux implements the container engine's public surface: movie and
// track parameter setup, sample ingestion with chunk pooling, and the two
// finalize strategies (progressive moov-after-mdat and fragmented
// moof/mdat pairs), generalizing two single-purpose muxers in
// pkg/video/mp4muxer and pkg/monitor/mp4muxer into one parameterized
// engine.
package mux

import (
	"errors"
	"io"
	"time"
)

// Sentinel errors, matching the wrapped-sentinel convention used
// throughout pkg/video/mp4muxer rather than ad hoc strings.
var (
	// ErrUnsupported is returned for operations this engine does not
	// implement (e.g. an mdat larger than 32 bits in progressive mode, or
	// CreateFragmentMovie on a progressive movie).
	ErrUnsupported = errors.New("mux: unsupported operation")
	// ErrInvalidParameter is returned when a caller-supplied argument
	// cannot be honored (unknown track ID, zero timescale, ...).
	ErrInvalidParameter = errors.New("mux: invalid parameter")
	// ErrMandatoryBoxMissing is returned by FinishMovie when a track is
	// missing a box that must be present before finalize.
	ErrMandatoryBoxMissing = errors.New("mux: mandatory box missing")
)

// TrackID identifies a track within a Root, assigned sequentially starting
// at 1 by CreateTrack, matching ISOBMFF's own track_ID numbering.
type TrackID uint32

// SampleDescriptionIndex identifies one sample entry (e.g. one AddSampleEntry
// call's result) within a track's stsd, 1-based per ISOBMFF convention.
type SampleDescriptionIndex uint32

// MovieParameters configures the movie-level mvhd and top-level brands.
type MovieParameters struct {
	Timescale    uint32
	CreationTime time.Time
	MajorBrand   [4]byte
	MinorVersion uint32
	Compatible   [][4]byte
	// QuickTimeCompatible additionally permits version-1 (signed) ctts
	// boxes even on a major brand that isn't itself QuickTime's "qt  ".
	QuickTimeCompatible bool
}

// TrackParameters configures a track's tkhd.
type TrackParameters struct {
	Width, Height uint32 // fixed-point 16.16, 0 for non-visual tracks
	Volume        int16  // fixed-point 8.8, 0 for non-audio tracks
	Language      [3]byte
	Disabled      bool
}

// MediaParameters configures a track's mdhd/hdlr.
type MediaParameters struct {
	Timescale uint32
	Language  [3]byte
	// HandlerName is the human-readable hdlr name; most writers leave
	// this empty.
	HandlerName string
}

// SampleEntryKind selects which stsd sample-entry shape a CodecSummary
// builds, since the 4CC alone does not disambiguate a visual entry from an
// audio entry from a text entry.
type SampleEntryKind int

// Sample-entry kinds.
const (
	SampleEntryVisual SampleEntryKind = iota
	SampleEntryAudio
	SampleEntryText
)

// CodecSummary is the codec-specific information an Importer extracts by
// probing a stream, sufficient to build one sample entry (avc1/vc1/mp4a/...).
type CodecSummary struct {
	// Format is the sample entry's 4CC, e.g. "vc-1" or "mp4a".
	Format [4]byte
	Kind   SampleEntryKind
	// Width, Height apply to visual sample entries.
	Width, Height uint16
	// ChannelCount, SampleSize, SampleRate apply to audio sample entries.
	ChannelCount uint16
	SampleSize   uint16
	SampleRate   uint32
	// DecoderConfig is the codec-specific configuration record payload,
	// e.g. a VC-1 sequence-layer header or an AudioSpecificConfig. For a
	// text entry (SampleEntryText) it is used directly as the fixed-tail
	// bytes rather than wrapped in a child box.
	DecoderConfig []byte
	// ConfigBoxType is the child box type DecoderConfig is wrapped in for
	// a visual or audio entry, e.g. 'dvc1' for VC-1 or 'esds' for AAC.
	// Zero means no decoder-config child box is emitted.
	ConfigBoxType [4]byte
}

// Status is the result of one Importer.NextAccessUnit call.
type Status int

// Importer statuses. SummaryChanged mid-stream is treated as EOF per the
// reference frontend behavior (see DESIGN.md Open Question 1):
// pkg/vc1.Importer never returns SummaryChanged, it resets its internal
// AUAnalyzer state instead.
const (
	StatusOK Status = iota
	StatusEOF
	StatusSummaryChanged
)

// SampleProperty carries the per-sample flags ISOBMFF needs beyond timing
// and size: random-access classification, dependency flags, and roll
// distance for audio pre-roll groups.
type SampleProperty struct {
	RandomAccessType RandomAccessType
	IsLeading        bool
	DependsOnOthers  bool
	IsDependedOn     bool
	HasRedundancy    bool
	// RollDistance is non-zero only for audio tracks using the 'roll'
	// sample group (signed, in samples, toward the recovery point).
	RollDistance int16
}

// RandomAccessType classifies a sample's membership in the 'rap ' sample
// group (sync vs. non-sync-but-decodable vs. ordinary).
type RandomAccessType int

// Random access classifications.
const (
	RandomAccessNone RandomAccessType = iota
	RandomAccessSync
	RandomAccessOpenGOP
)

// Sample is one access unit handed to AppendSample, generalizing the
// pkg/video/customformat.Sample wire struct (PTS/DTS/Size/Offset/flags)
// with the full property set the Sample Table invariants need.
type Sample struct {
	DTS   int64
	CTS   int64
	Data  []byte
	Index SampleDescriptionIndex
	Prop  SampleProperty
}

// EditListEntry is one elst entry for CreateExplicitTimelineMap.
type EditListEntry struct {
	SegmentDuration int64
	MediaTime       int64
	MediaRateInt    int16
	MediaRateFrac   int16
}

// AdhocRemuxConfig requests the rolling two-buffer remux pass at finalize
// time instead of a plain seek-back mdat-size patch, matching the
// two-buffer file-swap routine in original_source/write.c.
type AdhocRemuxConfig struct {
	// BufferSize is the size of each of the two rolling buffers used to
	// shift mdat's bytes forward once moov's final size is known.
	BufferSize int
}

// RootOptions configures Open.
type RootOptions struct {
	// Fragmented selects moof/mdat fragment output instead of the
	// progressive moov-after-mdat layout.
	Fragmented bool
	// MaxAsyncTolerance is stored with the options but not read by chunk
	// scheduling: chunks close only on each track's own duration,
	// sample-count and sample-description rules, and tracks are not
	// arbitrated against each other.
	MaxAsyncTolerance time.Duration
	// RandomAccessIndexPath, if set, names an on-disk index
	// (pkg/mux/rastore) to which each fragment's random-access entry is
	// written as the fragment is emitted, so the entries survive a crash.
	// The fragmented finalizer builds mfra/tfra from its in-memory copy
	// and does not read the index back.
	RandomAccessIndexPath string
}

// Importer is the codec-agnostic access-unit source Root consumes.
// pkg/vc1.Importer is the one concrete implementation this module ships;
// any other codec is expected to implement the same contract externally.
type Importer interface {
	Probe(src io.Reader) ([]CodecSummary, error)
	NextAccessUnit(track int, out []byte) (n int, status Status, err error)
}
