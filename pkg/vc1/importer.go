package vc1

import (
	"fmt"
	"io"

	"github.com/nazca/isomux/pkg/mux"
)

// Importer is a two-pass mux.Importer over a VC-1 Advanced Profile
// elementary stream: Probe reads the whole stream, assembles it into
// access units via AUAnalyzer, then synthesizes presentation timestamps
// for the B-picture reordering case, following
// vc1_analyze_whole_stream in original_source/importer/vc1_imp.c.
//
// VC-1 carries no frame-reordering signal of its own (unlike H.264's
// pic_order_cnt), so the only way to recover CTS order is to look
// ahead across the whole access-unit sequence: a disposable (B/BI)
// picture always displays in the same order it was encoded, but the
// non-disposable picture immediately preceding a run of such pictures
// instead displays after the whole run, at the decode-order position
// its closing anchor occupies.
type Importer struct {
	aus []AccessUnit
	cts []uint64
	pos int

	reordering bool
	summary    mux.CodecSummary
}

// NewImporter returns an importer with no stream probed yet.
func NewImporter() *Importer {
	return &Importer{}
}

// Probe consumes all of src, delimits it into access units, and
// synthesizes composition times. It returns a single-element summary
// slice (this package never reports SummaryChanged; see mux.Status).
func (imp *Importer) Probe(src io.Reader) ([]mux.CodecSummary, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("vc1: probe: %w", err)
	}

	analyzer := NewAUAnalyzer()
	aus, err := analyzer.Feed(data)
	if err != nil {
		return nil, fmt.Errorf("vc1: probe: %w", err)
	}
	final, err := analyzer.Flush()
	if err != nil {
		return nil, fmt.Errorf("vc1: probe: %w", err)
	}
	aus = append(aus, final...)
	if len(aus) == 0 {
		return nil, fmt.Errorf("vc1: probe: no access units found: %w", ErrInvalidData)
	}

	seq, ok := analyzer.Sequence()
	if !ok {
		return nil, fmt.Errorf("vc1: probe: %w", ErrNoSequence)
	}
	ep, ok := analyzer.EntryPoint()
	if !ok {
		return nil, fmt.Errorf("vc1: probe: %w", ErrNoEntryPoint)
	}

	cts, reordering, err := synthesizeCTS(aus)
	if err != nil {
		return nil, fmt.Errorf("vc1: probe: %w", err)
	}

	imp.aus = aus
	imp.cts = cts
	imp.pos = 0
	imp.reordering = reordering

	width, height := ep.CodedWidth, ep.CodedHeight
	if width == 0 || height == 0 {
		width, height = seq.MaxCodedWidth, seq.MaxCodedHeight
	}

	dc := DecoderConfig{
		Profile:        seq.Profile,
		Level:          seq.Level,
		Interlaced:     seq.Interlace,
		MultipleSeq:    false,
		MultipleEntry:  false,
		SlicePresent:   false,
		BFramePresent:  reordering,
		FrameRate:      0xFFFFFFFF,
		SequenceHeader: firstOf(data, BDUSequenceHeader),
		EntryPoint:     firstOf(data, BDUEntryPoint),
	}
	if seq.FrameRateFlag && seq.FrameRateDen != 0 {
		dc.FrameRate = seq.FrameRateNum / seq.FrameRateDen
	}
	if !ep.ClosedEntryPoint {
		dc.CBR = false
	}

	imp.summary = mux.CodecSummary{
		Format:        [4]byte{'v', 'c', '-', '1'},
		Kind:          mux.SampleEntryVisual,
		Width:         width,
		Height:        height,
		DecoderConfig: dc.Marshal(),
		ConfigBoxType: [4]byte{'d', 'v', 'c', '1'},
	}
	return []mux.CodecSummary{imp.summary}, nil
}

// firstOf re-extracts the first EBDU of the given type straight from
// the original stream bytes, since AUAnalyzer does not keep sequence
// and entry-point headers separately from their access unit's frame
// data once parsed.
func firstOf(data []byte, bduType byte) []byte {
	units, err := scanEBDUs(data)
	if err != nil {
		return nil
	}
	for _, u := range units {
		if u.bduType == bduType {
			return append([]byte(nil), u.data...)
		}
	}
	return nil
}

// synthesizeCTS assigns each access unit a composition timestamp,
// following vc1_analyze_whole_stream: a disposable (B/BI) picture
// always displays in the same order it was encoded, so it provisionally
// keeps its own decode index as its CTS; when the next non-disposable
// picture arrives, the non-disposable picture just before the run is the
// one whose display position moves: its CTS becomes the decode index of
// that closing picture, numConsecutiveB+1 positions ahead of its own
// (with no run, the previous anchor takes the next anchor's index). A
// final pass after the loop closes out whatever
// run was still open at end of stream, treating EOF as one more
// implicit non-disposable picture.
//
// If the resulting cts values never fall out of decode order, the
// stream carries no reordering at all and the caller gets plain
// cts[i] = i back instead (matching the non-composition_reordering_present
// case, where the provisional values are a same-constant-offset
// artifact rather than a meaningful display order).
func synthesizeCTS(aus []AccessUnit) ([]uint64, bool, error) {
	n := len(aus)
	cts := make([]uint64, n)
	numConsecutiveB := 0

	for i, au := range aus {
		if !au.Disposable {
			if i > numConsecutiveB {
				cts[i-numConsecutiveB-1] = uint64(i)
			}
			numConsecutiveB = 0
		} else {
			cts[i] = uint64(i)
			numConsecutiveB++
		}
	}
	if n > numConsecutiveB {
		cts[n-numConsecutiveB-1] = uint64(n)
	} else {
		return nil, false, fmt.Errorf("vc1: stream has no non-disposable picture: %w", ErrInvalidData)
	}

	reordering := false
	for i := 1; i < n; i++ {
		if cts[i] < cts[i-1] {
			reordering = true
			break
		}
	}
	if !reordering {
		for i := range cts {
			cts[i] = uint64(i)
		}
	}
	return cts, reordering, nil
}

// NextAccessUnit copies the current access unit's bytes into out and
// advances, satisfying mux.Importer. track is ignored: this package
// only ever produces a single video track.
func (imp *Importer) NextAccessUnit(track int, out []byte) (int, mux.Status, error) {
	if imp.pos >= len(imp.aus) {
		return 0, mux.StatusEOF, nil
	}
	au := imp.aus[imp.pos]
	n := copy(out, au.Data)
	if n < len(au.Data) {
		return 0, mux.StatusOK, fmt.Errorf("vc1: next access unit: buffer too small: got %d need %d", len(out), len(au.Data))
	}
	imp.pos++
	if imp.pos >= len(imp.aus) {
		return n, mux.StatusEOF, nil
	}
	return n, mux.StatusOK, nil
}

// CurrentAccessUnitSize returns the byte length of the access unit
// NextAccessUnit would next copy, so callers can size their buffer.
func (imp *Importer) CurrentAccessUnitSize() int {
	if imp.pos >= len(imp.aus) {
		return 0
	}
	return len(imp.aus[imp.pos].Data)
}

// CurrentSampleProperty returns the SampleProperty for the access unit
// at decode index pos (the one NextAccessUnit last returned when pos
// counts the units already read, starting at 0), mapping
// AccessUnit's decode-dependency classification onto the ISOBMFF
// dependency flags sampletable needs.
func (imp *Importer) CurrentSampleProperty(pos int) mux.SampleProperty {
	if pos < 0 || pos >= len(imp.aus) {
		return mux.SampleProperty{}
	}
	au := imp.aus[pos]
	prop := mux.SampleProperty{
		DependsOnOthers: !au.Independent,
		IsDependedOn:    !au.Disposable,
		IsLeading:       au.Disposable && !au.NonBipredictive,
	}
	switch {
	case au.RandomAccessible && au.ClosedGOP:
		prop.RandomAccessType = mux.RandomAccessSync
	case au.RandomAccessible:
		prop.RandomAccessType = mux.RandomAccessOpenGOP
	default:
		prop.RandomAccessType = mux.RandomAccessNone
	}
	return prop
}

// CurrentDTS returns pos's decode-order timestamp in access-unit
// units (the caller rescales by the stream's frame duration).
func (imp *Importer) CurrentDTS(pos int) int64 { return int64(pos) }

// CurrentCTS returns pos's synthesized composition-order timestamp in
// the same access-unit units as CurrentDTS.
func (imp *Importer) CurrentCTS(pos int) int64 {
	if pos < 0 || pos >= len(imp.cts) {
		return int64(pos)
	}
	return int64(imp.cts[pos])
}

// HasReordering reports whether Probe found any B/BI picture, i.e.
// whether ctts is needed at all for this stream.
func (imp *Importer) HasReordering() bool { return imp.reordering }

// Reset discards all probed state, allowing the Importer to be reused
// for a new stream.
func (imp *Importer) Reset() {
	imp.aus = nil
	imp.cts = nil
	imp.pos = 0
	imp.reordering = false
	imp.summary = mux.CodecSummary{}
}
