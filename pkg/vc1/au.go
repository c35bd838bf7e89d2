package vc1

import "fmt"

// AccessUnit is one decodable VC-1 Advanced Profile access unit: the
// concatenated bytes of its leading frame EBDU and every dependent field
// or slice EBDU, plus the classification pkg/mux needs to place it in the
// 'rap ' sample group and to fill in SampleProperty.
type AccessUnit struct {
	Data []byte

	Independent      bool // I or BI picture (or II/BIBI field pair): decodable standalone
	NonBipredictive  bool // not a B-picture: safe to use as another picture's reference
	Disposable       bool // B or BI picture: never referenced by a later picture
	RandomAccessible bool // decoding may start here (first frame after a sequence/entry-point header)
	ClosedGOP        bool // the entry point preceding this AU was closed (no backward B-frame references)
}

// AUAnalyzer assembles a VC-1 Advanced Profile byte stream's EBDUs into
// access units across possibly many Feed calls, following the two-pass
// shape of vc1_importer_get_access_unit_internal: scanEBDUs locates start
// codes (pass one), process groups and classifies them into access units
// (pass two).
type AUAnalyzer struct {
	seq      SequenceHeader
	haveSeq  bool
	ep       EntryPointHeader
	haveEP   bool
	prevType byte

	pendingData []byte
	pendingPics []picture
	havePending bool

	startOfSequence  bool
	randomAccessible bool
	closedGOP        bool

	leftover []byte
}

// NewAUAnalyzer returns an empty analyzer ready to consume a stream from
// its first byte.
func NewAUAnalyzer() *AUAnalyzer {
	return &AUAnalyzer{prevType: 0xFF}
}

// Sequence returns the most recently parsed sequence header and whether
// one has been seen yet.
func (a *AUAnalyzer) Sequence() (SequenceHeader, bool) { return a.seq, a.haveSeq }

// EntryPoint returns the most recently parsed entry-point header and
// whether one has been seen yet.
func (a *AUAnalyzer) EntryPoint() (EntryPointHeader, bool) { return a.ep, a.haveEP }

// Feed appends buf to the analyzer's stream and returns every access unit
// that became completable as a result, following the BDU-type delimiting
// rule of vc1_find_au_delimit_by_bdu_type. Call Flush after the last Feed
// to emit the final access unit, which Feed alone cannot know is complete.
func (a *AUAnalyzer) Feed(buf []byte) ([]AccessUnit, error) {
	a.leftover = append(a.leftover, buf...)
	units, err := scanEBDUs(a.leftover)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, nil
	}
	// The last scanned EBDU might still be growing (more bytes belonging
	// to it may arrive in a later Feed call); hold it back until a later
	// Feed completes it or Flush processes it at end of stream.
	complete := units[:len(units)-1]
	last := units[len(units)-1]
	a.leftover = append([]byte(nil), last.data...)

	aus, err := a.process(complete)
	if err != nil {
		return nil, err
	}
	return aus, nil
}

// Flush signals end of stream, processing any EBDU still held back by
// Feed and emitting the final access unit.
func (a *AUAnalyzer) Flush() ([]AccessUnit, error) {
	if len(a.leftover) == 0 {
		return a.complete()
	}
	units, err := scanEBDUs(a.leftover)
	if err != nil {
		return nil, err
	}
	a.leftover = nil
	aus, err := a.process(units)
	if err != nil {
		return nil, err
	}
	final, err := a.complete()
	if err != nil {
		return nil, err
	}
	return append(aus, final...), nil
}

func (a *AUAnalyzer) complete() ([]AccessUnit, error) {
	if !a.havePending {
		return nil, nil
	}
	au := a.buildAccessUnit()
	a.resetPending()
	return []AccessUnit{au}, nil
}

func (a *AUAnalyzer) resetPending() {
	a.pendingData = nil
	a.pendingPics = nil
	a.havePending = false
	a.startOfSequence = false
	a.randomAccessible = false
	a.closedGOP = false
}

func (a *AUAnalyzer) buildAccessUnit() AccessUnit {
	au := AccessUnit{
		Data:             append([]byte(nil), a.pendingData...),
		RandomAccessible: a.randomAccessible,
		ClosedGOP:        a.closedGOP,
	}
	if len(a.pendingPics) > 0 {
		independent, nonBipredictive, disposable := a.pendingPics[0].classify()
		au.Independent = independent
		au.NonBipredictive = nonBipredictive
		au.Disposable = disposable
	}
	return au
}

func (a *AUAnalyzer) process(units []ebdu) ([]AccessUnit, error) {
	var aus []AccessUnit
	for _, u := range units {
		if !isCodedBDU(u.bduType) {
			return nil, fmt.Errorf("vc1: BDU type 0x%02x outside user data is not supported: %w", u.bduType, ErrUnsupportedBDU)
		}
		if shouldDelimitAU(u.bduType, a.prevType) && a.havePending {
			aus = append(aus, a.buildAccessUnit())
			a.resetPending()
		}

		switch u.bduType {
		case BDUSequenceHeader:
			seq, err := parseSequenceHeader(u.rbduPayload())
			if err != nil {
				return nil, fmt.Errorf("vc1: sequence header: %w", err)
			}
			a.seq = seq
			a.haveSeq = true
			a.startOfSequence = true
		case BDUEntryPoint:
			if !a.haveSeq {
				return nil, fmt.Errorf("vc1: entry point before any sequence header: %w", ErrNoSequence)
			}
			ep, err := parseEntryPointHeader(&a.seq, u.rbduPayload())
			if err != nil {
				return nil, fmt.Errorf("vc1: entry point header: %w", err)
			}
			a.ep = ep
			a.haveEP = true
			a.closedGOP = ep.ClosedEntryPoint
			// A stream carrying more than one sequence header would only
			// be randomly accessible at entry points directly following a
			// fresh one; this analyzer targets the overwhelmingly common
			// single-sequence-header VC-1 AP stream, so every entry point
			// is treated as a random access point.
			a.randomAccessible = true
		case BDUFrame:
			if !a.haveSeq || !a.haveEP {
				return nil, fmt.Errorf("vc1: frame before sequence/entry-point headers: %w", ErrNoEntryPoint)
			}
			pic, err := parseAdvancedPicture(a.seq, u.rbduPayload())
			if err != nil {
				return nil, fmt.Errorf("vc1: advanced picture: %w", err)
			}
			a.pendingPics = append(a.pendingPics, pic)
		}

		a.pendingData = append(a.pendingData, u.data...)
		a.havePending = true
		a.prevType = u.bduType
	}
	return aus, nil
}
