package mux

import (
	"fmt"

	"github.com/nazca/isomux/pkg/chapter"
	"github.com/nazca/isomux/pkg/mp4"
)

// encdAtom is the QuickTime Text Encoding Attribute box literal that must
// follow a QT 'text' sample's name field when the media language is
// undefined, per original_source/chapter.c's inline static const encd[12].
var encdAtom = [12]byte{
	0x00, 0x00, 0x00, 0x0C, // size: 12
	'e', 'n', 'c', 'd',
	0x00, 0x00, 0x01, 0x00, // Unicode Encoding
}

// SetTyrantChapter parses the Simple- or Minimum-format chapter file at
// path and embeds it as a moov/udta/chpl chapter list, following
// lsmash_set_tyrant_chapter. It must be called once every track's samples
// are appended (the movie duration must be known, to cut off chapters
// beyond it) and before FinishMovie.
func (r *Root) SetTyrantChapter(path string, addBOM bool) error {
	if r.movie.Timescale == 0 {
		return fmt.Errorf("mux: set tyrant chapter: movie timescale not set: %w", ErrInvalidParameter)
	}
	durationMovieTS := r.movieDurationMovieTS()
	if durationMovieTS == 0 {
		return fmt.Errorf("mux: set tyrant chapter: movie duration is zero: %w", ErrInvalidParameter)
	}
	durationSeconds := float64(durationMovieTS) / float64(r.movie.Timescale)

	entries, err := chapter.ParseFile(path)
	if err != nil {
		return fmt.Errorf("mux: set tyrant chapter: %w", err)
	}

	r.chapterEntries = r.chapterEntries[:0]
	for _, e := range entries {
		title := e.Title
		if addBOM {
			title = chapter.WithBOM(title)
		}
		start100ns := chapter.To100ns(e.StartTime)
		if float64(start100ns)/1e7 > durationSeconds {
			r.log.Warn("chapter point exceeds movie duration, cutting off remaining chapters", nil)
			break
		}
		r.chapterEntries = append(r.chapterEntries, chapterMoovEntry{StartTime100ns: start100ns, Title: title})
	}
	return nil
}

// CreateReferenceChapterTrack parses the chapter file at path and adds it
// as a dedicated text track whose samples are chapter titles timed at each
// chapter's start, with targetTrackID's tref pointing at it via a 'chap'
// reference, following lsmash_create_reference_chapter_track. It returns
// the new chapter track's ID.
func (r *Root) CreateReferenceChapterTrack(targetTrackID TrackID, path string) (TrackID, error) {
	target, err := r.track(targetTrackID)
	if err != nil {
		return 0, fmt.Errorf("mux: create reference chapter track: %w", err)
	}
	if !r.isQuickTimeOrItunesCompatible() {
		return 0, fmt.Errorf("mux: create reference chapter track: reference chapter requires a QuickTime- or iTunes-compatible brand: %w", ErrInvalidParameter)
	}

	entries, err := chapter.ParseFile(path)
	if err != nil {
		return 0, fmt.Errorf("mux: create reference chapter track: %w", err)
	}

	chapterTrackID, err := r.CreateTrack([4]byte{'t', 'e', 'x', 't'})
	if err != nil {
		return 0, err
	}
	if err := r.SetTrackParameters(chapterTrackID, TrackParameters{}); err != nil {
		return 0, err
	}

	mediaTimescale := target.mediaParams.Timescale
	if mediaTimescale == 0 {
		mediaTimescale = r.movie.Timescale
	}
	useTx3G := r.isIso3GPPv6OrItunes()
	var language [3]byte // 0 == ISO undefined language code
	if err := r.SetMediaParameters(chapterTrackID, MediaParameters{Timescale: mediaTimescale, Language: language}); err != nil {
		return 0, err
	}

	sampleFormat := [4]byte{'t', 'e', 'x', 't'}
	if useTx3G {
		sampleFormat = [4]byte{'t', 'x', '3', 'g'}
	}
	entryIndex, err := r.AddSampleEntry(chapterTrackID, CodecSummary{Kind: SampleEntryText, Format: sampleFormat})
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		ts := int64(e.StartTime.Seconds()*float64(mediaTimescale) + 0.5)
		title := e.Title
		nameLen := len(title)
		data := make([]byte, 0, 2+nameLen+12)
		data = append(data, byte(nameLen>>8), byte(nameLen))
		data = append(data, title...)
		if !useTx3G {
			data = append(data, encdAtom[:]...)
		}
		sample := Sample{
			DTS:   ts,
			CTS:   ts,
			Data:  data,
			Index: entryIndex,
			Prop:  SampleProperty{RandomAccessType: RandomAccessSync},
		}
		if err := r.AppendSample(chapterTrackID, sample); err != nil {
			return 0, fmt.Errorf("mux: create reference chapter track: %w", err)
		}
	}
	if err := r.FlushPooledSamples(chapterTrackID, 0); err != nil {
		return 0, err
	}

	target.chapterTrackID = chapterTrackID
	return chapterTrackID, nil
}

func (r *Root) isQuickTimeOrItunesCompatible() bool {
	if r.movie.QuickTimeCompatible || mp4.IsQuickTimeCompatible(r.movie.MajorBrand, r.movie.Compatible) {
		return true
	}
	return r.isItunesCompatible()
}

func (r *Root) isItunesCompatible() bool {
	if r.movie.MajorBrand == mp4.BrandM4A || r.movie.MajorBrand == mp4.BrandM4V {
		return true
	}
	for _, c := range r.movie.Compatible {
		if c == mp4.BrandM4A || c == mp4.BrandM4V {
			return true
		}
	}
	return false
}

func (r *Root) isIso3GPPv6OrItunes() bool {
	if r.isItunesCompatible() {
		return true
	}
	return r.movie.MajorBrand == mp4.Brand3GP6
}
