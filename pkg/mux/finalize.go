package mux

import (
	"fmt"
	"io"

	"github.com/nazca/isomux/pkg/mp4"
)

// FinishMovie flushes any tracks that still hold a pooled sample, verifies
// the mandatory-box checklist, writes moov (progressive) or the trailing
// mfra index (fragmented), and patches the streaming mdat's size. remux
// requests the two-buffer rolling remux pass instead of a plain seek-back
// patch; nil uses the plain patch.
func (r *Root) FinishMovie(remux *AdhocRemuxConfig) error {
	if r.finished {
		return fmt.Errorf("mux: finish movie: %w", ErrUnsupported)
	}
	for _, t := range r.tracks {
		if t.pending != nil {
			r.log.Warn("track finalized with an unflushed pending sample; using its own duration as delta", nil)
			r.commitPending(t, 0)
			t.pending = nil
		}
	}
	if err := r.verifyMandatoryBoxes(); err != nil {
		return err
	}

	var err error
	if r.opts.Fragmented {
		err = r.finalizeFragmented()
	} else {
		err = r.finalizeProgressive(remux)
	}
	if err != nil {
		return err
	}
	r.finished = true
	return nil
}

// verifyMandatoryBoxes checks the boxes that must be present before a
// movie may be finalized: every track needs at least one sample
// entry, and a non-empty sample table once any sample was appended.
func (r *Root) verifyMandatoryBoxes() error {
	if r.movie.Timescale == 0 {
		r.log.Warn("movie timescale unset, defaulting to 90000", nil)
	}
	for _, t := range r.tracks {
		if len(t.entries) == 0 {
			return fmt.Errorf("mux: track %d has no sample entry (stsd): %w", t.id, ErrMandatoryBoxMissing)
		}
		if t.sampleCount > 0 && t.table.Stts().EntryCount == 0 {
			return fmt.Errorf("mux: track %d has samples but no stts entries: %w", t.id, ErrMandatoryBoxMissing)
		}
	}
	return nil
}

// finalizeProgressive writes moov after the already-streamed mdat and
// patches the mdat size field, following the writeMetadata style of
// pkg/monitor/mp4muxer/muxer.go. When remux is set, it additionally
// performs the rolling two-buffer shift from original_source/write.c so
// moov ends up ahead of mdat instead of trailing it.
func (r *Root) finalizeProgressive(remux *AdhocRemuxConfig) error {
	moov := r.buildMoov()
	mdatSize := uint32(r.sink.Pos()) - uint32(r.mdatOffset)
	if int64(mdatSize) < 0 || uint64(r.sink.Pos())-r.mdatOffset > 0xFFFFFFFF {
		return fmt.Errorf("mux: mdat exceeds 32-bit size, 64-bit largesize promotion not yet wired: %w", ErrUnsupported)
	}
	if err := r.sink.PatchUint32At(int64(r.mdatOffset), mdatSize); err != nil {
		return fmt.Errorf("mux: patch mdat size: %w", err)
	}

	buf := make([]byte, moov.Size())
	pos := 0
	moov.Marshal(buf, &pos)
	if _, err := r.sink.Write(buf); err != nil {
		return fmt.Errorf("mux: write moov: %w", err)
	}

	if remux != nil {
		if err := r.adhocRemux(*remux); err != nil {
			r.log.Warn("adhoc remux pass failed, file remains valid with trailing moov", err)
		}
	}
	return nil
}

// adhocRemux shifts mdat's bytes forward by moov's size using two rolling
// buffers so the final file has moov ahead of mdat (friendlier to
// progressive-download players).
func (r *Root) adhocRemux(cfg AdhocRemuxConfig) error {
	seeker, ok := r.seekable.(interface {
		io.ReaderAt
		io.WriterAt
	})
	if !ok {
		return fmt.Errorf("mux: adhoc remux: sink does not support random access: %w", ErrUnsupported)
	}
	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = 1 << 20
	}

	moovSize := int64(r.sink.Pos()) - int64(r.mdatBodyStart) - int64(r.bytesWritten)
	if moovSize <= 0 {
		return nil
	}
	mdatEnd := int64(r.mdatBodyStart) + int64(r.bytesWritten)

	a := make([]byte, bufSize)
	b := make([]byte, bufSize)
	readPos := int64(r.mdatOffset)
	writePos := readPos + moovSize
	cur, next := a, b
	n, err := seeker.ReadAt(cur[:min(bufSize, int(mdatEnd-readPos))], readPos)
	for n > 0 {
		readPos += int64(n)
		var nextN int
		if readPos < mdatEnd {
			nextN, _ = seeker.ReadAt(next[:min(bufSize, int(mdatEnd-readPos))], readPos)
		}
		if _, err := seeker.WriteAt(cur[:n], writePos); err != nil {
			return err
		}
		writePos += int64(n)
		cur, next = next, cur
		n = nextN
		if err != nil && err != io.EOF {
			return err
		}
	}

	moov := r.buildMoov()
	moovBuf := make([]byte, moov.Size())
	pos := 0
	moov.Marshal(moovBuf, &pos)
	if _, err := seeker.WriteAt(moovBuf, int64(r.mdatOffset)); err != nil {
		return err
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// shouldWriteIods reports whether the movie being finalized should carry
// an iods box: only MP4 v1 compatibility, never otherwise (DESIGN.md Open
// Question 3).
func (r *Root) shouldWriteIods() bool {
	return mp4.IsMP4V1Only(r.movie.MajorBrand, r.movie.Compatible)
}
