// Package biosink wraps an io.Writer/io.WriteSeeker with the big-endian
// put helpers the container engine needs while streaming a file, mirroring
// the pkg/video/mp4/write.go byte-sink style but adding Seek/Pos so a
// caller can patch an already-written field (an mdat size, a mehd
// placeholder) the way a progressive muxer patches mdat size.
package biosink

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Sink is a position-tracked writer over an io.Writer. When the underlying
// writer also implements io.Seeker, Seek/Pos allow patching earlier
// fields after later ones are known.
type Sink struct {
	w   io.Writer
	pos int64
}

// New wraps w, starting position tracking at 0 whatever the writer's
// current offset is.
func New(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Pos returns the number of bytes written (or sought to) so far.
func (s *Sink) Pos() int64 { return s.pos }

// Write writes p and advances the tracked position.
func (s *Sink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.pos += int64(n)
	return n, err
}

// WriteByte writes a single byte.
func (s *Sink) WriteByte(b byte) error {
	_, err := s.Write([]byte{b})
	return err
}

// WriteUint16 writes 16 bits big-endian.
func (s *Sink) WriteUint16(v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := s.Write(buf[:])
	return err
}

// WriteUint32 writes 32 bits big-endian.
func (s *Sink) WriteUint32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := s.Write(buf[:])
	return err
}

// WriteUint64 writes 64 bits big-endian.
func (s *Sink) WriteUint64(v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := s.Write(buf[:])
	return err
}

// Seek repositions the sink within a WriteSeeker sink, tracking the new
// absolute offset for subsequent Pos() calls. It fails if the wrapped
// writer cannot seek.
func (s *Sink) Seek(offset int64, whence int) (int64, error) {
	seeker, ok := s.w.(io.Seeker)
	if !ok {
		return 0, fmt.Errorf("biosink: underlying writer does not support Seek")
	}
	n, err := seeker.Seek(offset, whence)
	if err != nil {
		return n, err
	}
	s.pos = n
	return n, nil
}

// PatchUint32At seeks to offset, writes v, then seeks back to resume at
// the position the sink held before the patch — the exact "write
// placeholder, stream body, seek back and patch size" shape the
// progressive finalizer uses for mdat.
func (s *Sink) PatchUint32At(offset int64, v uint32) error {
	resume := s.pos
	if _, err := s.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if err := s.WriteUint32(v); err != nil {
		return err
	}
	_, err := s.Seek(resume, io.SeekStart)
	return err
}
