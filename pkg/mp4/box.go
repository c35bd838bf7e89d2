package mp4

import (
	"encoding/binary"
)

// BoxType is the 4-byte box type tag every ISOBMFF box carries in its
// header (ftyp, moov, mdat, ...).
type BoxType [4]byte

// ImmutableBox is the common interface every concrete box type in this
// package implements, whether it is one the demuxer reads off the wire
// (box_unmarshal.go) or one the muxer builds fresh for output
// (pkg/mux/boxtree.go).
type ImmutableBox interface {
	// Type returns the BoxType.
	Type() BoxType

	// Size returns the marshaled size in bytes.
	// The size must be known before marshaling
	// since the box header contains the size.
	Size() int

	// Marshal box to buffer.
	Marshal(buf []byte, pos *int)
}

// Boxes pairs a box with its children, forming the tree the muxer
// assembles for a movie (moov/trak/mdia/... down to the leaf boxes) and
// serializes in one pass. A leaf box has no Children.
type Boxes struct {
	Box      ImmutableBox
	Children []Boxes
}

// Size returns the total size of the box including children.
func (b *Boxes) Size() int {
	total := b.Box.Size() + 8
	for _, child := range b.Children {
		size := child.Size()
		total += size
	}
	return total
}

// Marshal box including children.
func (b *Boxes) Marshal(buf []byte, pos *int) {
	size := b.Size()
	writeBoxInfo(buf, pos, uint32(size), b.Box.Type())

	// The size of a empty box is 8 bytes.
	if size != 8 {
		b.Box.Marshal(buf, pos)
	}

	for _, child := range b.Children {
		child.Marshal(buf, pos)
	}
}

func writeBoxInfo(buf []byte, pos *int, size uint32, typ BoxType) {
	WriteUint32(buf, pos, size)
	Write(buf, pos, typ[:])
}

// Write writes len(p) bytes.
func Write(buf []byte, pos *int, p []byte) {
	*pos += copy(buf[*pos:], p)
}

// WriteByte writes 1 byte.
func WriteByte(buf []byte, pos *int, byt byte) {
	buf[*pos] = byt
	*pos++
}

// WriteUint16 writes 16 bits.
func WriteUint16(buf []byte, pos *int, r uint16) {
	binary.BigEndian.PutUint16(buf[*pos:], r)
	*pos += 2
}

// WriteUint32 writes 32 bits.
func WriteUint32(buf []byte, pos *int, r uint32) {
	binary.BigEndian.PutUint32(buf[*pos:], r)
	*pos += 4
}

// WriteUint64 writes 64 bits.
func WriteUint64(buf []byte, pos *int, r uint64) {
	binary.BigEndian.PutUint64(buf[*pos:], r)
	*pos += 8
}

// WriteString writes a string followed by its terminating null
// character, the encoding every ISOBMFF string field (hdlr's Name, url
// 's Location, ...) uses on the wire.
func WriteString(buf []byte, pos *int, str string) {
	Write(buf, pos, []byte(str))
	WriteByte(buf, pos, 0x00) // null character
}
