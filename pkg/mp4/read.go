package mp4

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrBufferTooShort is returned when a box claims a size larger than the
// buffer actually available to parse from.
var ErrBufferTooShort = errors.New("mp4: buffer too short for box")

// ReadUint16 reads 16 bits.
func ReadUint16(buf []byte, pos *int) uint16 {
	v := binary.BigEndian.Uint16(buf[*pos:])
	*pos += 2
	return v
}

// ReadUint32 reads 32 bits.
func ReadUint32(buf []byte, pos *int) uint32 {
	v := binary.BigEndian.Uint32(buf[*pos:])
	*pos += 4
	return v
}

// ReadUint64 reads 64 bits.
func ReadUint64(buf []byte, pos *int) uint64 {
	v := binary.BigEndian.Uint64(buf[*pos:])
	*pos += 8
	return v
}

// ReadByte reads 1 byte.
func ReadByte(buf []byte, pos *int) byte {
	v := buf[*pos]
	*pos++
	return v
}

// ReadString reads a null-terminated string.
func ReadString(buf []byte, pos *int) string {
	start := *pos
	for *pos < len(buf) && buf[*pos] != 0x00 {
		*pos++
	}
	s := string(buf[start:*pos])
	if *pos < len(buf) {
		*pos++ // skip null terminator
	}
	return s
}

// UnmarshalFullBox reads the 4-byte FullBox header.
func (b *FullBox) UnmarshalFullBox(buf []byte, pos *int) {
	b.Version = ReadByte(buf, pos)
	b.Flags[0] = ReadByte(buf, pos)
	b.Flags[1] = ReadByte(buf, pos)
	b.Flags[2] = ReadByte(buf, pos)
}

// Unmarshaler is implemented by box bodies that can parse themselves back
// out of their own payload (the bytes following the 8-byte size+type
// header, for the box's declared version/flags).
type Unmarshaler interface {
	Unmarshal(buf []byte) (int, error)
}

// containerBoxTypes lists box types whose body has no fields of its own
// and is understood purely as a sequence of child boxes.
var containerBoxTypes = map[BoxType]bool{
	boxType("moov"): true, boxType("trak"): true, boxType("mdia"): true,
	boxType("minf"): true, boxType("dinf"): true, boxType("stbl"): true,
	boxType("mvex"): true, boxType("moof"): true, boxType("traf"): true,
	boxType("edts"): true, boxType("udta"): true, boxType("mfra"): true,
	boxType("meta"): true,
}

func boxType(s string) BoxType {
	var t BoxType
	copy(t[:], s)
	return t
}

// RawBox holds an undecoded box payload, used for box types this module
// does not model as a typed struct (rare QT-only atoms, vendor extensions).
type RawBox struct {
	BoxT    BoxType
	Payload []byte
}

// Type returns the BoxType.
func (b *RawBox) Type() BoxType { return b.BoxT }

// Size returns the marshaled size in bytes.
func (b *RawBox) Size() int { return len(b.Payload) }

// Marshal box to buffer.
func (b *RawBox) Marshal(buf []byte, pos *int) {
	Write(buf, pos, b.Payload)
}

// ParsedBox is a single node of a parsed box tree: either a decoded
// ImmutableBox (when Unmarshal succeeded) or a RawBox fallback.
type ParsedBox struct {
	Box      ImmutableBox
	Children []*ParsedBox
}

// newBoxByType returns a zero-valued, type-registered box body for dispatch,
// or nil when the type is unknown to this module.
func newBoxByType(t BoxType) ImmutableBox {
	switch t {
	case boxType("ftyp"):
		return &Ftyp{}
	case boxType("mvhd"):
		return &Mvhd{}
	case boxType("tkhd"):
		return &Tkhd{}
	case boxType("mdhd"):
		return &Mdhd{}
	case boxType("hdlr"):
		return &Hdlr{}
	case boxType("vmhd"):
		return &Vmhd{}
	case boxType("smhd"):
		return &Smhd{}
	case boxType("dref"):
		return &Dref{}
	case boxType("url "):
		return &Url{}
	case boxType("stsd"):
		return &Stsd{}
	case boxType("stts"):
		return &Stts{}
	case boxType("ctts"):
		return &Ctts{}
	case boxType("stsc"):
		return &Stsc{}
	case boxType("stsz"):
		return &Stsz{}
	case boxType("stco"):
		return &Stco{}
	case boxType("co64"):
		return &Co64{}
	case boxType("stss"):
		return &Stss{}
	case boxType("sdtp"):
		return &Sdtp{}
	case boxType("elst"):
		return &Elst{}
	case boxType("tref"):
		return &Tref{}
	case boxType("mdat"):
		return &Mdat{}
	case boxType("mfhd"):
		return &Mfhd{}
	case boxType("tfhd"):
		return &Tfhd{}
	case boxType("tfdt"):
		return &Tfdt{}
	case boxType("trun"):
		return &Trun{}
	case boxType("mehd"):
		return &Mehd{}
	case boxType("trex"):
		return &Trex{}
	case boxType("tfra"):
		return &Tfra{}
	case boxType("mfro"):
		return &Mfro{}
	case boxType("sgpd"):
		return &Sgpd{}
	case boxType("sbgp"):
		return &Sbgp{}
	case boxType("cslg"):
		return &Cslg{}
	case boxType("chpl"):
		return &Chpl{}
	case boxType("free"), boxType("skip"):
		return &Free{}
	case boxType("stsh"):
		return &Stsh{}
	case boxType("stps"):
		return &Stps{}
	case boxType("iods"):
		return &Iods{}
	}
	return nil
}

// Parse decodes a single box (header + body + children) starting at buf[0].
// It returns the parsed node and the number of bytes consumed.
func Parse(buf []byte) (*ParsedBox, int, error) {
	if len(buf) < 8 {
		return nil, 0, fmt.Errorf("%w: have %d bytes", ErrBufferTooShort, len(buf))
	}
	pos := 0
	size := ReadUint32(buf, &pos)
	var t BoxType
	copy(t[:], buf[pos:pos+4])
	pos += 4
	if size == 1 {
		if len(buf) < pos+8 {
			return nil, 0, ErrBufferTooShort
		}
		size = uint32(ReadUint64(buf, &pos))
	}
	if size == 0 {
		size = uint32(len(buf))
	}
	if int(size) > len(buf) {
		return nil, 0, fmt.Errorf("%w: box %q claims %d, have %d", ErrBufferTooShort, t, size, len(buf))
	}
	body := buf[pos:size]

	node := &ParsedBox{}
	if containerBoxTypes[t] {
		node.Box = &RawBox{BoxT: t}
		children, err := parseChildren(body)
		if err != nil {
			return nil, 0, err
		}
		node.Children = children
		return node, int(size), nil
	}

	if box := newBoxByType(t); box != nil {
		if u, ok := box.(Unmarshaler); ok {
			if _, err := u.Unmarshal(body); err == nil {
				node.Box = box
				return node, int(size), nil
			}
		}
	}
	node.Box = &RawBox{BoxT: t, Payload: append([]byte(nil), body...)}
	return node, int(size), nil
}

func parseChildren(buf []byte) ([]*ParsedBox, error) {
	var out []*ParsedBox
	for len(buf) > 0 {
		child, n, err := Parse(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
		buf = buf[n:]
	}
	return out, nil
}

// Find returns the first descendant (depth-first, including node itself)
// whose box type matches t.
func (n *ParsedBox) Find(t BoxType) *ParsedBox {
	if n.Box != nil && n.Box.Type() == t {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(t); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant (including node itself) whose box type
// matches t, in document order.
func (n *ParsedBox) FindAll(t BoxType) []*ParsedBox {
	var out []*ParsedBox
	if n.Box != nil && n.Box.Type() == t {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, c.FindAll(t)...)
	}
	return out
}
