package mp4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxesSizeIncludesHeaderAndChildren(t *testing.T) {
	leaf := Boxes{Box: &Mfhd{SequenceNumber: 7}}
	require.Equal(t, 8+8, leaf.Size()) // 8-byte header + 8-byte mfhd body

	tree := Boxes{
		Box:      &RawBox{BoxT: boxType("moof")},
		Children: []Boxes{leaf},
	}
	require.Equal(t, 8+leaf.Size(), tree.Size())
}

func TestBoxesMarshalWritesHeaderThenBodyThenChildren(t *testing.T) {
	tree := Boxes{
		Box: &RawBox{BoxT: boxType("moof")},
		Children: []Boxes{
			{Box: &Mfhd{SequenceNumber: 1}},
		},
	}
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)
	require.Equal(t, len(buf), pos)

	require.Equal(t, []byte{0, 0, 0, byte(tree.Size())}, buf[0:4])
	require.Equal(t, []byte("moof"), buf[4:8])
	require.Equal(t, []byte("mfhd"), buf[12:16])
}

func TestBoxesMarshalSkipsBodyForEmptyBox(t *testing.T) {
	tree := Boxes{Box: &Moov{}}
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)
	require.Equal(t, 8, pos)
	require.Equal(t, []byte("moov"), buf[4:8])
}

func TestWriteReadRoundTripPrimitives(t *testing.T) {
	buf := make([]byte, 64)
	pos := 0
	WriteByte(buf, &pos, 0xAB)
	WriteUint16(buf, &pos, 0x1234)
	WriteUint32(buf, &pos, 0xDEADBEEF)
	WriteUint64(buf, &pos, 0x0102030405060708)
	WriteString(buf, &pos, "hello")
	Write(buf, &pos, []byte{1, 2, 3})

	rpos := 0
	require.Equal(t, byte(0xAB), ReadByte(buf, &rpos))
	require.Equal(t, uint16(0x1234), ReadUint16(buf, &rpos))
	require.Equal(t, uint32(0xDEADBEEF), ReadUint32(buf, &rpos))
	require.Equal(t, uint64(0x0102030405060708), ReadUint64(buf, &rpos))
	require.Equal(t, "hello", ReadString(buf, &rpos))
	require.Equal(t, pos, rpos+3)
}

func TestReadStringWithoutTerminatorConsumesRestOfBuffer(t *testing.T) {
	buf := []byte("no-null-here")
	pos := 0
	require.Equal(t, "no-null-here", ReadString(buf, &pos))
	require.Equal(t, len(buf), pos)
}
