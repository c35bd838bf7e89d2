package mp4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildMoof(t *testing.T) []byte {
	t.Helper()
	tree := Boxes{
		Box: &RawBox{BoxT: boxType("moof")},
		Children: []Boxes{
			{Box: &Mfhd{SequenceNumber: 1}},
			{
				Box: &RawBox{BoxT: boxType("traf")},
				Children: []Boxes{
					{Box: &Tfhd{TrackID: 1}},
					{Box: &Tfdt{BaseMediaDecodeTimeV0: 9000}},
				},
			},
		},
	}
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)
	return buf
}

func TestParseDecodesContainerWithChildren(t *testing.T) {
	node, n, err := Parse(buildMoof(t))
	require.NoError(t, err)
	require.Equal(t, len(buildMoof(t)), n)
	require.NotNil(t, node.Box)
	require.Equal(t, boxType("moof"), node.Box.Type())
	require.Len(t, node.Children, 2)
}

func TestParseRecognizesContainerBoxesByType(t *testing.T) {
	node, _, err := Parse(buildMoof(t))
	require.NoError(t, err)
	_, isRaw := node.Box.(*RawBox)
	require.True(t, isRaw, "moof has no body fields, Parse should leave it as a container RawBox")
}

func TestParseDecodesTypedBoxBody(t *testing.T) {
	node, _, err := Parse(buildMoof(t))
	require.NoError(t, err)
	mfhdNode := node.Children[0]
	mfhd, ok := mfhdNode.Box.(*Mfhd)
	require.True(t, ok)
	require.Equal(t, uint32(1), mfhd.SequenceNumber)
}

func TestParseFallsBackToRawBoxForUnknownType(t *testing.T) {
	box := &RawBox{BoxT: boxType("xxxx"), Payload: []byte{1, 2, 3, 4}}
	tree := Boxes{Box: box}
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)

	node, n, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	raw, ok := node.Box.(*RawBox)
	require.True(t, ok)
	require.Equal(t, boxType("xxxx"), raw.BoxT)
	require.Equal(t, []byte{1, 2, 3, 4}, raw.Payload)
}

func TestParseRejectsBufferShorterThanHeader(t *testing.T) {
	_, _, err := Parse([]byte{0, 0, 0})
	require.ErrorIs(t, err, ErrBufferTooShort)
}

func TestParseRejectsSizeLargerThanBuffer(t *testing.T) {
	buf := []byte{0, 0, 0, 100, 'f', 't', 'y', 'p'}
	_, _, err := Parse(buf)
	require.ErrorIs(t, err, ErrBufferTooShort)
}

func TestParseHandlesSizeZeroAsRestOfBuffer(t *testing.T) {
	box := &Mfhd{SequenceNumber: 9}
	body := make([]byte, box.Size())
	pos := 0
	box.Marshal(body, &pos)

	buf := make([]byte, 8+len(body))
	p := 0
	WriteUint32(buf, &p, 0) // size == 0 means "extends to end of buffer"
	Write(buf, &p, []byte("mfhd"))
	Write(buf, &p, body)

	node, n, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	mfhd, ok := node.Box.(*Mfhd)
	require.True(t, ok)
	require.Equal(t, uint32(9), mfhd.SequenceNumber)
}

func TestParseHandlesSize1AsLargesize(t *testing.T) {
	box := &Mfhd{SequenceNumber: 3}
	body := make([]byte, box.Size())
	pos := 0
	box.Marshal(body, &pos)

	total := 16 + len(body)
	buf := make([]byte, total)
	p := 0
	WriteUint32(buf, &p, 1) // size == 1 means the real size follows as a uint64
	Write(buf, &p, []byte("mfhd"))
	WriteUint64(buf, &p, uint64(total))
	Write(buf, &p, body)

	node, n, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, total, n)
	mfhd, ok := node.Box.(*Mfhd)
	require.True(t, ok)
	require.Equal(t, uint32(3), mfhd.SequenceNumber)
}

func TestFindReturnsFirstMatchDepthFirst(t *testing.T) {
	node, _, err := Parse(buildMoof(t))
	require.NoError(t, err)

	found := node.Find(boxType("tfdt"))
	require.NotNil(t, found)
	tfdt, ok := found.Box.(*Tfdt)
	require.True(t, ok)
	require.Equal(t, uint32(9000), tfdt.BaseMediaDecodeTimeV0)
}

func TestFindReturnsNilWhenAbsent(t *testing.T) {
	node, _, err := Parse(buildMoof(t))
	require.NoError(t, err)
	require.Nil(t, node.Find(boxType("stsd")))
}

func TestFindMatchesNodeItself(t *testing.T) {
	node, _, err := Parse(buildMoof(t))
	require.NoError(t, err)
	require.Same(t, node, node.Find(boxType("moof")))
}

func TestFindAllCollectsEveryMatchInDocumentOrder(t *testing.T) {
	tree := Boxes{
		Box: &RawBox{BoxT: boxType("moov")},
		Children: []Boxes{
			{Box: &Mfhd{SequenceNumber: 1}},
			{Box: &Mfhd{SequenceNumber: 2}},
			{
				Box: &RawBox{BoxT: boxType("trak")},
				Children: []Boxes{
					{Box: &Mfhd{SequenceNumber: 3}},
				},
			},
		},
	}
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)

	node, _, err := Parse(buf)
	require.NoError(t, err)

	matches := node.FindAll(boxType("mfhd"))
	require.Len(t, matches, 3)
	for i, m := range matches {
		mfhd := m.Box.(*Mfhd)
		require.Equal(t, uint32(i+1), mfhd.SequenceNumber)
	}
}

func TestUnmarshalFullBoxReadsVersionAndFlags(t *testing.T) {
	buf := []byte{1, 0xAB, 0xCD, 0xEF}
	pos := 0
	var fb FullBox
	fb.UnmarshalFullBox(buf, &pos)
	require.Equal(t, uint8(1), fb.Version)
	require.Equal(t, [3]byte{0xAB, 0xCD, 0xEF}, fb.Flags)
	require.Equal(t, 4, pos)
}
