package samplegroup

import (
	"testing"

	"github.com/nazca/isomux/pkg/mp4"
	"github.com/stretchr/testify/require"
)

func boxType(s string) mp4.BoxType {
	var t mp4.BoxType
	copy(t[:], s)
	return t
}

func TestRapBuilderEmptyUntilFirstAdd(t *testing.T) {
	b := NewRapBuilder()
	require.True(t, b.Empty())
	b.AddRap(true)
	require.False(t, b.Empty())
}

func TestRapBuilderDeduplicatesDescriptions(t *testing.T) {
	b := NewRapBuilder()
	b.AddRap(true)
	b.AddRap(true)
	b.AddRap(false)
	b.AddRap(true)

	sgpd := b.Sgpd()
	require.Equal(t, boxType("rap "), sgpd.GroupingType)
	require.Equal(t, uint8(1), sgpd.Version)
	require.Len(t, sgpd.Entries, 2)
	require.Equal(t, []byte{0x80}, sgpd.Entries[0].Payload)
	require.Equal(t, []byte{0x00}, sgpd.Entries[1].Payload)

	sbgp := b.Sbgp()
	require.Equal(t, boxType("rap "), sbgp.GroupingType)
	require.Equal(t, []mp4.SbgpEntry{
		{SampleCount: 2, GroupDescriptionIndex: 1},
		{SampleCount: 1, GroupDescriptionIndex: 2},
		{SampleCount: 1, GroupDescriptionIndex: 1},
	}, sbgp.Entries)
}

func TestRollBuilderDistancePayload(t *testing.T) {
	b := NewRollBuilder()
	b.AddRoll(-2)
	sgpd := b.Sgpd()
	require.Equal(t, boxType("roll"), sgpd.GroupingType)
	require.Equal(t, []byte{0xFF, 0xFE}, sgpd.Entries[0].Payload)
}

func TestAddUngroupedTerminatesRunWithIndexZero(t *testing.T) {
	b := NewRapBuilder()
	b.AddRap(true)
	b.AddUngrouped()
	b.AddUngrouped()
	b.AddRap(true)

	require.Equal(t, []mp4.SbgpEntry{
		{SampleCount: 1, GroupDescriptionIndex: 1},
		{SampleCount: 2, GroupDescriptionIndex: 0},
		{SampleCount: 1, GroupDescriptionIndex: 1},
	}, b.Sbgp().Entries)
}

func TestConsecutiveSameGroupCompactsIntoOneRun(t *testing.T) {
	b := NewRollBuilder()
	b.AddRoll(5)
	b.AddRoll(5)
	b.AddRoll(5)

	require.Equal(t, []mp4.SbgpEntry{
		{SampleCount: 3, GroupDescriptionIndex: 1},
	}, b.Sbgp().Entries)
	require.Len(t, b.Sgpd().Entries, 1)
}
