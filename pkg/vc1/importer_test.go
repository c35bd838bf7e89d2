package vc1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ausFrom(disposable []bool) []AccessUnit {
	aus := make([]AccessUnit, len(disposable))
	for i, d := range disposable {
		aus[i] = AccessUnit{Disposable: d}
	}
	return aus
}

func TestSynthesizeCTSIBBPPattern(t *testing.T) {
	// I P B B P B B P P in decode order.
	aus := ausFrom([]bool{false, false, true, true, false, true, true, false, false})
	cts, reordering, err := synthesizeCTS(aus)
	require.NoError(t, err)
	require.True(t, reordering)
	require.Equal(t, []uint64{1, 4, 2, 3, 7, 5, 6, 8, 9}, cts)
}

func TestSynthesizeCTSNoReorderingFallsBackToDTS(t *testing.T) {
	aus := ausFrom([]bool{false, false, false, false})
	cts, reordering, err := synthesizeCTS(aus)
	require.NoError(t, err)
	require.False(t, reordering)
	require.Equal(t, []uint64{0, 1, 2, 3}, cts)
}

func TestSynthesizeCTSTrailingBRunIsValid(t *testing.T) {
	// A trailing run of disposable pictures is fine: only a stream with
	// no non-disposable picture at all is invalid.
	aus := ausFrom([]bool{false, true, true})
	cts, reordering, err := synthesizeCTS(aus)
	require.NoError(t, err)
	require.True(t, reordering)
	require.Equal(t, []uint64{3, 1, 2}, cts)
}

func TestSynthesizeCTSAllDisposableIsInvalid(t *testing.T) {
	aus := ausFrom([]bool{true, true, true})
	_, _, err := synthesizeCTS(aus)
	require.ErrorIs(t, err, ErrInvalidData)
}

func TestSynthesizeCTSSingleAccessUnit(t *testing.T) {
	aus := ausFrom([]bool{false})
	cts, reordering, err := synthesizeCTS(aus)
	require.NoError(t, err)
	require.False(t, reordering)
	require.Equal(t, []uint64{0}, cts)
}
