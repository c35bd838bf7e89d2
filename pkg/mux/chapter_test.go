package mux

import (
	"testing"

	"github.com/nazca/isomux/pkg/mp4"
	"github.com/stretchr/testify/require"
)

func TestIsQuickTimeOrItunesCompatible(t *testing.T) {
	r := &Root{movie: MovieParameters{QuickTimeCompatible: true}}
	require.True(t, r.isQuickTimeOrItunesCompatible())

	r = &Root{movie: MovieParameters{MajorBrand: mp4.BrandQT}}
	require.True(t, r.isQuickTimeOrItunesCompatible())

	r = &Root{movie: MovieParameters{MajorBrand: mp4.BrandM4A}}
	require.True(t, r.isQuickTimeOrItunesCompatible())

	r = &Root{movie: MovieParameters{MajorBrand: mp4.BrandIsom}}
	require.False(t, r.isQuickTimeOrItunesCompatible())
}

func TestIsItunesCompatible(t *testing.T) {
	r := &Root{movie: MovieParameters{MajorBrand: mp4.BrandM4V}}
	require.True(t, r.isItunesCompatible())

	r = &Root{movie: MovieParameters{MajorBrand: mp4.BrandIsom, Compatible: [][4]byte{mp4.BrandM4A}}}
	require.True(t, r.isItunesCompatible())

	r = &Root{movie: MovieParameters{MajorBrand: mp4.BrandIsom}}
	require.False(t, r.isItunesCompatible())
}

func TestIsIso3GPPv6OrItunes(t *testing.T) {
	r := &Root{movie: MovieParameters{MajorBrand: mp4.Brand3GP6}}
	require.True(t, r.isIso3GPPv6OrItunes())

	r = &Root{movie: MovieParameters{MajorBrand: mp4.BrandM4A}}
	require.True(t, r.isIso3GPPv6OrItunes())

	r = &Root{movie: MovieParameters{MajorBrand: mp4.BrandIsom}}
	require.False(t, r.isIso3GPPv6OrItunes())
}
