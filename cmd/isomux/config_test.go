package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMovieConfigEmptyPathReturnsZeroValue(t *testing.T) {
	cfg, err := loadMovieConfig("")
	require.NoError(t, err)
	require.Equal(t, movieConfig{}, cfg)
}

func TestLoadMovieConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.yaml")
	contents := "timescale: 90000\n" +
		"majorBrand: isom\n" +
		"compatibleBrands: [iso2, mp41]\n" +
		"fragmented: true\n" +
		"quickTimeCompatible: false\n" +
		"chapterFile: chapters.txt\n" +
		"chapterBOM: true\n" +
		"referenceChapters: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := loadMovieConfig(path)
	require.NoError(t, err)
	require.Equal(t, movieConfig{
		Timescale:           90000,
		MajorBrand:          "isom",
		CompatibleBrands:    []string{"iso2", "mp41"},
		Fragmented:          true,
		QuickTimeCompatible: false,
		ChapterFile:         "chapters.txt",
		ChapterBOM:          true,
		ReferenceChapters:   true,
	}, cfg)
}

func TestLoadMovieConfigMissingFile(t *testing.T) {
	_, err := loadMovieConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestLoadMovieConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timescale: [this is not a uint32"), 0o644))

	_, err := loadMovieConfig(path)
	require.Error(t, err)
}

func TestBrandOf(t *testing.T) {
	require.Equal(t, [4]byte{'i', 's', 'o', 'm'}, brandOf("isom"))
	require.Equal(t, [4]byte{'q', 't', ' ', ' '}, brandOf("qt  "))
	require.Equal(t, [4]byte{'q', 't', 0, 0}, brandOf("qt"))
}
