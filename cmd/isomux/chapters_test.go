package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunChaptersParsesValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chapters.txt")
	contents := "00:00:00.000 Intro\n00:01:00.000 Chapter Two\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	require.NoError(t, runChapters(path))
}

func TestRunChaptersMissingFile(t *testing.T) {
	err := runChapters(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestRunChaptersMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a chapter file\n"), 0o644))

	err := runChapters(path)
	require.Error(t, err)
}
