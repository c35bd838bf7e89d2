package chapter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleFormat(t *testing.T) {
	input := "CHAPTER01=00:00:00.000\n" +
		"CHAPTER01NAME=Intro\n" +
		"CHAPTER02=00:01:30.500\n" +
		"CHAPTER02NAME=Chapter Two\n"

	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{StartTime: 0, Title: "Intro"},
		{StartTime: 90*time.Second + 500*time.Millisecond, Title: "Chapter Two"},
	}, entries)
}

func TestParseMinimumFormat(t *testing.T) {
	input := "00:00:00.000 Intro\n" +
		"00:01:30.500 Chapter Two\n"

	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{StartTime: 0, Title: "Intro"},
		{StartTime: 90*time.Second + 500*time.Millisecond, Title: "Chapter Two"},
	}, entries)
}

func TestParseStripsLeadingBOM(t *testing.T) {
	input := utf8BOM + "CHAPTER01=00:00:00.000\nCHAPTER01NAME=Intro\n"
	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Entry{{StartTime: 0, Title: "Intro"}}, entries)
}

func TestParseSkipsBlankLinesInSimpleFormat(t *testing.T) {
	input := "CHAPTER01=00:00:00.000\nCHAPTER01NAME=Intro\n\nCHAPTER02=00:00:05.000\nCHAPTER02NAME=Two\n"
	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestParseUnrecognizedFormatIsMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader("not a chapter file\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseSimpleMissingNameLineIsMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader("CHAPTER01=00:00:00.000\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseMinimumMissingSeparatorIsMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader("00:00:00.000\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseTimestampOutOfRangeIsMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader("00:61:00.000 Bad minutes\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseTitleTruncatedTo255Bytes(t *testing.T) {
	long := strings.Repeat("x", 300)
	input := "00:00:00.000 " + long + "\n"
	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Title, 255)
}

func TestWithBOM(t *testing.T) {
	require.Equal(t, utf8BOM+"Intro", WithBOM("Intro"))
}

func TestTo100ns(t *testing.T) {
	require.Equal(t, uint64(10000000), To100ns(time.Second))
	require.Equal(t, uint64(0), To100ns(-time.Second))
	require.Equal(t, uint64(15), To100ns(1500*time.Nanosecond))
}

func TestParseFileNotFound(t *testing.T) {
	_, err := ParseFile("/nonexistent/path/to/chapters.txt")
	require.Error(t, err)
}
