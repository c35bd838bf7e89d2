// Package chapter parses the two plain-text chapter list formats the
// reference frontend accepts, grounded on original_source/chapter.c:
// "Simple" (CHAPTERNN=timestamp / CHAPTERNNNAME=title pairs) and "Minimum"
// (one "timestamp title" line per chapter). The format is auto-detected
// from the first line, matching isom_check_chap_line.
package chapter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// utf8BOM is the 3-byte UTF-8 byte-order mark some chapter files (and, if
// requested, chapter titles) are prefixed with.
const utf8BOM = "\xEF\xBB\xBF"

// Entry is one parsed chapter point: a start time and a title, matching
// isom_chapter_entry_t.
type Entry struct {
	StartTime time.Duration
	Title     string
}

// format identifies which of the two line layouts a file uses.
type format int

const (
	formatUnknown format = iota
	formatSimple
	formatMinimum
)

// ErrMalformed is returned when the chapter file's first line matches
// neither supported format, or a timestamp fails validation.
var ErrMalformed = fmt.Errorf("chapter: malformed chapter file")

// ParseFile opens path, auto-detects its format from the first line, and
// parses every chapter entry in order.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chapter: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads chapter entries from r, detecting Simple vs. Minimum format
// from the first line (after BOM-stripping) the way isom_check_chap_line
// does, then dispatching every line pair (Simple) or line (Minimum) to the
// matching reader.
func Parse(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)
	first, err := peekLine(br)
	if err != nil {
		return nil, fmt.Errorf("chapter: %w", ErrMalformed)
	}
	first = stripBOM(first)
	switch {
	case strings.HasPrefix(first, "CHAPTER"):
		return parseSimple(br)
	case isMinimumHeader(first):
		return parseMinimum(br)
	default:
		return nil, fmt.Errorf("chapter: %w", ErrMalformed)
	}
}

// isMinimumHeader reports whether line begins "DD:DD:" (two digits, colon,
// two digits, colon), the Minimum format's fixed timestamp prefix.
func isMinimumHeader(line string) bool {
	if len(line) < 6 {
		return false
	}
	return isDigit(line[0]) && isDigit(line[1]) && line[2] == ':' &&
		isDigit(line[3]) && isDigit(line[4]) && line[5] == ':'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// peekLine reads the next line without consuming it, for format sniffing.
func peekLine(br *bufio.Reader) (string, error) {
	peeked, err := br.Peek(512)
	if err != nil && err != io.EOF && len(peeked) == 0 {
		return "", err
	}
	if i := bytes.IndexByte(peeked, '\n'); i >= 0 {
		peeked = peeked[:i]
	}
	return string(peeked), nil
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, utf8BOM)
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if line == "" && err != nil {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	return line, nil
}

// parseSimple reads alternating "CHAPTERNN=hh:mm:ss.ttt" /
// "CHAPTERNNNAME=title" line pairs until EOF, per isom_read_simple_chapter.
func parseSimple(br *bufio.Reader) ([]Entry, error) {
	var entries []Entry
	for {
		timeLine, err := readLine(br)
		if err != nil {
			if err == io.EOF {
				return entries, nil
			}
			return nil, fmt.Errorf("chapter: %w", err)
		}
		timeLine = stripBOM(timeLine)
		if timeLine == "" {
			continue
		}
		idx := strings.IndexByte(timeLine, '=')
		if idx < 0 {
			return nil, fmt.Errorf("chapter: %w: missing '=' in %q", ErrMalformed, timeLine)
		}
		start, err := parseTimestamp(timeLine[idx+1:])
		if err != nil {
			return nil, err
		}

		nameLine, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("chapter: %w: missing name line for %q", ErrMalformed, timeLine)
		}
		nidx := strings.IndexByte(nameLine, '=')
		if nidx < 0 {
			return nil, fmt.Errorf("chapter: %w: missing '=' in %q", ErrMalformed, nameLine)
		}
		title := nameLine[nidx+1:]
		if len(title) > 255 {
			title = title[:255]
		}
		entries = append(entries, Entry{StartTime: start, Title: title})
	}
}

// parseMinimum reads one "hh:mm:ss.ttt title" line per chapter, per
// isom_read_minimum_chapter. A leading BOM is stripped from every line,
// not only the first.
func parseMinimum(br *bufio.Reader) ([]Entry, error) {
	var entries []Entry
	for {
		line, err := readLine(br)
		if err != nil {
			if err == io.EOF {
				return entries, nil
			}
			return nil, fmt.Errorf("chapter: %w", err)
		}
		line = stripBOM(line)
		if line == "" {
			continue
		}
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("chapter: %w: missing separator in %q", ErrMalformed, line)
		}
		start, err := parseTimestamp(line[:sp])
		if err != nil {
			return nil, err
		}
		title := line[sp+1:]
		if len(title) > 255 {
			title = title[:255]
		}
		entries = append(entries, Entry{StartTime: start, Title: title})
	}
}

// parseTimestamp parses "hh:mm:ss.ttt" into a time.Duration, enforcing the
// same bounds as isom_get_start_time (hh < 5124095, mm < 60, ss < 60, where
// ss may carry a fractional part).
func parseTimestamp(s string) (time.Duration, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return 0, fmt.Errorf("chapter: %w: bad timestamp %q", ErrMalformed, s)
	}
	hh, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chapter: %w: bad hours in %q", ErrMalformed, s)
	}
	mm, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chapter: %w: bad minutes in %q", ErrMalformed, s)
	}
	ss, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("chapter: %w: bad seconds in %q", ErrMalformed, s)
	}
	if hh >= 5124095 || mm >= 60 || ss >= 60 {
		return 0, fmt.Errorf("chapter: %w: out-of-range timestamp %q", ErrMalformed, s)
	}
	totalSeconds := float64(hh*3600+mm*60) + ss
	return time.Duration(totalSeconds * float64(time.Second)), nil
}

// WithBOM prefixes title with a UTF-8 byte-order mark, matching
// lsmash_set_tyrant_chapter's add_utf8_bom option.
func WithBOM(title string) string {
	return utf8BOM + title
}

// To100ns converts d to the 100ns (10,000,000 Hz) unit chpl uses on the
// wire, rounding per (ns + 50) / 100 the way lsmash_set_tyrant_chapter
// does.
func To100ns(d time.Duration) uint64 {
	ns := d.Nanoseconds()
	if ns < 0 {
		ns = 0
	}
	return uint64((ns + 50) / 100)
}
