package winget

import (
	"strings"
	"unicode/utf8"
)

// spinnerSequence is the backspace animation winget prints before a table.
const spinnerSequence = "\b-\b\\\b|\b \r"

// Columns holds the rune offsets at which each field of a table row starts.
// A title missing from the header is placed at Width.
type Columns struct {
	ID        int
	Version   int
	Available int
	Source    int
	Width     int

	// NoSources is set when the header has no Source column; rows then carry
	// a manager-only source label.
	NoSources bool
}

// HasAvailable reports whether the header carries an Available column.
func (c Columns) HasAvailable() bool {
	return c.Available < c.Width
}

// IsHeader reports whether line looks like a table header.
func IsHeader(line string) bool {
	return strings.Contains(line, " Id ") && strings.Contains(line, "Version")
}

// CleanHeader removes spinner redraw residue that precedes a header on the
// same line.
func CleanHeader(line string) string {
	line = strings.ReplaceAll(line, spinnerSequence, "")
	for _, sep := range []string{"\r", "/", "|", "\\", "-"} {
		if i := strings.LastIndex(line, sep); i >= 0 {
			line = line[i+len(sep):]
		}
		line = strings.Trim(line, " \t\b")
	}
	return line
}

// LocateColumns computes field offsets from a header line. The offset of a
// title is the rune length of the header text preceding it. It returns false
// when the line lacks the Id or Version titles.
func LocateColumns(header string) (Columns, bool) {
	h := CleanHeader(header)

	idIdx := strings.Index(" "+h, " Id ")
	if idIdx < 0 {
		return Columns{}, false
	}
	verIdx := indexFrom(h, "Version", idIdx)
	if verIdx < 0 {
		return Columns{}, false
	}

	width := utf8.RuneCountInString(h)
	cols := Columns{
		ID:        utf8.RuneCountInString(h[:idIdx]),
		Version:   utf8.RuneCountInString(h[:verIdx]),
		Available: width,
		Source:    width,
		Width:     width,
	}
	if i := indexFrom(h, "Available", verIdx); i >= 0 {
		cols.Available = utf8.RuneCountInString(h[:i])
	}
	if i := indexFrom(h, "Source", verIdx); i >= 0 {
		cols.Source = utf8.RuneCountInString(h[:i])
	}
	cols.NoSources = cols.Source == width
	return cols, true
}

func indexFrom(s, substr string, from int) int {
	i := strings.Index(s[from:], substr)
	if i < 0 {
		return -1
	}
	return i + from
}
