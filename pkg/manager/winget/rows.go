package winget

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"wingetbridge/pkg/manager"
)

// Fallback names the degraded path a row went through, if any.
type Fallback string

const (
	FallbackNone    Fallback = ""
	FallbackMarker  Fallback = "marker"  // double-space bleed recovered by splitting at space runs
	FallbackOffsets Fallback = "offsets" // fields sliced at fixed header offsets
)

// Row is one parsed table line.
type Row struct {
	Name      string
	ID        string
	Version   string
	Available string
	Source    string
	Fallback  Fallback
}

var (
	deniedNames    = map[string]bool{"Name": true}
	deniedIDs      = map[string]bool{"": true, "have": true, "the": true, "Id": true}
	deniedVersions = map[string]bool{"have": true, "an": true, "'winget": true, "pin'": true, "Version": true}

	// Match-column words that land where the source token is expected.
	sourceHeaderWords = []string{"Tag", "Moniker", "Command"}

	versionGlyphs = map[string]bool{"<": true, ">": true, "-": true}

	// Rows winget prints with a double space inside the name. Each pair keeps
	// the line length so the columns stay put.
	knownBleeds = [][2][2]string{
		{{"2010  x", "2010 x"}, {"Microsoft.VCRedist.2010", " Microsoft.VCRedist.2010"}},
	}
)

var errTooFewTokens = errors.New("too few tokens")

// RowParser turns data lines into Rows using located column offsets.
type RowParser struct {
	Intent  manager.Intent // IntentSearch, IntentListUpdates or IntentListInstalled
	Columns Columns
	// Repositories are matched as whole tokens to infer a source, in order.
	Repositories []string
	// Label is the manager-only source label, e.g. "Winget".
	Label string
}

// minTokens is the number of positional tokens after the Id column.
func (p *RowParser) minTokens() int {
	if p.Intent == manager.IntentListUpdates {
		return 3
	}
	return 2
}

// Parse converts one data line. It returns false for blank lines and for
// rows hitting the denylist. Extraction failures, panics included, fall back
// to slicing at the header offsets rather than dropping the row.
func (p *RowParser) Parse(line string) (Row, bool) {
	line = strings.TrimRight(line, " \t\r\n")
	if strings.TrimSpace(line) == "" {
		return Row{}, false
	}
	line = normalizeBleeds(line)

	row, err := recoverRow(func() (Row, error) { return p.extract(line) })
	if err != nil {
		row = p.fixedOffsets(line)
	}
	if p.denied(row) {
		return Row{}, false
	}
	return row, true
}

// recoverRow turns a panic in fn into an error.
func recoverRow(fn func() (Row, error)) (row Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			row, err = Row{}, fmt.Errorf("row extraction panicked: %v", r)
		}
	}()
	return fn()
}

func normalizeBleeds(line string) string {
	for _, b := range knownBleeds {
		if strings.Contains(line, b[0][0]) && strings.Contains(line, b[1][0]) {
			line = strings.Replace(line, b[0][0], b[0][1], 1)
			line = strings.Replace(line, b[1][0], b[1][1], 1)
		}
	}
	return line
}

func (p *RowParser) denied(r Row) bool {
	return deniedNames[r.Name] || deniedIDs[r.ID] || deniedVersions[r.Version]
}

func (p *RowParser) extract(line string) (Row, error) {
	runes := []rune(line)
	idOff := clamp(p.Columns.ID, len(runes))

	var row Row
	row.Name = strings.TrimSpace(string(runes[:idOff]))
	rest := runes[idOff:]
	tokens := strings.Fields(string(rest))
	gapBefore := idOff == 0 || runes[idOff-1] == ' '
	splitsWord := !gapBefore && len(rest) > 0 && rest[0] != ' '

	// A double space in the name of a row whose Id and Version do not start
	// on their columns means the Id began left of its column. The text after
	// the last run belongs to the Id.
	if strings.Contains(row.Name, "  ") && !p.aligned(runes) {
		parts := splitRuns(row.Name)
		if len(parts) > 1 {
			tail := parts[len(parts)-1]
			row.Name = strings.Join(parts[:len(parts)-1], " ")
			if splitsWord && len(tokens) > 0 {
				tokens[0] = tail + tokens[0]
			} else {
				tokens = append([]string{tail}, tokens...)
			}
			row.Fallback = FallbackMarker
		}
	}

	need := p.minTokens()

	// A one-rune Id token means the column boundary split the last word of
	// the name.
	shifted := false
	if row.Fallback == FallbackNone && len(tokens) > need && utf8.RuneCountInString(tokens[0]) == 1 {
		shifted = true
		if gapBefore && row.Name != "" {
			row.Name += " "
		}
		row.Name += tokens[0]
		tokens = tokens[1:]
	}

	// Installed ids may contain spaces ("Steam App 440"). Take the Id column
	// slice when the Id/Version boundary is clean.
	if p.Intent == manager.IntentListInstalled && row.Fallback == FallbackNone && !shifted {
		if id, after, ok := p.sliceID(runes); ok {
			row.ID = id
			return p.assign(row, append([]string{id}, strings.Fields(after)...), 1)
		}
	}

	if len(tokens) < need {
		return Row{}, errTooFewTokens
	}
	row.ID = tokens[0]
	return p.assign(row, tokens, 1)
}

// assign fills version, available and source from tokens[i:].
func (p *RowParser) assign(row Row, tokens []string, i int) (Row, error) {
	if i >= len(tokens) {
		return Row{}, errTooFewTokens
	}
	row.Version = tokens[i]
	i++
	if versionGlyphs[row.Version] {
		if i >= len(tokens) {
			return Row{}, errTooFewTokens
		}
		row.Version += " " + tokens[i]
		i++
	}

	if p.Intent == manager.IntentListUpdates {
		if i >= len(tokens) {
			return Row{}, errTooFewTokens
		}
		row.Available = tokens[i]
		i++
	}

	var sourceToken string
	if i < len(tokens) {
		sourceToken = tokens[i]
	}
	row.Source = p.inferSource(row, sourceToken, tokens[1:])
	return row, nil
}

// aligned reports whether the Id and Version fields both start exactly on
// their header columns, each after a gap.
func (p *RowParser) aligned(runes []rune) bool {
	idOff, verOff := p.Columns.ID, p.Columns.Version
	if idOff <= 0 || verOff <= idOff || verOff >= len(runes) {
		return false
	}
	return runes[idOff-1] == ' ' && runes[idOff] != ' ' &&
		runes[verOff-1] == ' ' && runes[verOff] != ' '
}

// sliceID returns the trimmed Id column and the text after it when the Id
// slice contains a space and ends on a column gap.
func (p *RowParser) sliceID(runes []rune) (string, string, bool) {
	idOff, verOff := p.Columns.ID, p.Columns.Version
	if idOff < 0 || verOff <= idOff || verOff > len(runes) || runes[verOff-1] != ' ' {
		return "", "", false
	}
	if idOff > 0 && runes[idOff-1] != ' ' {
		return "", "", false
	}
	id := strings.TrimSpace(string(runes[idOff:verOff]))
	if !strings.Contains(id, " ") || strings.Contains(id, "  ") {
		return "", "", false
	}
	return id, string(runes[verOff:]), true
}

// inferSource applies the source precedence: the positional source token,
// then a known repository appearing as a whole token after the Id, then the
// local-origin heuristic for installed rows, then the bare label.
func (p *RowParser) inferSource(row Row, token string, afterID []string) string {
	if !p.Columns.NoSources && token != "" && !isSourceHeaderWord(token) && p.Intent != manager.IntentListInstalled {
		return p.Label + ": " + token
	}
	for _, repo := range p.Repositories {
		for _, t := range afterID {
			if t == repo {
				return p.Label + ": " + repo
			}
		}
	}
	if p.Intent == manager.IntentListInstalled {
		if s := localSource(row.ID, p.Label); s != "" {
			return s
		}
	}
	return p.Label
}

func isSourceHeaderWord(token string) bool {
	if strings.HasSuffix(token, ":") {
		return true
	}
	for _, w := range sourceHeaderWords {
		if strings.Contains(token, w) {
			return true
		}
	}
	return false
}

// fixedOffsets slices every field at its header offset. Used when token
// extraction fails.
func (p *RowParser) fixedOffsets(line string) Row {
	runes := []rune(line)
	c := p.Columns
	field := func(from, to int) string {
		from, to = clamp(from, len(runes)), clamp(to, len(runes))
		if from >= to {
			return ""
		}
		return strings.TrimSpace(string(runes[from:to]))
	}
	first := func(s string) string {
		if f := strings.Fields(s); len(f) > 0 {
			return f[0]
		}
		return ""
	}

	verEnd := c.Source
	if c.HasAvailable() {
		verEnd = c.Available
	}
	row := Row{
		Name:     field(0, c.ID),
		ID:       field(c.ID, c.Version),
		Version:  first(field(c.Version, verEnd)),
		Fallback: FallbackOffsets,
	}
	if p.Intent == manager.IntentListUpdates {
		row.Available = first(field(c.Available, c.Source))
	}
	row.Source = p.Label
	if !c.NoSources {
		if repo := first(field(c.Source, len(runes))); repo != "" {
			row.Source = p.Label + ": " + repo
		}
	}
	return row
}

// splitRuns splits s at runs of two or more spaces. Single spaces stay
// inside the parts.
func splitRuns(s string) []string {
	var parts []string
	var cur strings.Builder
	spaces := 0
	for _, r := range strings.TrimSpace(s) {
		if r == ' ' {
			spaces++
			continue
		}
		switch {
		case spaces >= 2:
			parts = append(parts, cur.String())
			cur.Reset()
		case spaces == 1:
			cur.WriteByte(' ')
		}
		spaces = 0
		cur.WriteRune(r)
	}
	return append(parts, cur.String())
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
