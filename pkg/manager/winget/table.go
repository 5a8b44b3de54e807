package winget

import (
	"strings"

	"github.com/sirupsen/logrus"

	"wingetbridge/internal/metrics"
	"wingetbridge/pkg/manager"
)

// Summary phrases printed after a table. A second table may follow the ones
// marked rearm.
var summaryLines = []struct {
	phrase string
	rearm  bool
}{
	{"upgrades available.", true},
	{"upgrade available.", true},
	{"require explicit targeting", true},
	{"cannot be determined", false},
	{"have pins that prevent upgrade", false},
	{"package(s) have", false},
}

// Table consumes a process's output line by line, locating the header and
// parsing every data row after it.
type Table struct {
	parser RowParser
	armed  bool
	seen   bool
	rows   []Row
	log    logrus.FieldLogger
}

// NewTable creates a table consumer for intent.
func NewTable(intent manager.Intent, repositories []string, label string, log logrus.FieldLogger) *Table {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Table{
		parser: RowParser{Intent: intent, Repositories: repositories, Label: label},
		log:    log,
	}
}

// Feed processes one line of output. Only newline-terminated lines carry
// table content; redraws are ignored.
func (t *Table) Feed(e manager.Event) {
	if !e.Newline {
		return
	}
	line := e.Text

	if !t.armed {
		if !IsHeader(line) {
			return
		}
		cols, ok := LocateColumns(line)
		if !ok {
			return
		}
		t.parser.Columns = cols
		t.armed, t.seen = true, true
		if cols.NoSources {
			t.log.WithField("intent", t.parser.Intent).Debug("winget reported no source column")
		}
		return
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "---") {
		return
	}
	for _, s := range summaryLines {
		if strings.Contains(line, s.phrase) {
			if s.rearm {
				t.armed = false
			}
			return
		}
	}

	row, ok := t.parser.Parse(line)
	if !ok {
		return
	}
	if row.Fallback != FallbackNone {
		metrics.ParseFallback(string(row.Fallback))
		t.log.WithFields(logrus.Fields{
			"intent":   t.parser.Intent,
			"fallback": row.Fallback,
			"line":     line,
		}).Warn("row parsed with degraded method")
	}
	t.rows = append(t.rows, row)
}

// HeaderSeen reports whether any header was located.
func (t *Table) HeaderSeen() bool { return t.seen }

// Rows returns the parsed rows in output order.
func (t *Table) Rows() []Row { return t.rows }
