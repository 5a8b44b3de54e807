// Package history records completed operations in a bbolt database.
package history

import (
	"strings"
	"time"

	"wingetbridge/pkg/manager"
)

// maxOutput bounds the stored transcript.
const maxOutput = 16 << 10

// Entry is one completed operation.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Intent    manager.Intent  `json:"intent"`
	Manager   string          `json:"manager"`
	Package   manager.Package `json:"package"`
	Outcome   manager.Outcome `json:"outcome"`
	ExitCode  int             `json:"exit_code"`
	ExitText  string          `json:"exit_text"`
	Command   []string        `json:"command"`
	Output    string          `json:"output,omitempty"`
	Duration  time.Duration   `json:"duration"`
	Error     string          `json:"error,omitempty"`
}

// FromResult builds an entry from an operation result.
func FromResult(res manager.Result) *Entry {
	output := res.Output
	if len(output) > maxOutput {
		output = "…" + output[len(output)-maxOutput:]
	}
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Intent:    res.Intent,
		Manager:   res.Package.Manager,
		Package:   res.Package,
		Outcome:   res.Outcome,
		ExitCode:  res.ExitCode,
		ExitText:  res.ExitText,
		Command:   res.Command,
		Output:    output,
		Duration:  res.Duration,
		Error:     res.Error,
	}
}

// generateID generates a unique ID for the entry.
func generateID() string {
	return time.Now().Format("20060102150405.000000")
}

// Succeeded reports whether the operation reached the requested state.
func (e *Entry) Succeeded() bool {
	return e.Outcome.Succeeded()
}

// Target names the package the entry is about.
func (e *Entry) Target() string {
	if e.Package.ID != "" {
		return e.Package.ID
	}
	return e.Package.Name
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Summary returns a brief summary of the operation.
func (e *Entry) Summary() string {
	var b strings.Builder
	b.WriteString(e.FormatTime())
	b.WriteString(" ")
	b.WriteString(string(e.Intent))
	if t := e.Target(); t != "" {
		b.WriteString(" ")
		b.WriteString(t)
	}
	if e.Package.Source != "" {
		b.WriteString(" [" + e.Package.Source + "]")
	}
	b.WriteString(" (" + e.Outcome.String() + ")")
	return b.String()
}
