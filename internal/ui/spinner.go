package ui

import (
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"wingetbridge/pkg/manager"
)

// maxSuffix bounds the progress text shown next to the spinner.
const maxSuffix = 60

var asciiFrames = []string{"|", "/", "-", `\`}

// Spinner shows activity on the message stream while a query or operation
// runs, so stdout stays clean for results.
type Spinner struct {
	s     *spinner.Spinner
	label string
}

// NewSpinner creates a stopped spinner labelled with label.
func NewSpinner(label string) *Spinner {
	frames := spinner.CharSets[14]
	if !UseUnicode {
		frames = asciiFrames
	}

	opts := []spinner.Option{
		spinner.WithWriter(Problems),
		spinner.WithSuffix(" " + label),
		spinner.WithHiddenCursor(true),
	}
	if UseColors {
		opts = append(opts, spinner.WithColor("cyan"))
	}
	return &Spinner{s: spinner.New(frames, 100*time.Millisecond, opts...), label: label}
}

// Start starts the animation.
func (sp *Spinner) Start() { sp.s.Start() }

// Stop stops the animation and clears its line.
func (sp *Spinner) Stop() { sp.s.Stop() }

// UpdateMessage replaces the text after the spinner.
func (sp *Spinner) UpdateMessage(message string) {
	sp.s.Lock()
	sp.s.Suffix = " " + message
	sp.s.Unlock()
}

// Progress shows the latest output line of an operation after the label.
// It can be passed as a manager.ProgressFunc.
func (sp *Spinner) Progress(e manager.Event) {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return
	}
	if r := []rune(text); len(r) > maxSuffix {
		text = string(r[:maxSuffix-1]) + "…"
	}
	sp.UpdateMessage(sp.label + ": " + text)
}
