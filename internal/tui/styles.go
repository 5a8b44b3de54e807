// Package tui provides an interactive terminal user interface for wingetbridge
// and a live viewer for running operations.
package tui

import (
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wingetbridge/pkg/manager"
)

// Colors adapt to light and dark terminals.
var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#005A9E", Dark: "#3A96DD"}
	colorLabel   = lipgloss.AdaptiveColor{Light: "#0E7C86", Dark: "#2CC7D3"}
	colorGood    = lipgloss.AdaptiveColor{Light: "#107C10", Dark: "#6CCB5F"}
	colorCaution = lipgloss.AdaptiveColor{Light: "#9D5D00", Dark: "#FCE100"}
	colorBad     = lipgloss.AdaptiveColor{Light: "#C42B1C", Dark: "#FF99A4"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#6E6E6E", Dark: "#9E9E9E"}
	colorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F2F2F2"}
	colorBar     = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#2B2B2B"}
)

// badgeColors are the fixed colors of well-known repositories and origins.
// Other repositories get a stable color from badgePalette.
var badgeColors = map[string]lipgloss.Color{
	"winget":            "#0078D4",
	"msstore":           "#5E5CE6",
	"Microsoft Store":   "#5E5CE6",
	"Local PC":          "#6B7280",
	"Steam":             "#1B2838",
	"GOG":               "#86328A",
	"Ubisoft Connect":   "#0070FF",
	"Android Subsystem": "#3DDC84",
}

var badgePalette = []lipgloss.Color{"#8764B8", "#00B7C3", "#CA5010", "#498205", "#C239B3", "#038387"}

// Styles holds the lipgloss styles shared by the main app and the operation
// viewer.
type Styles struct {
	Header      lipgloss.Style
	Bar         lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	Title  lipgloss.Style
	Label  lipgloss.Style
	Dim    lipgloss.Style
	Prompt lipgloss.Style

	Cursor  lipgloss.Style
	Name    lipgloss.Style
	Version lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Spinner    lipgloss.Style
	Output     lipgloss.Style
	OutputLast lipgloss.Style

	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style
	Button      lipgloss.Style
}

// DefaultStyles builds the styles from the color set above.
func DefaultStyles() *Styles {
	bold := lipgloss.NewStyle().Bold(true)
	fg := func(c lipgloss.TerminalColor) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return &Styles{
		Header:      bold.Foreground(colorText).Background(colorBar).Padding(0, 1),
		Bar:         fg(colorDim).Background(colorBar).Padding(0, 1),
		TabActive:   bold.Foreground(colorAccent).Underline(true).Padding(0, 1),
		TabInactive: fg(colorDim).Padding(0, 1),

		Title:  bold.Foreground(colorText),
		Label:  bold.Foreground(colorLabel),
		Dim:    fg(colorDim),
		Prompt: bold.Foreground(colorAccent),

		Cursor:  bold.Foreground(colorAccent).SetString("▌ "),
		Name:    bold.Foreground(colorText),
		Version: fg(colorGood),

		Success: bold.Foreground(colorGood),
		Warning: bold.Foreground(colorCaution),
		Error:   bold.Foreground(colorBad),

		Spinner:    fg(colorAccent),
		Output:     fg(colorDim),
		OutputLast: fg(colorText),

		Dialog:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(1, 3),
		DialogTitle: bold.Foreground(colorText).MarginBottom(1),
		Button:      bold.Foreground(lipgloss.Color("#FFFFFF")).Background(colorAccent).Padding(0, 1),
	}
}

// OutcomeStyle returns the status style matching an operation outcome.
func (s *Styles) OutcomeStyle(o manager.Outcome) lipgloss.Style {
	switch {
	case o.Succeeded():
		return s.Success
	case o == manager.OutcomeNoApplicableUpdate, o == manager.OutcomeAlreadyInstalled, o == manager.OutcomeCancelled:
		return s.Warning
	}
	return s.Error
}

// SourceBadge renders a package's source label as a colored badge. Only the
// repository part of "<Manager>: <repo>" is shown.
func SourceBadge(source string) string {
	repo := source
	if _, r, ok := strings.Cut(source, ": "); ok {
		repo = r
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(badgeColor(repo)).
		Padding(0, 1).
		Render(repo)
}

func badgeColor(repo string) lipgloss.Color {
	if c, ok := badgeColors[repo]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(repo)))
	return badgePalette[h.Sum32()%uint32(len(badgePalette))]
}
