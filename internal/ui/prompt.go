package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"wingetbridge/pkg/manager"
)

// ErrInterrupted is returned when a prompt is left with Ctrl+C.
var ErrInterrupted = errors.New("prompt interrupted")

// promptError maps promptui errors so an interrupted prompt never counts
// as an answer.
func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrInterrupted
	}
	return err
}

// Confirm asks a yes/no question. An empty answer takes the default.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	hint := " [y/N]"
	if defaultYes {
		hint = " [Y/n]"
	}

	p := promptui.Prompt{Label: prompt + hint}
	answer, err := p.Run()
	if err != nil {
		return false, promptError(err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

var packageTemplates = &promptui.SelectTemplates{
	Label:    "{{ . }}",
	Active:   "▸ {{ .Name | cyan }} {{ .ID | faint }} {{ .Version | green }} [{{ .Source | magenta }}]",
	Inactive: "  {{ .Name }} {{ .ID | faint }} {{ .Version | faint }} [{{ .Source | faint }}]",
	Selected: "✓ {{ .Name | cyan }} ({{ .ID }})",
	Details: `
{{ "Id:" | faint }}	{{ .ID }}
{{ "Version:" | faint }}	{{ .Version }}
{{ "Source:" | faint }}	{{ .Source }}`,
}

// SelectPackage lets the user pick one of several matching packages.
// Typing filters on name and Id.
func SelectPackage(packages []manager.Package, prompt string) (*manager.Package, error) {
	switch len(packages) {
	case 0:
		return nil, fmt.Errorf("no packages to select from")
	case 1:
		return &packages[0], nil
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     packages,
		Templates: packageTemplates,
		Size:      10,
		Searcher: func(input string, i int) bool {
			input = strings.ToLower(input)
			return strings.Contains(strings.ToLower(packages[i].Name), input) ||
				strings.Contains(strings.ToLower(packages[i].ID), input)
		},
	}

	i, _, err := p.Run()
	if err != nil {
		return nil, promptError(err)
	}
	return &packages[i], nil
}

// SelectSource lets the user pick a source name.
func SelectSource(sources []string, prompt string) (string, error) {
	if len(sources) == 0 {
		return "", fmt.Errorf("no sources available")
	}

	p := promptui.Select{Label: prompt, Items: sources, Size: 10}
	_, name, err := p.Run()
	if err != nil {
		return "", promptError(err)
	}
	return name, nil
}

// Input reads one line of text. A non-nil validate rejects answers until
// it returns nil.
func Input(prompt, defaultValue string, validate func(string) error) (string, error) {
	p := promptui.Prompt{
		Label:     prompt,
		Default:   defaultValue,
		AllowEdit: defaultValue != "",
	}
	if validate != nil {
		p.Validate = promptui.ValidateFunc(validate)
	}

	answer, err := p.Run()
	if err != nil {
		return "", promptError(err)
	}
	return strings.TrimSpace(answer), nil
}

// SelectMultiple lists items with numbers and reads a selection such as
// "1 3 5", "2-4" or "all".
func SelectMultiple(items []string, prompt string) ([]string, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no items to select from")
	}

	fmt.Fprintln(Messages, prompt)
	for i, item := range items {
		fmt.Fprintf(Messages, "  %2d. %s\n", i+1, item)
	}
	fmt.Fprintln(Messages)

	p := promptui.Prompt{
		Label: "Selection (numbers, ranges or 'all')",
		Validate: func(s string) error {
			_, err := ParseSelection(s, len(items))
			return err
		},
	}
	answer, err := p.Run()
	if err != nil {
		return nil, promptError(err)
	}

	indexes, _ := ParseSelection(answer, len(items))
	selected := make([]string, 0, len(indexes))
	for _, i := range indexes {
		selected = append(selected, items[i])
	}
	return selected, nil
}

// ParseSelection turns a selection over n items into zero-based indexes in
// ascending order without duplicates.
func ParseSelection(s string, n int) ([]int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, nil
	}
	if s == "all" || s == "*" {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	chosen := make([]bool, n)
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' }) {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil {
				return nil, fmt.Errorf("invalid selection %q", part)
			}
		}
		if first < 1 || last > n || first > last {
			return nil, fmt.Errorf("selection %q out of range 1-%d", part, n)
		}
		for i := first; i <= last; i++ {
			chosen[i-1] = true
		}
	}

	var out []int
	for i, ok := range chosen {
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}
