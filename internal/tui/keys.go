package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the TUI keybindings. It implements help.KeyMap.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PrevTab  key.Binding
	NextTab  key.Binding
	Tabs     []key.Binding

	Open   key.Binding
	Search key.Binding
	Filter key.Binding
	Reload key.Binding

	Install   key.Binding
	Update    key.Binding
	Remove    key.Binding
	AddSource key.Binding

	Back   key.Binding
	Cancel key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// bind creates a binding whose help shows the first key.
func bind(desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], desc))
}

// DefaultKeyMap returns the default bindings. Vim motions share the arrow
// bindings; the digit keys select tabs.
func DefaultKeyMap() KeyMap {
	k := KeyMap{
		Up:       bind("up", "up", "k"),
		Down:     bind("down", "down", "j"),
		PageUp:   bind("page up", "pgup", "ctrl+u"),
		PageDown: bind("page down", "pgdown", "ctrl+d"),
		Top:      bind("first", "home", "g"),
		Bottom:   bind("last", "end", "G"),
		PrevTab:  bind("previous tab", "left", "shift+tab"),
		NextTab:  bind("next tab", "right", "tab"),

		Open:   bind("details", "enter", "o"),
		Search: bind("search", "/"),
		Filter: bind("filter", "f"),
		Reload: bind("reload", "R", "ctrl+r"),

		Install:   bind("install", "i"),
		Update:    bind("update", "u"),
		Remove:    bind("remove", "r", "d", "delete"),
		AddSource: bind("add source", "a"),

		Back:   bind("back", "b", "backspace"),
		Cancel: bind("cancel", "esc"),
		Help:   bind("help", "?"),
		Quit:   bind("quit", "q", "ctrl+c"),
	}
	for i, t := range tabs {
		k.Tabs = append(k.Tabs, bind(strings.ToLower(t.title), strconv.Itoa(i+1)))
	}
	return k
}

// ShortHelp is the fallback footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Search, k.Help, k.Quit}
}

// FullHelp lists every binding in columns for the help page.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.PrevTab, k.NextTab},
		k.Tabs,
		{k.Open, k.Search, k.Filter, k.Reload, k.Back, k.Cancel},
		{k.Install, k.Update, k.Remove, k.AddSource, k.Help, k.Quit},
	}
}

// footer returns the bindings that apply on a page. origin is the list page
// behind the details view.
func (k KeyMap) footer(p, origin page, running bool) []key.Binding {
	var out []key.Binding
	switch p {
	case pageInstalled, pageUpdates:
		out = []key.Binding{k.Open, k.Update, k.Remove, k.Filter, k.Reload}
	case pageSearch:
		out = []key.Binding{k.Search, k.Open, k.Install}
	case pageSources:
		out = []key.Binding{k.AddSource, k.Remove, k.Reload}
	case pageHistory:
		out = []key.Binding{k.Reload}
	case pageDetails:
		if origin == pageSearch {
			out = []key.Binding{k.Install, k.Back}
		} else {
			out = []key.Binding{k.Update, k.Remove, k.Back}
		}
	case pageOperation:
		if running {
			return []key.Binding{k.Cancel}
		}
		out = []key.Binding{k.Back}
	case pageHelp:
		out = []key.Binding{k.Back}
	}
	return append(out, k.Help, k.Quit)
}
