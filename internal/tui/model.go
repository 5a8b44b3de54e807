package tui

import (
	"strings"

	"wingetbridge/internal/config"
	"wingetbridge/internal/history"
	"wingetbridge/pkg/manager"
)

// page is one screen of the TUI.
type page int

const (
	pageInstalled page = iota
	pageSearch
	pageUpdates
	pageSources
	pageHistory
	pageSystem
	pageDetails
	pageOperation
	pageHelp
)

// tabs are the pages reachable from the tab bar, in order.
var tabs = []struct {
	title string
	page  page
}{
	{"Installed", pageInstalled},
	{"Search", pageSearch},
	{"Updates", pageUpdates},
	{"Sources", pageSources},
	{"History", pageHistory},
	{"System", pageSystem},
}

// chromeHeight is the rows taken by the header, tab bar, list title and
// footer.
const chromeHeight = 7

// listPos is the cursor and first visible row of one list page.
type listPos struct {
	cursor, offset int
}

// textPrompt is an open one-line input.
type textPrompt struct {
	label  string
	submit func(string)
}

// confirmation is an open yes/no dialog.
type confirmation struct {
	question string
	onYes    func()
}

// Model is the TUI state without the bubbletea components, so it can be
// driven directly in tests.
type Model struct {
	width, height int
	ready         bool
	quitting      bool

	tab  int
	page page
	back page // where details, help and operation pages return to

	registry *manager.Registry
	mgr      manager.Manager
	cfg      *config.Config
	store    *history.Store

	installed []manager.Package
	results   []manager.Package
	query     string
	updates   []manager.UpgradablePackage
	sources   []manager.ManagerSource
	entries   []history.Entry
	target    *manager.Package
	details   *manager.PackageDetails

	busy    string
	message string
	failed  bool
	filter  string

	pos     map[page]*listPos
	prompt  *textPrompt
	confirm *confirmation

	styles *Styles
	keys   KeyMap
	arrow  string
}

// NewModel creates the state for the registry's primary manager.
func NewModel(registry *manager.Registry, cfg *config.Config, store *history.Store) *Model {
	m := &Model{
		registry: registry,
		mgr:      registry.Primary(),
		cfg:      cfg,
		store:    store,
		pos:      make(map[page]*listPos),
		styles:   DefaultStyles(),
		keys:     DefaultKeyMap(),
		arrow:    "→",
	}
	if cfg != nil && !cfg.Output.Unicode {
		m.styles.Cursor = m.styles.Cursor.SetString("> ")
		m.arrow = "->"
	}
	return m
}

// SetSize records the terminal size.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
}

func (m *Model) listHeight() int {
	return max(m.height-chromeHeight, 1)
}

// origin is the page an action applies to. On the details page that is the
// list it was opened from.
func (m *Model) origin() page {
	if m.page == pageDetails {
		return m.back
	}
	return m.page
}

// rows returns the packages listed on the current page after filtering.
func (m *Model) rows() []manager.Package {
	switch m.page {
	case pageInstalled:
		return m.filtered(m.installed)
	case pageSearch:
		return m.results
	case pageUpdates:
		pkgs := make([]manager.Package, 0, len(m.updates))
		for _, u := range m.updates {
			pkgs = append(pkgs, u.Package)
		}
		return m.filtered(pkgs)
	}
	return nil
}

func (m *Model) rowCount() int {
	switch m.page {
	case pageSources:
		return len(m.sources)
	case pageHistory:
		return len(m.entries)
	}
	return len(m.rows())
}

func (m *Model) filtered(pkgs []manager.Package) []manager.Package {
	if m.filter == "" {
		return pkgs
	}
	needle := strings.ToLower(m.filter)
	var out []manager.Package
	for _, p := range pkgs {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.ID), needle) {
			out = append(out, p)
		}
	}
	return out
}

// position returns the list position of the current page.
func (m *Model) position() *listPos {
	p, ok := m.pos[m.page]
	if !ok {
		p = &listPos{}
		m.pos[m.page] = p
	}
	return p
}

func (m *Model) resetPosition(p page) {
	delete(m.pos, p)
}

// selected returns the package under the cursor.
func (m *Model) selected() *manager.Package {
	rows := m.rows()
	if c := m.position().cursor; c < len(rows) {
		return &rows[c]
	}
	return nil
}

// selectedSource returns the source under the cursor on the sources page.
func (m *Model) selectedSource() *manager.ManagerSource {
	if m.page != pageSources {
		return nil
	}
	if c := m.position().cursor; c < len(m.sources) {
		return &m.sources[c]
	}
	return nil
}

// targetPackage is the package shown on the details page, or the one under
// the cursor.
func (m *Model) targetPackage() *manager.Package {
	if m.page == pageDetails {
		return m.target
	}
	return m.selected()
}

// moveTo puts the cursor on row i, clamped to the list, and scrolls it into
// view.
func (m *Model) moveTo(i int) {
	n := m.rowCount()
	if n == 0 {
		return
	}
	i = min(max(i, 0), n-1)
	pos := m.position()
	pos.cursor = i

	h := m.listHeight()
	switch {
	case i < pos.offset:
		pos.offset = i
	case i >= pos.offset+h:
		pos.offset = i - h + 1
	}
}

func (m *Model) move(delta int) {
	m.moveTo(m.position().cursor + delta)
}

// selectTab switches to tab i, wrapping around at both ends.
func (m *Model) selectTab(i int) {
	n := len(tabs)
	m.tab = (i%n + n) % n
	m.page = tabs[m.tab].page
}

// openDetails shows the details page for the package under the cursor and
// returns it. The details are loaded separately.
func (m *Model) openDetails() *manager.Package {
	pkg := m.selected()
	if pkg == nil {
		return nil
	}
	m.target = pkg
	m.details = nil
	m.enter(pageDetails)
	return pkg
}

// enter shows a page that is not a tab and remembers where to return.
func (m *Model) enter(p page) {
	if m.page != p {
		m.back = m.origin()
	}
	m.page = p
}

func (m *Model) goBack() {
	switch m.page {
	case pageDetails, pageHelp, pageOperation:
		m.page = m.back
	}
}

func (m *Model) setBusy(msg string) { m.busy = msg }

func (m *Model) fail(msg string) { m.message, m.failed = msg, true }

func (m *Model) succeed(msg string) { m.message, m.failed = msg, false }

func (m *Model) clearMessage() { m.message, m.failed = "", false }

// askText opens a text prompt. submit runs with the entered text.
func (m *Model) askText(label string, submit func(string)) {
	m.prompt = &textPrompt{label: label, submit: submit}
}

// submitPrompt closes the prompt before calling submit, so submit may open
// the next prompt.
func (m *Model) submitPrompt(value string) {
	p := m.prompt
	m.prompt = nil
	if p != nil && p.submit != nil {
		p.submit(value)
	}
}

func (m *Model) dismissPrompt() { m.prompt = nil }

// ask opens a yes/no dialog. onYes runs at most once.
func (m *Model) ask(question string, onYes func()) {
	m.confirm = &confirmation{question: question, onYes: onYes}
}

func (m *Model) answer(yes bool) {
	c := m.confirm
	m.confirm = nil
	if yes && c != nil && c.onYes != nil {
		c.onYes()
	}
}
