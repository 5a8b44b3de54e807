package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"wingetbridge/internal/config"
	"wingetbridge/internal/history"
	"wingetbridge/pkg/manager"
)

// App is the bubbletea program around Model.
type App struct {
	*Model
	ctx     context.Context
	log     logrus.FieldLogger
	spinner spinner.Model
	input   textinput.Model
	help    help.Model
	op      *OperationView
	queued  []tea.Cmd
}

// NewApp creates the TUI for the registry's primary manager.
func NewApp(ctx context.Context, registry *manager.Registry, cfg *config.Config, store *history.Store, log logrus.FieldLogger) *App {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := NewModel(registry, cfg, store)

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(m.styles.Spinner))

	in := textinput.New()
	in.CharLimit = 256
	in.Width = 48
	in.Prompt = ""

	return &App{Model: m, ctx: ctx, log: log, spinner: sp, input: in, help: help.New()}
}

// Init starts the spinner and the initial loads.
func (a *App) Init() tea.Cmd {
	a.setBusy("Loading installed packages...")
	return tea.Batch(a.spinner.Tick, a.loadInstalled(), a.loadSources(), a.loadHistory())
}

// later queues a command from a prompt or dialog callback. It is returned
// by the Update that ran the callback.
func (a *App) later(cmd tea.Cmd) {
	if cmd != nil {
		a.queued = append(a.queued, cmd)
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := a.handle(msg)
	cmds = append(cmds, a.queued...)
	a.queued = nil
	return a, tea.Batch(cmds...)
}

func (a *App) handle(msg tea.Msg) []tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		a.help.Width = msg.Width
		if a.op != nil {
			a.op.SetSize(msg.Width, msg.Height-5)
		}
		a.ready = true
		return nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds := []tea.Cmd{cmd}
		if a.op != nil {
			cmds = append(cmds, a.op.Update(msg))
		}
		return cmds

	case eventsMsg, operationDoneMsg:
		if a.op == nil {
			return nil
		}
		cmds := []tea.Cmd{a.op.Update(msg)}
		if done, ok := msg.(operationDoneMsg); ok {
			cmds = append(cmds, a.operationFinished(done.result)...)
		}
		return cmds
	}

	a.loaded(msg)
	return nil
}

// loaded stores the result of an async load.
func (a *App) loaded(msg tea.Msg) {
	var err error
	switch msg := msg.(type) {
	case installedMsg:
		a.setBusy("")
		if err = msg.err; err == nil {
			a.installed = msg.packages
		}
	case searchMsg:
		if msg.query != a.query {
			return
		}
		a.setBusy("")
		a.results = msg.results
		a.resetPosition(pageSearch)
		if err = msg.err; err == nil && len(msg.results) == 0 {
			a.fail("No packages found")
		}
	case updatesMsg:
		a.setBusy("")
		if err = msg.err; err == nil {
			a.updates = msg.updates
		}
	case sourcesMsg:
		if err = msg.err; err == nil {
			a.sources = msg.sources
		}
	case historyMsg:
		if msg.err != nil {
			a.log.WithError(msg.err).Warn("could not load history")
		} else {
			a.entries = msg.entries
		}
	case detailsMsg:
		a.setBusy("")
		if err = msg.err; err == nil {
			a.details = msg.details
		}
	}
	if err != nil {
		a.fail(err.Error())
	}
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) []tea.Cmd {
	if a.confirm != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			a.answer(true)
		case "n", "N", "esc", "q":
			a.answer(false)
		}
		return nil
	}

	if a.prompt != nil {
		switch msg.Type {
		case tea.KeyEnter:
			a.input.Blur()
			a.submitPrompt(a.input.Value())
		case tea.KeyEsc:
			a.input.Blur()
			a.dismissPrompt()
		default:
			var cmd tea.Cmd
			a.input, cmd = a.input.Update(msg)
			return []tea.Cmd{cmd}
		}
		return nil
	}

	// A running operation owns the keyboard until it finishes.
	if a.page == pageOperation && a.op != nil && !a.op.Done() {
		if key.Matches(msg, a.keys.Cancel, a.keys.Quit) {
			a.ask("Cancel the running operation?", a.op.Cancel)
			return nil
		}
		return []tea.Cmd{a.op.Update(msg)}
	}

	return a.handleKey(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) []tea.Cmd {
	k := a.keys

	for i, b := range k.Tabs {
		if key.Matches(msg, b) {
			return a.showTab(i)
		}
	}

	switch {
	case key.Matches(msg, k.Quit):
		a.quitting = true
		return []tea.Cmd{tea.Quit}
	case key.Matches(msg, k.Help):
		if a.page == pageHelp {
			a.goBack()
		} else {
			a.enter(pageHelp)
		}
	case key.Matches(msg, k.PrevTab):
		return a.showTab(a.tab - 1)
	case key.Matches(msg, k.NextTab):
		return a.showTab(a.tab + 1)
	case key.Matches(msg, k.Back):
		a.goBack()
	case key.Matches(msg, k.Cancel):
		a.goBack()
		a.clearMessage()

	case key.Matches(msg, k.Up):
		a.move(-1)
	case key.Matches(msg, k.Down):
		a.move(1)
	case key.Matches(msg, k.PageUp):
		a.move(-a.listHeight())
	case key.Matches(msg, k.PageDown):
		a.move(a.listHeight())
	case key.Matches(msg, k.Top):
		a.moveTo(0)
	case key.Matches(msg, k.Bottom):
		a.moveTo(a.rowCount() - 1)

	case key.Matches(msg, k.Open):
		if pkg := a.openDetails(); pkg != nil {
			a.setBusy("Loading details...")
			return []tea.Cmd{a.loadDetails(*pkg)}
		}
	case key.Matches(msg, k.Search):
		a.selectTab(1)
		a.askSearch()
	case key.Matches(msg, k.Filter):
		a.askFilter()
	case key.Matches(msg, k.Reload):
		return []tea.Cmd{a.reload()}
	case key.Matches(msg, k.AddSource):
		if a.page == pageSources {
			a.askSource()
		}

	case key.Matches(msg, k.Install):
		if a.origin() == pageSearch {
			a.confirmPackage(manager.IntentInstall)
		}
	case key.Matches(msg, k.Update):
		if a.origin() != pageSearch {
			a.confirmPackage(manager.IntentUpdate)
		}
	case key.Matches(msg, k.Remove):
		if src := a.selectedSource(); src != nil {
			s := *src
			a.ask(fmt.Sprintf("Remove source %s?", s.Name), func() {
				a.later(a.startSourceOperation(manager.IntentSourceRemove, s))
			})
		} else if a.origin() != pageSearch {
			a.confirmPackage(manager.IntentUninstall)
		}
	}
	return nil
}

// showTab switches tabs and starts the first load of pages that fetch
// lazily.
func (a *App) showTab(i int) []tea.Cmd {
	a.selectTab(i)
	switch a.page {
	case pageSearch:
		if a.query == "" {
			a.askSearch()
		}
	case pageUpdates:
		if a.updates == nil && a.busy == "" {
			a.setBusy("Checking for updates...")
			return []tea.Cmd{a.loadUpdates()}
		}
	}
	return nil
}

// confirmPackage asks before running intent on the target package.
func (a *App) confirmPackage(intent manager.Intent) {
	pkg := a.targetPackage()
	if pkg == nil {
		return
	}
	p := *pkg
	a.ask(fmt.Sprintf("%s %s?", intentVerb(intent), p), func() {
		a.later(a.startOperation(intent, p))
	})
}

func intentVerb(intent manager.Intent) string {
	switch intent {
	case manager.IntentInstall:
		return "Install"
	case manager.IntentUpdate:
		return "Update"
	}
	return "Remove"
}

// openPrompt shows the text input for a prompt.
func (a *App) openPrompt(label, value, placeholder string, submit func(string)) {
	a.input.SetValue(value)
	a.input.Placeholder = placeholder
	a.input.CursorEnd()
	a.input.Focus()
	a.askText(label, submit)
}

const searchLabel = "Search: "

func (a *App) askSearch() {
	a.openPrompt(searchLabel, "", "package name, id or moniker", func(q string) {
		if q = strings.TrimSpace(q); q == "" {
			return
		}
		a.query = q
		a.setBusy("Searching...")
		a.later(a.search(q))
	})
}

func (a *App) askFilter() {
	a.openPrompt("Filter: ", a.filter, "name or id", func(f string) {
		a.filter = strings.TrimSpace(f)
		a.resetPosition(a.page)
	})
}

// askSource prompts for a name and then a URL before adding a source.
func (a *App) askSource() {
	a.openPrompt("Source name: ", "", "name", func(name string) {
		if name = strings.TrimSpace(name); name == "" {
			return
		}
		a.openPrompt("Source URL: ", "", "https://", func(url string) {
			if url = strings.TrimSpace(url); url == "" {
				return
			}
			a.later(a.startSourceOperation(manager.IntentSourceAdd, manager.ManagerSource{Name: name, URL: url}))
		})
	})
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, registry *manager.Registry, cfg *config.Config, store *history.Store, log logrus.FieldLogger) error {
	p := tea.NewProgram(NewApp(ctx, registry, cfg, store, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
