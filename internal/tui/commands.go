package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"wingetbridge/internal/history"
	"wingetbridge/pkg/manager"
)

// historyLimit is the number of entries shown on the history page.
const historyLimit = 50

var errNoManager = errors.New("winget is not available")

type (
	installedMsg struct {
		packages []manager.Package
		err      error
	}
	searchMsg struct {
		query   string
		results []manager.Package
		err     error
	}
	updatesMsg struct {
		updates []manager.UpgradablePackage
		err     error
	}
	sourcesMsg struct {
		sources []manager.ManagerSource
		err     error
	}
	historyMsg struct {
		entries []history.Entry
		err     error
	}
	detailsMsg struct {
		details *manager.PackageDetails
		err     error
	}
)

func (a *App) loadInstalled() tea.Cmd {
	return func() tea.Msg {
		if a.mgr == nil {
			return installedMsg{err: errNoManager}
		}
		pkgs, err := a.mgr.ListInstalled(a.ctx)
		return installedMsg{packages: pkgs, err: err}
	}
}

func (a *App) loadUpdates() tea.Cmd {
	return func() tea.Msg {
		if a.mgr == nil {
			return updatesMsg{err: errNoManager}
		}
		updates, err := a.mgr.ListUpdates(a.ctx)
		if err == nil && updates == nil {
			// Non-nil marks the list as loaded.
			updates = []manager.UpgradablePackage{}
		}
		return updatesMsg{updates: updates, err: err}
	}
}

func (a *App) search(query string) tea.Cmd {
	return func() tea.Msg {
		if a.mgr == nil {
			return searchMsg{query: query, err: errNoManager}
		}
		results, err := a.mgr.Search(a.ctx, query)
		return searchMsg{query: query, results: results, err: err}
	}
}

func (a *App) loadDetails(pkg manager.Package) tea.Cmd {
	return func() tea.Msg {
		mgr, err := a.registry.ManagerFor(pkg)
		if err != nil {
			return detailsMsg{err: err}
		}
		d, err := mgr.Details(a.ctx, pkg)
		return detailsMsg{details: d, err: err}
	}
}

func (a *App) loadSources() tea.Cmd {
	return func() tea.Msg {
		if a.mgr == nil {
			return sourcesMsg{}
		}
		return sourcesMsg{sources: a.mgr.Sources().Snapshot()}
	}
}

// refreshSources asks the tool for its source list before reading it.
func (a *App) refreshSources() tea.Cmd {
	return func() tea.Msg {
		if a.mgr == nil {
			return sourcesMsg{err: errNoManager}
		}
		if err := a.mgr.RefreshSources(a.ctx); err != nil {
			return sourcesMsg{err: err}
		}
		return sourcesMsg{sources: a.mgr.Sources().Snapshot()}
	}
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if a.store == nil {
			return historyMsg{}
		}
		entries, err := a.store.List(historyLimit)
		return historyMsg{entries: entries, err: err}
	}
}

// reload fetches the data behind the current page again.
func (a *App) reload() tea.Cmd {
	switch a.page {
	case pageSearch:
		if a.query == "" {
			return nil
		}
		a.setBusy("Searching...")
		return a.search(a.query)
	case pageUpdates:
		a.setBusy("Checking for updates...")
		return a.loadUpdates()
	case pageSources:
		return a.refreshSources()
	case pageHistory:
		return a.loadHistory()
	case pageInstalled:
		a.setBusy("Loading installed packages...")
		return a.loadInstalled()
	}
	return nil
}

// startOperation runs a package operation and shows its output. The
// manager applies the configured default options.
func (a *App) startOperation(intent manager.Intent, pkg manager.Package) tea.Cmd {
	buf := NewEventBuffer()
	op, err := a.registry.Start(a.ctx, intent, pkg, manager.InstallationOptions{}, buf.Add)
	if err != nil {
		a.fail(err.Error())
		return nil
	}
	return a.watch(fmt.Sprintf("%s %s", intent, pkg), buf, op)
}

// startSourceOperation adds or removes a source and shows its output.
func (a *App) startSourceOperation(intent manager.Intent, src manager.ManagerSource) tea.Cmd {
	if a.mgr == nil {
		a.fail(errNoManager.Error())
		return nil
	}
	buf := NewEventBuffer()
	start := a.mgr.RemoveSource
	if intent == manager.IntentSourceAdd {
		start = a.mgr.AddSource
	}
	op, err := start(a.ctx, src, buf.Add)
	if err != nil {
		a.fail(err.Error())
		return nil
	}
	return a.watch(fmt.Sprintf("%s %s", intent, src.Name), buf, op)
}

func (a *App) watch(title string, buf *EventBuffer, op *manager.Operation) tea.Cmd {
	a.op = NewOperationView(title, buf, a.styles)
	a.op.SetSize(a.width, a.height-5)
	a.enter(pageOperation)
	a.clearMessage()
	return a.op.Attach(op)
}

// operationFinished records the result and reloads what the operation may
// have changed.
func (a *App) operationFinished(res manager.Result) []tea.Cmd {
	if a.store != nil {
		a.store.Recorder(a.log)(res)
	}
	if res.Outcome.Succeeded() {
		a.succeed(res.Status())
	} else {
		a.fail(res.Status())
	}

	cmds := []tea.Cmd{a.loadHistory()}
	switch {
	case res.Intent == manager.IntentSourceAdd, res.Intent == manager.IntentSourceRemove:
		cmds = append(cmds, a.refreshSources())
	case res.Outcome.Succeeded():
		cmds = append(cmds, a.loadInstalled())
		if a.updates != nil {
			cmds = append(cmds, a.loadUpdates())
		}
	}
	return cmds
}
