package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"wingetbridge/pkg/manager"
)

// View implements tea.Model.
func (a *App) View() string {
	switch {
	case !a.ready:
		return "Loading..."
	case a.quitting:
		return ""
	case a.confirm != nil:
		return a.dialog()
	}

	body := lipgloss.NewStyle().
		Width(a.width).
		Height(max(a.height-5, 1)).
		Render(a.body())

	return lipgloss.JoinVertical(lipgloss.Left, a.header(), a.tabBar(), body, a.footer())
}

func (a *App) header() string {
	label := "wingetbridge"
	if a.mgr != nil {
		label = a.mgr.DisplayName()
		if st, ok := a.registry.Status(a.mgr.Name()); ok && st.Version != "" {
			label += " " + st.Version
		}
	}
	left := a.styles.Header.Render(label)

	var right string
	switch {
	case a.busy != "":
		right = a.spinner.View() + " " + a.busy
	case a.message != "" && a.failed:
		right = a.styles.Error.Render(a.message)
	case a.message != "":
		right = a.styles.Success.Render(a.message)
	}

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-1, 0)
	return left + strings.Repeat(" ", gap) + right
}

func (a *App) tabBar() string {
	titles := make([]string, len(tabs))
	for i, t := range tabs {
		style := a.styles.TabInactive
		if i == a.tab {
			style = a.styles.TabActive
		}
		titles[i] = style.Render(fmt.Sprintf("%d %s", i+1, t.title))
	}
	return a.styles.Bar.Width(a.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, titles...))
}

func (a *App) footer() string {
	running := a.op != nil && !a.op.Done()
	hints := a.help.ShortHelpView(a.keys.footer(a.page, a.origin(), running))
	return a.styles.Bar.Width(a.width).Render(hints)
}

func (a *App) body() string {
	switch a.page {
	case pageInstalled:
		return a.packagesPage("Installed packages")
	case pageSearch:
		return a.searchPage()
	case pageUpdates:
		if a.updates == nil && a.busy != "" {
			return a.styles.Title.Render("Available updates") + "\n\n" + a.styles.Dim.Render("Checking for updates...")
		}
		return a.packagesPage("Available updates")
	case pageSources:
		return a.sourcesPage()
	case pageHistory:
		return a.historyPage()
	case pageSystem:
		return a.systemPage()
	case pageDetails:
		return a.detailsPage()
	case pageOperation:
		if a.op != nil {
			return a.op.View()
		}
	case pageHelp:
		return a.styles.Title.Render("Keys") + "\n\n" + a.help.FullHelpView(a.keys.FullHelp())
	}
	return ""
}

// promptLine renders the open prompt, or "" when none is open.
func (a *App) promptLine() string {
	if a.prompt == nil {
		return ""
	}
	return a.styles.Prompt.Render(a.prompt.label) + a.input.View() + "\n\n"
}

func (a *App) packagesPage(title string) string {
	rows := a.rows()
	heading := fmt.Sprintf("%s (%d)", title, len(rows))
	if a.filter != "" {
		heading += a.styles.Dim.Render("  filter: " + a.filter)
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render(heading) + "\n\n")
	b.WriteString(a.promptLine())
	if len(rows) == 0 {
		b.WriteString(a.styles.Dim.Render("No packages"))
		return b.String()
	}
	b.WriteString(a.packageRows(rows, a.listHeight()))
	if len(rows) > a.listHeight() {
		b.WriteString(a.styles.Dim.Render(fmt.Sprintf("\n  %d/%d", a.position().cursor+1, len(rows))))
	}
	return b.String()
}

func (a *App) searchPage() string {
	var b strings.Builder
	switch {
	case a.prompt != nil && a.prompt.label == searchLabel:
		b.WriteString(a.promptLine())
	case a.query != "":
		b.WriteString(a.styles.Title.Render(fmt.Sprintf("Results for %q (%d)", a.query, len(a.results))) + "\n\n")
	default:
		b.WriteString(a.styles.Title.Render("Search") + "\n" + a.styles.Dim.Render("Press / to search") + "\n\n")
	}

	if len(a.results) > 0 {
		b.WriteString(a.packageRows(a.results, a.listHeight()-2))
	} else if a.query != "" && a.busy == "" {
		b.WriteString(a.styles.Dim.Render("No results"))
	}
	return b.String()
}

// packageRows renders the visible window of a package list.
func (a *App) packageRows(pkgs []manager.Package, height int) string {
	pos := a.position()
	end := min(pos.offset+max(height, 1), len(pkgs))

	available := map[string]string{}
	if a.page == pageUpdates {
		for _, u := range a.updates {
			available[u.ID] = u.AvailableVersion
		}
	}

	nameWidth := max((a.width-30)/2, 16)
	var b strings.Builder
	for i := pos.offset; i < end; i++ {
		b.WriteString(a.packageRow(pkgs[i], i == pos.cursor, available[pkgs[i].ID], nameWidth))
		b.WriteByte('\n')
	}
	return b.String()
}

func (a *App) packageRow(pkg manager.Package, current bool, available string, width int) string {
	marker := "  "
	name := lipgloss.NewStyle().Width(width).Render(clip(pkg.Name, width-1))
	if current {
		marker = a.styles.Cursor.String()
		name = a.styles.Name.Width(width).Render(clip(pkg.Name, width-1))
	}
	id := a.styles.Dim.Width(width).Render(clip(pkg.ID, width-1))

	version := a.styles.Version.Render(pkg.Version)
	if available != "" {
		version += " " + a.styles.Warning.Render(a.arrow+" "+available)
	}
	return marker + name + " " + id + " " + SourceBadge(pkg.Source) + " " + version
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if n < 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (a *App) sourcesPage() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render(fmt.Sprintf("Sources (%d)", len(a.sources))) + "\n\n")
	b.WriteString(a.promptLine())
	if len(a.sources) == 0 {
		b.WriteString(a.styles.Dim.Render("No sources"))
		return b.String()
	}

	cursor := a.position().cursor
	for i, src := range a.sources {
		marker := "  "
		if i == cursor {
			marker = a.styles.Cursor.String()
		}
		line := marker + SourceBadge(src.Name) + " " + a.styles.Dim.Render(src.URL)
		if src.Type != "" {
			line += a.styles.Dim.Render("  " + src.Type)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (a *App) historyPage() string {
	title := a.styles.Title.Render("History") + "\n\n"
	if len(a.entries) == 0 {
		return title + a.styles.Dim.Render("No operations recorded")
	}

	pos := a.position()
	end := min(pos.offset+a.listHeight(), len(a.entries))
	visible := a.entries[pos.offset:end]

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("WHEN", "ACTION", "TARGET", "RESULT").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingRight(2)
			switch {
			case row == table.HeaderRow:
				return s.Inherit(a.styles.Label)
			case row < 0 || row >= len(visible):
				return s
			case col == 3:
				return s.Inherit(a.styles.OutcomeStyle(visible[row].Outcome))
			case pos.offset+row == pos.cursor:
				return s.Inherit(a.styles.Name)
			}
			return s
		})
	for _, e := range visible {
		t.Row(e.Timestamp.Local().Format("2006-01-02 15:04"), string(e.Intent), clip(e.Target(), 40), e.Outcome.String())
	}
	return title + t.Render()
}

func (a *App) systemPage() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("System") + "\n\n")

	if info := a.registry.SystemInfo(); info != nil {
		b.WriteString(a.styles.Label.Render("Operating system") + "\n")
		t := table.New().Border(lipgloss.HiddenBorder()).
			Row("Name", info.PrettyName).
			Row("Version", info.Version).
			Row("Architecture", info.HostArch)
		if info.Build != "" {
			t.Row("Build", info.Build)
		}
		b.WriteString(t.Render() + "\n")
	}

	b.WriteString(a.styles.Label.Render("Package managers") + "\n")
	t := table.New().Border(lipgloss.HiddenBorder())
	for _, mgr := range a.registry.All() {
		st, _ := a.registry.Status(mgr.Name())
		version := a.styles.Error.Render("not found")
		if st.Found {
			version = a.styles.Success.Render(st.Version)
		}
		t.Row(mgr.DisplayName(), version, fmt.Sprintf("%d sources", mgr.Sources().Len()))
	}
	b.WriteString(t.Render())
	return b.String()
}

func (a *App) detailsPage() string {
	pkg := a.target
	if pkg == nil {
		return a.styles.Error.Render("No package selected")
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render(pkg.Name) + " " + SourceBadge(pkg.Source) + "\n\n")

	field := func(label, value string) {
		if value != "" {
			b.WriteString(a.styles.Label.Width(14).Render(label) + " " + value + "\n")
		}
	}
	field("Id", pkg.ID)
	field("Version", pkg.Version)

	d := a.details
	if d == nil {
		return b.String()
	}
	field("Publisher", d.Publisher)
	field("Author", d.Author)
	field("Homepage", d.HomepageURL)
	field("License", d.License)
	field("Installer", strings.TrimSpace(d.InstallerType+" "+d.InstallerURL))
	if d.InstallerSize > 0 {
		field("Size", fmt.Sprintf("%.1f MB", float64(d.InstallerSize)/(1<<20)))
	}
	field("Released", d.UpdateDate)
	field("Manifest", d.ManifestURL)
	field("Tags", strings.Join(d.Tags, ", "))
	if len(d.Versions) > 0 {
		field("Versions", strings.Join(d.Versions[:min(len(d.Versions), 8)], ", "))
	}
	if d.Description != "" {
		b.WriteString("\n" + a.styles.Dim.Width(max(a.width-4, 20)).Render(d.Description) + "\n")
	}
	return b.String()
}

func (a *App) dialog() string {
	box := a.styles.Dialog.Render(
		a.styles.DialogTitle.Render(a.confirm.question) + "\n" +
			a.styles.Button.Render("y  yes") + "  " + a.styles.Dim.Render("n  no"),
	)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
}
