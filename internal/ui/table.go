package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"wingetbridge/pkg/manager"
	"wingetbridge/pkg/manager/detector"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
	rows    [][]string
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	return &Table{
		writer:  tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: header,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Render outputs the headers followed by the rows.
func (t *Table) Render() {
	if len(t.headers) > 0 {
		headerRow := make([]string, len(t.headers))
		for i, h := range t.headers {
			headerRow[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(t.writer, strings.Join(headerRow, "\t"))
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, strings.Join(row, "\t"))
	}
	t.writer.Flush()
}

// PrintPackages prints a list of packages in a formatted table.
func PrintPackages(packages []manager.Package) {
	FprintPackages(os.Stdout, packages)
}

// FprintPackages writes a package table to w.
func FprintPackages(w io.Writer, packages []manager.Package) {
	if len(packages) == 0 {
		fmt.Fprintln(w, Muted.Sprint("No packages found"))
		return
	}

	t := NewTableWriter(w, []string{"name", "id", "version", "source"})
	for _, pkg := range packages {
		t.AddRow([]string{
			PackageName.Sprint(pkg.Name),
			PackageID.Sprint(pkg.ID),
			PackageVersion.Sprint(pkg.Version),
			PackageSource.Sprint(pkg.Source),
		})
	}
	t.Render()
}

// PrintUpdates prints upgradable packages with their available version.
func PrintUpdates(packages []manager.UpgradablePackage) {
	FprintUpdates(os.Stdout, packages)
}

// FprintUpdates writes an update table to w.
func FprintUpdates(w io.Writer, packages []manager.UpgradablePackage) {
	if len(packages) == 0 {
		fmt.Fprintln(w, Muted.Sprint("All packages are up to date"))
		return
	}

	t := NewTableWriter(w, []string{"name", "id", "version", "available", "source"})
	for _, pkg := range packages {
		t.AddRow([]string{
			PackageName.Sprint(pkg.Name),
			PackageID.Sprint(pkg.ID),
			PackageVersion.Sprint(pkg.Version),
			Available.Sprint(pkg.AvailableVersion),
			PackageSource.Sprint(pkg.Source),
		})
	}
	t.Render()
}

// PrintDetails prints detailed package information.
func PrintDetails(d *manager.PackageDetails) {
	FprintDetails(os.Stdout, d)
}

// FprintDetails writes the fields a details query reported. Empty fields are
// skipped.
func FprintDetails(w io.Writer, d *manager.PackageDetails) {
	if d == nil {
		fmt.Fprintln(w, Error.Sprint("No package information available"))
		return
	}

	fmt.Fprintln(w, Header.Sprint(d.Name))
	fields := []struct{ label, value string }{
		{"Id", d.ID},
		{"Version", d.Version},
		{"Source", d.Source},
		{"Publisher", d.Publisher},
		{"Author", d.Author},
		{"Homepage", d.HomepageURL},
		{"License", d.License},
		{"License URL", d.LicenseURL},
		{"Installer type", d.InstallerType},
		{"Installer URL", d.InstallerURL},
		{"Installer SHA256", d.InstallerHash},
		{"Installer size", FormatSize(d.InstallerSize)},
		{"Release date", d.UpdateDate},
		{"Release notes URL", d.ReleaseNotesURL},
		{"Manifest", d.ManifestURL},
		{"Tags", strings.Join(d.Tags, ", ")},
		{"Architectures", strings.Join(d.Architectures, ", ")},
		{"Scopes", strings.Join(d.Scopes, ", ")},
		{"Versions", strings.Join(d.Versions, ", ")},
	}
	for _, f := range fields {
		if f.value != "" {
			fprintField(w, f.label, f.value)
		}
	}
	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}
	if d.ReleaseNotes != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", Cyan("Release notes"), d.ReleaseNotes)
	}
}

// FormatSize renders a byte count, or "" for zero.
func FormatSize(n int64) string {
	const unit = 1024
	if n <= 0 {
		return ""
	}
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func fprintField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s: %s\n", Cyan(label), value)
}

// PrintSources prints the repositories registered for a manager.
func PrintSources(sources []manager.ManagerSource) {
	FprintSources(os.Stdout, sources)
}

// FprintSources writes a source table to w.
func FprintSources(w io.Writer, sources []manager.ManagerSource) {
	if len(sources) == 0 {
		fmt.Fprintln(w, Muted.Sprint("No sources configured"))
		return
	}
	t := NewTableWriter(w, []string{"name", "url", "manager"})
	for _, s := range sources {
		t.AddRow([]string{PackageSource.Sprint(s.Name), s.URL, s.Manager})
	}
	t.Render()
}

// PrintResult prints the terminal status of an operation.
func PrintResult(res manager.Result) {
	target := res.Package.ID
	if target == "" {
		target = res.Package.Name
	}
	if target != "" {
		OutcomeMsg(res.Outcome, "%s: %s", target, res.Status())
	} else {
		OutcomeMsg(res.Outcome, "%s", res.Status())
	}
	if res.Error != "" && !res.Outcome.Succeeded() {
		MutedMsg("  %s", res.Error)
	}
}

// PrintSystemInfo prints host facts and the adapter status.
func PrintSystemInfo(info *detector.SystemInfo, name string, st manager.Status, sources int) {
	HeaderMsg("System Information")

	if info != nil {
		printField("Operating System", info.PrettyName)
		if info.Version != "" {
			printField("Version", info.Version)
		}
		printField("Architecture", info.HostArch)
		printField("Installer Architectures", strings.Join(info.InstallerArchitectures(), ", "))
	}

	HeaderMsg("Package Manager")
	printField("Manager", name)
	if st.Found {
		printField("Executable", st.Executable)
		printField("Version", st.Version)
	} else {
		printField("Executable", Red("not found"))
	}
	printField("Sources", fmt.Sprintf("%d", sources))
}

func printField(label, value string) {
	fprintField(os.Stdout, label, value)
}
