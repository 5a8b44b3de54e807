package winget

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"wingetbridge/internal/executor"
	"wingetbridge/pkg/manager"
)

const (
	phraseNoPackage   = "No package found matching input criteria."
	phraseNoInstaller = "No applicable installer found"
	phraseBadLocale   = "The value provided for the `locale` argument is invalid"
)

type showStatus int

const (
	showOK showStatus = iota
	showNoPackage
	showRetryLocale
)

// block is the multi-line field a continuation line belongs to.
type block int

const (
	blockNone block = iota
	blockDescription
	blockNotes
	blockTags
)

// Details runs winget show for pkg. Missing fields stay empty; a package
// winget does not know yields empty details rather than an error.
func (w *Winget) Details(ctx context.Context, pkg manager.Package) (*manager.PackageDetails, error) {
	if pkg.Elided() {
		id, err := w.resolveID(ctx, pkg, false)
		if err != nil {
			return nil, err
		}
		if id != "" {
			pkg.ID = id
		}
	}
	pkg.Manager = w.Name()

	details := &manager.PackageDetails{
		Package:       pkg,
		Scopes:        []string{string(manager.ScopeUser), string(manager.ScopeMachine)},
		ManifestURL:   ManifestURL(pkg.ID),
		Architectures: []string{"x64", "x86"},
	}
	if w.sysInfo != nil {
		details.Architectures = w.sysInfo.InstallerArchitectures()
	}
	log := w.log.WithField("package", pkg.ID)

	for attempt := 1; attempt <= w.opts.DetailsAttempts; attempt++ {
		lines, status, err := w.show(ctx, pkg.ID)
		if err != nil {
			return nil, err
		}
		if status == showNoPackage {
			log.Info("package not found")
			return details, nil
		}
		if parseDetails(details, lines) >= 2 {
			break
		}
		log.WithField("attempt", attempt).Debug("show returned too little information")
	}

	versions, err := w.versions(ctx, pkg.ID)
	if err != nil {
		return nil, err
	}
	details.Versions = versions

	if w.opts.FetchInstallerSize && details.InstallerURL != "" {
		details.InstallerSize = w.installerSize(ctx, details.InstallerURL)
	}
	return details, nil
}

// show runs the show command through the locale fallback chain: the
// configured locale, en-US, then no locale at all.
func (w *Winget) show(ctx context.Context, id string) ([]string, showStatus, error) {
	var (
		lines  []string
		status = showRetryLocale
	)
	for _, locale := range w.localeChain() {
		args := []string{"show", "--id", id, "--exact", flagAcceptSource}
		if locale != "" {
			args = append(args, "--locale", locale)
		}
		out, _, err := executor.Output(ctx, w.Runner(), executor.Command{Path: w.Binary(), Args: args, ReadOnly: true})
		if err != nil {
			return nil, showOK, err
		}
		lines = strings.Split(out, "\n")
		status = showOK
		switch {
		case strings.Contains(out, phraseNoPackage):
			return nil, showNoPackage, nil
		case strings.Contains(out, phraseNoInstaller), strings.Contains(out, phraseBadLocale):
			status = showRetryLocale
			w.log.WithField("locale", locale).Debug("no installer for locale")
			continue
		}
		return lines, status, nil
	}
	return lines, status, nil
}

func (w *Winget) localeChain() []string {
	chain := []string{}
	if w.opts.Locale != "" && w.opts.Locale != "en-US" {
		chain = append(chain, w.opts.Locale)
	}
	return append(chain, "en-US", "")
}

// parseDetails fills d from show output and returns how many fields it set.
func parseDetails(d *manager.PackageDetails, lines []string) int {
	var (
		loaded  int
		current block
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		key, value, hasKey := strings.Cut(trimmed, ":")
		value = strings.TrimSpace(value)

		if hasKey {
			if set := detailSetter(d, key); set != nil {
				current = set(value)
				loaded++
				continue
			}
		}

		if !strings.HasPrefix(line, " ") {
			current = blockNone
			continue
		}
		switch current {
		case blockDescription:
			d.Description = joinLine(d.Description, trimmed)
		case blockNotes:
			d.ReleaseNotes = joinLine(d.ReleaseNotes, trimmed)
		case blockTags:
			d.Tags = append(d.Tags, trimmed)
		}
	}
	return loaded
}

// detailSetter returns the assignment for a show key, or nil for keys that
// are not recorded.
func detailSetter(d *manager.PackageDetails, key string) func(string) block {
	field := func(dst *string) func(string) block {
		return func(v string) block {
			*dst = v
			return blockNone
		}
	}
	switch key {
	case "Publisher":
		return field(&d.Publisher)
	case "Author":
		return field(&d.Author)
	case "Homepage":
		return field(&d.HomepageURL)
	case "License":
		return field(&d.License)
	case "License Url":
		return field(&d.LicenseURL)
	case "Installer SHA256":
		return field(&d.InstallerHash)
	case "Installer Url":
		return field(&d.InstallerURL)
	case "Installer Type":
		return field(&d.InstallerType)
	case "Release Date":
		return field(&d.UpdateDate)
	case "Release Notes Url":
		return field(&d.ReleaseNotesURL)
	case "Description":
		return func(v string) block {
			d.Description = v
			return blockDescription
		}
	case "Release Notes":
		return func(v string) block {
			d.ReleaseNotes = v
			return blockNotes
		}
	case "Tags":
		return func(string) block {
			d.Tags = nil
			return blockTags
		}
	}
	return nil
}

func joinLine(s, line string) string {
	if s == "" {
		return line
	}
	return s + "\n" + line
}

// versions lists every version winget offers for id, newest first.
func (w *Winget) versions(ctx context.Context, id string) ([]string, error) {
	args := []string{"show", "--id", id, "-e", "--versions", flagAcceptSource}
	out, _, err := executor.Output(ctx, w.Runner(), executor.Command{Path: w.Binary(), Args: args, ReadOnly: true})
	if err != nil {
		return nil, err
	}

	var (
		versions []string
		dashes   bool
	)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !dashes {
			dashes = strings.Contains(line, "--")
			continue
		}
		versions = append(versions, line)
	}
	manager.SortVersionsDesc(versions)
	return versions, nil
}

// installerSize returns the Content-Length of url, or 0 when unknown.
func (w *Winget) installerSize(ctx context.Context, url string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	resp, err := w.http.Do(req)
	if err != nil {
		w.log.WithFields(logrus.Fields{"url": url, "error": err}).Debug("installer size lookup failed")
		return 0
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.ContentLength < 0 {
		return 0
	}
	return resp.ContentLength
}

// ManifestURL links to the package manifest. Store ids are all upper case
// and link to the Store page instead of the community repository.
func ManifestURL(id string) string {
	if id == "" || strings.Contains(id, manager.ElisionMarker) {
		return ""
	}
	if id == strings.ToUpper(id) {
		return "https://apps.microsoft.com/store/detail/" + id
	}
	first, _ := utf8.DecodeRuneInString(id)
	return "https://github.com/microsoft/winget-pkgs/tree/master/manifests/" +
		strings.ToLower(string(first)) + "/" + strings.ReplaceAll(id, ".", "/")
}
