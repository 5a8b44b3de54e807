// Package manager provides the structured contract an adapter exposes for a
// command-line package manager: records, options, operations and sources.
package manager

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnknownVersion is reported when the tool cannot determine a version.
const UnknownVersion = "Unknown"

// ElisionMarker is the ellipsis winget puts in truncated columns.
const ElisionMarker = "…"

// Package represents a software package reported by a manager.
type Package struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Version string `json:"version"`
	Source  string `json:"source"`  // "<Manager>: <repo>" or the bare manager label
	Manager string `json:"manager"` // Owning adapter name
}

// Elided reports whether the Id was truncated by the tool's display.
func (p Package) Elided() bool {
	return strings.Contains(p.ID, ElisionMarker)
}

// Repository returns the repository part of Source, or "" when the source is
// a manager-only label.
func (p Package) Repository() string {
	_, repo, ok := strings.Cut(p.Source, ": ")
	if !ok {
		return ""
	}
	return repo
}

func (p Package) String() string {
	if p.ID == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.ID)
}

// UpgradablePackage is an installed package with a newer version on offer.
type UpgradablePackage struct {
	Package
	AvailableVersion string `json:"available_version"`
}

// PackageDetails is the optional metadata reported by a details query. A zero
// field means the tool did not report it.
type PackageDetails struct {
	Package
	Description     string   `json:"description,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	Author          string   `json:"author,omitempty"`
	HomepageURL     string   `json:"homepage_url,omitempty"`
	License         string   `json:"license,omitempty"`
	LicenseURL      string   `json:"license_url,omitempty"`
	InstallerHash   string   `json:"installer_hash,omitempty"`
	InstallerURL    string   `json:"installer_url,omitempty"`
	InstallerType   string   `json:"installer_type,omitempty"`
	InstallerSize   int64    `json:"installer_size,omitempty"` // Bytes
	UpdateDate      string   `json:"update_date,omitempty"`
	ReleaseNotes    string   `json:"release_notes,omitempty"`
	ReleaseNotesURL string   `json:"release_notes_url,omitempty"`
	ManifestURL     string   `json:"manifest_url,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Architectures   []string `json:"architectures,omitempty"`
	Scopes          []string `json:"scopes,omitempty"`
	Versions        []string `json:"versions,omitempty"`
}

// ManagerSource is a repository known to a manager. Name is unique within a
// manager's registry.
type ManagerSource struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Manager string `json:"manager"`
}

// Scope selects a per-user or machine-wide installation.
type Scope string

const (
	ScopeDefault Scope = ""
	ScopeUser    Scope = "user"
	ScopeMachine Scope = "machine"
)

// ParseScope accepts "user", "machine" or "".
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeDefault:
		return ScopeDefault, nil
	case ScopeUser:
		return ScopeUser, nil
	case ScopeMachine:
		return ScopeMachine, nil
	}
	return ScopeDefault, fmt.Errorf("invalid scope %q (want user or machine)", s)
}

// InstallationOptions controls how a mutating operation is issued. Each set
// field adds one argument group; zero fields leave the command line alone.
type InstallationOptions struct {
	Architecture    string   `json:"architecture,omitempty" toml:"architecture"`
	SkipHashCheck   bool     `json:"skip_hash_check,omitempty" toml:"skip_hash_check"`
	InstallLocation string   `json:"install_location,omitempty" toml:"install_location"`
	Scope           Scope    `json:"scope,omitempty" toml:"scope"`
	Interactive     bool     `json:"interactive,omitempty" toml:"interactive"`
	CustomArgs      []string `json:"custom_args,omitempty" toml:"custom_args"`
	Version         string   `json:"version,omitempty" toml:"version"`
	RunAsAdmin      bool     `json:"run_as_admin,omitempty" toml:"run_as_admin"`
}

// Merge returns o with every zero field taken from defaults.
func (o InstallationOptions) Merge(defaults InstallationOptions) InstallationOptions {
	if o.Architecture == "" {
		o.Architecture = defaults.Architecture
	}
	if !o.SkipHashCheck {
		o.SkipHashCheck = defaults.SkipHashCheck
	}
	if o.InstallLocation == "" {
		o.InstallLocation = defaults.InstallLocation
	}
	if o.Scope == ScopeDefault {
		o.Scope = defaults.Scope
	}
	if !o.Interactive {
		o.Interactive = defaults.Interactive
	}
	if len(o.CustomArgs) == 0 {
		o.CustomArgs = defaults.CustomArgs
	}
	if !o.RunAsAdmin {
		o.RunAsAdmin = defaults.RunAsAdmin
	}
	// A version pin is per-package and never defaulted.
	return o
}

// SourceCapabilities describes what a manager's source listing reports.
type SourceCapabilities struct {
	KnowsPackageCount bool `json:"knows_package_count"`
	KnowsUpdateDate   bool `json:"knows_update_date"`
}

// Capabilities declares which options and features an adapter supports.
type Capabilities struct {
	CanRunAsAdmin               bool               `json:"can_run_as_admin"`
	CanSkipIntegrityChecks      bool               `json:"can_skip_integrity_checks"`
	CanRunInteractively         bool               `json:"can_run_interactively"`
	SupportsCustomVersions      bool               `json:"supports_custom_versions"`
	SupportsCustomArchitectures bool               `json:"supports_custom_architectures"`
	SupportsCustomScopes        bool               `json:"supports_custom_scopes"`
	SupportsCustomLocations     bool               `json:"supports_custom_locations"`
	SupportsCustomSources       bool               `json:"supports_custom_sources"`
	Sources                     SourceCapabilities `json:"sources"`
	KnownSources                []ManagerSource    `json:"known_sources"`
}

// Filter clears every option the capabilities deny and returns the names of
// the options it dropped.
func (c Capabilities) Filter(o InstallationOptions) (InstallationOptions, []string) {
	var denied []string
	if o.Architecture != "" && !c.SupportsCustomArchitectures {
		o.Architecture = ""
		denied = append(denied, "architecture")
	}
	if o.SkipHashCheck && !c.CanSkipIntegrityChecks {
		o.SkipHashCheck = false
		denied = append(denied, "skip_hash_check")
	}
	if o.InstallLocation != "" && !c.SupportsCustomLocations {
		o.InstallLocation = ""
		denied = append(denied, "install_location")
	}
	if o.Scope != ScopeDefault && !c.SupportsCustomScopes {
		o.Scope = ScopeDefault
		denied = append(denied, "scope")
	}
	if o.Interactive && !c.CanRunInteractively {
		o.Interactive = false
		denied = append(denied, "interactive")
	}
	if o.Version != "" && !c.SupportsCustomVersions {
		o.Version = ""
		denied = append(denied, "version")
	}
	if o.RunAsAdmin && !c.CanRunAsAdmin {
		o.RunAsAdmin = false
		denied = append(denied, "run_as_admin")
	}
	return o, denied
}

// Intent is the logical operation being performed. It determines the
// expected output shape.
type Intent string

const (
	IntentSearch        Intent = "search"
	IntentListInstalled Intent = "list-installed"
	IntentListUpdates   Intent = "list-updates"
	IntentShowDetails   Intent = "show-details"
	IntentInstall       Intent = "install"
	IntentUpdate        Intent = "update"
	IntentUninstall     Intent = "uninstall"
	IntentSourceAdd     Intent = "source-add"
	IntentSourceRemove  Intent = "source-remove"
	IntentSourceList    Intent = "source-list"
)

// ParseIntent accepts the string form of a mutating intent.
func ParseIntent(s string) (Intent, error) {
	switch i := Intent(s); i {
	case IntentInstall, IntentUpdate, IntentUninstall:
		return i, nil
	}
	return "", fmt.Errorf("unsupported intent %q", s)
}

// Outcome is the closed set of operation results.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeNeedsElevation
	OutcomeNeedsRestart
	OutcomeHashMismatch
	OutcomeNoApplicableUpdate
	OutcomeAlreadyInstalled
	OutcomeNotIdentified
	OutcomeCancelled
)

var outcomeNames = [...]string{
	OutcomeSuccess:            "success",
	OutcomeFailure:            "failure",
	OutcomeNeedsElevation:     "needs-elevation",
	OutcomeNeedsRestart:       "needs-restart",
	OutcomeHashMismatch:       "hash-mismatch",
	OutcomeNoApplicableUpdate: "no-applicable-update",
	OutcomeAlreadyInstalled:   "already-installed",
	OutcomeNotIdentified:      "not-identified",
	OutcomeCancelled:          "cancelled",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Succeeded reports whether the operation left the package in the requested
// state. A pending restart counts as success.
func (o Outcome) Succeeded() bool {
	return o == OutcomeSuccess || o == OutcomeNeedsRestart
}

// Message is a short human readable status for the outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeSuccess:
		return "completed successfully"
	case OutcomeNeedsElevation:
		return "requires administrator privileges"
	case OutcomeNeedsRestart:
		return "completed, a restart is required"
	case OutcomeHashMismatch:
		return "installer hash does not match the manifest"
	case OutcomeNoApplicableUpdate:
		return "no applicable update found"
	case OutcomeAlreadyInstalled:
		return "package is already installed"
	case OutcomeNotIdentified:
		return "package could not be uniquely identified"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "failed"
}

// MarshalJSON encodes the outcome by name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes an outcome name.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range outcomeNames {
		if name == s {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", s)
}
