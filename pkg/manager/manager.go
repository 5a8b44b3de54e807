package manager

import "context"

// Manager defines the structured contract an adapter exposes for one
// command-line package manager.
type Manager interface {
	// Name returns the short identifier for this manager (e.g., "winget").
	Name() string

	// DisplayName returns the label used in Source strings (e.g., "Winget").
	DisplayName() string

	// Capabilities returns the static feature flags of this manager.
	Capabilities() Capabilities

	// Detect locates the executable, records its version and refreshes the
	// source registry.
	Detect(ctx context.Context) (Status, error)

	// Queries. Each runs one process to completion and parses its table.

	Search(ctx context.Context, query string) ([]Package, error)
	ListInstalled(ctx context.Context) ([]Package, error)
	ListUpdates(ctx context.Context) ([]UpgradablePackage, error)
	Details(ctx context.Context, pkg Package) (*PackageDetails, error)

	// Mutating operations return immediately with a running Operation.

	Install(ctx context.Context, pkg Package, opts InstallationOptions, progress ProgressFunc) (*Operation, error)
	Update(ctx context.Context, pkg Package, opts InstallationOptions, progress ProgressFunc) (*Operation, error)
	Uninstall(ctx context.Context, pkg Package, opts InstallationOptions, progress ProgressFunc) (*Operation, error)

	// Sources.

	Sources() *SourceRegistry
	ListSources(ctx context.Context) ([]ManagerSource, error)
	AddSource(ctx context.Context, src ManagerSource, progress ProgressFunc) (*Operation, error)
	RemoveSource(ctx context.Context, src ManagerSource, progress ProgressFunc) (*Operation, error)
	RefreshSources(ctx context.Context) error
}

// Status is the result of manager detection.
type Status struct {
	Found      bool   `json:"found"`
	Executable string `json:"executable"`
	Version    string `json:"version"`
}
