package winget

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"wingetbridge/internal/executor"
	"wingetbridge/internal/metrics"
	"wingetbridge/pkg/manager"
	"wingetbridge/pkg/manager/detector"
)

const (
	// Name is the adapter identifier.
	Name = "winget"
	// Label prefixes every Source string this adapter produces.
	Label = "Winget"
)

// ErrNotFound is returned by Detect when winget cannot be run.
var ErrNotFound = errors.New("winget not found")

// Options configures the adapter.
type Options struct {
	Executable         string
	Elevator           string
	Locale             string
	InferArchitecture  bool
	FetchInstallerSize bool
	DetailsAttempts    int
	Defaults           manager.InstallationOptions
}

// Winget implements manager.Manager on top of the winget command line.
type Winget struct {
	*toolchain
	opts    Options
	sources *manager.SourceRegistry
	sysInfo *detector.SystemInfo
	status  atomic.Pointer[manager.Status]
	http    *http.Client
}

var _ manager.Manager = (*Winget)(nil)

// New creates a winget adapter.
func New(opts Options) *Winget {
	binary := opts.Executable
	if binary == "" {
		binary = "winget"
	}
	if opts.DetailsAttempts <= 0 {
		opts.DetailsAttempts = 3
	}
	w := &Winget{
		toolchain: newToolchain(binary),
		opts:      opts,
		sources:   manager.NewSourceRegistry(),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	if opts.Elevator != "" {
		w.exec.SetElevator(opts.Elevator)
	}
	if info, err := detector.Detect(); err == nil {
		w.sysInfo = info
	}
	return w
}

// SetSystemInfo overrides the host facts used for architecture lists.
func (w *Winget) SetSystemInfo(info *detector.SystemInfo) {
	if info != nil {
		w.sysInfo = info
	}
}

// SetHTTPClient replaces the client used for installer size lookups.
func (w *Winget) SetHTTPClient(c *http.Client) {
	if c != nil {
		w.http = c
	}
}

// Capabilities returns winget's static feature flags.
func (w *Winget) Capabilities() manager.Capabilities {
	return manager.Capabilities{
		CanRunAsAdmin:               true,
		CanSkipIntegrityChecks:      true,
		CanRunInteractively:         true,
		SupportsCustomVersions:      true,
		SupportsCustomArchitectures: true,
		SupportsCustomScopes:        true,
		SupportsCustomLocations:     true,
		SupportsCustomSources:       true,
		Sources: manager.SourceCapabilities{
			KnowsPackageCount: false,
			KnowsUpdateDate:   false,
		},
		KnownSources: []manager.ManagerSource{
			{Name: "winget", URL: "https://cdn.winget.microsoft.com/cache", Manager: Name},
			{Name: "msstore", URL: "https://storeedgefd.dsx.mp.microsoft.com/v9.0", Manager: Name},
		},
	}
}

// Name returns the adapter identifier.
func (w *Winget) Name() string { return Name }

// DisplayName returns the label shown to users.
func (w *Winget) DisplayName() string { return Label }

// Sources returns the adapter's source registry.
func (w *Winget) Sources() *manager.SourceRegistry {
	return w.sources
}

// Status returns the last detection result.
func (w *Winget) Status() manager.Status {
	if st := w.status.Load(); st != nil {
		return *st
	}
	return manager.Status{Executable: w.Binary()}
}

// Detect runs winget -v, records the status and refreshes the sources.
func (w *Winget) Detect(ctx context.Context) (manager.Status, error) {
	st := manager.Status{Executable: w.locate()}
	defer func() { w.status.Store(&st) }()

	out, code, err := executor.Output(ctx, w.Runner(), executor.Command{Path: w.Binary(), Args: []string{"-v"}, ReadOnly: true})
	if err != nil {
		return st, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if code != 0 {
		return st, fmt.Errorf("%w: winget -v exited with %s", ErrNotFound, Classify(code))
	}
	st.Found = true
	st.Version = strings.Join(strings.Fields(out), " ")

	if err := w.RefreshSources(ctx); err != nil {
		w.log.WithError(err).Warn("failed to refresh sources")
	}
	return st, nil
}

// repositories lists the registered source names, then the default
// catalogues not already registered.
func (w *Winget) repositories() []string {
	names := w.sources.Names()
	seen := make(map[string]bool, len(names)+2)
	for _, n := range names {
		seen[n] = true
	}
	for _, n := range []string{"msstore", "winget"} {
		if !seen[n] {
			names = append(names, n)
		}
	}
	return names
}

// query runs one listing command to completion and returns its rows. A
// non-zero exit is logged but the parsed rows are still returned.
func (w *Winget) query(ctx context.Context, intent manager.Intent, args []string) ([]Row, error) {
	table := NewTable(intent, w.repositories(), w.DisplayName(), w.log)
	op := manager.StartOperation(ctx, w.Runner(), manager.OperationSpec{
		Intent:   intent,
		Command:  executor.Command{Path: w.Binary(), Args: args, ReadOnly: true},
		Classify: Classify,
		Progress: table.Feed,
		Log:      w.log,
	})
	res := op.Wait()

	log := w.log.WithFields(logrus.Fields{"intent": intent, "exit": res.ExitText})
	switch {
	case res.Outcome == manager.OutcomeCancelled:
		return nil, res.Err
	case res.Err != nil:
		return nil, fmt.Errorf("winget %s: %w", args[0], res.Err)
	case res.ExitCode != 0:
		log.Warn("winget exited with an error, keeping parsed rows")
	}
	if !table.HeaderSeen() {
		log.Debug("no table header in output")
	}

	rows := table.Rows()
	metrics.RowsParsed(string(intent), len(rows))
	log.WithField("rows", len(rows)).Debug("query finished")
	return rows, nil
}

func (w *Winget) toPackage(r Row) manager.Package {
	return manager.Package{
		Name:    r.Name,
		ID:      r.ID,
		Version: r.Version,
		Source:  r.Source,
		Manager: w.Name(),
	}
}

// Search finds packages matching query in every configured source.
func (w *Winget) Search(ctx context.Context, query string) ([]manager.Package, error) {
	rows, err := w.query(ctx, manager.IntentSearch, []string{"search", query, flagAcceptSource})
	if err != nil {
		return nil, err
	}
	pkgs := make([]manager.Package, 0, len(rows))
	for _, r := range rows {
		pkgs = append(pkgs, w.toPackage(r))
	}
	return pkgs, nil
}

// ListInstalled lists installed packages. winget sometimes prints an
// almost empty table on the first call, so a result with fewer than two rows
// is retried once and the retry is final.
func (w *Winget) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	args := []string{"list", flagAcceptSource}
	rows, err := w.query(ctx, manager.IntentListInstalled, args)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		w.log.WithField("rows", len(rows)).Info("installed list looks incomplete, retrying once")
		if rows, err = w.query(ctx, manager.IntentListInstalled, args); err != nil {
			return nil, err
		}
	}
	pkgs := make([]manager.Package, 0, len(rows))
	for _, r := range rows {
		pkgs = append(pkgs, w.toPackage(r))
	}
	return pkgs, nil
}

// ListUpdates lists installed packages with a newer version available.
func (w *Winget) ListUpdates(ctx context.Context) ([]manager.UpgradablePackage, error) {
	rows, err := w.query(ctx, manager.IntentListUpdates, []string{"upgrade", "--include-unknown", flagAcceptSource})
	if err != nil {
		return nil, err
	}
	updates := make([]manager.UpgradablePackage, 0, len(rows))
	for _, r := range rows {
		u := manager.UpgradablePackage{Package: w.toPackage(r), AvailableVersion: r.Available}
		if !u.IsUpgrade() {
			w.log.WithFields(logrus.Fields{
				"package":   u.ID,
				"version":   u.Version,
				"available": u.AvailableVersion,
			}).Debug("skipping row that is not an upgrade")
			continue
		}
		updates = append(updates, u)
	}
	metrics.SetUpdatesAvailable(len(updates))
	return updates, nil
}

// Install starts an installation.
func (w *Winget) Install(ctx context.Context, pkg manager.Package, opts manager.InstallationOptions, progress manager.ProgressFunc) (*manager.Operation, error) {
	return w.start(ctx, manager.IntentInstall, pkg, opts, progress)
}

// Update starts an upgrade of an installed package.
func (w *Winget) Update(ctx context.Context, pkg manager.Package, opts manager.InstallationOptions, progress manager.ProgressFunc) (*manager.Operation, error) {
	return w.start(ctx, manager.IntentUpdate, pkg, opts, progress)
}

// Uninstall starts a removal.
func (w *Winget) Uninstall(ctx context.Context, pkg manager.Package, opts manager.InstallationOptions, progress manager.ProgressFunc) (*manager.Operation, error) {
	return w.start(ctx, manager.IntentUninstall, pkg, opts, progress)
}

func (w *Winget) start(ctx context.Context, intent manager.Intent, pkg manager.Package, opts manager.InstallationOptions, progress manager.ProgressFunc) (*manager.Operation, error) {
	if pkg.ID == "" && pkg.Name == "" {
		return nil, errors.New("package has neither id nor name")
	}
	pkg.Manager = w.Name()
	log := w.log.WithFields(logrus.Fields{"intent": intent, "package": pkg.ID})

	opts = opts.Merge(w.opts.Defaults)
	if w.opts.InferArchitecture {
		if inferred, ok := inferArchitecture(intent, pkg, opts); ok {
			log.WithField("architecture", inferred.Architecture).Debug("architecture inferred from package")
			opts = inferred
		}
	}
	opts, denied := w.Capabilities().Filter(opts)
	if len(denied) > 0 {
		log.WithField("options", denied).Warn("dropping unsupported options")
	}

	cmd := executor.Command{
		Path:    w.Binary(),
		Args:    operationArgs(intent, pkg, opts),
		Elevate: opts.RunAsAdmin,
	}
	if err := w.checkPrivileges(cmd); err != nil {
		return nil, fmt.Errorf("winget %s: %w", intent, err)
	}
	spec := manager.OperationSpec{
		Intent:  intent,
		Package: pkg,
		Command: cmd,
		Interpret: func(code int, output string) manager.Outcome {
			return Interpret(intent, code, output)
		},
		Classify: Classify,
		Progress: progress,
		Log:      w.log,
	}
	if pkg.Elided() {
		spec.Prepare = func(ctx context.Context) (executor.Command, error) {
			return w.prepareElided(ctx, intent, pkg, opts, cmd)
		}
	}

	log.WithField("command", cmd.String()).Info("starting operation")
	return manager.StartOperation(ctx, w.Runner(), spec), nil
}
