package manager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wingetbridge/pkg/manager/detector"
)

// Registry holds the adapters known to this process and resolves source
// labels back to their owning manager.
type Registry struct {
	managers map[string]Manager
	status   map[string]Status
	primary  string
	sysInfo  *detector.SystemInfo
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		managers: make(map[string]Manager),
		status:   make(map[string]Status),
	}
}

// Register adds a manager. The first registered manager becomes primary.
func (r *Registry) Register(mgr Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers[mgr.Name()] = mgr
	if r.primary == "" {
		r.primary = mgr.Name()
	}
}

// Detect records host facts and runs detection on every manager. A manager
// that fails detection stays registered with Found=false.
func (r *Registry) Detect(ctx context.Context) error {
	info, err := detector.Detect()
	if err != nil {
		return fmt.Errorf("failed to detect system: %w", err)
	}

	r.mu.Lock()
	r.sysInfo = info
	r.mu.Unlock()

	var firstErr error
	for _, mgr := range r.All() {
		st, err := mgr.Detect(ctx)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", mgr.Name(), err)
		}
		r.mu.Lock()
		r.status[mgr.Name()] = st
		r.mu.Unlock()
	}
	return firstErr
}

// Status returns the last detection status of a manager.
func (r *Registry) Status(name string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.status[name]
	return st, ok
}

// Primary returns the default manager.
func (r *Registry) Primary() Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.managers[r.primary]
}

// Get returns a specific manager by name.
func (r *Registry) Get(name string) (Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mgr, ok := r.managers[name]
	return mgr, ok
}

// All returns all registered managers sorted by name.
func (r *Registry) All() []Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	managers := make([]Manager, 0, len(r.managers))
	for _, mgr := range r.managers {
		managers = append(managers, mgr)
	}
	sort.Slice(managers, func(i, j int) bool {
		return managers[i].Name() < managers[j].Name()
	})
	return managers
}

// SystemInfo returns the detected host information.
func (r *Registry) SystemInfo() *detector.SystemInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sysInfo
}

// ManagerFor resolves a package's owning manager: by the Manager field, then
// by the display-name prefix of a "<Manager>: <repo>" source label, then the
// primary manager.
func (r *Registry) ManagerFor(pkg Package) (Manager, error) {
	if pkg.Manager != "" {
		if mgr, ok := r.Get(pkg.Manager); ok {
			return mgr, nil
		}
		return nil, fmt.Errorf("unknown package manager: %s", pkg.Manager)
	}

	label, _, _ := strings.Cut(pkg.Source, ":")
	for _, mgr := range r.All() {
		if strings.EqualFold(label, mgr.DisplayName()) || strings.EqualFold(label, mgr.Name()) {
			return mgr, nil
		}
	}

	if mgr := r.Primary(); mgr != nil {
		return mgr, nil
	}
	return nil, fmt.Errorf("no package managers registered")
}

// Start dispatches a mutating intent to the package's manager.
func (r *Registry) Start(ctx context.Context, intent Intent, pkg Package, opts InstallationOptions, progress ProgressFunc) (*Operation, error) {
	mgr, err := r.ManagerFor(pkg)
	if err != nil {
		return nil, err
	}

	switch intent {
	case IntentInstall:
		return mgr.Install(ctx, pkg, opts, progress)
	case IntentUpdate:
		return mgr.Update(ctx, pkg, opts, progress)
	case IntentUninstall:
		return mgr.Uninstall(ctx, pkg, opts, progress)
	}
	return nil, fmt.Errorf("unsupported intent %q", intent)
}
