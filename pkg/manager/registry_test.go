package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockManager records the intent it was asked to start.
type mockManager struct {
	name      string
	display   string
	detectErr error
	started   []Intent
	sources   *SourceRegistry
}

func newMockManager(name, display string) *mockManager {
	return &mockManager{name: name, display: display, sources: NewSourceRegistry()}
}

func (m *mockManager) Name() string               { return m.name }
func (m *mockManager) DisplayName() string        { return m.display }
func (m *mockManager) Capabilities() Capabilities { return Capabilities{} }
func (m *mockManager) Detect(context.Context) (Status, error) {
	if m.detectErr != nil {
		return Status{}, m.detectErr
	}
	return Status{Found: true, Executable: m.name, Version: "v1.0.0"}, nil
}
func (m *mockManager) Search(context.Context, string) ([]Package, error) { return nil, nil }
func (m *mockManager) ListInstalled(context.Context) ([]Package, error)  { return nil, nil }
func (m *mockManager) ListUpdates(context.Context) ([]UpgradablePackage, error) {
	return nil, nil
}
func (m *mockManager) Details(context.Context, Package) (*PackageDetails, error) {
	return &PackageDetails{}, nil
}
func (m *mockManager) start(ctx context.Context, intent Intent, pkg Package) (*Operation, error) {
	m.started = append(m.started, intent)
	return StartOperation(ctx, &fakeRunner{}, OperationSpec{Intent: intent, Package: pkg}), nil
}
func (m *mockManager) Install(ctx context.Context, pkg Package, _ InstallationOptions, _ ProgressFunc) (*Operation, error) {
	return m.start(ctx, IntentInstall, pkg)
}
func (m *mockManager) Update(ctx context.Context, pkg Package, _ InstallationOptions, _ ProgressFunc) (*Operation, error) {
	return m.start(ctx, IntentUpdate, pkg)
}
func (m *mockManager) Uninstall(ctx context.Context, pkg Package, _ InstallationOptions, _ ProgressFunc) (*Operation, error) {
	return m.start(ctx, IntentUninstall, pkg)
}
func (m *mockManager) Sources() *SourceRegistry                             { return m.sources }
func (m *mockManager) ListSources(context.Context) ([]ManagerSource, error) { return nil, nil }
func (m *mockManager) RefreshSources(context.Context) error                 { return nil }
func (m *mockManager) AddSource(context.Context, ManagerSource, ProgressFunc) (*Operation, error) {
	return nil, nil
}
func (m *mockManager) RemoveSource(context.Context, ManagerSource, ProgressFunc) (*Operation, error) {
	return nil, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Primary())

	r.Register(newMockManager("winget", "Winget"))
	r.Register(newMockManager("scoop", "Scoop"))

	assert.Equal(t, "winget", r.Primary().Name())
	mgr, ok := r.Get("scoop")
	require.True(t, ok)
	assert.Equal(t, "Scoop", mgr.DisplayName())

	_, ok = r.Get("nonexistent")
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "scoop", all[0].Name())
}

func TestRegistryDetect(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockManager("winget", "Winget"))
	broken := newMockManager("broken", "Broken")
	broken.detectErr = errors.New("not found")
	r.Register(broken)

	err := r.Detect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.NotNil(t, r.SystemInfo())

	st, ok := r.Status("winget")
	require.True(t, ok)
	assert.True(t, st.Found)

	st, ok = r.Status("broken")
	require.True(t, ok)
	assert.False(t, st.Found)
}

func TestRegistryManagerFor(t *testing.T) {
	r := NewRegistry()
	winget := newMockManager("winget", "Winget")
	scoop := newMockManager("scoop", "Scoop")
	r.Register(winget)
	r.Register(scoop)

	mgr, err := r.ManagerFor(Package{Manager: "scoop"})
	require.NoError(t, err)
	assert.Equal(t, "scoop", mgr.Name())

	mgr, err = r.ManagerFor(Package{Source: "Winget: msstore"})
	require.NoError(t, err)
	assert.Equal(t, "winget", mgr.Name())

	mgr, err = r.ManagerFor(Package{Source: "Scoop"})
	require.NoError(t, err)
	assert.Equal(t, "scoop", mgr.Name())

	mgr, err = r.ManagerFor(Package{})
	require.NoError(t, err)
	assert.Equal(t, "winget", mgr.Name())

	_, err = r.ManagerFor(Package{Manager: "apt"})
	assert.Error(t, err)

	_, err = NewRegistry().ManagerFor(Package{})
	assert.Error(t, err)
}

func TestRegistryStart(t *testing.T) {
	r := NewRegistry()
	winget := newMockManager("winget", "Winget")
	r.Register(winget)

	for _, intent := range []Intent{IntentInstall, IntentUpdate, IntentUninstall} {
		op, err := r.Start(context.Background(), intent, Package{ID: "Git.Git", Manager: "winget"}, InstallationOptions{}, nil)
		require.NoError(t, err)
		assert.Equal(t, intent, op.Wait().Intent)
	}
	assert.Equal(t, []Intent{IntentInstall, IntentUpdate, IntentUninstall}, winget.started)

	_, err := r.Start(context.Background(), IntentSearch, Package{Manager: "winget"}, InstallationOptions{}, nil)
	assert.Error(t, err)
}
