package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wingetbridge/internal/executor"
	"wingetbridge/internal/history"
	"wingetbridge/pkg/manager"
)

// fakeManager answers queries from memory and runs operations through a
// dry-run executor.
type fakeManager struct {
	runner  executor.Runner
	sources *manager.SourceRegistry
	pkgs    []manager.Package

	mu        sync.Mutex
	refreshes int
}

func newFakeManager() *fakeManager {
	f := &fakeManager{
		runner:  executor.New(true, false),
		sources: manager.NewSourceRegistry(),
		pkgs: []manager.Package{
			{Name: "Git", ID: "Git.Git", Version: "2.42.0", Source: "Fake: winget", Manager: "fake"},
		},
	}
	f.sources.Replace([]manager.ManagerSource{{Name: "winget", URL: "https://cdn.winget.microsoft.com/cache", Manager: "fake"}})
	return f
}

func (f *fakeManager) Name() string                       { return "fake" }
func (f *fakeManager) DisplayName() string                { return "Fake" }
func (f *fakeManager) Capabilities() manager.Capabilities { return manager.Capabilities{} }
func (f *fakeManager) Detect(context.Context) (manager.Status, error) {
	return manager.Status{Found: true, Executable: "fake", Version: "v1"}, nil
}

func (f *fakeManager) Search(_ context.Context, q string) ([]manager.Package, error) {
	var out []manager.Package
	for _, p := range f.pkgs {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeManager) ListInstalled(context.Context) ([]manager.Package, error) { return f.pkgs, nil }

func (f *fakeManager) ListUpdates(context.Context) ([]manager.UpgradablePackage, error) {
	return nil, nil
}

func (f *fakeManager) Details(_ context.Context, pkg manager.Package) (*manager.PackageDetails, error) {
	return &manager.PackageDetails{Package: pkg, Publisher: "The Git Development Community"}, nil
}

func (f *fakeManager) start(ctx context.Context, intent manager.Intent, pkg manager.Package, args []string, progress manager.ProgressFunc) *manager.Operation {
	return manager.StartOperation(ctx, f.runner, manager.OperationSpec{
		Intent:   intent,
		Package:  pkg,
		Command:  executor.Command{Path: "winget", Args: args},
		Progress: progress,
	})
}

func (f *fakeManager) Install(ctx context.Context, pkg manager.Package, _ manager.InstallationOptions, progress manager.ProgressFunc) (*manager.Operation, error) {
	return f.start(ctx, manager.IntentInstall, pkg, []string{"install", "--id", pkg.ID}, progress), nil
}

func (f *fakeManager) Update(ctx context.Context, pkg manager.Package, _ manager.InstallationOptions, progress manager.ProgressFunc) (*manager.Operation, error) {
	return f.start(ctx, manager.IntentUpdate, pkg, []string{"upgrade", "--id", pkg.ID}, progress), nil
}

func (f *fakeManager) Uninstall(ctx context.Context, pkg manager.Package, _ manager.InstallationOptions, progress manager.ProgressFunc) (*manager.Operation, error) {
	return f.start(ctx, manager.IntentUninstall, pkg, []string{"uninstall", "--id", pkg.ID}, progress), nil
}

func (f *fakeManager) Sources() *manager.SourceRegistry { return f.sources }

func (f *fakeManager) ListSources(context.Context) ([]manager.ManagerSource, error) {
	return f.sources.Snapshot(), nil
}

func (f *fakeManager) AddSource(ctx context.Context, src manager.ManagerSource, progress manager.ProgressFunc) (*manager.Operation, error) {
	return f.start(ctx, manager.IntentSourceAdd, manager.Package{Name: src.Name}, []string{"source", "add", "--name", src.Name}, progress), nil
}

func (f *fakeManager) RemoveSource(ctx context.Context, src manager.ManagerSource, progress manager.ProgressFunc) (*manager.Operation, error) {
	return f.start(ctx, manager.IntentSourceRemove, manager.Package{Name: src.Name}, []string{"source", "remove", "--name", src.Name}, progress), nil
}

func (f *fakeManager) RefreshSources(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeManager) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func setupServer(t *testing.T) (*Server, *fakeManager, *history.Store) {
	t.Helper()
	log, _ := test.NewNullLogger()

	store, err := history.OpenAt(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fake := newFakeManager()
	reg := manager.NewRegistry()
	reg.Register(fake)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, reg, store, log), fake, store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestStatus(t *testing.T) {
	s, _, _ := setupServer(t)
	rr := do(t, s.Router(), http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "fake", body["manager"])
	assert.EqualValues(t, 1, body["sources"])
}

func TestSearch(t *testing.T) {
	s, _, _ := setupServer(t)
	router := s.Router()

	t.Run("Missing query", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/packages/search", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Results", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/packages/search?q=git", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var pkgs []manager.Package
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pkgs))
		require.Len(t, pkgs, 1)
		assert.Equal(t, "Git.Git", pkgs[0].ID)
	})

	t.Run("No results encode as empty list", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/packages/search?q=nothing", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "[]", rr.Body.String())
	})
}

func TestDetails(t *testing.T) {
	s, _, _ := setupServer(t)
	router := s.Router()

	rr := do(t, router, http.MethodGet, "/api/packages/details", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/packages/details?id=Git.Git", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "The Git Development Community")
}

func TestStartOperationValidation(t *testing.T) {
	s, _, _ := setupServer(t)
	router := s.Router()

	rr := do(t, router, http.MethodPost, "/api/operations", map[string]interface{}{
		"intent":  "search",
		"package": map[string]string{"id": "Git.Git"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/operations", map[string]interface{}{"intent": "install"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/operations/op-missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStartErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, startErrorStatus(fmt.Errorf("winget install: %w", executor.ErrNoPrivileges)))
	assert.Equal(t, http.StatusBadRequest, startErrorStatus(errors.New("package has neither id nor name")))
}

func TestOperationLifecycle(t *testing.T) {
	s, _, store := setupServer(t)
	router := s.Router()

	rr := do(t, router, http.MethodPost, "/api/operations", map[string]interface{}{
		"intent":  "install",
		"package": map[string]string{"id": "Git.Git", "name": "Git"},
	})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var view OperationView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	assert.Equal(t, manager.IntentInstall, view.Intent)

	t.Run("Event stream", func(t *testing.T) {
		srv := httptest.NewServer(router)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/operations/" + view.ID + "/events"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))

		var frames []Frame
		for {
			var f Frame
			if err := conn.ReadJSON(&f); err != nil {
				break
			}
			frames = append(frames, f)
			if f.Type == "result" {
				break
			}
		}

		require.Len(t, frames, 2)
		assert.Equal(t, "event", frames[0].Type)
		assert.Equal(t, "[dry-run] Would execute: winget install --id Git.Git", frames[0].Event.Text)
		assert.Equal(t, "result", frames[1].Type)
		assert.Equal(t, manager.OutcomeSuccess, frames[1].Result.Outcome)
	})

	t.Run("Recorded in history", func(t *testing.T) {
		assert.Eventually(t, func() bool {
			n, err := store.Count()
			return err == nil && n == 1
		}, 5*time.Second, 10*time.Millisecond)

		rr := do(t, router, http.MethodGet, "/api/history?limit=5", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var entries []history.Entry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "Git.Git", entries[0].Target())
	})

	t.Run("Listed", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/operations", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var views []OperationView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
		require.Len(t, views, 1)
		require.NotNil(t, views[0].Result)
		assert.Equal(t, "completed", views[0].State)
	})
}

func TestSourceOperations(t *testing.T) {
	s, fake, _ := setupServer(t)
	router := s.Router()

	rr := do(t, router, http.MethodDelete, "/api/sources/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/sources", map[string]string{"name": "winget", "url": "https://example.com"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/sources", map[string]string{"name": "contoso", "url": "https://example.com/cache"})
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Eventually(t, func() bool { return fake.refreshCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	rr = do(t, router, http.MethodDelete, "/api/sources/winget", nil)
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Eventually(t, func() bool { return fake.refreshCount() == 2 }, 5*time.Second, 10*time.Millisecond)

	rr = do(t, router, http.MethodGet, "/api/sources", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cdn.winget.microsoft.com")
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := setupServer(t)
	rr := do(t, s.Router(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "wingetbridge_sources_registered")
}
