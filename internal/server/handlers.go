package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wingetbridge/internal/executor"
	"wingetbridge/internal/history"
	"wingetbridge/pkg/manager"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.primary(w)
	if !ok {
		return
	}
	st, _ := s.registry.Status(mgr.Name())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"manager":      mgr.Name(),
		"display_name": mgr.DisplayName(),
		"status":       st,
		"capabilities": mgr.Capabilities(),
		"generation":   mgr.Sources().Generation(),
		"sources":      mgr.Sources().Len(),
		"system":       s.registry.SystemInfo(),
		"running":      s.hub.Running(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	mgr, ok := s.primary(w)
	if !ok {
		return
	}
	pkgs, err := mgr.Search(r.Context(), q)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(pkgs))
}

func (s *Server) handleInstalled(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.primary(w)
	if !ok {
		return
	}
	pkgs, err := mgr.ListInstalled(r.Context())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(pkgs))
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.primary(w)
	if !ok {
		return
	}
	updates, err := mgr.ListUpdates(r.Context())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(updates))
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pkg := manager.Package{ID: q.Get("id"), Name: q.Get("name"), Source: q.Get("source")}
	if pkg.ID == "" && pkg.Name == "" {
		respondWithError(w, http.StatusBadRequest, "missing query parameter id or name")
		return
	}
	mgr, err := s.registry.ManagerFor(pkg)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	details, err := mgr.Details(r.Context(), pkg)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, details)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.primary(w)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(mgr.Sources().Snapshot()))
}

func (s *Server) handleRefreshSources(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.primary(w)
	if !ok {
		return
	}
	if err := mgr.RefreshSources(r.Context()); err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(mgr.Sources().Snapshot()))
}

type addSourceRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mgr, ok := s.primary(w)
	if !ok {
		return
	}
	if _, exists := mgr.Sources().Lookup(req.Name); exists {
		respondWithError(w, http.StatusConflict, "source already exists")
		return
	}
	src := manager.ManagerSource{Name: req.Name, URL: req.URL, Manager: mgr.Name()}
	s.startSourceOperation(w, mgr, func(progress manager.ProgressFunc) (*manager.Operation, error) {
		return mgr.AddSource(s.ctx, src, progress)
	})
}

func (s *Server) handleRemoveSource(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.primary(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	src, exists := mgr.Sources().Lookup(name)
	if !exists {
		respondWithError(w, http.StatusNotFound, "source not found")
		return
	}
	s.startSourceOperation(w, mgr, func(progress manager.ProgressFunc) (*manager.Operation, error) {
		return mgr.RemoveSource(s.ctx, src, progress)
	})
}

// startSourceOperation starts a source mutation and refreshes the registry
// once it succeeded.
func (s *Server) startSourceOperation(w http.ResponseWriter, mgr manager.Manager, start func(manager.ProgressFunc) (*manager.Operation, error)) {
	t, err := s.hub.Start(start, func(res manager.Result) {
		if !res.Outcome.Succeeded() {
			return
		}
		if err := mgr.RefreshSources(s.ctx); err != nil {
			s.log.WithError(err).Warn("failed to refresh sources")
		}
	})
	if err != nil {
		respondWithError(w, startErrorStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusAccepted, t.View())
}

type startOperationRequest struct {
	Intent  string                      `json:"intent"`
	Package manager.Package             `json:"package"`
	Options manager.InstallationOptions `json:"options"`
}

func (s *Server) handleStartOperation(w http.ResponseWriter, r *http.Request) {
	var req startOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	intent, err := manager.ParseIntent(req.Intent)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Package.ID == "" && req.Package.Name == "" {
		respondWithError(w, http.StatusBadRequest, "package needs an id or a name")
		return
	}

	t, err := s.hub.Start(func(progress manager.ProgressFunc) (*manager.Operation, error) {
		return s.registry.Start(s.ctx, intent, req.Package, req.Options, progress)
	})
	if err != nil {
		respondWithError(w, startErrorStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusAccepted, t.View())
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.hub.List())
}

func (s *Server) handleGetOperation(w http.ResponseWriter, r *http.Request) {
	t, ok := s.hub.Get(chi.URLParam(r, "id"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "operation not found")
		return
	}
	respondWithJSON(w, http.StatusOK, t.View())
}

func (s *Server) handleCancelOperation(w http.ResponseWriter, r *http.Request) {
	t, ok := s.hub.Get(chi.URLParam(r, "id"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "operation not found")
		return
	}
	t.op.Cancel()
	respondWithJSON(w, http.StatusAccepted, t.View())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondWithError(w, http.StatusServiceUnavailable, "history is not available")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	var (
		entries []history.Entry
		err     error
	)
	if id := r.URL.Query().Get("package"); id != "" {
		entries, err = s.store.ForPackage(id, limit)
	} else {
		entries, err = s.store.List(limit)
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(entries))
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// startErrorStatus is the HTTP status for an operation that could not start.
func startErrorStatus(err error) int {
	if errors.Is(err, executor.ErrNoPrivileges) {
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}
