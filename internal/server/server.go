// Package server exposes the package manager over HTTP for
// "wingetbridge serve".
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"wingetbridge/internal/history"
	"wingetbridge/internal/metrics"
	"wingetbridge/pkg/manager"
)

// queryTimeout bounds a single query request. Operations are not bound by
// it; they outlive the request that started them.
const queryTimeout = 3 * time.Minute

// Server holds the dependencies of the HTTP API.
type Server struct {
	ctx      context.Context
	registry *manager.Registry
	store    *history.Store
	hub      *Hub
	log      logrus.FieldLogger
}

// New creates a server. Operations started through it are bound to ctx.
// store may be nil, in which case history is neither recorded nor served.
func New(ctx context.Context, registry *manager.Registry, store *history.Store, log logrus.FieldLogger) *Server {
	s := &Server{
		ctx:      ctx,
		registry: registry,
		store:    store,
		log:      log,
	}
	var hooks []func(manager.Result)
	if store != nil {
		hooks = append(hooks, store.Recorder(log))
	}
	s.hub = NewHub(hooks...)
	return s
}

// Hub returns the operation hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router sets up and returns the router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(queryTimeout))

			r.Get("/packages/search", s.handleSearch)
			r.Get("/packages/installed", s.handleInstalled)
			r.Get("/packages/updates", s.handleUpdates)
			r.Get("/packages/details", s.handleDetails)

			r.Get("/sources", s.handleListSources)
			r.Post("/sources/refresh", s.handleRefreshSources)

			r.Get("/history", s.handleHistory)
		})

		r.Post("/sources", s.handleAddSource)
		r.Delete("/sources/{name}", s.handleRemoveSource)

		r.Get("/operations", s.handleListOperations)
		r.Post("/operations", s.handleStartOperation)
		r.Get("/operations/{id}", s.handleGetOperation)
		r.Post("/operations/{id}/cancel", s.handleCancelOperation)
		r.Get("/operations/{id}/events", s.handleOperationEvents)
	})

	return r
}

// Run serves the API on addr until ctx is cancelled, then shuts down and
// cancels running operations.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	s.hub.CancelAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// primary returns the primary manager or writes 503.
func (s *Server) primary(w http.ResponseWriter) (manager.Manager, bool) {
	mgr := s.registry.Primary()
	if mgr == nil {
		respondWithError(w, http.StatusServiceUnavailable, "no package manager registered")
		return nil, false
	}
	return mgr, true
}
