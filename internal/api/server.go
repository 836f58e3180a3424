// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vrsandeep/plugin-host/internal/core"
	"github.com/vrsandeep/plugin-host/internal/registry"
	"github.com/vrsandeep/plugin-host/internal/store"
)

// Server holds the dependencies for our API.
type Server struct {
	app      *core.App
	db       *sql.DB
	store    *store.Store
	registry registry.Manager
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:      app,
		db:       app.DB(),
		store:    app.Store(),
		registry: app.Registry(),
	}
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// SetRegistry replaces the plugin registry for testing purposes
func (s *Server) SetRegistry(m registry.Manager) {
	s.registry = m
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleGetVersion)
		r.Get("/config", s.handleGetConfig)
		r.Get("/schema", s.handleGetSchema)

		// Plugin Management Routes
		r.Get("/plugins", s.handleListPlugins)
		r.Post("/plugins/scan", s.handleScanPlugins)
		r.Get("/plugins/{toolkitID}", s.handleGetPlugin)
		r.Post("/plugins/{toolkitID}/reload", s.handleReloadPlugin)
		r.Delete("/plugins/{toolkitID}", s.handleUnloadPlugin)

		// Diagnostics
		r.Get("/diagnostics", s.handleListDiagnostics)
		r.Get("/diagnostics/history", s.handleDiagnosticsHistory)
		r.Get("/scans", s.handleListScans)
		r.Get("/versions", s.handleListVersions)

		// Job Triggers
		r.Get("/jobs/status", s.handleGetJobsStatus)
		r.Post("/jobs/run", s.handleRunJob)
	})

	r.Handle("/metrics", s.app.Metrics().Handler())

	return r
}
