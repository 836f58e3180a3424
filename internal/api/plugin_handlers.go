package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/plugin-host/internal/descriptor"
	"github.com/vrsandeep/plugin-host/internal/registry"
)

// handleListPlugins lists every known plugin. ?state= filters by lifecycle state.
func (s *Server) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	entries := s.registry.List()
	if state := r.URL.Query().Get("state"); state != "" {
		filtered := make([]registry.Entry, 0, len(entries))
		for _, e := range entries {
			if string(e.State) == state {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	RespondWithJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetPlugin(w http.ResponseWriter, r *http.Request) {
	toolkitID := chi.URLParam(r, "toolkitID")

	entry, exists := s.registry.Get(toolkitID)
	if !exists {
		RespondWithError(w, http.StatusNotFound, "Plugin not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, entry)
}

// handleScanPlugins rescans the plugins directory and returns the report.
func (s *Server) handleScanPlugins(w http.ResponseWriter, r *http.Request) {
	report, err := s.registry.Scan(r.Context())
	if err != nil {
		log.Errorf("Plugin scan failed: %v", err)
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to scan plugins: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, report)
}

func (s *Server) handleReloadPlugin(w http.ResponseWriter, r *http.Request) {
	toolkitID := chi.URLParam(r, "toolkitID")

	entry, err := s.registry.Reload(toolkitID)
	if err != nil {
		respondWithRegistryError(w, "reload", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUnloadPlugin(w http.ResponseWriter, r *http.Request) {
	toolkitID := chi.URLParam(r, "toolkitID")

	if err := s.registry.Unload(toolkitID); err != nil {
		respondWithRegistryError(w, "unload", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Plugin %s unloaded successfully", toolkitID),
	})
}

// handleListDiagnostics returns the plugins rejected by the latest scan.
func (s *Server) handleListDiagnostics(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.registry.Diagnostics())
}

func respondWithRegistryError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, registry.ErrPluginNotFound), errors.Is(err, descriptor.ErrDescriptorNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s plugin: %v", action, err))
	}
}
