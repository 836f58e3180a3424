package api

import (
	"net/http"
)

// handleDiagnosticsHistory returns persisted diagnostics, newest first.
// ?toolkit= narrows them to one plugin.
func (s *Server) handleDiagnosticsHistory(w http.ResponseWriter, r *http.Request) {
	diagnostics, err := s.store.ListDiagnostics(r.URL.Query().Get("toolkit"), getLimit(r, 100))
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load diagnostics")
		return
	}
	RespondWithJSON(w, http.StatusOK, diagnostics)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.store.ListScans(getLimit(r, 20))
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load scans")
		return
	}
	RespondWithJSON(w, http.StatusOK, scans)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.ListPluginVersions()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load plugin versions")
		return
	}
	RespondWithJSON(w, http.StatusOK, versions)
}
