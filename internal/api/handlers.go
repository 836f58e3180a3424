package api

import (
	"net/http"
	"strconv"

	"github.com/vrsandeep/plugin-host/internal/descriptor"
)

// getLimit reads the "limit" query parameter, falling back to def.
func getLimit(r *http.Request, def int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}

// handleGetConfig exposes the host settings a plugin manager UI needs.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.app.Config()
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sdk_version":     cfg.Host.SDKVersion,
		"min_sdk_version": cfg.Host.MinSDKVersion,
		"plugins_path":    cfg.Plugins.Path,
		"watch":           cfg.Plugins.Watch,
		"scan_interval":   cfg.Plugins.ScanInterval,
	})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := descriptor.JSONSchema()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to build schema")
		return
	}
	RespondWithRaw(w, http.StatusOK, "application/schema+json", schema)
}
