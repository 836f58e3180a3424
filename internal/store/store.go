// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/plugin-host/internal/models"
	"github.com/vrsandeep/plugin-host/internal/registry"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var (
	_ registry.Reporter     = (*Store)(nil)
	_ registry.ScanObserver = (*Store)(nil)
	_ registry.VersionStore = (*Store)(nil)
)

// Report persists every outcome that did not end in an active plugin.
func (s *Store) Report(o registry.Outcome) {
	if o.State == registry.StateActive {
		return
	}
	if err := s.RecordDiagnostic(o); err != nil {
		log.WithField("plugin_dir", o.Dir).Errorf("Failed to record plugin diagnostic: %v", err)
	}
}

// ScanCompleted persists the scan summary.
func (s *Store) ScanCompleted(report *registry.ScanReport) {
	if err := s.RecordScan(report); err != nil {
		log.WithField("scan_id", report.ScanID).Errorf("Failed to record scan: %v", err)
	}
}

// RecordDiagnostic inserts a single outcome into scan_diagnostics.
func (s *Store) RecordDiagnostic(o registry.Outcome) error {
	at := o.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO scan_diagnostics (scan_id, toolkit_id, plugin_dir, state, kind, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ScanID, o.ToolkitID, o.Dir, string(o.State), o.Kind, o.Message, at.UTC())
	return err
}

// RecordScan inserts the scan summary row.
func (s *Store) RecordScan(report *registry.ScanReport) error {
	_, err := s.db.Exec(`
		INSERT INTO scans (id, started_at, duration_ms, active_count, rejected_count, skipped_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		report.ScanID, report.StartedAt.UTC(), report.Duration.Milliseconds(),
		report.Active, report.Rejected, report.Skipped)
	return err
}

// ListDiagnostics returns the most recent diagnostics first. An empty
// toolkitID matches every plugin.
func (s *Store) ListDiagnostics(toolkitID string, limit int) ([]*models.Diagnostic, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, scan_id, toolkit_id, plugin_dir, state, kind, message, created_at
		FROM scan_diagnostics`
	args := []interface{}{}
	if toolkitID != "" {
		query += " WHERE toolkit_id = ?"
		args = append(args, toolkitID)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diagnostics []*models.Diagnostic
	for rows.Next() {
		var d models.Diagnostic
		if err := rows.Scan(&d.ID, &d.ScanID, &d.ToolkitID, &d.PluginDir, &d.State, &d.Kind, &d.Message, &d.CreatedAt); err != nil {
			return nil, err
		}
		diagnostics = append(diagnostics, &d)
	}
	return diagnostics, rows.Err()
}

// ListScans returns the most recent scans first.
func (s *Store) ListScans(limit int) ([]*models.ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, started_at, duration_ms, active_count, rejected_count, skipped_count
		FROM scans
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*models.ScanRecord
	for rows.Next() {
		var sc models.ScanRecord
		var durationMs int64
		if err := rows.Scan(&sc.ID, &sc.StartedAt, &durationMs, &sc.ActiveCount, &sc.RejectedCount, &sc.SkippedCount); err != nil {
			return nil, err
		}
		sc.Duration = time.Duration(durationMs) * time.Millisecond
		scans = append(scans, &sc)
	}
	return scans, rows.Err()
}

// PruneDiagnostics deletes diagnostics older than the given time and
// returns how many rows were removed.
func (s *Store) PruneDiagnostics(before time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM scan_diagnostics WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, err
	}
	if _, err := s.db.Exec("DELETE FROM scans WHERE started_at < ?", before.UTC()); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetPluginVersion returns the last recorded version, or "" if the plugin
// has never been active.
func (s *Store) GetPluginVersion(toolkitID string) (string, error) {
	var version string
	err := s.db.QueryRow("SELECT version FROM plugin_versions WHERE toolkit_id = ?", toolkitID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get plugin version: %w", err)
	}
	return version, nil
}

// UpsertPluginVersion records the version a plugin was activated with.
func (s *Store) UpsertPluginVersion(toolkitID, version string) error {
	_, err := s.db.Exec(`
		INSERT INTO plugin_versions (toolkit_id, version, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(toolkit_id) DO UPDATE SET version = excluded.version, updated_at = excluded.updated_at`,
		toolkitID, version, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert plugin version: %w", err)
	}
	return nil
}

// ListPluginVersions returns every recorded plugin version.
func (s *Store) ListPluginVersions() ([]*models.PluginVersion, error) {
	rows, err := s.db.Query("SELECT toolkit_id, version, updated_at FROM plugin_versions ORDER BY toolkit_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*models.PluginVersion
	for rows.Next() {
		var v models.PluginVersion
		if err := rows.Scan(&v.ToolkitID, &v.Version, &v.UpdatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}
