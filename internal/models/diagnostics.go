// This file defines the persisted records of plugin scans.

package models

import "time"

// Diagnostic is one non-active plugin outcome kept for later inspection.
type Diagnostic struct {
	ID        int64     `json:"id"`
	ScanID    string    `json:"scan_id"`
	ToolkitID string    `json:"toolkit_id,omitempty"`
	PluginDir string    `json:"plugin_dir"`
	State     string    `json:"state"`
	Kind      string    `json:"kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ScanRecord summarizes a completed scan.
type ScanRecord struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	ActiveCount   int           `json:"active_count"`
	RejectedCount int           `json:"rejected_count"`
	SkippedCount  int           `json:"skipped_count"`
}

// PluginVersion is the last version of a plugin the host activated.
type PluginVersion struct {
	ToolkitID string    `json:"toolkit_id"`
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
