package registry

import "context"

// Manager is the registry surface the API and CLI depend on.
// This allows for easier mocking in tests.
type Manager interface {
	Scan(ctx context.Context) (*ScanReport, error)
	List() []Entry
	Get(toolkitID string) (*Entry, bool)
	Diagnostics() []Entry
	Reload(toolkitID string) (*Entry, error)
	Unload(toolkitID string) error
}

// Ensure Registry implements Manager
var _ Manager = (*Registry)(nil)
