package registry

import (
	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/plugin-host/internal/descriptor"
)

// VersionStore persists the last version seen for each toolkit identifier.
type VersionStore interface {
	GetPluginVersion(toolkitID string) (string, error)
	UpsertPluginVersion(toolkitID, version string) error
}

// VersionTracker is a Reporter that logs upgrades and downgrades of active
// plugins between scans and records the version it saw.
type VersionTracker struct {
	store VersionStore
}

func NewVersionTracker(store VersionStore) *VersionTracker {
	return &VersionTracker{store: store}
}

func (vt *VersionTracker) Report(o Outcome) {
	if o.State != StateActive || o.Version == "" {
		return
	}
	logger := log.WithField("toolkit_id", o.ToolkitID)

	previous, err := vt.store.GetPluginVersion(o.ToolkitID)
	if err != nil {
		logger.Errorf("Failed to read recorded plugin version: %v", err)
		return
	}
	if previous == o.Version {
		return
	}

	if previous != "" {
		cmp, err := descriptor.CompareVersions(previous, o.Version)
		switch {
		case err != nil:
			logger.Warnf("Cannot compare plugin versions %s and %s: %v", previous, o.Version, err)
		case cmp < 0:
			logger.Infof("Plugin upgraded from %s to %s", previous, o.Version)
		case cmp > 0:
			logger.Warnf("Plugin downgraded from %s to %s", previous, o.Version)
		default:
			logger.Infof("Plugin rebuilt as %s", o.Version)
		}
	}

	if err := vt.store.UpsertPluginVersion(o.ToolkitID, o.Version); err != nil {
		logger.Errorf("Failed to record plugin version: %v", err)
	}
}
