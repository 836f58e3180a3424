// Covers the data access layer against an in-memory SQLite database.

package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/plugin-host/internal/registry"
	"github.com/vrsandeep/plugin-host/internal/store"
	"github.com/vrsandeep/plugin-host/internal/testutil"
)

func TestReport_RecordsOnlyInactiveOutcomes(t *testing.T) {
	s := store.New(testutil.SetupTestDB(t))

	s.Report(registry.Outcome{ScanID: "scan-1", ToolkitID: "com.example.ok", Dir: "/plugins/ok", State: registry.StateActive})
	s.Report(registry.Outcome{
		ScanID: "scan-1", ToolkitID: "com.example.bad", Dir: "/plugins/bad",
		State: registry.StateRejected, Kind: "IncompatiblePlugin", Message: "needs SDK 6.0",
	})
	s.Report(registry.Outcome{ScanID: "scan-1", ToolkitID: "com.example.gone", Dir: "/plugins/gone", State: registry.StateUnloaded})

	diags, err := s.ListDiagnostics("", 10)
	require.NoError(t, err)
	require.Len(t, diags, 2)

	byID := map[string]string{}
	for _, d := range diags {
		byID[d.ToolkitID] = d.State
	}
	assert.Equal(t, "rejected", byID["com.example.bad"])
	assert.Equal(t, "unloaded", byID["com.example.gone"])

	filtered, err := s.ListDiagnostics("com.example.bad", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "IncompatiblePlugin", filtered[0].Kind)
	assert.Equal(t, "needs SDK 6.0", filtered[0].Message)
	assert.Equal(t, "/plugins/bad", filtered[0].PluginDir)
}

func TestListDiagnostics_NewestFirstAndLimit(t *testing.T) {
	s := store.New(testutil.SetupTestDB(t))
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a.b.one", "a.b.two", "a.b.three"} {
		require.NoError(t, s.RecordDiagnostic(registry.Outcome{
			ScanID: "scan", ToolkitID: id, Dir: "/p/" + id, State: registry.StateRejected,
			At: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	diags, err := s.ListDiagnostics("", 2)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, "a.b.three", diags[0].ToolkitID)
	assert.Equal(t, "a.b.two", diags[1].ToolkitID)
}

func TestScanCompleted_AndPrune(t *testing.T) {
	s := store.New(testutil.SetupTestDB(t))

	old := &registry.ScanReport{ScanID: "old", StartedAt: time.Now().Add(-48 * time.Hour), Duration: 15 * time.Millisecond, Active: 1}
	recent := &registry.ScanReport{ScanID: "recent", StartedAt: time.Now(), Duration: 3 * time.Millisecond, Active: 2, Rejected: 1, Skipped: 4}
	s.ScanCompleted(old)
	s.ScanCompleted(recent)
	require.NoError(t, s.RecordDiagnostic(registry.Outcome{ScanID: "old", Dir: "/p/x", State: registry.StateRejected, At: old.StartedAt}))
	require.NoError(t, s.RecordDiagnostic(registry.Outcome{ScanID: "recent", Dir: "/p/y", State: registry.StateRejected, At: recent.StartedAt}))

	scans, err := s.ListScans(10)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "recent", scans[0].ID)
	assert.Equal(t, 2, scans[0].ActiveCount)
	assert.Equal(t, 1, scans[0].RejectedCount)
	assert.Equal(t, 4, scans[0].SkippedCount)
	assert.Equal(t, 3*time.Millisecond, scans[0].Duration)

	removed, err := s.PruneDiagnostics(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	scans, err = s.ListScans(10)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "recent", scans[0].ID)
}

func TestPluginVersions(t *testing.T) {
	s := store.New(testutil.SetupTestDB(t))

	v, err := s.GetPluginVersion("com.example.p")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.UpsertPluginVersion("com.example.p", "1.0.0"))
	require.NoError(t, s.UpsertPluginVersion("com.example.p", "1.1.0+x"))

	v, err = s.GetPluginVersion("com.example.p")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0+x", v)

	versions, err := s.ListPluginVersions()
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "1.1.0+x", versions[0].Version)
}

func TestVersionTrackerWithStore(t *testing.T) {
	s := store.New(testutil.SetupTestDB(t))
	tracker := registry.NewVersionTracker(s)

	tracker.Report(registry.Outcome{ToolkitID: "com.example.p", State: registry.StateActive, Version: "2.0.0"})
	v, err := s.GetPluginVersion("com.example.p")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v)
}
