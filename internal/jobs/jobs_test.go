package jobs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/plugin-host/internal/descriptor"
	"github.com/vrsandeep/plugin-host/internal/jobs"
	"github.com/vrsandeep/plugin-host/internal/registry"
	"github.com/vrsandeep/plugin-host/internal/store"
	"github.com/vrsandeep/plugin-host/internal/testutil"
)

func TestRunPluginScan(t *testing.T) {
	root := t.TempDir()
	testutil.WritePlugin(t, root, "p", testutil.Descriptor("com.example.p", "5.0", "P.export"), "P.export")

	st := store.New(testutil.SetupTestDB(t))
	reg := registry.New(registry.Options{Root: root, HostSDK: descriptor.MustSDKVersion("5.0")}, st)
	mgr, ctx := newManager()
	ctx.reg = reg
	ctx.st = st
	jobs.RegisterDefaultJobs(mgr)

	require.NoError(t, mgr.RunJob(jobs.PluginScanJobID, ctx))
	waitIdle(t, mgr)

	_, ok := reg.Get("com.example.p")
	assert.True(t, ok)
	scans, err := st.ListScans(10)
	require.NoError(t, err)
	assert.Len(t, scans, 1)
}

func TestRunPruneDiagnostics(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	require.NoError(t, st.RecordDiagnostic(registry.Outcome{
		ScanID: "old", Dir: "/p/old", State: registry.StateRejected, At: time.Now().AddDate(0, 0, -40),
	}))
	require.NoError(t, st.RecordDiagnostic(registry.Outcome{
		ScanID: "new", Dir: "/p/new", State: registry.StateRejected, At: time.Now(),
	}))

	_, ctx := newManager()
	ctx.st = st
	ctx.cfg.Diagnostics.RetentionDays = 30

	require.NoError(t, jobs.RunPruneDiagnostics(ctx))
	diags, err := st.ListDiagnostics("", 10)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "/p/new", diags[0].PluginDir)

	ctx.cfg.Diagnostics.RetentionDays = 0
	assert.NoError(t, jobs.RunPruneDiagnostics(ctx))
}

func TestStartJobs(t *testing.T) {
	_, ctx := newManager()
	ctx.cfg.Plugins.ScanInterval = 5
	ctx.cfg.Diagnostics.RetentionDays = 7

	s := jobs.StartJobs(ctx)
	defer s.Stop()
	assert.True(t, s.IsRunning())
	assert.Len(t, s.Jobs(), 2)
}
