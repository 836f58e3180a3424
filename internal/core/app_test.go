package core_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/plugin-host/internal/core"
	"github.com/vrsandeep/plugin-host/internal/testutil"
)

func TestNew_FromConfigFile(t *testing.T) {
	dir := t.TempDir()
	pluginsDir := filepath.Join(dir, "plugins")
	testutil.WritePlugin(t, pluginsDir, "ok", testutil.Descriptor("com.example.ok", "5.0", "Ok.export"), "Ok.export")
	testutil.WritePlugin(t, pluginsDir, "future", testutil.Descriptor("com.example.future", "6.0", "F.export"), "F.export")

	cfgPath := filepath.Join(dir, "config.yml")
	content := "host:\n  sdk_version: 5.0\nplugins:\n  path: " + pluginsDir + "\ndatabase:\n  path: " + filepath.Join(dir, "host.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	app, err := core.New(cfgPath)
	require.NoError(t, err)
	defer app.Close()

	report, err := app.Registry().Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Active)
	assert.Equal(t, 1, report.Rejected)

	// Reporters wired by the app persist the rejection and the active version.
	diags, err := app.Store().ListDiagnostics("com.example.future", 10)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "IncompatiblePlugin", diags[0].Kind)

	version, err := app.Store().GetPluginVersion("com.example.ok")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0+x", version)

	assert.Len(t, app.JobManager().GetStatus(), 2)
}

func TestNew_BadConfig(t *testing.T) {
	_, err := core.New(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
