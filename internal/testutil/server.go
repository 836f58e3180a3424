// Shared test server setup, which simplifies all API tests.

package testutil

import (
	"testing"

	"github.com/vrsandeep/plugin-host/internal/api"
	"github.com/vrsandeep/plugin-host/internal/config"
	"github.com/vrsandeep/plugin-host/internal/core"
)

// SetupTestApp wires a core.App around an in-memory database and an empty
// temporary plugins directory. The host implements SDK 5.0.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()
	db := SetupTestDB(t)

	cfg := &config.Config{Port: 8080}
	cfg.Host.SDKVersion = "5.0"
	cfg.Plugins.Path = t.TempDir()
	cfg.Plugins.ScanInterval = 60
	cfg.Diagnostics.RetentionDays = 30

	app, err := core.NewWithDB(cfg, db)
	if err != nil {
		t.Fatalf("Failed to set up test app: %v", err)
	}
	app.Version = "test"
	return app
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *core.App) {
	t.Helper()
	app := SetupTestApp(t)
	return api.NewServer(app), app
}
