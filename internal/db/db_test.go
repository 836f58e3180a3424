package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/plugin-host/internal/assets"
	"github.com/vrsandeep/plugin-host/internal/db"
)

func TestInitDBAndMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin-host.db")

	database, err := db.InitDB(path)
	require.NoError(t, err)
	defer database.Close()

	var foreignKeysEnabled int
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeysEnabled))
	assert.Equal(t, 1, foreignKeysEnabled)

	require.NoError(t, db.RunMigrations(database, assets.MigrationsFS))
	// A second run is a no-op.
	require.NoError(t, db.RunMigrations(database, assets.MigrationsFS))

	for _, table := range []string{"scans", "scan_diagnostics", "plugin_versions"} {
		var name string
		err := database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestInitDB_BadPath(t *testing.T) {
	_, err := db.InitDB(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}
