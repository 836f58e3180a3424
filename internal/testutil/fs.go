package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Descriptor returns a plugin.yml body with a single export service provider.
// The plugin targets SDK 9.0 so only minimum decides compatibility.
func Descriptor(toolkitID, minimum, file string) string {
	return fmt.Sprintf(`sdkVersion: 9.0
sdkMinimumVersion: %s
toolkitIdentifier: %q
exportServiceProvider: { title: "Test", file: %q }
version: { major: 1, minor: 0, revision: 0, build: "x" }
`, minimum, toolkitID, file)
}

// WritePlugin creates root/name containing plugin.yml with the given body
// and an empty file for every module name. It returns the plugin directory.
func WritePlugin(t *testing.T, root, name, descriptor string, modules ...string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create plugin directory: %v", err)
	}
	if descriptor != "" {
		if err := os.WriteFile(filepath.Join(dir, "plugin.yml"), []byte(descriptor), 0644); err != nil {
			t.Fatalf("Failed to write descriptor: %v", err)
		}
	}
	for _, m := range modules {
		path := filepath.Join(dir, m)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create module directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("-- "+m), 0644); err != nil {
			t.Fatalf("Failed to write module %s: %v", m, err)
		}
	}
	return dir
}
