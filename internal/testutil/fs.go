package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WritePlugin creates a plugin directory under root holding a plugin.json
// built from manifest and an index.js with script. It returns the plugin
// directory.
func WritePlugin(t *testing.T, root, dirName string, manifest map[string]any, script string) string {
	t.Helper()
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("Failed to encode plugin.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0o644); err != nil {
		t.Fatalf("Failed to write plugin.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.js"), []byte(script), 0o644); err != nil {
		t.Fatalf("Failed to write index.js: %v", err)
	}
	return dir
}

// FieldPluginManifest returns a minimal valid manifest for a field plugin.
func FieldPluginManifest(id, version string) map[string]any {
	return map[string]any{
		"id":          id,
		"name":        id,
		"version":     version,
		"api_version": "1.0",
	}
}
