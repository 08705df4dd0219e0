package plugins

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// PluginManifest represents the plugin.json structure.
type PluginManifest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Author      string         `json:"author"`
	License     string         `json:"license"`
	APIVersion  string         `json:"api_version"`
	PluginType  string         `json:"plugin_type"`
	EntryPoint  string         `json:"entry_point"`
	Config      map[string]any `json:"config"`
}

// LoadManifest loads and parses a plugin.json file.
func LoadManifest(pluginDir string) (*PluginManifest, error) {
	manifestPath := filepath.Join(pluginDir, "plugin.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.Errorf("failed to read plugin.json: %w", err)
	}

	var manifest PluginManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Errorf("failed to parse plugin.json: %w", err)
	}

	// Validate required fields
	if manifest.ID == "" {
		return nil, errors.New("plugin.json missing required field: id")
	}
	if manifest.Name == "" {
		return nil, errors.New("plugin.json missing required field: name")
	}
	if manifest.Version == "" {
		return nil, errors.New("plugin.json missing required field: version")
	}
	if !IsValidVersion(manifest.Version) {
		return nil, errors.Errorf("plugin.json has invalid version %q", manifest.Version)
	}
	if manifest.APIVersion == "" {
		return nil, errors.New("plugin.json missing required field: api_version")
	}

	// Set defaults
	if manifest.PluginType == "" {
		manifest.PluginType = "field"
	}
	if manifest.EntryPoint == "" {
		manifest.EntryPoint = "index.js"
	}

	return &manifest, nil
}

// configDefaults flattens the manifest config: entries of the form
// {"default": v} contribute v, anything else is used as is.
func (m *PluginManifest) configDefaults() map[string]any {
	config := make(map[string]any, len(m.Config))
	for k, v := range m.Config {
		if configObj, ok := v.(map[string]any); ok {
			if defaultVal, ok := configObj["default"]; ok {
				config[k] = defaultVal
			}
			continue
		}
		config[k] = v
	}
	return config
}
