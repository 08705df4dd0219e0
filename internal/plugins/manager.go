package plugins

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/fields"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLoads bounds how many plugin scripts are evaluated at once.
const maxConcurrentLoads = 4

// PluginInfo represents information about a plugin found on disk.
type PluginInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`
	APIVersion  string `json:"api_version"`
	FieldName   string `json:"field_name,omitempty"`
	Path        string `json:"path"`
	Loaded      bool   `json:"loaded"`
	Error       string `json:"error,omitempty"`
}

// LoadedPlugin is a plugin whose script was evaluated.
type LoadedPlugin struct {
	Manifest *PluginManifest
	Runtime  *PluginRuntime
	Field    *FieldPlugin
	Path     string
}

// PluginManager loads field plugins from a directory.
type PluginManager struct {
	pluginDir     string
	log           zerolog.Logger
	mu            sync.RWMutex
	plugins       map[string]*LoadedPlugin
	failedPlugins map[string]string // plugin path to error message
}

// NewPluginManager creates a manager for the plugins under pluginDir.
func NewPluginManager(pluginDir string, log zerolog.Logger) *PluginManager {
	return &PluginManager{
		pluginDir:     pluginDir,
		log:           log,
		plugins:       make(map[string]*LoadedPlugin),
		failedPlugins: make(map[string]string),
	}
}

type loadResult struct {
	path   string
	plugin *LoadedPlugin
	err    error
}

// LoadPlugins evaluates every plugin directory concurrently and registers
// the field types with reg in plugin id order. A broken plugin is recorded
// and skipped; it does not stop the others.
func (pm *PluginManager) LoadPlugins(ctx context.Context, reg *fields.Registry) error {
	entries, err := os.ReadDir(pm.pluginDir)
	if errors.Is(err, os.ErrNotExist) {
		pm.log.Info().Str("dir", pm.pluginDir).Msg("No plugins directory, skipping plugins")
		return nil
	}
	if err != nil {
		return errors.Errorf("failed to read plugins directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		// Skip hidden directories and special directories
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		dir := filepath.Join(pm.pluginDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "plugin.json")); err != nil {
			pm.log.Debug().Str("dir", dir).Msg("Skipping directory without plugin.json")
			continue
		}
		dirs = append(dirs, dir)
	}

	results := make([]loadResult, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := pm.loadPlugin(dir)
			results[i] = loadResult{path: dir, plugin: p, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	var loaded []*LoadedPlugin
	for _, res := range results {
		if res.err != nil {
			pm.log.Warn().Err(res.err).Str("dir", res.path).Msg("Failed to load plugin")
			pm.failedPlugins[res.path] = res.err.Error()
			continue
		}
		if existing, ok := pm.plugins[res.plugin.Manifest.ID]; ok {
			newer, _ := IsNewerVersion(existing.Manifest.Version, res.plugin.Manifest.Version)
			if !newer {
				pm.log.Warn().Str("plugin", res.plugin.Manifest.ID).Str("dir", res.path).Msg("Duplicate plugin id, keeping the newer version")
				continue
			}
		}
		pm.plugins[res.plugin.Manifest.ID] = res.plugin
	}
	for _, p := range pm.plugins {
		loaded = append(loaded, p)
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].Manifest.ID < loaded[j].Manifest.ID })

	for _, p := range loaded {
		if err := reg.Register(p.Field); err != nil {
			pm.log.Warn().Err(err).Str("plugin", p.Manifest.ID).Msg("Plugin field type not registered")
			pm.failedPlugins[p.Path] = err.Error()
			delete(pm.plugins, p.Manifest.ID)
			continue
		}
		pm.log.Info().Str("plugin", p.Manifest.ID).Str("field", p.Field.Name()).Msg("Registered plugin field type")
	}
	return nil
}

func (pm *PluginManager) loadPlugin(dir string) (*LoadedPlugin, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	if err := ValidateAPIVersion(manifest.APIVersion); err != nil {
		return nil, err
	}
	if manifest.PluginType != "field" {
		return nil, errors.Errorf("%w: type %q", ErrNotFieldPlugin, manifest.PluginType)
	}

	runtime, err := NewPluginRuntime(manifest, dir, pm.log)
	if err != nil {
		return nil, err
	}
	field, err := NewFieldPlugin(runtime)
	if err != nil {
		return nil, err
	}
	return &LoadedPlugin{Manifest: manifest, Runtime: runtime, Field: field, Path: dir}, nil
}

// GetPlugin returns a loaded plugin by id.
func (pm *PluginManager) GetPlugin(id string) (*LoadedPlugin, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.plugins[id]
	return p, ok
}

// ListPlugins describes loaded and failed plugins, sorted by path.
func (pm *PluginManager) ListPlugins() []PluginInfo {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	var out []PluginInfo
	for _, p := range pm.plugins {
		out = append(out, PluginInfo{
			ID:          p.Manifest.ID,
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Author:      p.Manifest.Author,
			APIVersion:  p.Manifest.APIVersion,
			FieldName:   p.Field.Name(),
			Path:        p.Path,
			Loaded:      true,
		})
	}
	for path, msg := range pm.failedPlugins {
		out = append(out, PluginInfo{Path: path, Error: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
