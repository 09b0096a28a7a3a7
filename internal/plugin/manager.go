// Package plugin discovers overlay plugins on disk and manages their
// persisted preferences and settings.
package plugin

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Segu-g/NicomView/internal/domain"
	"github.com/Segu-g/NicomView/internal/jsonstore"
)

const manifestFileName = "plugin.json"

// Manager holds the discovered plugin set and the persisted preference and
// settings files. Discovery happens once at construction; built-in plugins
// shadow external plugins with the same id.
type Manager struct {
	preferencesPath string
	settingsPath    string

	mu          sync.Mutex
	plugins     map[string]domain.PluginDescriptor
	order       []string
	preferences domain.PluginPreferences
	settings    map[string]domain.PluginSettings
}

// NewManager scans the given directories for plugins and loads the
// persisted preference and settings files from the user-data directory.
func NewManager(userDataDir, builtinDir, externalDir string) *Manager {
	m := &Manager{
		preferencesPath: filepath.Join(userDataDir, "plugin-preferences.json"),
		settingsPath:    filepath.Join(userDataDir, "plugin-settings.json"),
		plugins:         make(map[string]domain.PluginDescriptor),
		settings:        make(map[string]domain.PluginSettings),
	}

	m.discover(builtinDir, true)
	if externalDir != "" {
		m.discover(externalDir, false)
	}

	m.loadPreferences()
	m.loadSettings()
	return m
}

// discover scans one directory for subdirectories carrying a manifest.
// Malformed or invalid manifests are skipped, never fatal.
func (m *Manager) discover(dir string, builtIn bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("Plugin directory not readable", "dir", dir, "error", err)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		base := filepath.Join(dir, entry.Name())

		raw, err := os.ReadFile(filepath.Join(base, manifestFileName))
		if err != nil {
			continue
		}

		var manifest domain.PluginManifest
		if err := json.Unmarshal(raw, &manifest); err != nil {
			slog.Warn("Skipping plugin with malformed manifest", "dir", base, "error", err)
			continue
		}
		if !manifest.Valid() {
			slog.Warn("Skipping plugin with invalid manifest", "dir", base, "id", manifest.ID)
			continue
		}
		if _, exists := m.plugins[manifest.ID]; exists {
			slog.Warn("Skipping plugin with duplicate id", "dir", base, "id", manifest.ID)
			continue
		}

		m.plugins[manifest.ID] = domain.PluginDescriptor{
			PluginManifest: manifest,
			BuiltIn:        builtIn,
			BasePath:       base,
		}
		m.order = append(m.order, manifest.ID)
		slog.Info("Discovered plugin", "id", manifest.ID, "name", manifest.Name, "built_in", builtIn)
	}
}

// Plugins returns the discovered descriptors in discovery order.
func (m *Manager) Plugins() []domain.PluginDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.PluginDescriptor, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.plugins[id])
	}
	return out
}

// Plugin resolves one descriptor by id.
func (m *Manager) Plugin(id string) (domain.PluginDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	descriptor, ok := m.plugins[id]
	if !ok {
		return domain.PluginDescriptor{}, domain.ErrPluginNotFound
	}
	return descriptor, nil
}

// Preferences returns a copy of the persisted plugin preferences.
func (m *Manager) Preferences() domain.PluginPreferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.PluginPreferences{
		EnabledEvents: append([]domain.EventKind(nil), m.preferences.EnabledEvents...),
	}
}

// SetPreferences replaces the preferences, drops unknown event kinds and
// persists the result.
func (m *Manager) SetPreferences(preferences domain.PluginPreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.preferences = domain.PluginPreferences{
		EnabledEvents: domain.FilterEventKinds(preferences.EnabledEvents),
	}
	return jsonstore.Save(m.preferencesPath, m.preferences)
}

// Settings returns the stored settings of one plugin. An unknown plugin id
// is an error; a plugin without stored settings yields an empty object.
func (m *Manager) Settings(id string) (domain.PluginSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plugins[id]; !ok {
		return nil, domain.ErrPluginNotFound
	}

	stored := m.settings[id]
	out := make(domain.PluginSettings, len(stored))
	for key, value := range stored {
		out[key] = value
	}
	return out, nil
}

// SetSettings replaces one plugin's settings and persists the whole
// settings file.
func (m *Manager) SetSettings(id string, settings domain.PluginSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plugins[id]; !ok {
		return domain.ErrPluginNotFound
	}

	if settings == nil {
		settings = domain.PluginSettings{}
	}
	m.settings[id] = settings
	return jsonstore.Save(m.settingsPath, m.settings)
}

func (m *Manager) loadPreferences() {
	preferences := domain.DefaultPluginPreferences()
	if jsonstore.Load(m.preferencesPath, &preferences, "plugin preferences") {
		preferences.EnabledEvents = domain.FilterEventKinds(preferences.EnabledEvents)
	}
	m.preferences = preferences
}

func (m *Manager) loadSettings() {
	settings := make(map[string]domain.PluginSettings)
	jsonstore.Load(m.settingsPath, &settings, "plugin settings")
	if settings == nil {
		settings = make(map[string]domain.PluginSettings)
	}
	m.settings = settings
}
