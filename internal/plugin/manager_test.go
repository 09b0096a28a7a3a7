package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Segu-g/NicomView/internal/domain"
)

func writePlugin(t *testing.T, root, dir, manifest string) {
	t.Helper()
	base := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "plugin.json"), []byte(manifest), 0o644))
}

func TestManager_DiscoversValidPlugins(t *testing.T) {
	builtin := t.TempDir()
	writePlugin(t, builtin, "standard", `{"id": "standard", "name": "Standard", "version": "1.0.0", "overlay": true}`)
	writePlugin(t, builtin, "compact", `{"id": "compact", "name": "Compact", "version": "0.2.0", "description": "small", "overlay": true}`)

	m := NewManager(t.TempDir(), builtin, "")

	plugins := m.Plugins()
	require.Len(t, plugins, 2)

	descriptor, err := m.Plugin("standard")
	require.NoError(t, err)
	assert.True(t, descriptor.BuiltIn)
	assert.True(t, descriptor.Overlay)
	assert.Equal(t, filepath.Join(builtin, "standard"), descriptor.BasePath)
}

func TestManager_SkipsMalformedManifests(t *testing.T) {
	builtin := t.TempDir()
	writePlugin(t, builtin, "good", `{"id": "good", "name": "Good", "version": "1.0.0", "overlay": true}`)
	writePlugin(t, builtin, "broken", `{not json`)
	writePlugin(t, builtin, "missing-id", `{"name": "NoID", "version": "1.0.0"}`)
	require.NoError(t, os.MkdirAll(filepath.Join(builtin, "no-manifest"), 0o755))

	m := NewManager(t.TempDir(), builtin, "")

	plugins := m.Plugins()
	require.Len(t, plugins, 1)
	assert.Equal(t, "good", plugins[0].ID)
}

func TestManager_ExternalPluginsAndDuplicateIDs(t *testing.T) {
	builtin := t.TempDir()
	external := t.TempDir()
	writePlugin(t, builtin, "standard", `{"id": "standard", "name": "Standard", "version": "1.0.0", "overlay": true}`)
	writePlugin(t, external, "custom", `{"id": "custom", "name": "Custom", "version": "0.1.0", "overlay": true}`)
	writePlugin(t, external, "shadow", `{"id": "standard", "name": "Impostor", "version": "9.9.9", "overlay": true}`)

	m := NewManager(t.TempDir(), builtin, external)

	plugins := m.Plugins()
	require.Len(t, plugins, 2)

	descriptor, err := m.Plugin("standard")
	require.NoError(t, err)
	assert.Equal(t, "Standard", descriptor.Name)
	assert.True(t, descriptor.BuiltIn)

	custom, err := m.Plugin("custom")
	require.NoError(t, err)
	assert.False(t, custom.BuiltIn)
}

func TestManager_UnknownPlugin(t *testing.T) {
	m := NewManager(t.TempDir(), t.TempDir(), "")

	_, err := m.Plugin("nope")
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestManager_PreferencesDefaultAndPersist(t *testing.T) {
	dataDir := t.TempDir()
	builtin := t.TempDir()

	m := NewManager(dataDir, builtin, "")
	assert.ElementsMatch(t, domain.AllEventKinds, m.Preferences().EnabledEvents)

	require.NoError(t, m.SetPreferences(domain.PluginPreferences{
		EnabledEvents: []domain.EventKind{domain.KindComment, "bogus"},
	}))
	assert.Equal(t, []domain.EventKind{domain.KindComment}, m.Preferences().EnabledEvents)

	// Survives a restart.
	reloaded := NewManager(dataDir, builtin, "")
	assert.Equal(t, []domain.EventKind{domain.KindComment}, reloaded.Preferences().EnabledEvents)
}

func TestManager_PluginSettingsRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	builtin := t.TempDir()
	writePlugin(t, builtin, "standard", `{"id": "standard", "name": "Standard", "version": "1.0.0", "overlay": true}`)

	m := NewManager(dataDir, builtin, "")

	settings, err := m.Settings("standard")
	require.NoError(t, err)
	assert.Empty(t, settings)

	require.NoError(t, m.SetSettings("standard", domain.PluginSettings{"fontSize": 18.0}))

	reloaded := NewManager(dataDir, builtin, "")
	settings, err = reloaded.Settings("standard")
	require.NoError(t, err)
	assert.Equal(t, 18.0, settings["fontSize"])
}

func TestManager_SetSettingsUnknownPlugin(t *testing.T) {
	m := NewManager(t.TempDir(), t.TempDir(), "")
	err := m.SetSettings("nope", domain.PluginSettings{"a": 1})
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)
}
