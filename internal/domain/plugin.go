package domain

// PluginManifest is the plugin.json contract. Malformed manifests are
// skipped during discovery, never fatal.
type PluginManifest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Overlay     bool   `json:"overlay"`
}

// Valid reports whether the manifest satisfies the contract: non-empty id,
// name and version present.
func (m PluginManifest) Valid() bool {
	return m.ID != "" && m.Name != "" && m.Version != ""
}

// PluginDescriptor is a discovered plugin together with where it came from.
type PluginDescriptor struct {
	PluginManifest
	BuiltIn  bool   `json:"builtIn"`
	BasePath string `json:"basePath"`
}

// PluginPreferences is the persisted per-user plugin configuration.
type PluginPreferences struct {
	EnabledEvents []EventKind `json:"enabledEvents"`
}

// DefaultPluginPreferences enables every event kind.
func DefaultPluginPreferences() PluginPreferences {
	return PluginPreferences{EnabledEvents: append([]EventKind(nil), AllEventKinds...)}
}

// PluginSettings holds free-form per-plugin settings scalars.
type PluginSettings map[string]any
