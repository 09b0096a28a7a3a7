package tts

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/Segu-g/NicomView/internal/domain"
	"github.com/Segu-g/NicomView/internal/jsonstore"
	"github.com/jonboulle/clockwork"
)

const settingsFile = "tts-settings.json"

// Manager routes comment-feed events into the speech queue. It owns the
// TTS settings exclusively: filtering by enabled kinds, template selection,
// speaker overrides and persistence all happen here.
type Manager struct {
	mu           sync.Mutex
	settings     domain.TTSSettings
	adapters     map[string]Adapter
	adapterOrder []string
	queue        *Queue
	settingsPath string
}

// NewManager loads persisted settings from userDataDir (falling back to
// defaults field by field) and prepares the queue. Adapters are registered
// separately so the manager does not depend on any concrete backend.
func NewManager(userDataDir string, clock clockwork.Clock) *Manager {
	m := &Manager{
		adapters:     make(map[string]Adapter),
		queue:        NewQueue(clock),
		settingsPath: filepath.Join(userDataDir, settingsFile),
	}
	m.settings = loadSettings(m.settingsPath)
	m.queue.SetParams(m.settings.Speed, m.settings.Volume)
	return m
}

// RegisterAdapter adds a speech backend. If it matches the configured
// adapter id it is bound to the queue immediately.
func (m *Manager) RegisterAdapter(adapter Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.adapters[adapter.ID()]; !exists {
		m.adapterOrder = append(m.adapterOrder, adapter.ID())
	}
	m.adapters[adapter.ID()] = adapter

	if m.settings.AdapterID == adapter.ID() {
		adapter.UpdateSettings(m.settings.AdapterSettings)
		m.queue.SetAdapter(adapter)
	}
}

// HandleEvent formats and enqueues an announcement for the event. It is a
// no-op unless TTS is enabled and the kind is in the enabled set.
func (m *Manager) HandleEvent(kind domain.EventKind, payload domain.EventPayload) {
	m.mu.Lock()
	if !m.settings.Enabled || !kindEnabled(m.settings.EnabledEvents, kind) {
		m.mu.Unlock()
		return
	}
	template := m.settings.FormatTemplates[kind]
	speaker := m.settings.SpeakerOverrides[kind]
	m.mu.Unlock()

	var text string
	var ok bool
	if template != "" {
		// A custom template fully replaces the built-in formatting.
		text, ok = RenderTemplate(template, payload)
	} else {
		text, ok = Format(kind, payload)
	}
	if !ok {
		return
	}

	m.queue.Enqueue(text, speaker)
}

// Settings returns a copy of the current settings.
func (m *Manager) Settings() domain.TTSSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.Clone()
}

// ApplySettings merges a partial update field by field, pushes the changes
// to the queue and active adapter, and persists the result.
func (m *Manager) ApplySettings(patch domain.TTSSettingsPatch) domain.TTSSettings {
	m.mu.Lock()
	defer m.mu.Unlock()

	if patch.Enabled != nil {
		m.settings.Enabled = *patch.Enabled
	}
	if patch.AdapterID != nil {
		m.settings.AdapterID = *patch.AdapterID
		// Rebinding drops the previous backend but keeps queued items.
		m.queue.SetAdapter(m.adapters[*patch.AdapterID])
	}
	if patch.EnabledEvents != nil {
		m.settings.EnabledEvents = domain.FilterEventKinds(patch.EnabledEvents)
	}
	if patch.Speed != nil {
		m.settings.Speed = *patch.Speed
	}
	if patch.Volume != nil {
		m.settings.Volume = *patch.Volume
	}
	if patch.AdapterSettings != nil {
		m.settings.AdapterSettings = make(domain.AdapterSettings, len(patch.AdapterSettings))
		for k, v := range patch.AdapterSettings {
			m.settings.AdapterSettings[k] = v
		}
		if adapter := m.adapters[m.settings.AdapterID]; adapter != nil {
			adapter.UpdateSettings(m.settings.AdapterSettings)
		}
	}
	if patch.FormatTemplates != nil {
		m.settings.FormatTemplates = filterTemplateKinds(patch.FormatTemplates)
	}
	if patch.SpeakerOverrides != nil {
		m.settings.SpeakerOverrides = filterSpeakerKinds(patch.SpeakerOverrides)
	}

	m.queue.SetParams(m.settings.Speed, m.settings.Volume)

	if err := jsonstore.Save(m.settingsPath, m.settings); err != nil {
		slog.Error("Failed to persist TTS settings", "path", m.settingsPath, "error", err)
	}

	return m.settings.Clone()
}

// AdapterInfos lists registered adapters in registration order.
func (m *Manager) AdapterInfos() []domain.AdapterInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]domain.AdapterInfo, 0, len(m.adapterOrder))
	for _, id := range m.adapterOrder {
		a := m.adapters[id]
		infos = append(infos, domain.AdapterInfo{
			ID:              a.ID(),
			Name:            a.Name(),
			DefaultSettings: a.DefaultSettings(),
		})
	}
	return infos
}

// AdapterParams returns the parameter definitions of one adapter.
func (m *Manager) AdapterParams(id string) ([]domain.AdapterParamDef, error) {
	m.mu.Lock()
	adapter := m.adapters[id]
	m.mu.Unlock()

	if adapter == nil {
		return nil, domain.ErrAdapterNotFound
	}
	return adapter.ParamDefs(), nil
}

// AdapterAvailable probes whether an adapter's backing software responds.
func (m *Manager) AdapterAvailable(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	adapter := m.adapters[id]
	m.mu.Unlock()

	if adapter == nil {
		return false, domain.ErrAdapterNotFound
	}
	return adapter.IsAvailable(ctx), nil
}

// Dispose clears the queue and releases all adapters.
func (m *Manager) Dispose() {
	m.queue.Clear()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.adapters {
		a.Dispose()
	}
}

func kindEnabled(enabled []domain.EventKind, kind domain.EventKind) bool {
	for _, k := range enabled {
		if k == kind {
			return true
		}
	}
	return false
}

func filterTemplateKinds(in map[domain.EventKind]string) map[domain.EventKind]string {
	out := make(map[domain.EventKind]string, len(in))
	for k, v := range in {
		if domain.ValidEventKind(k) {
			out[k] = v
		}
	}
	return out
}

func filterSpeakerKinds(in map[domain.EventKind]domain.SpeakerRef) map[domain.EventKind]domain.SpeakerRef {
	out := make(map[domain.EventKind]domain.SpeakerRef, len(in))
	for k, v := range in {
		if domain.ValidEventKind(k) {
			out[k] = v
		}
	}
	return out
}

// loadSettings reads persisted settings, validating field by field. Any
// field failing validation reverts to its default; load never fails hard.
func loadSettings(path string) domain.TTSSettings {
	defaults := domain.DefaultTTSSettings()

	var raw map[string]json.RawMessage
	if !jsonstore.Load(path, &raw, "tts") {
		return defaults
	}

	out := defaults
	if v, ok := raw["enabled"]; ok {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			out.Enabled = b
		}
	}
	if v, ok := raw["adapterId"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out.AdapterID = s
		}
	}
	if v, ok := raw["enabledEvents"]; ok {
		var kinds []domain.EventKind
		if json.Unmarshal(v, &kinds) == nil {
			out.EnabledEvents = domain.FilterEventKinds(kinds)
		}
	}
	if v, ok := raw["speed"]; ok {
		var f float64
		if json.Unmarshal(v, &f) == nil {
			out.Speed = f
		}
	}
	if v, ok := raw["volume"]; ok {
		var f float64
		if json.Unmarshal(v, &f) == nil {
			out.Volume = f
		}
	}
	if v, ok := raw["adapterSettings"]; ok {
		var s domain.AdapterSettings
		if json.Unmarshal(v, &s) == nil && s != nil {
			out.AdapterSettings = s
		}
	}
	if v, ok := raw["formatTemplates"]; ok {
		var t map[domain.EventKind]string
		if json.Unmarshal(v, &t) == nil && t != nil {
			out.FormatTemplates = filterTemplateKinds(t)
		}
	}
	if v, ok := raw["speakerOverrides"]; ok {
		var s map[domain.EventKind]domain.SpeakerRef
		if json.Unmarshal(v, &s) == nil && s != nil {
			out.SpeakerOverrides = filterSpeakerKinds(s)
		}
	}
	return out
}
