package domain

import (
	"encoding/json"
	"fmt"
)

// SpeakerRef identifies a voice on a TTS backend. BouyomiChan voices and
// VOICEVOX styles are numeric ids while some backends use string names, so
// the wire format is a bare JSON number or string.
type SpeakerRef struct {
	Number *int
	Name   string
}

// IsZero reports whether no speaker is referenced.
func (s SpeakerRef) IsZero() bool {
	return s.Number == nil && s.Name == ""
}

// MarshalJSON writes the reference as a bare number or string.
func (s SpeakerRef) MarshalJSON() ([]byte, error) {
	if s.Number != nil {
		return json.Marshal(*s.Number)
	}
	if s.Name != "" {
		return json.Marshal(s.Name)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a number, a string, or null.
func (s *SpeakerRef) UnmarshalJSON(data []byte) error {
	*s = SpeakerRef{}
	if string(data) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		s.Number = &n
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Name = str
		return nil
	}
	return fmt.Errorf("speaker reference must be a number or string, got %s", data)
}

// AdapterSettings holds per-adapter scalar settings (host, port, voice, ...).
type AdapterSettings map[string]any

// TTSSettings is the persisted text-to-speech configuration. It is owned
// exclusively by the announcement router; everyone else sees copies.
type TTSSettings struct {
	Enabled          bool                     `json:"enabled"`
	AdapterID        string                   `json:"adapterId"`
	EnabledEvents    []EventKind              `json:"enabledEvents"`
	Speed            float64                  `json:"speed"`
	Volume           float64                  `json:"volume"`
	AdapterSettings  AdapterSettings          `json:"adapterSettings"`
	FormatTemplates  map[EventKind]string     `json:"formatTemplates"`
	SpeakerOverrides map[EventKind]SpeakerRef `json:"speakerOverrides"`
}

// TTSSettingsPatch is a partial update to TTSSettings. Nil fields are left
// unchanged by a merge.
type TTSSettingsPatch struct {
	Enabled          *bool                    `json:"enabled,omitempty"`
	AdapterID        *string                  `json:"adapterId,omitempty"`
	EnabledEvents    []EventKind              `json:"enabledEvents,omitempty"`
	Speed            *float64                 `json:"speed,omitempty"`
	Volume           *float64                 `json:"volume,omitempty"`
	AdapterSettings  AdapterSettings          `json:"adapterSettings,omitempty"`
	FormatTemplates  map[EventKind]string     `json:"formatTemplates,omitempty"`
	SpeakerOverrides map[EventKind]SpeakerRef `json:"speakerOverrides,omitempty"`
}

// DefaultTTSSettings returns the settings used when nothing valid is
// persisted. TTS starts disabled with every kind announced once enabled.
func DefaultTTSSettings() TTSSettings {
	return TTSSettings{
		Enabled:          false,
		AdapterID:        "",
		EnabledEvents:    append([]EventKind(nil), AllEventKinds...),
		Speed:            1,
		Volume:           1,
		AdapterSettings:  AdapterSettings{},
		FormatTemplates:  map[EventKind]string{},
		SpeakerOverrides: map[EventKind]SpeakerRef{},
	}
}

// Clone returns a deep copy so callers cannot mutate the router's state.
func (s TTSSettings) Clone() TTSSettings {
	out := s
	out.EnabledEvents = append([]EventKind(nil), s.EnabledEvents...)
	out.AdapterSettings = make(AdapterSettings, len(s.AdapterSettings))
	for k, v := range s.AdapterSettings {
		out.AdapterSettings[k] = v
	}
	out.FormatTemplates = make(map[EventKind]string, len(s.FormatTemplates))
	for k, v := range s.FormatTemplates {
		out.FormatTemplates[k] = v
	}
	out.SpeakerOverrides = make(map[EventKind]SpeakerRef, len(s.SpeakerOverrides))
	for k, v := range s.SpeakerOverrides {
		out.SpeakerOverrides[k] = v
	}
	return out
}

// AdapterParamDef describes one configurable adapter parameter, surfaced to
// the settings UI.
type AdapterParamDef struct {
	Key     string               `json:"key"`
	Label   string               `json:"label"`
	Type    string               `json:"type"` // "string", "number" or "select"
	Default any                  `json:"default,omitempty"`
	Options []AdapterParamOption `json:"options,omitempty"`
}

// AdapterParamOption is one choice of a select-typed parameter.
type AdapterParamOption struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// AdapterInfo summarizes a registered TTS adapter.
type AdapterInfo struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	DefaultSettings AdapterSettings `json:"defaultSettings"`
}
