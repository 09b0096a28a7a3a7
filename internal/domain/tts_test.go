package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeakerRef_WireFormat(t *testing.T) {
	n := 3
	data, err := json.Marshal(map[EventKind]SpeakerRef{
		KindGift:    {Number: &n},
		KindComment: {Name: "metan"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"gift": 3, "comment": "metan"}`, string(data))
}

func TestSpeakerRef_UnmarshalVariants(t *testing.T) {
	var overrides map[EventKind]SpeakerRef
	err := json.Unmarshal([]byte(`{"gift": 3, "comment": "metan", "emotion": null}`), &overrides)
	require.NoError(t, err)

	require.NotNil(t, overrides[KindGift].Number)
	assert.Equal(t, 3, *overrides[KindGift].Number)
	assert.Equal(t, "metan", overrides[KindComment].Name)
	assert.True(t, overrides[KindEmotion].IsZero())

	var bad SpeakerRef
	assert.Error(t, json.Unmarshal([]byte(`{"nested": true}`), &bad))
}

func TestFilterEventKinds(t *testing.T) {
	filtered := FilterEventKinds([]EventKind{KindComment, "bogus", KindGift})
	assert.Equal(t, []EventKind{KindComment, KindGift}, filtered)
}

func TestDefaultTTSSettings(t *testing.T) {
	settings := DefaultTTSSettings()
	assert.False(t, settings.Enabled)
	assert.Equal(t, 1.0, settings.Speed)
	assert.Equal(t, 1.0, settings.Volume)
	assert.ElementsMatch(t, AllEventKinds, settings.EnabledEvents)
}

func TestTTSSettings_CloneIsDeep(t *testing.T) {
	settings := DefaultTTSSettings()
	settings.FormatTemplates[KindComment] = "{content}"

	clone := settings.Clone()
	clone.FormatTemplates[KindComment] = "mutated"
	clone.EnabledEvents[0] = "mutated"

	assert.Equal(t, "{content}", settings.FormatTemplates[KindComment])
	assert.Equal(t, KindComment, settings.EnabledEvents[0])
}

func TestPluginManifest_Valid(t *testing.T) {
	valid := PluginManifest{ID: "standard", Name: "Standard", Version: "1.0.0"}
	assert.True(t, valid.Valid())

	assert.False(t, PluginManifest{Name: "NoID", Version: "1.0.0"}.Valid())
	assert.False(t, PluginManifest{ID: "x", Version: "1.0.0"}.Valid())
	assert.False(t, PluginManifest{ID: "x", Name: "X"}.Valid())
}
