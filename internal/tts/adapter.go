package tts

import (
	"context"

	"github.com/Segu-g/NicomView/internal/domain"
)

// Adapter is the contract for a speech backend. The queue calls Speak for
// one announcement at a time, never concurrently.
type Adapter interface {
	ID() string
	Name() string
	DefaultSettings() domain.AdapterSettings

	// Speak reads text aloud. speed and volume are multipliers around 1.0;
	// speaker overrides the adapter's configured voice when non-zero.
	Speak(ctx context.Context, text string, speed, volume float64, speaker domain.SpeakerRef) error

	// IsAvailable probes whether the backing software is reachable.
	IsAvailable(ctx context.Context) bool

	// UpdateSettings applies per-adapter settings (host, port, voice, ...).
	UpdateSettings(settings domain.AdapterSettings)

	// ParamDefs describes the adapter's configurable parameters.
	ParamDefs() []domain.AdapterParamDef

	// Dispose releases any held resources.
	Dispose()
}
