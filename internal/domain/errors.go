package domain

import "errors"

var (
	// ErrPluginNotFound is returned for lookups of unknown plugin ids.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrAdapterNotFound is returned for lookups of unknown TTS adapter ids.
	ErrAdapterNotFound = errors.New("tts adapter not found")
)
