package tts

import (
	"context"
	"sync"

	"github.com/Segu-g/NicomView/internal/domain"
)

// MockAdapter records speak calls for tests. Speak blocks until Release is
// called when gated, allowing tests to hold an item in flight.
type MockAdapter struct {
	mu       sync.Mutex
	spoken   []MockUtterance
	err      error
	gate     chan struct{}
	settings domain.AdapterSettings
	disposed bool
}

// MockUtterance is one recorded speak call.
type MockUtterance struct {
	Text    string
	Speed   float64
	Volume  float64
	Speaker domain.SpeakerRef
}

// NewMockAdapter returns an adapter that completes speak calls immediately.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// NewGatedMockAdapter returns an adapter whose speak calls block until
// Release is invoked once per call.
func NewGatedMockAdapter() *MockAdapter {
	return &MockAdapter{gate: make(chan struct{})}
}

func (m *MockAdapter) ID() string   { return "mock" }
func (m *MockAdapter) Name() string { return "Mock" }

func (m *MockAdapter) DefaultSettings() domain.AdapterSettings {
	return domain.AdapterSettings{}
}

func (m *MockAdapter) Speak(ctx context.Context, text string, speed, volume float64, speaker domain.SpeakerRef) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, MockUtterance{Text: text, Speed: speed, Volume: volume, Speaker: speaker})
	err := m.err
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Release unblocks one pending gated speak call.
func (m *MockAdapter) Release() {
	m.gate <- struct{}{}
}

// FailWith makes subsequent speak calls return err.
func (m *MockAdapter) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Spoken returns a copy of all recorded utterances.
func (m *MockAdapter) Spoken() []MockUtterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockUtterance(nil), m.spoken...)
}

func (m *MockAdapter) IsAvailable(ctx context.Context) bool { return true }

func (m *MockAdapter) UpdateSettings(settings domain.AdapterSettings) {
	m.mu.Lock()
	m.settings = settings
	m.mu.Unlock()
}

// LastSettings returns the most recently applied adapter settings.
func (m *MockAdapter) LastSettings() domain.AdapterSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *MockAdapter) ParamDefs() []domain.AdapterParamDef { return nil }

func (m *MockAdapter) Dispose() {
	m.mu.Lock()
	m.disposed = true
	m.mu.Unlock()
}

// Disposed reports whether Dispose has been called.
func (m *MockAdapter) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}
