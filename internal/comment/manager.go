// Package comment implements the connection supervisor that owns the
// single live provider and relays its events.
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Segu-g/NicomView/internal/domain"
	"github.com/Segu-g/NicomView/internal/metrics"
	"github.com/Segu-g/NicomView/internal/provider"
)

// Broadcaster receives every relayed event for overlay fan-out.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// Announcer receives every relayed event for TTS announcement.
type Announcer interface {
	HandleEvent(kind domain.EventKind, payload domain.EventPayload)
}

// StateSink is notified of every connection state transition.
type StateSink func(state domain.ConnectionState)

// Manager supervises at most one live provider connection. Connect tears
// down any prior provider before the new one starts; events from the
// current provider are enriched and relayed in arrival order to the
// broadcaster and the announcer.
type Manager struct {
	factory   provider.Factory
	broadcast Broadcaster
	announcer Announcer
	onState   StateSink

	mu              sync.Mutex
	current         provider.Provider
	state           domain.ConnectionState
	broadcasterName string
	nameSeeded      bool
}

// NewManager creates a supervisor in the disconnected state.
func NewManager(factory provider.Factory, broadcast Broadcaster, announcer Announcer, onState StateSink) *Manager {
	m := &Manager{
		factory:   factory,
		broadcast: broadcast,
		announcer: announcer,
		onState:   onState,
		state:     domain.StateDisconnected,
	}
	metrics.ConnectionState.WithLabelValues(string(domain.StateDisconnected)).Set(1)
	return m
}

// Connect attaches to a broadcast. A provider already attached is torn
// down completely before the new one is created; the teardown is
// synchronous and never interleaved with the new connection attempt.
func (m *Manager) Connect(ctx context.Context, liveID, cookies string) error {
	m.mu.Lock()
	if m.current != nil {
		m.current.Disconnect()
		m.current = nil
	}
	m.broadcasterName = ""
	m.nameSeeded = false
	m.setStateLocked(domain.StateConnecting)

	p := m.factory(provider.Options{LiveID: liveID, Cookies: cookies})
	m.current = p
	m.mu.Unlock()

	// The handshake is a suspension point; no lock is held across it.
	meta, err := p.Connect(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != p {
		// A newer Connect or Disconnect superseded this attempt. The
		// supersession happened before the handshake finished, so a dial
		// that completed anyway must be torn down here.
		p.Disconnect()
		return nil
	}

	if err != nil {
		metrics.ProviderErrorsTotal.Inc()
		m.current = nil
		m.setStateLocked(domain.StateError)
		return fmt.Errorf("provider connect: %w", err)
	}

	if meta != nil && meta.BroadcasterName != "" {
		m.broadcasterName = meta.BroadcasterName
		m.nameSeeded = true
	}
	m.setStateLocked(domain.StateConnected)

	// The relay starts only once the handshake has succeeded; a failed
	// attempt must not leave a goroutine waiting on a stream that will
	// never be fed.
	go m.relay(p)
	return nil
}

// Disconnect tears down the provider, if any, and forces the disconnected
// state. An in-flight announcement or already-broadcast messages are not
// affected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Disconnect()
		m.current = nil
	}
	m.setStateLocked(domain.StateDisconnected)
}

// State returns the current connection state.
func (m *Manager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// relay consumes one provider's signal stream until it closes. Signals
// from a superseded provider are discarded.
func (m *Manager) relay(p provider.Provider) {
	for sig := range p.Signals() {
		switch {
		case sig.Event != nil:
			m.relayEvent(p, *sig.Event)

		case sig.Metadata != nil:
			m.mu.Lock()
			// Handshake metadata supersedes per-event values.
			if m.current == p && !m.nameSeeded && sig.Metadata.BroadcasterName != "" {
				m.broadcasterName = sig.Metadata.BroadcasterName
			}
			m.mu.Unlock()

		case sig.Err != nil:
			metrics.ProviderErrorsTotal.Inc()
			slog.Error("Provider failed", "error", sig.Err)
			m.detach(p, domain.StateError)
			return

		case sig.State != "":
			m.mu.Lock()
			if m.current == p {
				m.setStateLocked(sig.State)
			}
			m.mu.Unlock()
		}
	}

	// Natural end of the stream.
	m.detach(p, domain.StateDisconnected)
}

func (m *Manager) relayEvent(p provider.Provider, ev domain.Event) {
	m.mu.Lock()
	if m.current != p {
		m.mu.Unlock()
		return
	}
	if ev.Kind == domain.KindOperatorComment && ev.Payload.Name == "" {
		// Backfill missing attribution; explicit names are preserved.
		ev.Payload.Name = m.broadcasterName
	}
	m.mu.Unlock()

	metrics.EventsRelayedTotal.WithLabelValues(string(ev.Kind)).Inc()
	m.broadcast.Broadcast(string(ev.Kind), ev.Payload)
	m.announcer.HandleEvent(ev.Kind, ev.Payload)
}

// detach fully releases a provider and transitions to the given state,
// unless a newer provider has already taken its place.
func (m *Manager) detach(p provider.Provider, state domain.ConnectionState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != p {
		return
	}
	m.current = nil
	m.setStateLocked(state)
}

// setStateLocked records a transition and notifies the sinks. Callers must
// hold m.mu.
func (m *Manager) setStateLocked(state domain.ConnectionState) {
	if m.state == state {
		return
	}
	m.state = state

	for _, s := range []domain.ConnectionState{
		domain.StateDisconnected, domain.StateConnecting, domain.StateConnected, domain.StateError,
	} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		metrics.ConnectionState.WithLabelValues(string(s)).Set(value)
	}

	m.broadcast.Broadcast("stateChange", map[string]any{"state": state})
	if m.onState != nil {
		m.onState(state)
	}
}
