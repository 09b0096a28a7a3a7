// Package provider defines the contract for the external live comment feed
// and a WebSocket-backed client implementation.
package provider

import (
	"context"

	"github.com/Segu-g/NicomView/internal/domain"
)

// Metadata is resolved by the connect handshake. The broadcaster name, when
// present, seeds the supervisor's broadcaster identity.
type Metadata struct {
	BroadcasterName string `json:"broadcasterName,omitempty"`
}

// Signal is a lifecycle notification from the provider, interleaved with
// events on the same channel to preserve ordering.
type Signal struct {
	// Event is set for relayed comment-feed events.
	Event *domain.Event

	// Metadata is set when the provider learns broadcast metadata after
	// the handshake.
	Metadata *Metadata

	// State is set for provider-driven state changes ("connected" after
	// the handshake completes server-side).
	State domain.ConnectionState

	// Err is set when the provider failed; the stream ends after it.
	Err error
}

// Options identify one broadcast to attach to.
type Options struct {
	LiveID  string
	Cookies string
}

// Provider is one attachment to a live broadcast. Signals flow on the
// channel returned by Signals until the provider disconnects or ends; the
// channel is closed when the stream is over.
type Provider interface {
	// Connect performs the handshake. Metadata may carry the broadcaster
	// display name.
	Connect(ctx context.Context) (*Metadata, error)

	// Signals returns the event stream. Closed on natural end and after
	// Disconnect.
	Signals() <-chan Signal

	// Disconnect tears the connection down. Idempotent.
	Disconnect()
}

// Factory builds a provider for one broadcast.
type Factory func(opts Options) Provider
