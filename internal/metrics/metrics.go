// Package metrics defines the Prometheus instrumentation shared by the
// relay, broadcaster and speech queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay metrics
var (
	// EventsRelayedTotal tracks events relayed from the provider by kind
	EventsRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total provider events relayed to the overlay channel by kind",
		},
		[]string{"kind"},
	)

	// ConnectionState tracks the current provider connection state (one-hot gauge per state)
	ConnectionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_connection_state",
			Help: "Current provider connection state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	// ProviderErrorsTotal tracks provider connection errors
	ProviderErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_provider_errors_total",
			Help: "Total provider connection errors",
		},
	)
)

// Broadcaster metrics
var (
	// BroadcasterConnectedClients tracks currently connected overlay sockets
	BroadcasterConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcaster_connected_clients",
			Help: "Number of currently connected overlay WebSocket clients",
		},
	)

	// BroadcasterMessagesSentTotal tracks messages fanned out to clients
	BroadcasterMessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_messages_sent_total",
			Help: "Total messages delivered to overlay clients",
		},
	)

	// BroadcasterSlowClientsEvicted tracks slow clients dropped due to a full send buffer
	BroadcasterSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_slow_clients_evicted_total",
			Help: "Total overlay clients evicted because their send buffer was full",
		},
	)
)

// Speech queue metrics
var (
	// SpeechQueueDepth tracks current pending announcements
	SpeechQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speech_queue_depth",
			Help: "Current number of pending TTS announcements",
		},
	)

	// SpeechQueueDroppedTotal tracks oldest-item drops under backpressure
	SpeechQueueDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speech_queue_dropped_total",
			Help: "Total announcements dropped because the queue was full (drop-oldest)",
		},
	)

	// SpeakFailuresTotal tracks speak-backend failures (isolated per item)
	SpeakFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_speak_failures_total",
			Help: "Total TTS speak failures by adapter",
		},
		[]string{"adapter"},
	)

	// SpeakDuration tracks speak call duration
	SpeakDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "speech_speak_duration_seconds",
			Help:    "TTS speak call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)
