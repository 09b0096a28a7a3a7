package tts

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Segu-g/NicomView/internal/domain"
	"github.com/Segu-g/NicomView/internal/metrics"
	"github.com/jonboulle/clockwork"
)

// maxQueueSize caps pending announcements. When the cap is hit the oldest
// item is evicted; the caller is never blocked and the newest item is never
// the one dropped.
const maxQueueSize = 30

type queueItem struct {
	text    string
	speaker domain.SpeakerRef
}

// Queue is the bounded, strictly serialized speech queue. Items are
// dispatched FIFO to the bound adapter; at most one Speak call is in flight
// at any instant. The queue is self-driving: after a speak call settles the
// worker picks up the next pending item without an external pump.
type Queue struct {
	mu       sync.Mutex
	items    []queueItem
	inFlight bool
	adapter  Adapter
	speed    float64
	volume   float64
	clock    clockwork.Clock
}

// NewQueue creates an empty queue with no adapter bound. Items enqueued
// before an adapter is bound accumulate (up to the cap) and are dispatched
// once SetAdapter provides a backend.
func NewQueue(clock clockwork.Clock) *Queue {
	return &Queue{
		speed:  1,
		volume: 1,
		clock:  clock,
	}
}

// SetAdapter rebinds the speech backend. Pending items are kept; a nil
// adapter stops dispatch after the in-flight call settles.
func (q *Queue) SetAdapter(adapter Adapter) {
	q.mu.Lock()
	q.adapter = adapter
	q.startWorkerLocked()
	q.mu.Unlock()
}

// SetParams updates playback parameters for future items. The in-flight
// item keeps the parameters it was dispatched with.
func (q *Queue) SetParams(speed, volume float64) {
	q.mu.Lock()
	q.speed = speed
	q.volume = volume
	q.mu.Unlock()
}

// Enqueue appends an announcement, evicting the oldest pending item when
// the queue is full.
func (q *Queue) Enqueue(text string, speaker domain.SpeakerRef) {
	q.mu.Lock()
	if len(q.items) >= maxQueueSize {
		q.items = q.items[1:]
		metrics.SpeechQueueDroppedTotal.Inc()
	}
	q.items = append(q.items, queueItem{text: text, speaker: speaker})
	metrics.SpeechQueueDepth.Set(float64(len(q.items)))
	q.startWorkerLocked()
	q.mu.Unlock()
}

// Clear discards all pending items. An in-flight speak call is not
// cancelled.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	metrics.SpeechQueueDepth.Set(0)
	q.mu.Unlock()
}

// Len returns the number of pending (not in-flight) items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// startWorkerLocked launches the dispatch worker unless one is already
// running or nothing can be dispatched. Callers must hold q.mu.
func (q *Queue) startWorkerLocked() {
	if q.inFlight || q.adapter == nil || len(q.items) == 0 {
		return
	}
	q.inFlight = true
	go q.run()
}

// run drains the queue one item at a time. An explicit loop rather than
// recursive re-invocation keeps the call stack flat under sustained load.
func (q *Queue) run() {
	for {
		q.mu.Lock()
		if q.adapter == nil || len(q.items) == 0 {
			q.inFlight = false
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		metrics.SpeechQueueDepth.Set(float64(len(q.items)))
		adapter := q.adapter
		speed, volume := q.speed, q.volume
		q.mu.Unlock()

		start := q.clock.Now()
		err := adapter.Speak(context.Background(), item.text, speed, volume, item.speaker)
		metrics.SpeakDuration.Observe(q.clock.Since(start).Seconds())
		if err != nil {
			// Failure isolation: log and continue with the next item.
			metrics.SpeakFailuresTotal.WithLabelValues(adapter.ID()).Inc()
			slog.Error("TTS speak failed", "adapter", adapter.ID(), "error", err)
		}
	}
}
