// Package broadcast fans events out to connected overlay clients over
// WebSocket push connections.
package broadcast

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Segu-g/NicomView/internal/metrics"
)

// envelope is the overlay wire format: every push message is one JSON
// object with the event kind and its payload.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	id     string
	writer *clientWriter
}

type registerCommand struct {
	connection *websocket.Conn
	reply      chan string
}

type unregisterCommand struct {
	clientID string
}

type broadcastCommand struct {
	message []byte
}

type clientCountCommand struct {
	reply chan int
}

type stopCommand struct {
	done chan struct{}
}

// Hub owns the set of connected overlay clients and serializes all
// mutations through a single actor goroutine. Broadcast is best-effort:
// clients that cannot keep up are evicted, never waited on.
type Hub struct {
	clock      clockwork.Clock
	maxClients int

	commands chan any
	clients  map[string]*client

	stopOnce sync.Once

	overlayMu     sync.Mutex
	activeOverlay string
}

// NewHub creates a hub and starts its actor goroutine.
func NewHub(clock clockwork.Clock, maxClients int) *Hub {
	h := &Hub{
		clock:      clock,
		maxClients: maxClients,
		commands:   make(chan any, 64),
		clients:    make(map[string]*client),
	}
	go h.run()
	return h
}

// Broadcast delivers one event to every connected client. It never blocks
// on client I/O and returns immediately when nobody is connected.
func (h *Hub) Broadcast(event string, data any) {
	message, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		slog.Error("Failed to encode broadcast message", "event", event, "error", err)
		return
	}
	h.commands <- broadcastCommand{message: message}
}

// Register adds an upgraded connection to the client set and returns its
// id. The connection is closed immediately when the hub is full.
func (h *Hub) Register(connection *websocket.Conn) string {
	reply := make(chan string, 1)
	h.commands <- registerCommand{connection: connection, reply: reply}
	return <-reply
}

// Unregister removes a client and closes its connection. Unknown ids are
// ignored.
func (h *Hub) Unregister(clientID string) {
	h.commands <- unregisterCommand{clientID: clientID}
}

// ClientCount returns the number of currently registered clients.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	h.commands <- clientCountCommand{reply: reply}
	return <-reply
}

// Stop disconnects every client with a close frame and shuts the actor
// down. Idempotent.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		done := make(chan struct{})
		h.commands <- stopCommand{done: done}
		<-done
	})
}

func (h *Hub) run() {
	for command := range h.commands {
		switch cmd := command.(type) {
		case registerCommand:
			cmd.reply <- h.handleRegister(cmd.connection)
		case unregisterCommand:
			h.handleUnregister(cmd.clientID)
		case broadcastCommand:
			h.handleBroadcast(cmd.message)
		case clientCountCommand:
			cmd.reply <- len(h.clients)
		case stopCommand:
			h.handleStop()
			close(cmd.done)
			return
		}
	}
}

func (h *Hub) handleRegister(connection *websocket.Conn) string {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting overlay client, hub is full", "max_clients", h.maxClients)
		closeMsg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many clients")
		_ = connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = connection.Close()
		return ""
	}

	id := uuid.NewString()
	h.clients[id] = &client{
		id:     id,
		writer: newClientWriter(connection, h.clock),
	}
	metrics.BroadcasterConnectedClients.Set(float64(len(h.clients)))
	slog.Info("Overlay client connected", "client_id", id, "clients", len(h.clients))
	return id
}

func (h *Hub) handleUnregister(clientID string) {
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	c.writer.stop()
	metrics.BroadcasterConnectedClients.Set(float64(len(h.clients)))
	slog.Info("Overlay client disconnected", "client_id", clientID, "clients", len(h.clients))
}

func (h *Hub) handleBroadcast(message []byte) {
	var evicted []string
	for id, c := range h.clients {
		select {
		case c.writer.sendChannel <- message:
			metrics.BroadcasterMessagesSentTotal.Inc()
		default:
			// A full buffer means the client stopped draining; cut it
			// loose rather than stall everyone else.
			evicted = append(evicted, id)
		}
	}

	for _, id := range evicted {
		c := h.clients[id]
		delete(h.clients, id)
		c.writer.stop()
		metrics.BroadcasterSlowClientsEvicted.Inc()
		slog.Warn("Evicting slow overlay client", "client_id", id)
	}
	if len(evicted) > 0 {
		metrics.BroadcasterConnectedClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) handleStop() {
	for id, c := range h.clients {
		delete(h.clients, id)
		c.writer.stopGraceful("server shutting down")
	}
	metrics.BroadcasterConnectedClients.Set(0)
	slog.Info("Broadcast hub stopped")
}

// SetActiveOverlay designates the plugin targeted by the root redirect.
// Empty clears the designation; at most one plugin is active at a time.
func (h *Hub) SetActiveOverlay(pluginID string) {
	h.overlayMu.Lock()
	h.activeOverlay = pluginID
	h.overlayMu.Unlock()
}

// ActiveOverlay returns the designated plugin id, or empty when none.
func (h *Hub) ActiveOverlay() string {
	h.overlayMu.Lock()
	defer h.overlayMu.Unlock()
	return h.activeOverlay
}

// upgrader accepts any origin: overlays are loaded from OBS browser
// sources and local files, which send no usable Origin header.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeHTTP upgrades an overlay push connection and keeps it registered
// until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connection, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	clientID := h.Register(connection)
	if clientID == "" {
		return
	}

	// Inbound traffic is ignored; the read loop only exists to notice the
	// peer closing and to service pong frames.
	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			break
		}
	}
	h.Unregister(clientID)
}
