package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Segu-g/NicomView/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 15 * time.Second
	readLimit        = 1 << 20
)

// wsMessage is the gateway wire format: one JSON object per text message.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WebSocketProvider consumes a live comment feed over a WebSocket gateway.
// The first message after dialing is the handshake result carrying optional
// broadcast metadata; everything after is relayed as signals.
type WebSocketProvider struct {
	baseURL string
	opts    Options

	mu      sync.Mutex
	conn    *websocket.Conn
	stopped bool
	signals chan Signal
}

// NewWebSocketFactory returns a Factory dialing the given gateway base URL.
func NewWebSocketFactory(baseURL string) Factory {
	return func(opts Options) Provider {
		return &WebSocketProvider{
			baseURL: baseURL,
			opts:    opts,
			signals: make(chan Signal, 64),
		}
	}
}

func (p *WebSocketProvider) Connect(ctx context.Context) (*Metadata, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return p.failConnect(nil, fmt.Errorf("parse provider url: %w", err))
	}
	q := u.Query()
	q.Set("liveId", p.opts.LiveID)
	u.RawQuery = q.Encode()

	header := http.Header{}
	if p.opts.Cookies != "" {
		header.Set("Cookie", p.opts.Cookies)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return p.failConnect(nil, fmt.Errorf("dial comment gateway (%d): %w", resp.StatusCode, err))
		}
		return p.failConnect(nil, fmt.Errorf("dial comment gateway: %w", err))
	}
	conn.SetReadLimit(readLimit)

	// The gateway opens with a handshake frame before any events.
	var hello wsMessage
	if err := conn.ReadJSON(&hello); err != nil {
		return p.failConnect(conn, fmt.Errorf("read handshake: %w", err))
	}
	if hello.Type != "connected" {
		return p.failConnect(conn, fmt.Errorf("unexpected handshake frame %q", hello.Type))
	}

	var meta Metadata
	if len(hello.Data) > 0 {
		if err := json.Unmarshal(hello.Data, &meta); err != nil {
			slog.Warn("Ignoring malformed handshake metadata", "error", err)
			meta = Metadata{}
		}
	}

	p.mu.Lock()
	if p.stopped {
		// Disconnect landed while the dial or handshake was in flight.
		p.mu.Unlock()
		return p.failConnect(conn, errors.New("disconnected during handshake"))
	}
	p.conn = conn
	p.mu.Unlock()

	go p.readLoop(conn)

	if meta.BroadcasterName == "" {
		return nil, nil
	}
	return &meta, nil
}

// failConnect abandons a connection attempt before the read loop exists.
// The signals channel is closed here so consumers never block on a stream
// that will not start.
func (p *WebSocketProvider) failConnect(conn *websocket.Conn, err error) (*Metadata, error) {
	if conn != nil {
		_ = conn.Close()
	}
	close(p.signals)
	return nil, err
}

func (p *WebSocketProvider) Signals() <-chan Signal {
	return p.signals
}

func (p *WebSocketProvider) Disconnect() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	conn := p.conn
	p.mu.Unlock()

	// A nil conn means no dial has completed yet; the stopped flag makes
	// Connect close the connection itself once the dial finishes.
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (p *WebSocketProvider) readLoop(conn *websocket.Conn) {
	defer close(p.signals)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			p.signals <- Signal{Err: fmt.Errorf("read comment stream: %w", err)}
			return
		}

		switch msg.Type {
		case "metadata":
			var meta Metadata
			if err := json.Unmarshal(msg.Data, &meta); err != nil {
				slog.Warn("Skipping malformed metadata frame", "error", err)
				continue
			}
			p.signals <- Signal{Metadata: &meta}

		case "stateChange":
			var body struct {
				State domain.ConnectionState `json:"state"`
			}
			if err := json.Unmarshal(msg.Data, &body); err != nil {
				slog.Warn("Skipping malformed stateChange frame", "error", err)
				continue
			}
			p.signals <- Signal{State: body.State}

		case "end":
			return

		default:
			kind := domain.EventKind(msg.Type)
			if !domain.ValidEventKind(kind) {
				slog.Debug("Skipping unknown frame type", "type", msg.Type)
				continue
			}
			var payload domain.EventPayload
			if len(msg.Data) > 0 {
				if err := json.Unmarshal(msg.Data, &payload); err != nil {
					slog.Warn("Skipping malformed event payload", "kind", kind, "error", err)
					continue
				}
			}
			p.signals <- Signal{Event: &domain.Event{Kind: kind, Payload: payload}}
		}
	}
}
