package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Segu-g/NicomView/internal/domain"
)

type gatewayConn struct {
	conn *ws.Conn
}

func (g *gatewayConn) send(t *testing.T, frame string) {
	t.Helper()
	require.NoError(t, g.conn.WriteMessage(ws.TextMessage, []byte(frame)))
}

// testGateway runs a fake comment gateway that performs the handshake and
// hands the server-side connection to the test.
func testGateway(t *testing.T, handshake string) (Factory, <-chan *gatewayConn, <-chan string) {
	t.Helper()

	conns := make(chan *gatewayConn, 1)
	liveIDs := make(chan string, 1)
	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		liveIDs <- r.URL.Query().Get("liveId")
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(handshake)))
		conns <- &gatewayConn{conn: conn}
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	return NewWebSocketFactory(url), conns, liveIDs
}

func collectSignals(p Provider) <-chan []Signal {
	out := make(chan []Signal, 1)
	go func() {
		var all []Signal
		for sig := range p.Signals() {
			all = append(all, sig)
		}
		out <- all
	}()
	return out
}

func TestWebSocketProvider_HandshakeMetadata(t *testing.T) {
	factory, conns, liveIDs := testGateway(t, `{"type": "connected", "data": {"broadcasterName": "宇宙羊"}}`)

	p := factory(Options{LiveID: "lv123"})
	meta, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "宇宙羊", meta.BroadcasterName)
	assert.Equal(t, "lv123", <-liveIDs)

	(<-conns).conn.Close()
	p.Disconnect()
}

func TestWebSocketProvider_HandshakeWithoutMetadata(t *testing.T) {
	factory, conns, _ := testGateway(t, `{"type": "connected"}`)

	p := factory(Options{LiveID: "lv123"})
	meta, err := p.Connect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, meta)

	(<-conns).conn.Close()
	p.Disconnect()
}

func TestWebSocketProvider_RejectsBadHandshake(t *testing.T) {
	factory, _, _ := testGateway(t, `{"type": "whatever"}`)

	p := factory(Options{LiveID: "lv123"})
	_, err := p.Connect(context.Background())
	assert.Error(t, err)

	// The stream ends for consumers too.
	_, open := <-p.Signals()
	assert.False(t, open)
}

func TestWebSocketProvider_FailedDialClosesSignals(t *testing.T) {
	factory := NewWebSocketFactory("ws://127.0.0.1:1")

	p := factory(Options{LiveID: "lv123"})
	_, err := p.Connect(context.Background())
	require.Error(t, err)

	_, open := <-p.Signals()
	assert.False(t, open)
}

func TestWebSocketProvider_DisconnectDuringHandshakeClosesConnection(t *testing.T) {
	release := make(chan struct{})
	conns := make(chan *gatewayConn, 1)
	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		<-release
		_ = conn.WriteMessage(ws.TextMessage, []byte(`{"type": "connected"}`))
		conns <- &gatewayConn{conn: conn}
	}))
	t.Cleanup(server.Close)

	factory := NewWebSocketFactory("ws" + strings.TrimPrefix(server.URL, "http"))
	p := factory(Options{LiveID: "lv123"})

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Connect(context.Background())
		errCh <- err
	}()

	// Disconnect while the handshake frame is still withheld, then let the
	// gateway complete it.
	time.Sleep(50 * time.Millisecond)
	p.Disconnect()
	close(release)

	require.Error(t, <-errCh)

	// The gateway observes the connection die instead of staying relayed.
	gateway := <-conns
	require.NoError(t, gateway.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, readErr := gateway.conn.ReadMessage()
	assert.Error(t, readErr)

	_, open := <-p.Signals()
	assert.False(t, open)
}

func TestWebSocketProvider_RelaysEvents(t *testing.T) {
	factory, conns, _ := testGateway(t, `{"type": "connected"}`)

	p := factory(Options{LiveID: "lv123"})
	_, err := p.Connect(context.Background())
	require.NoError(t, err)

	gateway := <-conns
	done := collectSignals(p)

	gateway.send(t, `{"type": "comment", "data": {"content": "やあ", "name": "太郎"}}`)
	gateway.send(t, `{"type": "unknownKind", "data": {}}`)
	gateway.send(t, `{"type": "gift", "data": {"userName": "花子", "itemName": "花束"}}`)
	gateway.send(t, `{"type": "metadata", "data": {"broadcasterName": "後追い"}}`)
	gateway.send(t, `{"type": "end"}`)

	select {
	case signals := <-done:
		// The unknown frame type was skipped.
		require.Len(t, signals, 3)
		require.NotNil(t, signals[0].Event)
		assert.Equal(t, domain.KindComment, signals[0].Event.Kind)
		assert.Equal(t, "やあ", signals[0].Event.Payload.Content)
		assert.Equal(t, domain.KindGift, signals[1].Event.Kind)
		require.NotNil(t, signals[2].Metadata)
		assert.Equal(t, "後追い", signals[2].Metadata.BroadcasterName)
	case <-time.After(2 * time.Second):
		t.Fatal("signals channel did not close")
	}
}

func TestWebSocketProvider_AbruptCloseYieldsError(t *testing.T) {
	factory, conns, _ := testGateway(t, `{"type": "connected"}`)

	p := factory(Options{LiveID: "lv123"})
	_, err := p.Connect(context.Background())
	require.NoError(t, err)

	done := collectSignals(p)
	require.NoError(t, (<-conns).conn.Close())

	select {
	case signals := <-done:
		require.Len(t, signals, 1)
		assert.Error(t, signals[0].Err)
	case <-time.After(2 * time.Second):
		t.Fatal("signals channel did not close")
	}
}

func TestWebSocketProvider_DisconnectEndsStream(t *testing.T) {
	factory, conns, _ := testGateway(t, `{"type": "connected"}`)

	p := factory(Options{LiveID: "lv123"})
	_, err := p.Connect(context.Background())
	require.NoError(t, err)

	done := collectSignals(p)
	gateway := <-conns

	// Echo the close handshake like a real gateway would.
	go func() {
		for {
			if _, _, err := gateway.conn.ReadMessage(); err != nil {
				closeMsg := ws.FormatCloseMessage(ws.CloseNormalClosure, "")
				_ = gateway.conn.WriteMessage(ws.CloseMessage, closeMsg)
				_ = gateway.conn.Close()
				return
			}
		}
	}()

	p.Disconnect()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("signals channel did not close")
	}
}

func TestWebSocketProvider_MetadataSignalOrderPreserved(t *testing.T) {
	factory, conns, _ := testGateway(t, `{"type": "connected"}`)

	p := factory(Options{LiveID: "lv123"})
	_, err := p.Connect(context.Background())
	require.NoError(t, err)

	gateway := <-conns
	done := collectSignals(p)

	gateway.send(t, `{"type": "stateChange", "data": {"state": "connected"}}`)
	gateway.send(t, `{"type": "comment", "data": {"content": "one"}}`)
	gateway.send(t, `{"type": "end"}`)

	signals := <-done
	require.Len(t, signals, 2)
	assert.Equal(t, domain.StateConnected, signals[0].State)
	require.NotNil(t, signals[1].Event)
}
