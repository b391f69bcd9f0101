package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gujian/internal/metrics"
	"gujian/internal/model"
)

// dialHub connects a real websocket client through HandleWS.
func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// rawConn returns a websocket connection that is NOT registered with
// any hub, for constructing clients by hand.
func rawConn(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := upgrader.Upgrade(w, r, nil); err != nil {
			t.Errorf("upgrade: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForClients polls until the hub has registered n clients, since
// the dial handshake returns before HandleWS finishes registration.
func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count never reached %d, have %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcast_DeliversQuotesToClient(t *testing.T) {
	h := NewHub(metrics.New())
	defer h.Close()
	conn := dialHub(t, h)
	waitForClients(t, h, 1)

	h.Broadcast([]model.Quote{{Symbol: "2330", Name: "台積電", Price: 1085}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var quotes []model.Quote
	if err := json.Unmarshal(msg, &quotes); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if len(quotes) != 1 || quotes[0].Symbol != "2330" || quotes[0].Price != 1085 {
		t.Errorf("broadcast payload mismatch: %+v", quotes)
	}
}

func TestBroadcast_EmptyBatchIsNoop(t *testing.T) {
	h := NewHub(metrics.New())
	defer h.Close()
	conn := dialHub(t, h)
	waitForClients(t, h, 1)

	h.Broadcast(nil)

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("empty batch should not produce a frame")
	}
}

func TestBroadcast_DropsSlowClient(t *testing.T) {
	h := NewHub(metrics.New())
	// Register a client by hand with a tiny buffer and no write pump,
	// the shape of a reader that has stopped draining.
	c := &wsClient{hub: h, conn: rawConn(t), send: make(chan []byte, 2)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	quotes := []model.Quote{{Symbol: "2330", Price: 1000}}
	h.Broadcast(quotes)
	h.Broadcast(quotes)
	if n := h.ClientCount(); n != 1 {
		t.Fatalf("client dropped before its buffer filled, count %d", n)
	}

	h.Broadcast(quotes)
	if n := h.ClientCount(); n != 0 {
		t.Errorf("full send buffer should disconnect the client, count %d", n)
	}

	// Removal closes the send channel behind the buffered frames.
	buffered := 0
	for range c.send {
		buffered++
	}
	if buffered != 2 {
		t.Errorf("expected 2 buffered frames before the close, got %d", buffered)
	}
}

func TestHub_CloseDisconnectsAll(t *testing.T) {
	h := NewHub(metrics.New())
	dialHub(t, h)
	dialHub(t, h)
	waitForClients(t, h, 2)

	h.Close()
	if n := h.ClientCount(); n != 0 {
		t.Errorf("expected 0 clients after close, got %d", n)
	}
}
