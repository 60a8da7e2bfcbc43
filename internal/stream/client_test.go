package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockWSServer is a minimal WebSocket endpoint for exercising the client.
type mockWSServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	conns    chan *websocket.Conn
	accepted atomic.Int64
}

func newMockWSServer(t *testing.T, handle func(conn *websocket.Conn)) *mockWSServer {
	t.Helper()

	m := &mockWSServer{
		conns: make(chan *websocket.Conn, 8),
	}
	m.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := m.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade failed: %v", err)
			return
		}
		m.accepted.Add(1)
		m.conns <- conn
		if handle != nil {
			handle(conn)
		}
	}))
	t.Cleanup(m.srv.Close)
	return m
}

// wsURL converts the httptest http:// URL into a ws:// one.
func (m *mockWSServer) wsURL() string {
	return "ws" + strings.TrimPrefix(m.srv.URL, "http")
}

func TestClientConnectAndReceive(t *testing.T) {
	srv := newMockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"world"}`))
		// Keep the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := NewClient(ClientConfig{URL: srv.wsURL()}, testLogger(t))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if !c.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}

	select {
	case msg := <-c.Messages():
		if string(msg.Data) != `{"hello":"world"}` {
			t.Errorf("message = %q, want %q", msg.Data, `{"hello":"world"}`)
		}
		if msg.ReceivedAt.IsZero() {
			t.Error("ReceivedAt is zero")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestClientConnectBadURL(t *testing.T) {
	c := NewClient(ClientConfig{URL: "ws://127.0.0.1:1/stream"}, testLogger(t))
	if err := c.Connect(context.Background()); err == nil {
		t.Error("Connect() to closed port succeeded, want error")
	}
}

func TestClientCloseStopsDelivery(t *testing.T) {
	srv := newMockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := NewClient(ClientConfig{URL: srv.wsURL()}, testLogger(t))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := c.Close(); err != ErrAlreadyClosed {
		t.Errorf("second Close() error = %v, want ErrAlreadyClosed", err)
	}
}

func TestClientReportsServerDisconnect(t *testing.T) {
	srv := newMockWSServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})

	c := NewClient(ClientConfig{URL: srv.wsURL()}, testLogger(t))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	select {
	case err := <-c.Errors():
		if err == nil {
			t.Error("Errors() delivered nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect error")
	}
}

func TestClientRespondsToServerPing(t *testing.T) {
	gotPong := make(chan struct{}, 1)
	srv := newMockWSServer(t, func(conn *websocket.Conn) {
		conn.SetPongHandler(func(string) error {
			select {
			case gotPong <- struct{}{}:
			default:
			}
			return nil
		})
		conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := NewClient(ClientConfig{URL: srv.wsURL()}, testLogger(t))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	select {
	case <-gotPong:
	case <-time.After(2 * time.Second):
		t.Fatal("server never received a pong")
	}
}
