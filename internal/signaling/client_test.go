package signaling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/selkies-project/selkies/internal/logger"
)

var testUpgrader = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}

func newEchoServer(t *testing.T) (*httptest.Server, url.URL) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()
	}))

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	u.Scheme = "ws"
	u.Path = strings.TrimSuffix(u.Path, "/")
	return srv, *u
}

func TestClientConnectAndEchoRoundTrip(t *testing.T) {
	srv, target := newEchoServer(t)
	defer srv.Close()

	c := New(logger.New(false), target, 10*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Disconnect()

	if err := c.SendResolution(1920, 1080); err != nil {
		t.Fatalf("send resolution: %v", err)
	}

	select {
	case f := <-c.Events.Frame:
		if f.Kind != KindResolution {
			t.Fatalf("expected resolution frame echoed back, got %q", f.Kind)
		}
		var payload struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		}
		if err := json.Unmarshal(f.Payload, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.Width != 1920 || payload.Height != 1080 {
			t.Errorf("got %+v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed frame")
	}
}

func TestClientExplicitDisconnectDoesNotReconnect(t *testing.T) {
	srv, target := newEchoServer(t)
	defer srv.Close()

	c := New(logger.New(false), target, 10*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	c.Disconnect()

	select {
	case ev := <-c.Events.Disconnect:
		if ev.Reconnect {
			t.Error("expected explicit disconnect to report Reconnect=false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect event")
	}
}
