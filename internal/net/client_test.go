package net

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"redraw/internal/state"
)

// relayStub accepts connections, sends an init frame and forwards every
// received frame to got.
func relayStub(t *testing.T, got chan<- string, boards chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boards <- r.URL.Query().Get("boardId")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		init, _ := Encode(Init("c-1", state.Snapshot{}))
		conn.WriteMessage(websocket.TextMessage, []byte("garbage"))
		conn.WriteMessage(websocket.TextMessage, init)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			got <- string(data)
		}
	}))
}

func next(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestClientRoundTrip(t *testing.T) {
	got := make(chan string, 4)
	boards := make(chan string, 4)
	srv := relayStub(t, got, boards)
	defer srv.Close()

	c, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", "board-7")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if ev := next(t, c); ev.Kind != Connected {
		t.Fatalf("first event = %v", ev.Kind)
	}
	if b := <-boards; b != "board-7" {
		t.Fatalf("boardId = %q", b)
	}
	ev := next(t, c)
	if ev.Kind != Received || ev.Message.Type != TypeInit || ev.Message.ClientID != "c-1" {
		t.Fatalf("event = %+v", ev)
	}

	if err := c.Send(Clear()); err != nil {
		t.Fatal(err)
	}
	select {
	case frame := <-got:
		if frame != `{"type":"clear"}` {
			t.Fatalf("relay got %s", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}
}

func TestClientDropsWhileDisconnected(t *testing.T) {
	c, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", "b")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Send(Clear()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send err = %v, want ErrNotConnected", err)
	}
}

func TestBoardURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ws://localhost:8080/ws", "ws://localhost:8080/ws?boardId=abc"},
		{"http://example.com/ws?x=1", "ws://example.com/ws?boardId=abc&x=1"},
		{"https://example.com/ws", "wss://example.com/ws?boardId=abc"},
	}
	for _, tt := range tests {
		got, err := BoardURL(tt.in, "abc")
		if err != nil {
			t.Fatalf("BoardURL(%s): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("BoardURL(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := BoardURL("ftp://x", "abc"); err == nil {
		t.Error("ftp scheme accepted")
	}
}
