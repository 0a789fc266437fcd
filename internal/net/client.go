package net

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait     = 5 * time.Second
	sendQueueSize = 64
	minBackoff    = 250 * time.Millisecond
	maxBackoff    = 8 * time.Second
)

// EventKind distinguishes connection lifecycle events from frames.
type EventKind int

const (
	Connected EventKind = iota
	Disconnected
	Received
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Received:
		return "received"
	}
	return "unknown"
}

// Event is delivered on Client.Events in the order it happened.
type Event struct {
	Kind    EventKind
	Message Message
	Err     error
}

// Client keeps one websocket connection to a relay for one board, redialing
// with backoff until closed. Frames are sent only while the connection is
// open; anything sent in between is dropped.
type Client struct {
	url    string
	dialer *websocket.Dialer
	events chan Event

	mu  sync.Mutex
	out chan []byte

	cancel context.CancelFunc
	done   chan struct{}
}

// BoardURL adds the board id to a relay websocket URL.
func BoardURL(relay, boardID string) (string, error) {
	u, err := url.Parse(relay)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported relay scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("boardId", boardID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial starts connecting to the relay in the background. The returned client
// reports progress on Events until Close is called or ctx is cancelled.
func Dial(ctx context.Context, relay, boardID string) (*Client, error) {
	u, err := BoardURL(relay, boardID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Client{
		url:    u,
		dialer: websocket.DefaultDialer,
		events: make(chan Event, sendQueueSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(ctx)
	return c, nil
}

func (c *Client) Events() <-chan Event {
	return c.events
}

// Send queues a frame on the open connection.
func (c *Client) Send(m Message) error {
	data, err := Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Type, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out == nil {
		return ErrNotConnected
	}
	select {
	case c.out <- data:
		return nil
	default:
		return fmt.Errorf("send queue full: %w", ErrNotConnected)
	}
}

// Close stops the client and waits for its goroutines to exit. The events
// channel is closed afterwards.
func (c *Client) Close() error {
	c.cancel()
	<-c.done
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	backoff := minBackoff
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			Logger().Warn("relay dial failed", "url", c.url, "err", err, "retry", backoff)
		} else {
			backoff = minBackoff
			err = c.serve(ctx, conn)
			if ctx.Err() != nil {
				return
			}
			if !c.emit(ctx, Event{Kind: Disconnected, Err: err}) {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// serve runs one connection until it fails or ctx ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	out := make(chan []byte, sendQueueSize)
	c.mu.Lock()
	c.out = out
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.out = nil
		c.mu.Unlock()
		conn.Close()
	}()

	if !c.emit(ctx, Event{Kind: Connected}) {
		return ctx.Err()
	}
	Logger().Info("connected to relay", "url", c.url)

	connCtx, stop := context.WithCancel(ctx)
	defer stop()
	go c.write(connCtx, conn, out)
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		m, err := Decode(data)
		if err != nil {
			Logger().Warn("dropping inbound frame", "err", err)
			continue
		}
		if !c.emit(ctx, Event{Kind: Received, Message: m}) {
			return ctx.Err()
		}
	}
}

// write is the single writer for conn.
func (c *Client) write(ctx context.Context, conn *websocket.Conn, out <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(writeWait)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				Logger().Debug("close frame not sent", "err", err)
			}
			return
		case data := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				Logger().Warn("relay write failed", "err", err)
				conn.Close()
				return
			}
		}
	}
}

func (c *Client) emit(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
