package relay

import (
	"context"
	"log/slog"

	"github.com/segmentio/ksuid"

	"redraw/internal/net"
	"redraw/internal/state"
)

const clientQueueSize = 256

type client struct {
	id   string
	send chan []byte
}

func newClient() *client {
	return &client{id: ksuid.New().String(), send: make(chan []byte, clientQueueSize)}
}

type inbound struct {
	from *client
	data []byte
}

// Hub relays frames between the clients of one board and keeps the board's
// last known state so late joiners start from it. A single goroutine owns
// the client set and the scene.
type Hub struct {
	id string

	join     chan *client
	leave    chan *client
	incoming chan inbound
	remote   <-chan []byte
	query    chan chan state.Snapshot

	clients map[*client]bool
	dropped []*client
	scene   *state.Scene

	backplane Backplane
	touch     func(string)
	log       *slog.Logger
}

func newHub(ctx context.Context, id string, bp Backplane, touch func(string), log *slog.Logger) *Hub {
	h := &Hub{
		id:        id,
		join:      make(chan *client),
		leave:     make(chan *client),
		incoming:  make(chan inbound, 64),
		query:     make(chan chan state.Snapshot),
		clients:   make(map[*client]bool),
		scene:     state.NewScene(),
		backplane: bp,
		touch:     touch,
		log:       log.With("board", id),
	}
	if bp != nil {
		ch, err := bp.Subscribe(ctx, id)
		if err != nil {
			h.log.Warn("backplane subscribe failed, serving locally", "err", err)
		} else {
			h.remote = ch
		}
	}
	go h.listen(ctx)
	return h
}

// Snapshot returns the board state as the hub currently sees it.
func (h *Hub) Snapshot() state.Snapshot {
	reply := make(chan state.Snapshot, 1)
	h.query <- reply
	return <-reply
}

func (h *Hub) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			return

		case c := <-h.join:
			h.clients[c] = true
			h.deliver(c, net.Init(c.id, h.scene.Snapshot()))
			h.log.Info("client joined", "client", c.id, "clients", len(h.clients))

		case c := <-h.leave:
			if !h.clients[c] {
				continue
			}
			delete(h.clients, c)
			close(c.send)
			h.log.Info("client left", "client", c.id, "clients", len(h.clients))
			h.relay(nil, net.CursorLeave(c.id), true)

		case in := <-h.incoming:
			if !h.clients[in.from] {
				continue
			}
			m, err := net.Decode(in.data)
			if err != nil {
				h.log.Warn("dropping frame", "client", in.from.id, "err", err)
				continue
			}
			h.handle(in.from, m)

		case frame, ok := <-h.remote:
			if !ok {
				h.remote = nil
				continue
			}
			m, err := net.Decode(frame)
			if err != nil {
				continue
			}
			if h.apply(m) {
				h.broadcast(nil, frame)
			}

		case reply := <-h.query:
			reply <- h.scene.Snapshot()
		}
		h.flushDropped()
	}
}

// flushDropped tells the remaining clients about clients that queue cut
// off. Announcing one may drop another, so it loops until none are left.
func (h *Hub) flushDropped() {
	for len(h.dropped) > 0 {
		c := h.dropped[0]
		h.dropped = h.dropped[1:]
		h.relay(nil, net.CursorLeave(c.id), true)
	}
}

func (h *Hub) handle(from *client, m net.Message) {
	switch m.Type {
	case net.TypeCursor:
		m.ClientID = from.id
		h.relay(from, m, true)
	case net.TypeStateSync, net.TypeElement, net.TypeDelete, net.TypeClear:
		h.apply(m)
		h.touch(h.id)
		h.relay(from, m, true)
	default:
		h.log.Debug("ignoring frame", "type", m.Type, "client", from.id)
	}
}

// apply folds a state-bearing frame into the board scene. It reports whether
// the frame should reach clients.
func (h *Hub) apply(m net.Message) bool {
	switch m.Type {
	case net.TypeStateSync:
		h.scene = m.State.Scene()
	case net.TypeElement:
		h.scene.Upsert(m.Element)
	case net.TypeDelete:
		h.scene.Remove(m.IDs...)
	case net.TypeClear:
		h.scene = state.NewScene()
	case net.TypeCursor, net.TypeCursorLeave:
	default:
		return false
	}
	return true
}

// relay sends m to every client but except and, when publish is set, to the
// other relay instances.
func (h *Hub) relay(except *client, m net.Message, publish bool) {
	frame, err := net.Encode(m)
	if err != nil {
		h.log.Error("encode frame", "type", m.Type, "err", err)
		return
	}
	h.broadcast(except, frame)
	if publish && h.backplane != nil {
		if err := h.backplane.Publish(context.Background(), h.id, frame); err != nil {
			h.log.Warn("backplane publish failed", "err", err)
		}
	}
}

func (h *Hub) broadcast(except *client, frame []byte) {
	for c := range h.clients {
		if c == except {
			continue
		}
		h.queue(c, frame)
	}
}

func (h *Hub) deliver(c *client, m net.Message) {
	frame, err := net.Encode(m)
	if err != nil {
		h.log.Error("encode frame", "type", m.Type, "err", err)
		return
	}
	h.queue(c, frame)
}

// queue never blocks the hub; a client that cannot keep up is dropped.
func (h *Hub) queue(c *client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.log.Warn("client too slow, disconnecting", "client", c.id)
		delete(h.clients, c)
		close(c.send)
		h.dropped = append(h.dropped, c)
	}
}
