package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"redraw/internal/config"
	"redraw/internal/engine"
	"redraw/internal/net"
	"redraw/internal/state"
)

type fakeTransport struct {
	board  string
	events chan net.Event

	mu        sync.Mutex
	connected bool
	closed    bool
	sent      []net.Message
}

func (f *fakeTransport) Send(m net.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return net.ErrNotConnected
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeTransport) Events() <-chan net.Event { return f.events }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeTransport) deliver(ev net.Event) {
	if ev.Kind == net.Connected {
		f.mu.Lock()
		f.connected = true
		f.mu.Unlock()
	}
	f.events <- ev
}

func (f *fakeTransport) frames(typ net.Type) []net.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []net.Message
	for _, m := range f.sent {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

type harness struct {
	t     *testing.T
	s     *Session
	mu    sync.Mutex
	dials []*fakeTransport
}

func newHarness(t *testing.T, opts ...func(*config.Config)) *harness {
	t.Helper()
	h := &harness{t: t}
	cfg := config.Default()
	cfg.Debounce = config.Duration{Duration: 20 * time.Millisecond}
	cfg.CursorInterval = config.Duration{Duration: time.Hour}
	cfg.Name = "Tester"
	for _, o := range opts {
		o(&cfg)
	}

	dial := func(_ context.Context, _ string, board string) (Transport, error) {
		f := &fakeTransport{board: board, events: make(chan net.Event, 16)}
		h.mu.Lock()
		h.dials = append(h.dials, f)
		h.mu.Unlock()
		return f, nil
	}
	s, err := Open(context.Background(), cfg, "b1", WithDialer(dial))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	h.s = s
	return h
}

func (h *harness) transport(i int) *fakeTransport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dials[i]
}

// eventually polls cond on the executor until it holds.
func (h *harness) eventually(what string, cond func(*engine.Engine) bool) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ok := false
		h.s.Do(func(e *engine.Engine) { ok = cond(e) })
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.t.Fatalf("timed out waiting for %s", what)
}

func received(m net.Message) net.Event {
	return net.Event{Kind: net.Received, Message: m}
}

func rect(id string) state.Element {
	return state.Element{ID: id, Tool: state.ToolRectangle, Width: 10, Height: 10}
}

func TestInboundAppliedInOrder(t *testing.T) {
	h := newHarness(t)
	tr := h.transport(0)
	if tr.board != "b1" {
		t.Fatalf("dialed board %q", tr.board)
	}

	tr.deliver(net.Event{Kind: net.Connected})
	tr.deliver(received(net.Init("me", state.Snapshot{Elements: []state.Element{rect("a")}})))
	tr.deliver(received(net.ElementMessage(rect("b"))))
	tr.deliver(received(net.Delete([]string{"a"})))
	tr.deliver(received(net.Message{Type: net.TypeCursor, ClientID: "peer", Point: state.Point{X: 3, Y: 4}}))
	tr.deliver(received(net.Message{Type: net.TypeCursor, ClientID: "me", Point: state.Point{X: 1, Y: 1}}))
	tr.deliver(received(net.Message{Type: "presence"}))

	h.eventually("cursor", func(e *engine.Engine) bool { return len(e.Cursors()) == 1 })
	h.s.Do(func(e *engine.Engine) {
		var ids []string
		e.Scene().Each(func(el state.Element) { ids = append(ids, el.ID) })
		if diff := cmp.Diff([]string{"b"}, ids); diff != "" {
			t.Errorf("scene (-want +got):\n%s", diff)
		}
		if e.ClientID() != "me" {
			t.Errorf("client id = %q", e.ClientID())
		}
		if e.CanUndo() {
			t.Error("remote frames created undo steps")
		}
	})
}

func TestOutboundPolicy(t *testing.T) {
	h := newHarness(t)
	tr := h.transport(0)
	tr.deliver(net.Event{Kind: net.Connected})
	tr.deliver(received(net.Init("me", state.Snapshot{})))
	h.eventually("init", func(e *engine.Engine) bool { return e.ClientID() == "me" })

	h.s.Do(func(e *engine.Engine) {
		e.SetTool(state.ToolRectangle)
		e.PointerDown(state.Point{X: 0, Y: 0})
		for i := 1; i <= 10; i++ {
			e.PointerMove(state.Point{X: float64(i * 10), Y: float64(i * 10)})
		}
		e.PointerUp(state.Point{X: 100, Y: 100})
		e.Undo()
		e.Redo()
	})

	if n := len(tr.frames(net.TypeElement)); n != 1 {
		t.Fatalf("element frames = %d, want 1", n)
	}
	cursors := tr.frames(net.TypeCursor)
	if len(cursors) != 1 || cursors[0].Label != "Tester" {
		t.Fatalf("cursor frames = %+v", cursors)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(tr.frames(net.TypeStateSync)) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)
	syncs := tr.frames(net.TypeStateSync)
	if len(syncs) != 1 {
		t.Fatalf("state_sync frames = %d, want 1 coalesced", len(syncs))
	}
	if syncs[0].BoardID != "b1" || len(syncs[0].State.Elements) != 1 {
		t.Fatalf("state_sync = %+v", syncs[0])
	}
}

func debounce(d time.Duration) func(*config.Config) {
	return func(c *config.Config) { c.Debounce = config.Duration{Duration: d} }
}

// waitFrames waits until at least n frames of typ were sent.
func waitFrames(t *testing.T, tr *fakeTransport, typ net.Type, n int) []net.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := tr.frames(typ); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %s frames", n, typ)
	return nil
}

func TestDebouncedSyncCarriesPeerChanges(t *testing.T) {
	h := newHarness(t, debounce(150*time.Millisecond))
	tr := h.transport(0)
	tr.deliver(net.Event{Kind: net.Connected})
	tr.deliver(received(net.Init("me", state.Snapshot{})))
	h.eventually("init", func(e *engine.Engine) bool { return e.ClientID() == "me" })

	h.s.Do(func(e *engine.Engine) {
		e.SetTool(state.ToolRectangle)
		e.PointerDown(state.Point{X: 0, Y: 0})
		e.PointerUp(state.Point{X: 50, Y: 50})
	})
	// The peer's element lands inside the debounce window.
	tr.deliver(received(net.ElementMessage(rect("peer"))))
	h.eventually("peer element", func(e *engine.Engine) bool { return e.Scene().Has("peer") })

	syncs := waitFrames(t, tr, net.TypeStateSync, 1)
	last := syncs[len(syncs)-1]
	if len(last.State.Elements) != 2 {
		t.Fatalf("state_sync carries %d elements, want 2", len(last.State.Elements))
	}
	if last.State.Elements[1].ID != "peer" {
		t.Fatalf("state_sync lost the peer element: %+v", last.State.Elements)
	}
}

func TestRemoteSnapshotCancelsPendingSync(t *testing.T) {
	h := newHarness(t, debounce(100*time.Millisecond))
	tr := h.transport(0)
	tr.deliver(net.Event{Kind: net.Connected})
	tr.deliver(received(net.Init("me", state.Snapshot{})))
	h.eventually("init", func(e *engine.Engine) bool { return e.ClientID() == "me" })

	h.s.Do(func(e *engine.Engine) {
		e.SetTool(state.ToolRectangle)
		e.PointerDown(state.Point{X: 0, Y: 0})
		e.PointerUp(state.Point{X: 50, Y: 50})
	})
	tr.deliver(received(net.StateSync("b1", state.Snapshot{Elements: []state.Element{rect("peer")}})))
	h.eventually("snapshot", func(e *engine.Engine) bool { return e.Scene().Has("peer") })

	time.Sleep(250 * time.Millisecond)
	if n := len(tr.frames(net.TypeStateSync)); n != 0 {
		t.Fatalf("%d state_sync frames sent after the scene was replaced", n)
	}
}

func TestSendBeforeConnectIsDropped(t *testing.T) {
	h := newHarness(t)
	h.s.Do(func(e *engine.Engine) {
		e.SetTool(state.ToolRectangle)
		e.PointerDown(state.Point{})
		e.PointerUp(state.Point{X: 50, Y: 50})
	})
	if n := len(h.transport(0).frames(net.TypeElement)); n != 0 {
		t.Fatalf("%d frames queued while disconnected", n)
	}
}

func TestSwitchDiscardsBoardState(t *testing.T) {
	h := newHarness(t)
	tr := h.transport(0)
	tr.deliver(net.Event{Kind: net.Connected})
	tr.deliver(received(net.Init("me", state.Snapshot{Elements: []state.Element{rect("a")}})))
	tr.deliver(received(net.Message{Type: net.TypeCursor, ClientID: "peer"}))
	h.eventually("cursor", func(e *engine.Engine) bool { return len(e.Cursors()) == 1 })

	var switched *engine.Engine
	h.s.OnSwitch(func(e *engine.Engine) { switched = e })
	if err := h.s.Switch("b2"); err != nil {
		t.Fatal(err)
	}

	if !tr.closed {
		t.Fatal("old connection left open")
	}
	if got := h.transport(1).board; got != "b2" {
		t.Fatalf("dialed %q", got)
	}
	h.s.Do(func(e *engine.Engine) {
		if e != switched {
			t.Error("OnSwitch not given the new engine")
		}
		if e.Scene().Len() != 0 || len(e.Cursors()) != 0 || e.CanUndo() {
			t.Error("state leaked across boards")
		}
	})
	if h.s.Board() != "b2" {
		t.Fatalf("board = %q", h.s.Board())
	}
}
