// Package session binds one board's engine to a relay connection. It owns
// the outbound policy (immediate element frames, debounced full-state sync,
// throttled cursors) and applies inbound frames in arrival order through a
// single executor.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"redraw/internal/config"
	"redraw/internal/engine"
	"redraw/internal/net"
	"redraw/internal/state"
)

// Transport is a connection to a relay for one board.
type Transport interface {
	Send(m net.Message) error
	Events() <-chan net.Event
	Close() error
}

// Dialer opens a Transport for a board.
type Dialer func(ctx context.Context, relay, boardID string) (Transport, error)

// Executor runs fn on the goroutine that owns the engine. Calls must run in
// the order they are made.
type Executor func(fn func())

// SyncExecutor runs functions inline under a mutex. It suits headless use
// where there is no UI thread.
func SyncExecutor() Executor {
	var mu sync.Mutex
	return func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
}

func dialRelay(ctx context.Context, relay, boardID string) (Transport, error) {
	c, err := net.Dial(ctx, relay, boardID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type Option func(*Session)

func WithDialer(d Dialer) Option     { return func(s *Session) { s.dial = d } }
func WithExecutor(e Executor) Option { return func(s *Session) { s.exec = e } }
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

type Session struct {
	ctx  context.Context
	cfg  config.Config
	dial Dialer
	exec Executor
	log  *slog.Logger

	mu       sync.Mutex
	board    string
	eng      *engine.Engine
	conn     Transport
	out      *outbox
	onSwitch []func(*engine.Engine)
	onStatus []func(connected bool)
}

// Open creates an engine for boardID and starts connecting to the relay in
// cfg.
func Open(ctx context.Context, cfg config.Config, boardID string, opts ...Option) (*Session, error) {
	s := &Session{
		ctx:  ctx,
		cfg:  cfg,
		dial: dialRelay,
		exec: SyncExecutor(),
		log:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.connect(boardID); err != nil {
		return nil, err
	}
	return s, nil
}

// Engine returns the engine of the current board. It must only be used from
// the executor.
func (s *Session) Engine() *engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng
}

func (s *Session) Board() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// Do runs fn on the executor.
func (s *Session) Do(fn func(*engine.Engine)) {
	s.exec(func() { fn(s.Engine()) })
}

// OnSwitch registers fn to be called with the new engine whenever the board
// changes.
func (s *Session) OnSwitch(fn func(*engine.Engine)) {
	s.mu.Lock()
	s.onSwitch = append(s.onSwitch, fn)
	s.mu.Unlock()
}

// OnStatus registers fn to be called on the executor whenever the relay
// connection opens or drops.
func (s *Session) OnStatus(fn func(connected bool)) {
	s.mu.Lock()
	s.onStatus = append(s.onStatus, fn)
	s.mu.Unlock()
}

func (s *Session) status(connected bool) {
	s.mu.Lock()
	fns := append([]func(bool){}, s.onStatus...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(connected)
	}
}

// Switch leaves the current board and joins boardID with a fresh engine.
// Nothing from the previous board (scene, history, cursors) carries over.
func (s *Session) Switch(boardID string) error {
	if boardID == "" {
		return errors.New("empty board id")
	}
	if boardID == s.Board() {
		return nil
	}
	s.disconnect()
	if err := s.connect(boardID); err != nil {
		return err
	}

	s.mu.Lock()
	eng, listeners := s.eng, append([]func(*engine.Engine){}, s.onSwitch...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(eng)
	}
	return nil
}

func (s *Session) Close() error {
	s.disconnect()
	return nil
}

func (s *Session) connect(boardID string) error {
	conn, err := s.dial(s.ctx, s.cfg.RelayURL, boardID)
	if err != nil {
		return fmt.Errorf("join board %s: %w", boardID, err)
	}
	log := s.log.With("board", boardID)
	out := newOutbox(boardID, conn, s.cfg, log)
	eng := engine.New(out, log)
	out.exec = s.exec
	out.current = func() (state.Snapshot, bool) {
		if s.Engine() != eng {
			return state.Snapshot{}, false
		}
		return eng.Snapshot(), true
	}

	s.mu.Lock()
	s.board, s.eng, s.conn, s.out = boardID, eng, conn, out
	s.mu.Unlock()

	go s.pump(eng, conn)
	log.Info("joined board", "relay", s.cfg.RelayURL)
	return nil
}

func (s *Session) disconnect() {
	s.mu.Lock()
	conn, out := s.conn, s.out
	s.conn, s.out = nil, nil
	s.mu.Unlock()
	if out != nil {
		out.stop()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			s.log.Warn("closing relay connection", "err", err)
		}
	}
}

// pump hands transport events to the executor one at a time.
func (s *Session) pump(eng *engine.Engine, conn Transport) {
	for ev := range conn.Events() {
		s.exec(func() {
			if s.Engine() != eng {
				return
			}
			s.dispatch(eng, ev)
		})
	}
}

func (s *Session) dispatch(eng *engine.Engine, ev net.Event) {
	switch ev.Kind {
	case net.Connected:
		eng.ResetConnection()
		s.status(true)
		return
	case net.Disconnected:
		s.log.Info("relay connection lost", "err", ev.Err)
		s.status(false)
		return
	}

	m := ev.Message
	switch m.Type {
	case net.TypeInit:
		eng.ApplySnapshot(m.State, m.ClientID)
	case net.TypeStateSync:
		eng.ApplySnapshot(m.State, "")
	case net.TypeCursor:
		eng.ApplyCursor(m.ClientID, m.Point, m.Label)
	case net.TypeCursorLeave:
		eng.ApplyCursorLeave(m.ClientID)
	case net.TypeClear:
		eng.ApplyClear()
	case net.TypeDelete:
		eng.ApplyDelete(m.IDs)
	case net.TypeElement:
		eng.ApplyElement(m.Element)
	default:
		s.log.Debug("ignoring frame", "type", m.Type)
	}
}

// outbox implements engine.Outbox for one board connection.
type outbox struct {
	board    string
	name     string
	conn     Transport
	debounce *net.Debouncer
	throttle *net.Throttle
	log      *slog.Logger

	// exec and current read the engine's scene on its own goroutine when
	// the debounced broadcast fires. current reports false once the engine
	// has been replaced by a board switch.
	exec    Executor
	current func() (state.Snapshot, bool)
}

func newOutbox(board string, conn Transport, cfg config.Config, log *slog.Logger) *outbox {
	return &outbox{
		board:    board,
		name:     cfg.Name,
		conn:     conn,
		debounce: net.NewDebouncer(cfg.Debounce.Duration),
		throttle: net.NewThrottle(cfg.CursorInterval.Duration),
		log:      log,
	}
}

func (o *outbox) send(m net.Message) {
	err := o.conn.Send(m)
	switch {
	case err == nil:
	case errors.Is(err, net.ErrNotConnected):
		o.log.Debug("frame dropped", "type", m.Type, "err", err)
	default:
		o.log.Warn("send failed", "type", m.Type, "err", err)
	}
}

func (o *outbox) SendElement(e state.Element) { o.send(net.ElementMessage(e)) }
func (o *outbox) SendDelete(ids []string)     { o.send(net.Delete(ids)) }
func (o *outbox) SendClear()                  { o.send(net.Clear()) }

func (o *outbox) SendCursor(p state.Point) {
	if o.throttle.Allow() {
		m := net.Cursor(p)
		m.Label = o.name
		o.send(m)
	}
}

// ScheduleSync (re)starts the debounce window. The broadcast carries the
// scene as it is when the window closes, peer changes applied meanwhile
// included.
func (o *outbox) ScheduleSync() {
	o.debounce.Schedule(func() {
		o.exec(func() {
			snap, ok := o.current()
			if !ok {
				return
			}
			o.send(net.StateSync(o.board, snap))
		})
	})
}

func (o *outbox) CancelSync() {
	o.debounce.Stop()
}

func (o *outbox) stop() {
	o.debounce.Stop()
}
