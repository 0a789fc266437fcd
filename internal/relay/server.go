// Package relay is a small development relay: it fans board frames out to
// every connected client, remembers the last state of each board for late
// joiners, and serves the board directory.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxFrame   = 8 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Option func(*Server)

// WithBackplane shares board traffic with other relay instances.
func WithBackplane(bp Backplane) Option { return func(s *Server) { s.backplane = bp } }

// WithOrigin sets the CORS origin for the directory API.
func WithOrigin(origin string) Option { return func(s *Server) { s.origin = origin } }

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

type Server struct {
	ctx       context.Context
	origin    string
	backplane Backplane
	dir       *Directory
	log       *slog.Logger

	mu   sync.Mutex
	hubs map[string]*Hub

	router *mux.Router
}

// New returns a relay whose hubs live until ctx is cancelled.
func New(ctx context.Context, opts ...Option) *Server {
	s := &Server{
		ctx:    ctx,
		origin: "*",
		dir:    NewDirectory(),
		log:    slog.New(slog.DiscardHandler),
		hubs:   make(map[string]*Hub),
	}
	for _, o := range opts {
		o(s)
	}

	r := mux.NewRouter()
	r.Handle("/health", healthController{})
	r.HandleFunc("/ws", s.serveWS)
	r.HandleFunc("/boards", s.listBoards).Methods(http.MethodGet)
	r.HandleFunc("/boards", s.createBoard).Methods(http.MethodPost)
	r.HandleFunc("/boards", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodOptions)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.setCors(s.router)
}

func (s *Server) Directory() *Directory {
	return s.dir
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	s.log.Info("relay listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

func (s *Server) setCors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
		w.Header().Set("Access-Control-Max-Age", "86400")
		h.ServeHTTP(w, r)
	})
}

// hub returns the hub for a board, creating it on first use.
func (s *Server) hub(id string) *Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hubs[id]
	if !ok {
		s.log.Info("creating hub", "board", id)
		h = newHub(s.ctx, id, s.backplane, s.dir.Touch, s.log)
		s.hubs[id] = h
	}
	return h
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	board := r.URL.Query().Get("boardId")
	if board == "" {
		http.Error(w, "missing boardId", http.StatusBadRequest)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	h := s.hub(board)
	s.dir.Touch(board)
	c := newClient()
	select {
	case h.join <- c:
	case <-s.ctx.Done():
		ws.Close()
		return
	}

	go s.writeLoop(ws, c)
	s.readLoop(ws, h, c)
}

func (s *Server) readLoop(ws *websocket.Conn, h *Hub, c *client) {
	defer func() {
		select {
		case h.leave <- c:
		case <-s.ctx.Done():
		}
		ws.Close()
	}()

	ws.SetReadLimit(maxFrame)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read error", "client", c.id, "err", err)
			}
			return
		}
		select {
		case h.incoming <- inbound{from: c, data: data}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) writeLoop(ws *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.Warn("websocket write error", "client", c.id, "err", err)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) listBoards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"boards": s.dir.List()})
}

func (s *Server) createBoard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"board": s.dir.Create(req.Title)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type healthController struct{}

func (healthController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Healthy\n")
}
