// Package status exposes the transform engine state over HTTP: a JSON
// snapshot endpoint, Prometheus metrics, and a WebSocket stream
// pushing snapshots to connected frontends.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"bricklayers-go/pkg/log"
	"bricklayers-go/pkg/metrics"
)

// Source provides status snapshots in key/value form.
type Source interface {
	StatusMap() map[string]any
}

// Config holds server configuration.
type Config struct {
	// Addr is the HTTP listen address (e.g. ":7130").
	Addr string

	// PushInterval controls how often snapshots are pushed to
	// WebSocket clients. Zero means the one-second default.
	PushInterval time.Duration

	// ReadTimeout and WriteTimeout apply to the HTTP server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:         addr,
		PushInterval: time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server serves engine status over HTTP and WebSocket.
type Server struct {
	src Source
	reg *metrics.Registry
	log *log.Logger

	httpServer   *http.Server
	upgrader     websocket.Upgrader
	pushInterval time.Duration

	clientMu sync.Mutex
	clients  map[int64]*wsClient
	nextID   int64

	running atomic.Bool
}

// New creates a status server. The metrics registry may be nil, in
// which case /metrics serves an empty document.
func New(cfg Config, src Source, reg *metrics.Registry) *Server {
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = time.Second
	}
	s := &Server{
		src:          src,
		reg:          reg,
		log:          log.GetLogger("status"),
		pushInterval: cfg.PushInterval,
		clients:      make(map[int64]*wsClient),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the HTTP handler, for mounting under a host mux or
// for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	s.running.Store(true)
	s.log.Info("status server listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and closes WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.clientMu.Lock()
	for _, c := range s.clients {
		c.close()
	}
	s.clientMu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.src.StatusMap())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if s.reg != nil {
		w.Write([]byte(s.reg.Render()))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &wsClient{
		id:   atomic.AddInt64(&s.nextID, 1),
		conn: conn,
		done: make(chan struct{}),
	}

	s.clientMu.Lock()
	s.clients[c.id] = c
	s.clientMu.Unlock()
	s.log.Debug("websocket client %d connected", c.id)

	go s.writePump(c)
	go s.readPump(c)
}

func (s *Server) removeClient(c *wsClient) {
	s.clientMu.Lock()
	delete(s.clients, c.id)
	s.clientMu.Unlock()
}

// wsClient is one connected WebSocket subscriber.
type wsClient struct {
	id      int64
	conn    *websocket.Conn
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

func (c *wsClient) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.Close()
}

// readPump consumes client messages until the connection drops. The
// stream is push-only; inbound payloads are discarded.
func (s *Server) readPump(c *wsClient) {
	defer func() {
		s.removeClient(c)
		c.close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket client %d read error: %v", c.id, err)
			}
			return
		}
	}
}

// writePump pushes a status snapshot on every tick.
func (s *Server) writePump(c *wsClient) {
	ticker := time.NewTicker(s.pushInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(s.src.StatusMap()); err != nil {
				s.log.Debug("websocket client %d write error: %v", c.id, err)
				return
			}
		case <-c.done:
			return
		}
	}
}
