// Package observer exposes persisted-query deltas over a websocket endpoint.
// Once per tick the owning loop hands it a TickDelta snapshot; connected
// clients receive it as JSON. The observer never touches the world itself, so
// the single-writer discipline of the core is preserved.
package observer

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lexazan/ape-ecs/internal/core/observability/log"
)

// QueryDelta is one persisted query's membership change over a tick.
type QueryDelta struct {
	Query   string   `json:"query"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// TickDelta is the per-tick broadcast payload.
type TickDelta struct {
	Tick    uint64       `json:"tick"`
	Queries []QueryDelta `json:"queries,omitempty"`
}

type Server struct {
	addr     string
	log      log.Log
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	httpSrv *http.Server
}

func NewServer(addr string, l log.Log) *Server {
	s := &Server{
		addr: addr,
		log:  l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/deltas", s.handleDeltas)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Run serves until ctx is cancelled, then shuts down and closes all clients.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()
	s.log.Info("observer listening", log.String("addr", s.addr))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		s.closeClients()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler returns the underlying HTTP handler, used by tests to serve the
// endpoint without binding the configured address.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

func (s *Server) handleDeltas(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Err(err))
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	s.log.Debug("observer client connected", log.String("remote", conn.RemoteAddr().String()))

	// Read loop only detects close; clients never send payloads.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

// Broadcast sends the delta to every connected client, dropping clients whose
// writes fail.
func (s *Server) Broadcast(delta TickDelta) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		if err := c.WriteJSON(delta); err != nil {
			s.drop(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
}
