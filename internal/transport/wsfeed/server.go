// Package wsfeed serves the event stream to the overlay frontend over a
// WebSocket and accepts the frontend's commands on the same connection.
package wsfeed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"overlayinput/internal/core/overlay"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sendQueueSize = 64
	readLimit     = 64 * 1024
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = 50 * time.Second
	shutdownWait  = 2 * time.Second
)

// FullscreenFunc reports whether the foreground window covers the screen.
type FullscreenFunc func() (bool, error)

// Server broadcasts every emitted event to all connected clients. A client
// whose queue is full misses the event; Emit never blocks. The last Ready is
// kept and sent first to clients that connect after it was emitted.
type Server struct {
	state      *overlay.SharedState
	fullscreen FullscreenFunc
	logger     overlay.Logger
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	ready   []byte
}

type client struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte
	addr   string

	closeOnce sync.Once
	done      chan struct{}
}

func NewServer(state *overlay.SharedState, fullscreen FullscreenFunc, logger overlay.Logger) (*Server, error) {
	if state == nil {
		return nil, fmt.Errorf("shared state is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if fullscreen == nil {
		fullscreen = func() (bool, error) { return false, nil }
	}
	return &Server{
		state:      state,
		fullscreen: fullscreen,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The feed listens on loopback for a local frontend.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}, nil
}

func (s *Server) Emit(ev overlay.OutputEvent) {
	data, err := overlay.MarshalEvent(ev)
	if err != nil {
		s.logger.Warn("Failed to encode event for feed", "type", ev.EventType(), "err", err)
		return
	}

	if _, ok := ev.(overlay.Ready); ok {
		// Held exclusively so a connecting client gets Ready exactly once.
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ready = data
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	for c := range s.clients {
		if !c.enqueue(data) {
			s.logger.Debug("Feed client queue full, event dropped", "client", c.addr, "type", ev.EventType())
		}
	}
}

func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Feed upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := &client{
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		addr:   r.RemoteAddr,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if s.ready != nil {
		c.send <- s.ready
	}
	s.clients[c] = struct{}{}
	total := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("Feed client connected", "client", c.addr, "clients", total)

	go c.writePump()
	go c.readPump()
}

// Serve accepts feed clients on listener until ctx is cancelled, then
// closes every client connection.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	s.logger.Info("Feed listening", "addr", listener.Addr().String())
	err := httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}

func (s *Server) closeAll() {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	total := len(s.clients)
	s.mu.Unlock()
	if ok {
		s.logger.Info("Feed client disconnected", "client", c.addr, "clients", total)
	}
}

func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) readPump() {
	defer func() {
		c.server.remove(c)
		c.close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("Feed read failed", "client", c.addr, "err", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if reply := c.server.handleCommand(message); reply != nil {
			if !c.enqueue(reply) {
				c.server.logger.Debug("Feed client queue full, reply dropped", "client", c.addr)
			}
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
