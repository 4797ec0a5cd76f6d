// Package server is the WebSocket gateway onto the lottery engine: clients
// authenticate into a chat, issue game commands, and receive the engine's
// broadcast events for that chat.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/elimdraw/internal/lottery"
)

// Server accepts WebSocket clients and fans engine events out to every
// connection bound to the event's chat.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
	engine      *lottery.Engine
	gate        *lottery.RaidGate
}

// NewServer creates the gateway. The engine's notifier is wired here so
// every game event reaches the right chat's connections.
func NewServer(addr string, logger *log.Logger, engine *lottery.Engine, gate *lottery.RaidGate) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		engine:      engine,
		gate:        gate,
	}
	engine.SetNotifier(s.BroadcastEvent)
	return s
}

// Start runs the listener until Stop is called. It returns
// http.ErrServerClosed on a clean shutdown.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the WebSocket server and drops every connection.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// BroadcastEvent delivers an engine event to every connection in its chat.
// Called from inside the engine's lock; it must never call back into the
// engine, and Send never blocks.
func (s *Server) BroadcastEvent(evt lottery.Event) {
	msg, err := NewResponse(ResponseEvent, evt)
	if err != nil {
		s.logger.Error("Failed to encode event", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.ChatID() == evt.ChatID {
			if err := conn.Send(msg); err != nil {
				s.logger.Error("Failed to send event", "error", err, "user", conn.UserID())
			} else {
				count++
			}
		}
	}
	s.logger.Debug("Broadcast event", "chat", evt.ChatID, "type", evt.Type, "recipients", count)
}

// ConnectedUsers returns the authenticated user IDs currently connected.
func (s *Server) ConnectedUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []string
	for conn := range s.connections {
		if id := conn.UserID(); id != "" {
			users = append(users, id)
		}
	}
	return users
}
