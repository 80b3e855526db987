// Package api exposes a loopback REST/WebSocket server so scripts and other
// local tooling can drive the recorder without the window.
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Taboulet/BiggerTask/util/log"
)

// DefaultAddr is the loopback address the control server binds to.
const DefaultAddr = "127.0.0.1:49471"

// Controls is the slice of the macro controller the server drives. Every
// method returns a display status string; the server relays it verbatim.
type Controls interface {
	StartCapture() string
	StopCapture() string
	StartPlayback(speed float64, loops int) string
	StopPlayback() string
	Recording() bool
	Playing() bool
	EventCount() int
}

// Server is the local REST/WebSocket control server.
type Server struct {
	controls   Controls
	httpServer *http.Server
	mux        *http.ServeMux
	upgrader   websocket.Upgrader

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
}

// NewServer creates a control server over the given controls.
func NewServer(controls Controls) *Server {
	s := &Server{
		controls: controls,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Loopback only; the listener never leaves 127.0.0.1.
				return true
			},
		},
		clients: make(map[*websocket.Conn]bool),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/record", s.handleRecord)
	s.mux.HandleFunc("/play", s.handlePlay)
	s.mux.HandleFunc("/stop", s.handleStop)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start binds the loopback listener and serves until Stop. Blocking.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    DefaultAddr,
		Handler: s.mux,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

// BroadcastStatus pushes a status line to every connected WebSocket client.
// Wired as a controller status listener.
func (s *Server) BroadcastStatus(status string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	msg := map[string]string{
		"type":    "status",
		"message": status,
	}
	for client := range s.clients {
		if err := client.WriteJSON(msg); err != nil {
			log.Printf("failed to broadcast to client: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}
