package api

import (
	"encoding/json"
	"net/http"

	"github.com/Taboulet/BiggerTask/config"
	"github.com/Taboulet/BiggerTask/util/log"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "running",
		"name":    config.AppName,
		"version": config.AppVersion,
	})
}

// handleStatus reports what the recorder is doing and how big the log is.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"recording": s.controls.Recording(),
		"playing":   s.controls.Playing(),
		"events":    s.controls.EventCount(),
	})
}

// handleRecord toggles capture: starts a session when idle, stops the active
// one otherwise.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var status string
	if s.controls.Recording() {
		status = s.controls.StopCapture()
	} else {
		status = s.controls.StartCapture()
	}
	writeJSON(w, map[string]string{"status": status})
}

// handlePlay starts playback. The optional JSON body carries speed and loops;
// both default to a single run at recorded speed.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := struct {
		Speed float64 `json:"speed"`
		Loops int     `json:"loops"`
	}{Speed: 1.0, Loops: 1}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	status := s.controls.StartPlayback(req.Speed, req.Loops)
	writeJSON(w, map[string]string{"status": status})
}

// handleStop stops whatever is running: an active capture, then an active
// playback.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var status string
	switch {
	case s.controls.Recording():
		status = s.controls.StopCapture()
	case s.controls.Playing():
		status = s.controls.StopPlayback()
	default:
		status = "Nothing to stop"
	}
	writeJSON(w, map[string]string{"status": status})
}

// handleWebSocket upgrades the connection and keeps it registered for status
// broadcasts until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	for {
		// Clients only send keepalives; any read error means they left.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
