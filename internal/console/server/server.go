// Package server exposes the console over HTTP: a WebSocket endpoint
// that streams state snapshots and accepts operator commands, plus
// plain JSON endpoints for health, state, and call history.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	types "github.com/sebas/lineboard/api/types/v1"
	"github.com/sebas/lineboard/internal/console"
	"github.com/sebas/lineboard/internal/console/transfer"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	// The console binds to loopback; clients are local UIs.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateMessage is the server-to-client envelope.
type stateMessage struct {
	Type   types.MessageType `json:"type"`
	State  *console.Snapshot `json:"state,omitempty"`
	Notice string            `json:"notice,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Server serves the console to local UI clients.
type Server struct {
	console    *console.Console
	httpServer *http.Server
	startTime  time.Time

	mu    sync.Mutex
	conns map[*websocket.Conn]chan stateMessage
}

// NewServer creates the console server on the given address.
func NewServer(addr string, c *console.Console) *Server {
	s := &Server{
		console:   c,
		startTime: time.Now(),
		conns:     make(map[*websocket.Conn]chan stateMessage),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	slog.Info("[Server] Starting HTTP server", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("[Server] Server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[*websocket.Conn]chan stateMessage)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Broadcast pushes the current state snapshot to every connected
// client. Slow clients drop frames rather than blocking the console.
func (s *Server) Broadcast() {
	snap := s.console.State()
	msg := stateMessage{Type: types.MessageState, State: &snap}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, out := range s.conns {
		select {
		case out <- msg:
		default:
			slog.Debug("[Server] Dropped state frame", "remote", conn.RemoteAddr())
		}
	}
}

// handleHealth returns the health status of the console server
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := types.HealthResponse{
		Status: "ok",
		Uptime: int64(time.Since(s.startTime).Seconds()),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Debug("[Server] Failed to write health response", "error", err)
	}
}

// handleState returns a point-in-time snapshot as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.console.State())
}

// handleHistory returns the call history, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.console.State().History)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("[Server] Failed to write JSON response", "error", err)
	}
}

// handleWS upgrades the connection and runs one client: state frames
// and notices out, commands in.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[Server] WebSocket upgrade failed", "error", err)
		return
	}

	out := make(chan stateMessage, 16)
	s.mu.Lock()
	s.conns[conn] = out
	s.mu.Unlock()

	slog.Info("[Server] Client connected", "remote", conn.RemoteAddr())

	notices, unsubscribe := s.console.Notices().Subscribe()
	done := make(chan struct{})

	defer func() {
		unsubscribe()
		close(done)
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		slog.Info("[Server] Client disconnected", "remote", conn.RemoteAddr())
	}()

	// Writer: one goroutine owns all writes to the connection.
	go func() {
		for {
			select {
			case <-done:
				return
			case msg, ok := <-out:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case notice, ok := <-notices:
				if !ok {
					return
				}
				msg := stateMessage{Type: types.MessageNotice, Notice: notice}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}()

	// Initial snapshot so the client renders without waiting for a change.
	snap := s.console.State()
	out <- stateMessage{Type: types.MessageState, State: &snap}

	for {
		var cmd types.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("[Server] Read failed", "error", err)
			}
			return
		}
		if err := s.apply(cmd); err != nil {
			slog.Warn("[Server] Command rejected", "command", cmd.Command, "error", err)
			select {
			case out <- stateMessage{Type: types.MessageError, Error: err.Error()}:
			default:
			}
		}
	}
}

// apply routes one client command to the console.
func (s *Server) apply(cmd types.Command) error {
	switch cmd.Command {
	case "connect":
		s.console.Start()
	case "disconnect":
		s.console.Stop()
	case "focus":
		s.console.Focus(cmd.Channel)
	case "dial":
		s.console.Dial(cmd.Number)
	case "answer":
		s.console.Answer(cmd.SessionID)
	case "reject":
		s.console.Reject(cmd.SessionID)
	case "hangup":
		if cmd.SessionID != "" {
			s.console.HangUpSession(cmd.SessionID)
		} else {
			s.console.HangUp()
		}
	case "hold":
		s.console.Hold(cmd.SessionID)
	case "unhold":
		s.console.Unhold(cmd.SessionID)
	case "toggle_hold":
		s.console.ToggleHold(cmd.SessionID, cmd.Held)
	case "toggle_mute":
		s.console.ToggleMute()
	case "blind_transfer":
		return s.console.BlindTransfer(cmd.Number, cmd.Picked)
	case "attended_transfer":
		tc, err := transfer.ParseCommand(cmd.Action)
		if err != nil {
			return err
		}
		return s.console.AttendedTransfer(tc, cmd.Number, cmd.Picked)
	default:
		return fmt.Errorf("unknown command %q", cmd.Command)
	}
	return nil
}
