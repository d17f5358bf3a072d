// Package websocket streams live verdicts to connected dashboard clients.
package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

const writeTimeout = 5 * time.Second

// WSMessage is the envelope pushed to clients.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Manager tracks connected clients and fans verdicts out to them.
type Manager struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewManager creates a manager. Origin checking is left open; the reverse
// proxy in front of the service enforces it.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// HandleWS upgrades the connection and registers the client. The read loop
// only exists to detect disconnects; clients never send payloads.
func (m *Manager) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = struct{}{}
	count := len(m.clients)
	m.mu.Unlock()
	m.logger.Debug("websocket client connected", "remote", r.RemoteAddr, "clients", count)

	go func() {
		defer m.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// NotifyVerdict implements ports.VerdictNotifier by broadcasting the
// verdict to every connected client.
func (m *Manager) NotifyVerdict(v domain.Verdict) {
	m.Broadcast(WSMessage{Type: "verdict", Payload: v})
}

// Broadcast sends a message to all clients, dropping any that fail. The
// lock is held across the writes; gorilla connections allow one concurrent
// writer.
func (m *Manager) Broadcast(msg WSMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			m.logger.Debug("websocket write failed, dropping client", "error", err)
			delete(m.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Close disconnects every client.
func (m *Manager) Close() {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.clients))
	for c := range m.clients {
		conns = append(conns, c)
	}
	m.clients = make(map[*websocket.Conn]struct{})
	m.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

func (m *Manager) drop(conn *websocket.Conn) {
	m.mu.Lock()
	delete(m.clients, conn)
	m.mu.Unlock()
	conn.Close()
}

var _ ports.VerdictNotifier = (*Manager)(nil)
