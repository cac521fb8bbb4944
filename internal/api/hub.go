package api

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/pillwise/pillwise/internal/metrics"
	"go.uber.org/zap"
)

// Hub tracks the WebSocket clients listening for due-dose events.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

func (h *Hub) Register(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	metrics.Default().IncrementWSConnections()
}

func (h *Hub) Unregister(c *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		metrics.Default().DecrementWSConnections()
	}
	h.mu.Unlock()
}

// Broadcast sends a payload to every client. Clients that fail to
// write are dropped.
func (h *Hub) Broadcast(v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if err := c.WriteJSON(v); err != nil {
			h.logger.Warn("WebSocket write failed, dropping client", zap.Error(err))
			c.Close()
			delete(h.clients, c)
			metrics.Default().DecrementWSConnections()
		}
	}
}

// CloseAll disconnects every client, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
		metrics.Default().DecrementWSConnections()
	}
}

// handleWebSocket parks the connection in the hub. Clients only
// listen; the read loop exists to notice the close.
func (s *Server) handleWebSocket(c *websocket.Conn) {
	s.hub.Register(c)
	defer func() {
		s.hub.Unregister(c)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
