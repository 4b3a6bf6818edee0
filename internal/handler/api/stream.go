package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	xlogger "AgriPulse/pkg/logger"
)

// StreamHub pushes dataset refresh events to connected dashboards over
// WebSocket so an open library view can reload without polling.
type StreamHub struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

type refreshEvent struct {
	Type string   `json:"type"`
	IDs  []string `json:"ids"`
	At   string   `json:"at"`
}

func NewStreamHub(logger *xlogger.Logger) *StreamHub {
	return &StreamHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// dashboard is served from another origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *StreamHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Stream)
}

func (h *StreamHub) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("stream client connected", xlogger.Int("clients", n))

	// drain until the client goes away; refresh events flow the other way
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// NotifyRefresh broadcasts the changed dataset ids to every client. A client
// that cannot be written to is dropped.
func (h *StreamHub) NotifyRefresh(ids []string) {
	event := refreshEvent{
		Type: "dataset_refresh",
		IDs:  ids,
		At:   time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn("stream write failed", xlogger.Error(err))
			h.drop(conn)
		}
	}
}

// Close disconnects every client.
func (h *StreamHub) Close() {
	h.mu.Lock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
}

func (h *StreamHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
	h.mu.Unlock()
}
