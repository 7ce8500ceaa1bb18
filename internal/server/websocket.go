package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
	"github.com/replicatedhq/kots-sub006/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second
)

// ValidationEvent is pushed to websocket subscribers after every liveconfig
// recompute, so additional browser tabs stay in sync with the editing one.
type ValidationEvent struct {
	AppSlug          string                            `json:"appSlug"`
	Sequence         int64                             `json:"sequence"`
	ValidationErrors []appconfig.GroupValidationErrors `json:"validationErrors,omitempty"`
}

// Hub fans validation events out to connected websocket clients.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The reference server serves local tooling; cross-origin pages are
	// not a concern here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSubscribe upgrades the request and registers the client for
// validation events until the connection drops.
func (h *Hub) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	logging.Info("Validation subscriber connected",
		zap.String("remote_addr", r.RemoteAddr),
	)

	go h.keepAlive(conn)

	// Drain the read side so close frames and pongs are processed.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends one validation event to every subscriber. Dead
// connections are dropped on write failure.
func (h *Hub) Broadcast(event ValidationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			logging.Debug("Dropping validation subscriber",
				zap.String("remote_addr", conn.RemoteAddr().String()),
				zap.Error(err),
			)
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[conn] {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

func (h *Hub) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		alive := h.conns[conn]
		h.mu.Unlock()
		if !alive {
			return
		}

		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			h.drop(conn)
			return
		}
	}
}
