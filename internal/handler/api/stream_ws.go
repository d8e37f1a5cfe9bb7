package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"AXII/internal/domain/models"
	xlogger "AXII/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	sendBuffer   = 64
)

type subscriber struct {
	send chan []byte
}

// Hub fans registry events out to websocket subscribers. Broadcast never
// blocks: a subscriber whose buffer is full is dropped.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
	l    *xlogger.Logger
}

func NewHub(l *xlogger.Logger) *Hub {
	return &Hub{subs: make(map[*subscriber]struct{}), l: l}
}

func (h *Hub) Broadcast(ev models.RegistryEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.l.Error("stream encode failed", xlogger.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.send <- b:
		default:
			// drop on backpressure
			delete(h.subs, s)
			close(s.send)
			h.l.Warn("stream subscriber dropped: slow consumer")
		}
	}
}

// Subscribers reports the current number of live connections.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() *subscriber {
	s := &subscriber{send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
	h.mu.Unlock()
}

// Snapshotter supplies the current registry for a new subscriber.
type Snapshotter interface {
	Snapshot() []models.Artist
}

// StreamEchoHandler upgrades GET /api/stream to a websocket. A new
// subscriber first receives one upsert per tracked artist, then live events.
type StreamEchoHandler struct {
	hub      *Hub
	reg      Snapshotter
	upgrader websocket.Upgrader
	logger   *xlogger.Logger
}

func NewStreamEchoHandler(hub *Hub, reg Snapshotter, logger *xlogger.Logger) *StreamEchoHandler {
	return &StreamEchoHandler{
		hub:    hub,
		reg:    reg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Stream)
}

func (h *StreamEchoHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("stream upgrade failed", xlogger.Error(err))
		return nil
	}
	sub := h.hub.subscribe()
	h.logger.Debug("stream subscriber connected", xlogger.String("remote", c.RealIP()))

	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub)
	return nil
}

// readLoop discards client frames and tracks pongs; it ends the subscription on disconnect.
func (h *StreamEchoHandler) readLoop(conn *websocket.Conn, sub *subscriber) {
	defer h.hub.unsubscribe(sub)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamEchoHandler) writeLoop(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for _, a := range h.reg.Snapshot() {
		ev := models.RegistryEvent{Type: models.EventUpsert, Name: a.Name, Artist: &a}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			h.hub.unsubscribe(sub)
			return
		}
	}

	for {
		select {
		case b, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.hub.unsubscribe(sub)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.hub.unsubscribe(sub)
				return
			}
		}
	}
}
