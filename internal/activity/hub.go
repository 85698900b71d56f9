package activity

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Event is the frame pushed to a connected broker
type Event struct {
	Type      string    `json:"type"`
	Entry     *Log      `json:"entry,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// connection is one WebSocket session of a user
type connection struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan Event
}

// Hub tracks live WebSocket sessions per user and pushes new inbox entries
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*connection]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(logger *zap.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		sessions: make(map[string]map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Serve upgrades the request and registers the session for userID
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &connection{
		id:     uuid.NewString(),
		userID: userID,
		conn:   ws,
		send:   make(chan Event, sendBuffer),
	}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[c.userID] == nil {
		h.sessions[c.userID] = make(map[*connection]struct{})
	}
	h.sessions[c.userID][c] = struct{}{}
	h.logger.Debug("Inbox session opened", zap.String("user_id", c.userID), zap.String("connection_id", c.id))
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.sessions[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.sessions, c.userID)
	}
	h.logger.Debug("Inbox session closed", zap.String("user_id", c.userID), zap.String("connection_id", c.id))
}

// readPump only consumes control frames; clients do not send data
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Inbox session read error", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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

// PushToUser queues event on every session of userID. Full buffers drop the event.
func (h *Hub) PushToUser(userID string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.sessions[userID] {
		select {
		case c.send <- event:
			delivered++
		default:
			h.logger.Warn("Inbox session buffer full", zap.String("user_id", userID), zap.String("connection_id", c.id))
		}
	}
	return delivered
}

// ConnectionCount returns the number of open sessions
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.sessions {
		n += len(conns)
	}
	return n
}

// Close ends every session
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.sessions {
		for c := range conns {
			close(c.send)
		}
		delete(h.sessions, userID)
	}
}
