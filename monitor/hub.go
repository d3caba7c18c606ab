package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType identifies the payload carried by a hub message.
type MessageType string

const (
	TypeRiskUpdate   MessageType = "risk_update"
	TypeAlert        MessageType = "alert"
	TypeSystemStatus MessageType = "system_status"
	TypeHeartbeat    MessageType = "heartbeat"
)

// Message is the envelope pushed to every connected websocket client.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	ID        string          `json:"id"`
}

// RiskUpdateMessage reports one scored window of a live session.
type RiskUpdateMessage struct {
	SessionID string    `json:"session_id"`
	WindowIdx int       `json:"window_idx"`
	RiskProb  float64   `json:"risk_prob"`
	Label     int       `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemStatusMessage reports a component state change.
type SystemStatusMessage struct {
	Component string    `json:"component"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HeartbeatMessage keeps idle connections visible to dashboards.
type HeartbeatMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	id     string
	logger *zap.Logger
}

// Hub fans risk updates and alerts out to websocket subscribers.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	ctx        context.Context
	cancel     context.CancelFunc
	logger     *zap.Logger
}

// NewHub creates a hub. Run Start in its own goroutine before serving
// websocket requests.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start runs the register/broadcast loop until Stop is called.
func (h *Hub) Start() {
	defer h.logger.Info("websocket hub stopped")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("websocket client connected",
				zap.String("client_id", c.id), zap.Int("total", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("websocket client disconnected",
				zap.String("client_id", c.id), zap.Int("total", total))

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every client connection and ends the Start loop.
func (h *Hub) Stop() {
	h.cancel()
}

// HandleWebSocket upgrades the request and attaches the client to the hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, 256),
		id:     generateClientID(),
		logger: h.logger,
	}

	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// Broadcast enqueues raw bytes for every client. Messages are dropped
// when the queue is full rather than blocking the caller.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message")
	}
}

// Publish wraps payload in a Message envelope and broadcasts it.
func (h *Hub) Publish(msgType MessageType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", msgType, err)
	}

	msg := Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
		ID:        generateMessageID(),
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msgType, err)
	}

	h.Broadcast(raw)
	return nil
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("websocket write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so pings and close handshakes work.
// Clients are listeners only, their payloads are discarded.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func generateClientID() string {
	return fmt.Sprintf("client_%d", time.Now().UnixNano())
}

func generateMessageID() string {
	return fmt.Sprintf("msg_%d", time.Now().UnixNano())
}
