package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Operator feed message types
const (
	MsgIncidentCreated   MessageType = "incident_created"
	MsgIncidentFinalized MessageType = "incident_finalized"
	MsgError             MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans incident events out to connected operator consoles
type Hub struct {
	conns map[*Connection]struct{}
	mu    sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

// Connection represents an operator WebSocket connection
type Connection struct {
	ID   string
	Send chan []byte
	Hub  *Hub
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		conns:      make(map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		log:        logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = struct{}{}
			h.mu.Unlock()
			h.log.Info("[WS] operator connected", zap.String("conn", conn.ID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.conns[conn]; ok {
				delete(h.conns, conn)
				close(conn.Send)
				h.log.Info("[WS] operator disconnected", zap.String("conn", conn.ID))
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.conns {
				select {
				case conn.Send <- data:
				default:
					// slow consumer; drop rather than stall the feed
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for conn := range h.conns {
				delete(h.conns, conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection. It is a no-op once the hub is closed.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast sends an event to every operator (implements service.Broadcaster)
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("[WS] marshal payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	data, _ := json.Marshal(&Message{Type: MessageType(msgType), Payload: raw})

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.log.Warn("[WS] broadcast queue full, event dropped", zap.String("type", msgType))
	}
}

// Count returns the number of connected operators
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close stops the hub loop and closes every connection's send channel
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
	<-h.stopped
}
