// Package logstream relays live tool output to WebSocket subscribers.
package logstream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lyzr/dbpatcher/common/logger"
)

// Message is one line of tool output
type Message struct {
	OperationID string    `json:"operation_id"`
	Operation   string    `json:"operation"`
	Line        string    `json:"line"`
	Time        time.Time `json:"time"`
}

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	clients map[*Client]bool
	mutex   sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}

	log *logger.Logger
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub's main loop. It returns when ctx is done, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	h.log.Debug("log stream hub started")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Publish queues m for delivery. When the queue is full the message is dropped.
func (h *Hub) Publish(m *Message) {
	select {
	case h.broadcast <- m:
	default:
		h.log.Warn("log stream queue full, dropping line", "operation_id", m.OperationID)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.log.Debug("log stream client registered", "filter", client.operationID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.drop(client)
}

// drop removes client and closes its send channel. Caller holds the write lock.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.log.Debug("log stream client unregistered", "remaining", len(h.clients))
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if !client.wants(message) {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.log.Warn("log stream client too slow, closing connection")
			h.drop(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		h.drop(client)
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}
