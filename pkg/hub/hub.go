// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/auralens/auralens/internal/log"
)

// MessageKind indicates the websocket message format.
type MessageKind int

const (
	// TextMessage is a JSON-encoded payload.
	TextMessage MessageKind = iota
	// BinaryMessage is raw binary data (JPEG frames).
	BinaryMessage
)

// Message is one payload to fan out to every connected client.
type Message struct {
	Kind MessageKind
	Data []byte
}

// Hub maintains the set of active clients for one topic and broadcasts
// messages to all of them.
type Hub struct {
	topic string

	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// New creates a hub for the given topic. Call Run in a goroutine before
// broadcasting.
func New(topic string) *Hub {
	return &Hub{
		topic:      topic,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the hub's main loop. All client map mutation happens here.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("dashboard client connected", "topic", h.topic, "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("dashboard client disconnected", "topic", h.topic, "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full. Drop the connection
					// rather than block every other client.
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow dashboard client", "topic", h.topic)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for every connected client. If the broadcast
// queue itself is full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Warn("broadcast queue full, dropping message", "topic", h.topic)
	}
}

// BroadcastJSON encodes v and broadcasts it as a text message.
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Kind: TextMessage, Data: data})
	return nil
}

// BroadcastBinary broadcasts raw bytes, used for camera frames.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(Message{Kind: BinaryMessage, Data: data})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
