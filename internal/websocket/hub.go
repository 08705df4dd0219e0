// Package websocket pushes settings events to connected admin clients.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event types sent to clients.
const (
	EventSettingsReloaded = "settings.reloaded"
	EventSettingsUpdated  = "settings.updated"
	EventJobStatus        = "job.status"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event is the JSON message pushed to clients.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	Time time.Time `json:"time"`
}

// Hub maintains the set of active clients and broadcasts events to them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	log        zerolog.Logger
}

// NewHub creates a hub. Run must be started for messages to flow.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        zerolog.Nop(),
	}
}

// SetLogger sets the logger used for connection events.
func (h *Hub) SetLogger(log zerolog.Logger) {
	h.log = log.With().Str("component", "websocket").Logger()
}

// Run processes registrations and broadcasts until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug().Stringer("client", client.id).Msg("Client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Debug().Stringer("client", client.id).Msg("Client disconnected")
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues an event for every client. Events are dropped when the
// queue is full.
func (h *Hub) Broadcast(eventType string, data any) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data, Time: time.Now().UTC()})
	if err != nil {
		h.log.Error().Err(err).Str("event", eventType).Msg("Failed to encode event")
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("event", eventType).Msg("Broadcast queue full, dropping event")
	}
}

// ServeWs upgrades the request and registers the connection.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	client := &Client{id: uuid.New(), hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
