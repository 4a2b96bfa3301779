// Package realtime pushes narration events to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

// Client is a connected websocket.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Event is the message sent to clients.
type Event struct {
	Type string `json:"type"`
	Slug string `json:"slug"`
}

type Hub struct {
	register   chan Client
	unregister chan Client
	broadcast  chan []byte
	done       chan struct{}
	clients    map[Client]bool
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan Client),
		unregister: make(chan Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[Client]bool),
		log:        log.With().Str("component", "realtime").Logger(),
	}
}

// Run owns the client set until ctx ends, then closes every client still
// registered. A client is only closed by the hub while its handler is blocked
// on Unregister or still reading, never after Unregister has returned.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			c.Close()
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			delete(h.clients, c)
		case msg := <-h.broadcast:
			for c := range h.clients {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.log.Debug().Err(err).Msg("dropping websocket client")
					delete(h.clients, c)
					c.Close()
				}
			}
		}
	}
}

func (h *Hub) Register(c Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

// Unregister removes c from the broadcast set. The caller keeps ownership of
// the connection and closes it.
func (h *Hub) Unregister(c Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Msg("broadcast queue full, dropping message")
	}
}

// AudioReady announces that narration for slug is cached.
func (h *Hub) AudioReady(slug string) {
	msg, err := json.Marshal(Event{Type: "audio_ready", Slug: slug})
	if err != nil {
		return
	}
	h.Broadcast(msg)
}
