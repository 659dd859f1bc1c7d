// Package progress fans out structured export events to any WebSocket
// client watching a run. It is purely observational: the orchestrator
// publishes events on a best-effort basis and never blocks on a slow or
// absent listener.
package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one structured progress update, matching one map's processing
// stage.
type Event struct {
	MapName   string `json:"map_name"`
	Stage     string `json:"stage"`
	Status    string `json:"status"` // "ok", "warning", or "error"
	ElapsedMS int64  `json:"elapsed_ms"`
}

const clientBufferSize = 64

// Hub broadcasts Events to every connected client. The zero value is not
// usable; construct with NewHub.
type Hub struct {
	upgrader  websocket.Upgrader
	broadcast chan Event
	register  chan *client
	unregister chan *client
	clients   map[*client]bool
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub returns a Hub with no connected clients. Call Run in its own
// goroutine before serving WebSocket connections through ServeHTTP.
func NewHub() *Hub {
	return &Hub{
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		broadcast:  make(chan Event, clientBufferSize),
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]bool),
	}
}

// Run drives client registration and broadcast fan-out until stop is
// closed. Call it in its own goroutine.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			for c := range h.clients {
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case ev := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					// Slow client: drop the oldest queued event rather than
					// block the broadcaster.
					select {
					case <-c.send:
					default:
					}
					select {
					case c.send <- ev:
					default:
					}
				}
			}
		}
	}
}

// Publish enqueues ev for broadcast. Never blocks: if the hub's own queue
// is full, the event is dropped.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it
// as a listener. The connection receives the Events published after it
// connects, less any dropped by Publish's or Run's drop policies; it sends
// nothing back except to keep the connection alive.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("progress: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, clientBufferSize)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

// writePump relays queued events to the socket until send is closed.
func (c *client) writePump() {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// readPump discards anything the client sends, existing only to detect
// disconnects and drive unregistration.
func (c *client) readPump(h *Hub) {
	defer func() { h.unregister <- c }()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
