/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the real-time half of the event sink.

    It maintains a registry of all connected renderers (browser tabs) and a
    broadcast channel. The Broadcaster flushes one batched frame message per
    simulation step into the Hub, and the Hub writes it to every socket.

    Architecture:
    - Hub: one per server, run as a goroutine.
    - Client: one browser connection, identified by a uuid.
    - ServeWs: the HTTP handler that upgrades a GET request to a WebSocket.
*/

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Message is the JSON envelope for everything sent over the socket.
type Message struct {
	Type    string      `json:"type"`    // "frame", "welcome"
	Payload interface{} `json:"payload"` // Frame, Snapshot, ...
	Sender  string      `json:"sender"`  // Session id
}

// Client is a single connected renderer.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	// Broadcast is buffered so the simulation never waits on the network.
	Broadcast chan []byte

	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new Hub. Start it with `go hub.Run()`.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Publish queues a message without blocking. Returns false if it was dropped.
func (h *Hub) Publish(msg []byte) bool {
	select {
	case h.Broadcast <- msg:
		return true
	default:
		return false
	}
}

// Run is the main event loop for the Hub. It blocks.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("WS: client %s registered (%d online)", client.id, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("WS: client %s left", client.id)
			}

		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than stall the frame loop.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and sends the client a welcome snapshot.
func ServeWs(hub *Hub, welcome Message, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WS Upgrade Error:", err)
		return
	}

	client := &Client{id: uuid.NewString(), hub: hub, conn: conn, send: make(chan []byte, 256)}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection. Renderers only listen; anything they send is logged.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS Error: %v", err)
			}
			break
		}
		log.Printf("WS: ignoring %d byte message from %s", len(message), c.id)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
}
