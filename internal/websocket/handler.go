package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a connection to the hub and blocks until it closes.
// hello, when set, is the first frame the socket receives.
func ServeWs(hub *Hub, c *websocket.Conn, tab uuid.UUID, hello *Message) {
	client := newClient(hub, c, tab)
	client.greet(hello)
	hub.register <- client

	go client.writePump()
	client.readPump()
}
