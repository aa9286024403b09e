package websocket

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Tabs only listen; anything bigger than a close frame is abuse.
	maxInboundSize = 512
	sendBuffer     = 256
)

// Client is one socket of a tab. The hub writes frames to Send and closes it
// on unregister.
type Client struct {
	Hub        *Hub
	Conn       *websocket.Conn
	TabSession uuid.UUID
	Send       chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, tab uuid.UUID) *Client {
	return &Client{Hub: hub, Conn: conn, TabSession: tab, Send: make(chan []byte, sendBuffer)}
}

// greet queues a frame for this socket only, ahead of anything the hub sends.
func (c *Client) greet(msg *Message) {
	if msg == nil {
		return
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		c.Hub.logger.Warn("Hub", "Encoding greeting failed", map[string]interface{}{"error": err.Error()})
		return
	}
	c.Send <- frame
}

// readPump only services control frames and notices the disconnect.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxInboundSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Hub", "Unexpected close", map[string]interface{}{
					"tab_session": c.TabSession,
					"error":       err.Error(),
				})
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// one JSON document per frame
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
