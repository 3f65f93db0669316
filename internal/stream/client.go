package stream

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the max time to write a message to a client.
	writeWait = 10 * time.Second

	// pongWait is the max time to wait for a pong from a client.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = 50 * time.Second

	// sendBufferSize bounds the per-client outbound queue. A client
	// that cannot keep up is dropped rather than backing up the hub.
	sendBufferSize = 32
)

// Client is one WebSocket subscriber.
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan Message
	hub    *Hub
	logger *slog.Logger
}

// readPump discards inbound frames and detects disconnects.
// Subscribers are read-only; the read loop exists for close and pong
// handling.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("subscriber read error", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

// writePump delivers queued snapshots and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("subscriber write error", "user_id", c.userID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue offers a message to the client without blocking.
// Returns false if the client's buffer is full.
func (c *Client) enqueue(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
