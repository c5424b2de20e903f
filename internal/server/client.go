// Package server manages individual WebSocket clients: read/write pumps,
// keepalive, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single outbound write.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before the read
	// deadline kills it; pings go out every pingPeriod to keep it fed.
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one WebSocket connection. The id identifies it in logs before a
// username exists; name is assigned by the hub event loop when the client
// sends a connect event and is only ever touched on that loop.
type Client struct {
	id   string
	name string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	addr string

	closed      bool // written by the hub event loop only
	rateLimiter *rateLimiter
}

// newClient wraps an upgraded connection. The send channel is buffered so
// the event loop never blocks on a slow reader.
func newClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, cfg.SendBuffer),
		hub:         hub,
		addr:        addr,
		rateLimiter: newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefill),
	}
}

// Send queues a frame for delivery without blocking. It reports false when
// the client is closed or its queue is full; the frame is dropped either
// way. This implements chat.Sender.
func (c *Client) Send(data []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump reads frames off the wire and forwards them to the hub event
// loop. It runs in its own goroutine per connection and triggers transport
// unregistration on exit.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("client %s: error closing connection in readPump: %v", c.id, err)
		}
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("client %s: error setting read deadline: %v", c.id, err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if c.rateLimiter != nil && !c.rateLimiter.allow() {
			log.Printf("client %s (%s): rate limit exceeded, discarding frame", c.id, c.addr)
			continue
		}

		select {
		case c.hub.frames <- inboundFrame{client: c, data: raw}:
		case <-c.hub.ctx.Done():
			return
		}
	}
}

// logReadError classifies a read failure so expected disconnects stay quiet
// in the logs.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("client %s (%s): frame exceeded %d byte limit", c.id, c.addr, c.hub.cfg.MaxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("client %s (%s): disconnected: %v", c.id, c.addr, err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		log.Printf("client %s (%s): connection closed", c.id, c.addr)
	default:
		log.Printf("client %s (%s): read error: %v", c.id, c.addr, err)
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with periodic pings. It exits when the hub closes the send channel
// or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("client %s: error closing connection in writePump: %v", c.id, err)
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("client %s: error setting write deadline: %v", c.id, err)
				}
				return
			}
			if !ok {
				// Hub closed the queue: say goodbye properly.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					log.Printf("client %s: error writing close message: %v", c.id, err)
				}
				return
			}
			if !c.writeFrame(frame) {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("client %s: error setting write deadline for ping: %v", c.id, err)
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeFrame sends one text frame plus whatever else is already queued,
// each as its own frame so every delivery stays a single JSON document.
func (c *Client) writeFrame(frame []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		log.Printf("client %s: error writing frame: %v", c.id, err)
		return false
	}

	for n := len(c.send); n > 0; n-- {
		queued, ok := <-c.send
		if !ok {
			break
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
			return false
		}
	}
	return true
}

// isExpectedCloseError reports whether an error is routine connection
// teardown noise.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
