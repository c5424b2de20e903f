// Package server coordinates connection registration, event dispatch, and
// shutdown for the relay via the Hub type.
package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tidechat/relay/internal/chat"
	"github.com/tidechat/relay/internal/metrics"
	"github.com/tidechat/relay/internal/protocol"
)

// inboundFrame is one raw frame read from a connection, queued for the event
// loop.
type inboundFrame struct {
	client *Client
	data   []byte
}

// Hub owns every open connection and runs the single event loop that is the
// only code allowed to touch the session registry and conversation store.
// One inbound frame is one atomic unit of work: the router mutations and the
// resulting broadcast always observe a consistent snapshot of both stores.
type Hub struct {
	cfg    *Config
	router *chat.Router

	clients    map[*Client]struct{} // every open connection, registered or not
	register   chan *Client
	unregister chan *Client
	frames     chan inboundFrame

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub wires the hub to its router and configuration. Run must be started
// on its own goroutine before the HTTP handlers accept connections.
func NewHub(router *chat.Router, cfg *Config) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		cfg:        cfg,
		router:     router,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		frames:     make(chan inboundFrame),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It serializes all registry and conversation
// mutations and launches the per-client pump goroutines.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case c := <-h.register:
			if c == nil {
				log.Printf("hub: received nil client registration, skipping")
				continue
			}
			h.clients[c] = struct{}{}
			metrics.Connections.Set(float64(len(h.clients)))
			log.Printf("hub: client %s connected from %s (total=%d)", c.id, c.addr, len(h.clients))

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				c.writePump()
			}()
			go func() {
				defer h.wg.Done()
				c.readPump()
			}()

		case c := <-h.unregister:
			h.dropClient(c)

		case f := <-h.frames:
			h.dispatch(f.client, f.data)
		}
	}
}

// Register hands a freshly upgraded connection to the event loop.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// dispatch decodes one frame and routes it. Malformed frames fail only the
// event that carried them; unknown types are ignored outright.
func (h *Hub) dispatch(c *Client, data []byte) {
	evType, event, err := protocol.ParseClientEvent(data)
	if errors.Is(err, protocol.ErrUnknownType) {
		metrics.EventsTotal.WithLabelValues("unknown").Inc()
		return
	}
	if err != nil {
		metrics.EventsTotal.WithLabelValues("malformed").Inc()
		log.Printf("hub: dropping malformed frame from client %s: %v", c.id, err)
		return
	}

	switch ev := event.(type) {
	case protocol.ConnectEvent:
		h.handleConnect(c, ev.Name)

	case protocol.MessageEvent:
		h.handleMessage(c, ev)

	case protocol.CloseEvent:
		h.handleClose(c)

	default:
		metrics.EventsTotal.WithLabelValues("unknown").Inc()
		log.Printf("hub: no handler for event type %q", evType)
	}
}

// handleConnect registers the username for this connection. A duplicate name
// silently takes over the registration and the superseded connection is
// force-closed so its user is not left listening on a dead session.
func (h *Hub) handleConnect(c *Client, name string) {
	metrics.EventsTotal.WithLabelValues("connect").Inc()

	start := time.Now()
	prev, replaced := h.router.HandleConnect(name, c)
	metrics.BroadcastDuration.Observe(time.Since(start).Seconds())

	c.name = name
	log.Printf("hub: client %s registered as %q (sessions=%d)", c.id, name, h.router.SessionCount())

	if replaced {
		if pc, ok := prev.(*Client); ok {
			log.Printf("hub: username %q taken over, closing superseded client %s", name, pc.id)
			h.dropClient(pc)
		}
	}

	h.updateGauges()
}

// handleMessage appends and relays a direct message. A message from a
// connection that never sent connect references no sender identity and is
// rejected outright; the wire protocol has no error event, so rejection is
// silent on the wire.
func (h *Hub) handleMessage(c *Client, ev protocol.MessageEvent) {
	if c.name == "" {
		metrics.EventsTotal.WithLabelValues("rejected").Inc()
		log.Printf("hub: rejecting message from unregistered client %s", c.id)
		return
	}

	payload, err := ev.DecodePayload()
	if err != nil {
		metrics.EventsTotal.WithLabelValues("malformed").Inc()
		log.Printf("hub: dropping message with bad payload from %q: %v", c.name, err)
		return
	}

	metrics.EventsTotal.WithLabelValues("message").Inc()
	metrics.MessagesTotal.Inc()

	start := time.Now()
	h.router.HandleMessage(c.name, payload.Target, payload.Content)
	metrics.BroadcastDuration.Observe(time.Since(start).Seconds())

	h.updateGauges()
}

// handleClose unregisters the username associated with this connection. The
// connection itself stays open; only the session registration is dropped.
func (h *Hub) handleClose(c *Client) {
	if c.name == "" {
		return
	}
	metrics.EventsTotal.WithLabelValues("close").Inc()

	start := time.Now()
	if h.router.HandleClose(c.name, c) {
		metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
	}

	h.updateGauges()
}

// dropClient removes a connection from the hub, unregisters its session if
// it still owns one, and tears down its queue and socket. The identity guard
// in HandleClose makes this safe for superseded connections whose registry
// slot already belongs to a replacement. Runs on the event loop only.
func (h *Hub) dropClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	metrics.Connections.Set(float64(len(h.clients)))

	if c.name != "" {
		start := time.Now()
		if h.router.HandleClose(c.name, c) {
			metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
		}
	}

	c.closed = true
	close(c.send)
	log.Printf("hub: client %s disconnected (total=%d)", c.id, len(h.clients))

	h.updateGauges()
}

// updateGauges refreshes the session and conversation gauges after an event.
func (h *Hub) updateGauges() {
	metrics.Sessions.Set(float64(h.router.SessionCount()))
	metrics.Conversations.Set(float64(h.router.ConversationCount()))
}

// shutdownClients tears down every open connection during shutdown. Closing
// the send queues here is safe: the event loop exits right after, so nothing
// can send to them again.
func (h *Hub) shutdownClients() {
	log.Printf("hub: shutting down %d client connections", len(h.clients))

	for c := range h.clients {
		c.closed = true
		close(c.send)
		if c.conn != nil {
			if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Printf("hub: error closing connection for client %s: %v", c.id, err)
			}
		}
	}
}

// Shutdown stops the event loop and waits up to timeout for all client
// goroutines to finish.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Printf("hub: initiating shutdown")

	h.cancel()
	<-h.done

	drained := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		log.Printf("hub: shutdown complete")
		return nil
	case <-time.After(timeout):
		log.Printf("hub: shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
