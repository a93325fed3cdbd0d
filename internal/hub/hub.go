// Package hub fans tracker events out to WebSocket subscribers.
package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event names on the wire.
const (
	EventNewPool        = "newPool"
	EventNewTransaction = "newTransaction"
	EventWalletUpdate   = "walletUpdate"
	EventExistingPools  = "existingPools"
	EventTrackerStatus  = "trackerStatus"
)

const (
	clientBuffer = 64
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
)

// Envelope is the wire format for every outbound message.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ReplayFunc supplies the events sent to a subscriber on connect.
type ReplayFunc func() interface{}

// Hub tracks connected subscribers and broadcasts events to all of them.
// Broadcasting with zero subscribers is a no-op.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	replay   ReplayFunc

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	// OnSubscribersChanged, if set, is invoked with the subscriber count
	// after every register or unregister.
	OnSubscribersChanged func(n int)
	// OnBroadcast, if set, is invoked per broadcast with the event name.
	OnBroadcast func(event string)
	// OnSlowClient, if set, is invoked when a subscriber is dropped for
	// an unread backlog.
	OnSlowClient func()
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a hub. replay may be nil to disable the connect-time replay.
func New(logger zerolog.Logger, replay ReplayFunc) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger.With().Str("component", "hub").Logger(),
		replay:  replay,
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades the request and registers the connection as a
// subscriber. The subscriber first receives the replay snapshot, then live
// events until it disconnects or falls behind.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	if h.replay != nil {
		if data, err := json.Marshal(Envelope{Event: EventExistingPools, Data: h.replay()}); err == nil {
			c.send <- data
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Int("subscribers", n).Str("remote", r.RemoteAddr).Msg("subscriber connected")
	if h.OnSubscribersChanged != nil {
		h.OnSubscribersChanged(n)
	}

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast sends one event to every subscriber. Subscribers whose buffer
// is full are dropped rather than allowed to stall the rest.
func (h *Hub) Broadcast(event string, data interface{}) {
	h.mu.RLock()
	empty := len(h.clients) == 0
	h.mu.RUnlock()
	if empty {
		return
	}

	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("marshal broadcast")
		return
	}

	if h.OnBroadcast != nil {
		h.OnBroadcast(event)
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().Msg("dropping slow subscriber")
		if h.OnSlowClient != nil {
			h.OnSlowClient()
		}
		h.remove(c)
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(c.send)
	if h.OnSubscribersChanged != nil {
		h.OnSubscribersChanged(n)
	}
}

// writePump drains the send channel to the connection and keeps the
// connection alive with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump discards inbound frames; subscribers are read-only. It exists
// to notice disconnects and answer pings.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
