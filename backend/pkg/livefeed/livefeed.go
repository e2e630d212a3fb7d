// Package livefeed pushes named JSON events to WebSocket clients.
package livefeed

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"irrigation-monitor/backend/pkg/utils"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Event is the frame written to clients.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

type HubOptions struct {
	// Welcome, when set, is called for every new client. A non-nil event is sent first.
	Welcome func() *Event
	// CheckOrigin overrides the upgrader's same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// Hub fans events out to every connected client. Slow clients are disconnected
// rather than allowed to block a broadcast.
type Hub struct {
	l        *slog.Logger
	upgrader websocket.Upgrader
	welcome  func() *Event

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewHub(l *slog.Logger, opts HubOptions) *Hub {
	return &Hub{
		l: l.With(slog.String("component", "livefeed")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		welcome: opts.Welcome,
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		h.l.Warn("websocket upgrade failed", utils.ErrAttr(err))
		return
	}

	c := &client{
		id:   utils.NewUUID(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	if h.welcome != nil {
		if ev := h.welcome(); ev != nil {
			if msg, err := utils.ToJSON(ev); err == nil {
				c.send <- msg
			}
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()

		return
	}

	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.l.Info("client connected", slog.String("clientID", c.id), slog.Int("clients", total))

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast encodes the event once and queues it for every client.
func (h *Hub) Broadcast(name string, data any) {
	msg, err := utils.ToJSON(Event{Name: name, Data: data})
	if err != nil {
		h.l.Error("failed to encode event", slog.String("event", name), utils.ErrAttr(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.l.Warn("client too slow, disconnecting", slog.String("clientID", id))
			h.dropLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for _, c := range h.clients {
		h.dropLocked(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}

	delete(h.clients, c.id)
	c.once.Do(func() { close(c.send) })
	h.l.Info("client disconnected", slog.String("clientID", c.id), slog.Int("clients", len(h.clients)))
}

// readPump only services control frames; client messages are discarded.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.l.Debug("websocket read failed", slog.String("clientID", c.id), utils.ErrAttr(err))
			}

			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}
