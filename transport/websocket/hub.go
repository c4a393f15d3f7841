package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/battleship/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents an outgoing WebSocket message
type Message struct {
	SessionID string             `json:"session_id"`
	Event     string             `json:"event"`
	Board     *service.BoardView `json:"board,omitempty"`
	Data      interface{}        `json:"data,omitempty"`

	// to restricts delivery to a single client
	to *Client
}

// Action is a command sent by a client over the socket
type Action struct {
	Action string `json:"action"` // "fire"
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// FireFunc applies a shot on behalf of a socket client.
type FireFunc func(ctx context.Context, sessionID string, x, y int) (*service.FireResult, error)

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by session ID, owned by Run
	sessions map[string]map[*Client]bool

	// Client counts per session, readable outside Run
	counts   map[string]int
	countsMu sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	fire FireFunc
	done chan struct{}
}

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithFire lets clients shoot by sending {"action":"fire","x":..,"y":..}.
func WithFire(f FireFunc) HubOption {
	return func(h *Hub) {
		h.fire = f
	}
}

// NewHub creates a new WebSocket hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Client]bool),
		counts:     make(map[string]int),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop and returns when ctx is cancelled, closing
// every client. Run must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastBoard sends a board update to all clients in a session
func (h *Hub) BroadcastBoard(sessionID string, board *service.BoardView) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     "board_update",
		Board:     board,
	})
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

// ClientCount returns the number of clients watching a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.countsMu.RLock()
	defer h.countsMu.RUnlock()
	return h.counts[sessionID]
}

func (h *Hub) enqueue(m *Message) {
	select {
	case h.broadcast <- m:
	default:
		log.Warn().Str("session", m.SessionID).Str("event", m.Event).Msg("broadcast queue full, dropping message")
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true
	h.setCount(client.sessionID, len(h.sessions[client.sessionID]))

	log.Debug().Str("session", client.sessionID).Int("clients", len(h.sessions[client.sessionID])).Msg("websocket client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}
	h.setCount(client.sessionID, len(clients))

	log.Debug().Str("session", client.sessionID).Int("clients", len(clients)).Msg("websocket client unregistered")
}

func (h *Hub) setCount(sessionID string, n int) {
	h.countsMu.Lock()
	defer h.countsMu.Unlock()
	if n == 0 {
		delete(h.counts, sessionID)
		return
	}
	h.counts[sessionID] = n
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}

	for client := range h.sessions[message.SessionID] {
		if message.to != nil && message.to != client {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.unregisterClient(client)
		}
	}
}

// readPump pumps actions from the WebSocket connection to the game
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", c.sessionID).Msg("websocket read failed")
			}
			break
		}
		c.handleAction(data)
	}
}

func (c *Client) handleAction(data []byte) {
	var action Action
	if err := json.Unmarshal(data, &action); err != nil {
		c.reply("error", map[string]string{"error": "invalid message"})
		return
	}
	if action.Action != "fire" || c.hub.fire == nil {
		c.reply("error", map[string]string{"error": "unsupported action: " + action.Action})
		return
	}

	result, err := c.hub.fire(context.Background(), c.sessionID, action.X, action.Y)
	if err != nil {
		c.reply("error", map[string]string{"error": err.Error()})
		return
	}
	c.hub.BroadcastEvent(c.sessionID, "shot", result)
}

// reply sends a message to this client only.
func (c *Client) reply(event string, data interface{}) {
	c.hub.enqueue(&Message{SessionID: c.sessionID, Event: event, Data: data, to: c})
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
