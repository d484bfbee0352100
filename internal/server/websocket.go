package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chacun/chacun-server-go/internal/game"
	"github.com/chacun/chacun-server-go/internal/game/events"
)

// Websocket message types.
const (
	MsgJoin      = "join"
	MsgIntent    = "intent"
	MsgGameState = "game_state"
	MsgError     = "error"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSMessage is the envelope of every websocket frame.
type WSMessage struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Client is one websocket connection following at most one game.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

type gameUpdate struct {
	gameID  string
	message []byte
}

type directMessage struct {
	client  *Client
	message []byte
}

type joinRequest struct {
	client *Client
	gameID string
}

// Hub fans game updates out to the clients following each game. Clients
// join a game and receive its view after every accepted action.
type Hub struct {
	mgr    *game.Manager
	logger *zap.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	broadcast  chan gameUpdate
	direct     chan directMessage
	done       chan struct{}

	handles []int
}

// NewHub creates a hub and subscribes it to the manager's event bus.
func NewHub(mgr *game.Manager, logger *zap.Logger) *Hub {
	h := &Hub{
		mgr:        mgr,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		broadcast:  make(chan gameUpdate, sendBuffer),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
	}
	if bus := mgr.Bus(); bus != nil {
		h.handles = append(h.handles,
			bus.SubscribeTyped(events.EventActionApplied, h.onGameChanged),
			bus.SubscribeTyped(events.EventGameEnded, h.onGameChanged),
		)
	}
	return h
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		if bus := h.mgr.Bus(); bus != nil {
			for _, handle := range h.handles {
				bus.Unsubscribe(handle)
			}
		}
		close(h.done)
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			if h.logger != nil {
				h.logger.Debug("websocket client registered", zap.Int("clients", len(h.clients)))
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				if h.logger != nil {
					h.logger.Debug("websocket client unregistered", zap.String("game_id", c.gameID))
				}
			}

		case j := <-h.join:
			if h.clients[j.client] {
				j.client.gameID = j.gameID
			}

		case d := <-h.direct:
			if h.clients[d.client] {
				h.deliver(d.client, d.message)
			}

		case u := <-h.broadcast:
			for c := range h.clients {
				if c.gameID == u.gameID {
					h.deliver(c, u.message)
				}
			}
		}
	}
}

// deliver queues message on a registered client and drops the client when
// its buffer is full. Only Run calls it.
func (h *Hub) deliver(c *Client, message []byte) {
	select {
	case c.send <- message:
	default:
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) onGameChanged(e events.Event) {
	v, err := h.mgr.View(context.Background(), e.GameID)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("failed to build game view", zap.String("game_id", e.GameID), zap.Error(err))
		}
		return
	}
	msg, err := encode(MsgGameState, e.GameID, v)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- gameUpdate{gameID: e.GameID, message: msg}:
	case <-h.done:
	}
}

// ServeHTTP upgrades the connection and starts the client's pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) handleMessage(c *Client, msg WSMessage) {
	ctx := context.Background()

	switch msg.Type {
	case MsgJoin:
		v, err := h.mgr.View(ctx, msg.GameID)
		if err != nil {
			c.reply(MsgError, msg.GameID, nil, err)
			return
		}
		select {
		case h.join <- joinRequest{client: c, gameID: msg.GameID}:
		case <-h.done:
			return
		}
		c.reply(MsgGameState, msg.GameID, v, nil)

	case MsgIntent:
		var in Intent
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			c.reply(MsgError, msg.GameID, nil, err)
			return
		}
		// Accepted intents reach every follower through the event bus.
		if _, err := in.Apply(ctx, h.mgr, msg.GameID); err != nil {
			c.reply(MsgError, msg.GameID, nil, err)
		}

	default:
		c.reply(MsgError, msg.GameID, nil, ErrBadIntent)
	}
}

func encode(typ, gameID string, data any) ([]byte, error) {
	msg := WSMessage{Type: typ, GameID: gameID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func (c *Client) reply(typ, gameID string, data any, replyErr error) {
	var (
		out []byte
		err error
	)
	if replyErr != nil {
		out, err = json.Marshal(WSMessage{Type: typ, GameID: gameID, Error: replyErr.Error()})
	} else {
		out, err = encode(typ, gameID, data)
	}
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- directMessage{client: c, message: out}:
	case <-c.hub.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64 << 10)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.hub.logger != nil {
				c.hub.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(MsgError, "", nil, err)
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
