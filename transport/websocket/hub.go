package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
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

	// Outbound messages buffered per client and for the hub itself
	sendBuffer = 256
)

// EventStateUpdate is sent when a state changes outside a turn, for example
// on connect or after a restore
const EventStateUpdate = "state_update"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame sent to watchers of a game
type Message struct {
	GameID    string            `json:"game_id"`
	Event     string            `json:"event"`
	TurnEvent *driver.Event     `json:"turn_event,omitempty"`
	GameState *engine.GameState `json:"game_state,omitempty"`
}

type envelope struct {
	gameID string
	data   []byte
}

// Client is one websocket connection watching a game
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

// Hub maintains the set of active clients and fans messages out to them.
// The clients map is owned by the Run goroutine.
type Hub struct {
	games      map[string]map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	counts     chan countRequest
	done       chan struct{}
	logger     *zap.Logger
}

type countRequest struct {
	gameID string
	reply  chan int
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		games:      make(map[string]map[*Client]bool),
		broadcast:  make(chan envelope, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's event loop. It returns when ctx is done; clients
// arriving or leaving after that are closed without the loop.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.games {
				for client := range clients {
					close(client.send)
				}
			}
			h.games = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case req := <-h.counts:
			req.reply <- len(h.games[req.gameID])
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to gameID.
// The initial state, when given, is the first frame the client sees.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string, initial *engine.GameState) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		gameID: gameID,
	}

	if initial != nil {
		if data, err := encode(&Message{GameID: gameID, Event: EventStateUpdate, GameState: initial}); err == nil {
			client.send <- data
		}
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

// Notify forwards a turn event and the state right after it. It has the
// shape of service.Notifier and never blocks: when the hub is saturated the
// frame is dropped.
func (h *Hub) Notify(gameID string, event driver.Event, state *engine.GameState) {
	h.publish(&Message{
		GameID:    gameID,
		Event:     string(event.Type),
		TurnEvent: &event,
		GameState: state,
	})
}

// BroadcastState sends a plain state update to every watcher of gameID
func (h *Hub) BroadcastState(gameID string, state *engine.GameState) {
	h.publish(&Message{GameID: gameID, Event: EventStateUpdate, GameState: state})
}

// ClientCount reports how many connections watch gameID, or 0 once Run has
// returned.
func (h *Hub) ClientCount(gameID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countRequest{gameID: gameID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// publish encodes on the caller's goroutine, so the state is read while the
// caller still holds whatever lock guards it.
func (h *Hub) publish(msg *Message) {
	data, err := encode(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.String("game", msg.GameID), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- envelope{gameID: msg.GameID, data: data}:
	default:
		h.logger.Warn("websocket hub saturated, dropping message",
			zap.String("game", msg.GameID), zap.String("event", msg.Event))
	}
}

func encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (h *Hub) registerClient(client *Client) {
	if h.games[client.gameID] == nil {
		h.games[client.gameID] = make(map[*Client]bool)
	}
	h.games[client.gameID][client] = true

	h.logger.Debug("websocket client registered",
		zap.String("game", client.gameID), zap.Int("clients", len(h.games[client.gameID])))
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.games[client.gameID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.games, client.gameID)
	}

	h.logger.Debug("websocket client unregistered",
		zap.String("game", client.gameID), zap.Int("clients", len(clients)))
}

// deliver sends one frame to all clients of a game; slow clients are dropped
func (h *Hub) deliver(msg envelope) {
	for client := range h.games[msg.gameID] {
		select {
		case client.send <- msg.data:
		default:
			h.unregisterClient(client)
		}
	}
}

// leave unregisters c unless the hub has already stopped
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.String("game", c.gameID), zap.Error(err))
			}
			return
		}
	}
}

// writePump writes one frame per message so each frame is a JSON document
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
