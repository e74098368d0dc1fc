package notifyws

import (
	"encoding/json"

	websocket "github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

// Hub tracks the live websocket connections per user and pushes stored
// notifications to them as they are created. The stream is one-way; clients
// only listen.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	push       chan *envelope
	logger     *zap.Logger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
}

type envelope struct {
	userID  int64
	payload *Message
}

type Message struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan *envelope, 64),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case e := <-h.push:
			h.deliver(e)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Push satisfies the notifier's broadcaster boundary. Delivery is best
// effort; users without live connections simply read the stored
// notification later.
func (h *Hub) Push(userID int64, notification *models.Notification) {
	select {
	case h.push <- &envelope{userID: userID, payload: &Message{Type: "notification", Notification: notification}}:
	default:
		h.logger.Warn("notification push queue full", zap.Int64("user_id", userID))
	}
}

func (h *Hub) deliver(e *envelope) {
	encoded, err := json.Marshal(e.payload)
	if err != nil {
		h.logger.Error("failed to encode notification push", zap.Error(err))
		return
	}

	set, ok := h.clients[e.userID]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- encoded:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, e.userID)
	}
}

// ReadPump drains the connection until the client disconnects. Incoming
// frames are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
