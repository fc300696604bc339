/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the core of the real-time rendering layer.

    It maintains a registry of all connected renderers and manages the
    broadcast channel. Every sales snapshot published by the engine is
    written to the sockets of every connected renderer. Inbound messages
    (taps, share requests) are handed to a Dispatcher.

    Architecture:
    - Hub: The singleton manager. Implements game.Sharer.
    - Client: Represents one renderer connection.
    - ServeWs: The HTTP handler that upgrades a standard GET request to a WebSocket.
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/everforgeworks/dessert-clicker/internal/game"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096

	systemSender = "system"
)

// ErrHubStopped is returned by sends after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Message types carried in the Message envelope.
const (
	MsgSalesUpdate = "sales_update" // out: snapshot after a sale or on connect
	MsgSalesPulse  = "sales_pulse"  // out: periodic resync snapshot
	MsgShareText   = "share_text"   // out: summary text for the host share sheet
	MsgShareResult = "share_result" // out, direct: outcome of a share request
	MsgTap         = "tap"          // in: the user tapped the dessert
	MsgShare       = "share"        // in: the user asked to share
)

// Message defines the standard JSON envelope for all real-time communication.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Sender  string      `json:"sender"`
}

// Dispatcher reacts to connection events and inbound messages.
type Dispatcher interface {
	Connected(c *Client)
	Received(c *Client, msg Message)
}

// Client represents a single connected renderer.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // Buffered channel for outbound messages
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients. Owned by the Run goroutine.
	clients map[*Client]bool

	broadcast  chan []byte
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	count      atomic.Int64
	sendBuffer int
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
}

// NewHub creates a new Hub instance.
// allowedOrigin "*" accepts any Origin header.
func NewHub(sendBuffer int, allowedOrigin string) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sendBuffer: sendBuffer,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return allowedOrigin == "*" || r.Header.Get("Origin") == allowedOrigin
		},
	}
	return h
}

// SetDispatcher must be called before Run.
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.dispatcher = d
}

// Run is the main event loop for the Hub.
// It blocks until ctx is done, so it must be run in a goroutine: `go hub.Run(ctx)`
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			log.Info("WS: Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			log.WithField("client", client.ID).Info("WS: New Connection Registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.WithField("client", client.ID).Info("WS: Connection Closed")
			}

		case dm := <-h.direct:
			if _, ok := h.clients[dm.client]; ok {
				h.deliver(dm.client, dm.data)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}
		}
	}
}

// deliver queues data for one client, dropping it if its buffer is full.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		log.WithField("client", client.ID).Warn("WS: Send buffer full, dropping client")
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int64(len(h.clients)))
}

// ClientCount reports how many renderers are connected.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Publish sends msg to every connected client.
// It returns an error only once the hub has stopped.
func (h *Hub) Publish(msg Message) error {
	data, err := encode(msg)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// SendTo sends msg to a single client.
func (h *Hub) SendTo(c *Client, msg Message) error {
	data, err := encode(msg)
	if err != nil {
		return err
	}
	select {
	case h.direct <- directMessage{client: c, data: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// ShareText hands the summary to every connected renderer. The renderers act as the
// host share facility. With nobody connected there is no handler.
func (h *Hub) ShareText(_ context.Context, text string) error {
	if h.ClientCount() == 0 {
		return game.ErrNoShareHandler
	}
	return h.Publish(shareTextMessage(text))
}

// Sharer returns a game.Sharer that offers the summary to c alone.
func (h *Hub) Sharer(c *Client) game.Sharer {
	return clientSharer{hub: h, client: c}
}

type clientSharer struct {
	hub    *Hub
	client *Client
}

func (s clientSharer) ShareText(_ context.Context, text string) error {
	return s.hub.SendTo(s.client, shareTextMessage(text))
}

func shareTextMessage(text string) Message {
	return Message{
		Type:    MsgShareText,
		Payload: map[string]string{"text": text},
		Sender:  systemSender,
	}
}

func encode(msg Message) ([]byte, error) {
	if msg.Sender == "" {
		msg.Sender = systemSender
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	return data, nil
}

// ServeWs handles the HTTP request that initiates a WebSocket connection.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WS Upgrade Error")
		return
	}

	// 1. Create the client wrapper
	client := &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}

	// 2. Register the client with the Hub loop
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// 3. Start the read/write pumps in their own goroutines
	go client.writePump()
	go client.readPump()

	// 4. Greet with the current state
	if h.dispatcher != nil {
		h.dispatcher.Connected(client)
	}
}

// readPump pumps messages from the websocket connection to the dispatcher.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("client", c.ID).Warn("WS Error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.WithError(err).WithField("client", c.ID).Warn("WS: Ignoring malformed message")
			continue
		}
		msg.Sender = c.ID

		if c.hub.dispatcher != nil {
			c.hub.dispatcher.Received(c, msg)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	// Range over the channel. This loop exits when c.send is closed.
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
