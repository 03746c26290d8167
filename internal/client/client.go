package client

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must stay below pongWait
	maxMessageSize = 1024

	// SendBufferSize is the number of outbound messages a client may lag behind
	SendBufferSize = 256
)

// Hub is the side of the broadcast hub a client talks to
type Hub interface {
	Unregister(client *Client)
}

// traffic counts messages in both directions
type traffic struct {
	sent     int64
	received int64
	last     time.Time
}

// Client is one websocket subscriber. The hub writes into Send with
// TrySend and ends the client with Close; Send is never closed any other
// way, so replies from the read side cannot race a disconnect.
type Client struct {
	ID   string
	Send chan models.ServerMessage

	conn        *websocket.Conn
	hub         Hub
	connectedAt time.Time

	mu      sync.Mutex
	closed  bool
	filter  models.SubscriptionFilter
	traffic traffic
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, hub Hub) *Client {
	return &Client{
		ID:          id,
		Send:        make(chan models.ServerMessage, SendBufferSize),
		conn:        conn,
		hub:         hub,
		connectedAt: time.Now(),
	}
}

// TrySend queues a message without blocking. It reports false when the
// buffer is full or the client has been closed.
func (c *Client) TrySend(msg models.ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// Close stops delivery and closes Send so WritePump can say goodbye.
// Calling it more than once is harmless.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Closed reports whether Close has been called
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReadPump reads subscription requests until the peer goes away or ctx is
// done, then unregisters the client
func (c *Client) ReadPump(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer func() {
		stop()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("client %s unexpected close: %v\n", c.ID, err)
			}
			return
		}

		c.mu.Lock()
		c.traffic.received++
		c.traffic.last = time.Now()
		c.mu.Unlock()

		c.HandleMessage(msg)
	}
}

// WritePump drains Send onto the socket and keeps the peer alive with pings
func (c *Client) WritePump(ctx context.Context) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.writeClose(websocket.CloseGoingAway)
			return

		case msg, ok := <-c.Send:
			if !ok {
				c.writeClose(websocket.CloseNormalClosure)
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				fmt.Printf("client %s write error: %v\n", c.ID, err)
				return
			}

			c.mu.Lock()
			c.traffic.sent++
			c.traffic.last = time.Now()
			c.mu.Unlock()

		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeClose(code int) {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), time.Now().Add(writeWait))
}

// SetFilter updates the client's subscription filter
func (c *Client) SetFilter(filter models.SubscriptionFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = filter
}

// GetFilter returns the client's current filter
func (c *Client) GetFilter() models.SubscriptionFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// MatchesFilter checks if a game event matches the client's filter.
// Every non-empty criterion must match; a team criterion matches either side.
func (c *Client) MatchesFilter(event models.GameEvent) bool {
	c.mu.Lock()
	f := c.filter
	c.mu.Unlock()

	if len(f.Sports) > 0 && !slices.Contains(f.Sports, event.SportKey) {
		return false
	}
	if len(f.Games) > 0 && !slices.Contains(f.Games, event.GameID) {
		return false
	}
	if len(f.Teams) == 0 {
		return true
	}
	return slices.ContainsFunc(event.Teams, func(team string) bool {
		return slices.Contains(f.Teams, team)
	})
}

// GetStats returns connection statistics
func (c *Client) GetStats() models.ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return models.ConnectionStats{
		ClientID:          c.ID,
		ConnectedAt:       c.connectedAt,
		MessagesSent:      c.traffic.sent,
		MessagesReceived:  c.traffic.received,
		LastMessageAt:     c.traffic.last,
		BufferSize:        SendBufferSize,
		BufferUtilization: float64(len(c.Send)) / SendBufferSize * 100,
	}
}

// HandleMessage answers one client message. Replies are dropped once the
// client is closed.
func (c *Client) HandleMessage(msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeSubscribe:
		filter, err := decodeFilter(msg.Payload)
		if err != nil {
			c.replyError("invalid_filter", "failed to parse filter")
			return
		}
		c.SetFilter(filter)
		fmt.Printf("client %s subscribed: sports=%v games=%v teams=%v\n",
			c.ID, filter.Sports, filter.Games, filter.Teams)

	case models.MessageTypeUnsubscribe:
		c.SetFilter(models.SubscriptionFilter{})
		fmt.Printf("client %s unsubscribed\n", c.ID)

	case models.MessageTypeHeartbeat:
		c.reply(models.MessageTypeHeartbeat, c.GetStats())

	default:
		c.replyError("unknown_message_type", "unknown message type: "+msg.Type)
	}
}

// decodeFilter reads a subscribe payload. Team abbreviations are matched
// upper case.
func decodeFilter(payload map[string]interface{}) (models.SubscriptionFilter, error) {
	var filter models.SubscriptionFilter

	raw, err := json.Marshal(payload)
	if err != nil {
		return filter, err
	}
	if err := json.Unmarshal(raw, &filter); err != nil {
		return filter, err
	}

	for i, team := range filter.Teams {
		filter.Teams[i] = strings.ToUpper(strings.TrimSpace(team))
	}
	return filter, nil
}

func (c *Client) reply(messageType string, payload interface{}) {
	c.TrySend(models.ServerMessage{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

func (c *Client) replyError(code, message string) {
	c.reply(models.MessageTypeError, models.ErrorMessage{Code: code, Message: message})
}
