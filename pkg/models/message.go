package models

import "time"

// Message types for WebSocket communication
const (
	MessageTypePlay            = "play"
	MessageTypeGameUpdate      = "game_update"
	MessageTypeGameFinal       = "game_final"
	MessageTypeSubscribe       = "subscribe"
	MessageTypeUnsubscribe     = "unsubscribe"
	MessageTypeHeartbeat       = "heartbeat"
	MessageTypeError           = "error"
	MessageTypeConnectionStats = "connection_stats"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// GameEvent is a game-scoped payload routed by the hub
type GameEvent struct {
	Type     string // one of the server message types
	GameID   string
	SportKey string
	Teams    []string // abbreviations of both sides
	Payload  interface{}
}

// SubscriptionFilter represents client subscription preferences
type SubscriptionFilter struct {
	Sports []string `json:"sports,omitempty"` // Filter by sport keys
	Games  []string `json:"games,omitempty"`  // Filter by game IDs
	Teams  []string `json:"teams,omitempty"`  // Filter by team abbreviations
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID          string    `json:"client_id"`
	ConnectedAt       time.Time `json:"connected_at"`
	MessagesSent      int64     `json:"messages_sent"`
	MessagesReceived  int64     `json:"messages_received"`
	LastMessageAt     time.Time `json:"last_message_at"`
	BufferSize        int       `json:"buffer_size"`
	BufferUtilization float64   `json:"buffer_utilization"` // Percentage
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
