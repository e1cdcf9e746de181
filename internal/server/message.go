package server

import (
	"encoding/json"
	"time"
)

// MessageType discriminates websocket frames.
type MessageType string

const (
	// MessageTypeSnapshot carries the full game snapshot. Sent on every
	// authoritative change.
	MessageTypeSnapshot MessageType = "snapshot"
	// MessageTypeHello is sent by a client after connecting to identify
	// its viewing role.
	MessageTypeHello MessageType = "hello"
	// MessageTypeError reports a client-facing problem on the socket.
	MessageTypeError MessageType = "error"
)

// Message is the websocket envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// HelloData identifies the connecting viewer. Connections that never say
// hello get the display projection, which leaks nothing.
type HelloData struct {
	Role     string `json:"role"`
	PlayerID string `json:"player_id,omitempty"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
