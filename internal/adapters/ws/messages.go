package ws

import (
	"time"

	"item-service/internal/ports/outbound"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypePing MessageType = "ping"

	// Server to Client message types
	MessageTypeItemEvent MessageType = "item_event"
	MessageTypePong      MessageType = "pong"
	MessageTypeError     MessageType = "error"
)

// ClientMessage represents a message sent from client to server
type ClientMessage struct {
	Type MessageType `json:"type"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type      MessageType     `json:"type"`
	Event     *outbound.Event `json:"event,omitempty"`
	Error     *string         `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
	}
}

func NewEventMessage(event outbound.Event) *ServerMessage {
	msg := NewServerMessage(MessageTypeItemEvent)
	msg.Event = &event
	return msg
}

func NewErrorMessage(err string) *ServerMessage {
	msg := NewServerMessage(MessageTypeError)
	msg.Error = &err
	return msg
}
