/*
Package chat contains the core logic for realtime group messaging: connection identities,
presence and typing state, message fan-out, and the bounded message history.

This file defines the wire envelope shared by every websocket frame, the event type
vocabulary in both directions, and the Message record.
*/
package chat

import (
	"encoding/json"
	"time"

	"roomcast/internal/app/user"
)

// EventType names the kind of a websocket frame.
type EventType string

// Inbound event types, sent by clients.
const (
	TypeJoin           EventType = "join"
	TypeSendMessage    EventType = "send-message"
	TypePrivateMessage EventType = "private-message"
	TypeTyping         EventType = "typing"
)

// Outbound event types, emitted by the server.
const (
	TypeConnected  EventType = "connected"
	TypeUserList   EventType = "user-list"
	TypeUserJoined EventType = "user-joined"
	TypeUserLeft   EventType = "user-left"
	TypeMessage    EventType = "message"
	TypeTypingList EventType = "typing-list"
	TypeError      EventType = "error"
)

// Event is the envelope of every frame: a type tag plus a type-specific JSON payload.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals payload and wraps it in an Event of the given type.
func NewEvent(eventType EventType, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// Message is an immutable chat message. Broadcast messages are kept in the history;
// private ones are delivered to the sender and the target only and never stored.
type Message struct {
	// ID is strictly increasing in creation order across the life of the history.
	ID int64 `json:"id"`

	// SenderID is the connection identity of the author.
	SenderID string `json:"senderId"`

	// Sender is the author's display name at the time of sending.
	Sender string `json:"sender"`

	// Body is the message text, stored as received.
	Body string `json:"message"`

	// Timestamp is the server-side creation time in UTC.
	Timestamp time.Time `json:"timestamp"`

	// IsPrivate marks a direct message; TargetID is then the recipient identity.
	IsPrivate bool   `json:"isPrivate"`
	TargetID  string `json:"targetId,omitempty"`
}

// ConnectedPayload tells a freshly connected client its own identity.
type ConnectedPayload struct {
	ID string `json:"id"`
}

// UserEventPayload is the payload of user-joined and user-left.
type UserEventPayload = user.User

// ErrorPayload is the payload of an error event sent to a single connection.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
