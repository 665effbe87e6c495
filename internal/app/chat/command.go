/*
Package chat contains the core logic for realtime group messaging.

This file decodes raw inbound frames into strongly typed commands. Anything that is
not valid JSON, carries an unknown type, or lacks a required field is rejected here
and never reaches the Manager.
*/
package chat

import (
	"bytes"
	"encoding/json"

	"roomcast/internal/pkg/errs"
	"roomcast/internal/pkg/randx"
)

// Command is one decoded client request.
type Command interface {
	Type() EventType
}

// JoinCommand announces the connection's display name.
type JoinCommand struct {
	DisplayName string
}

// SendMessageCommand posts a broadcast message.
type SendMessageCommand struct {
	Body string
}

// PrivateMessageCommand sends a direct message to one connection.
type PrivateMessageCommand struct {
	TargetID string
	Body     string
}

// TypingCommand toggles the connection's typing indicator.
type TypingCommand struct {
	IsTyping bool
}

func (JoinCommand) Type() EventType           { return TypeJoin }
func (SendMessageCommand) Type() EventType    { return TypeSendMessage }
func (PrivateMessageCommand) Type() EventType { return TypePrivateMessage }
func (TypingCommand) Type() EventType         { return TypeTyping }

type inboundEnvelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeCommand parses one inbound frame. Errors are *errs.CustomError values.
func DecodeCommand(frame []byte) (Command, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, errs.NewError(errs.ErrInvalidJSONFormat)
	}

	switch env.Type {
	case TypeJoin:
		return decodeJoin(env.Payload)
	case TypeSendMessage:
		return decodeSendMessage(env.Payload)
	case TypePrivateMessage:
		return decodePrivateMessage(env.Payload)
	case TypeTyping:
		return decodeTyping(env.Payload)
	default:
		return nil, errs.NewError(errs.ErrUnsupportedEventType)
	}
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeJoin accepts {"displayName": "..."}, a bare JSON string, or no payload at all.
func decodeJoin(raw json.RawMessage) (Command, error) {
	if isAbsent(raw) {
		return JoinCommand{}, nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return JoinCommand{DisplayName: name}, nil
	}

	var payload struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	return JoinCommand{DisplayName: payload.DisplayName}, nil
}

func decodeSendMessage(raw json.RawMessage) (Command, error) {
	var payload struct {
		Body *string `json:"body"`
	}
	if isAbsent(raw) || json.Unmarshal(raw, &payload) != nil || payload.Body == nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	return SendMessageCommand{Body: *payload.Body}, nil
}

func decodePrivateMessage(raw json.RawMessage) (Command, error) {
	var payload struct {
		TargetID string  `json:"targetId"`
		Body     *string `json:"body"`
	}
	if isAbsent(raw) || json.Unmarshal(raw, &payload) != nil || payload.Body == nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if !randx.IsConnectionID(payload.TargetID) {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	return PrivateMessageCommand{TargetID: payload.TargetID, Body: *payload.Body}, nil
}

// decodeTyping accepts {"isTyping": bool} or a bare JSON bool.
func decodeTyping(raw json.RawMessage) (Command, error) {
	if isAbsent(raw) {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return TypingCommand{IsTyping: flag}, nil
	}

	var payload struct {
		IsTyping *bool `json:"isTyping"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.IsTyping == nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	return TypingCommand{IsTyping: *payload.IsTyping}, nil
}
