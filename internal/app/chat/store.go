/*
Package chat contains the core logic for realtime group messaging.

This file defines the MessageStore, the bounded in-memory history of broadcast
messages, and its rehydration from a storage.SnapshotStore at startup.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"roomcast/internal/app/storage"
	"roomcast/internal/pkg/logx"
)

// DefaultHistoryLimit is the number of broadcast messages kept when no limit is configured.
const DefaultHistoryLimit = 500

// loadTimeout bounds the startup read of the persisted snapshot.
const loadTimeout = 10 * time.Second

// MessageStore is an ordered, FIFO-evicting log of the most recent broadcast messages.
// It is not safe for concurrent use; the Manager serializes access.
type MessageStore struct {
	capacity int
	messages []Message
}

// NewMessageStore returns an empty store holding at most capacity messages.
// A non-positive capacity selects DefaultHistoryLimit.
func NewMessageStore(capacity int) *MessageStore {
	if capacity <= 0 {
		capacity = DefaultHistoryLimit
	}
	return &MessageStore{
		capacity: capacity,
		messages: make([]Message, 0, capacity),
	}
}

// Append adds msg at the tail, evicting from the head while over capacity.
func (s *MessageStore) Append(msg Message) {
	s.messages = append(s.messages, msg)

	if over := len(s.messages) - s.capacity; over > 0 {
		n := copy(s.messages, s.messages[over:])
		clear(s.messages[n:])
		s.messages = s.messages[:n]
	}
}

// Snapshot returns a copy of the current contents in creation order.
func (s *MessageStore) Snapshot() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of stored messages.
func (s *MessageStore) Len() int {
	return len(s.messages)
}

// Capacity returns the maximum number of stored messages.
func (s *MessageStore) Capacity() int {
	return s.capacity
}

// LastID returns the id of the newest message, or zero when empty.
func (s *MessageStore) LastID() int64 {
	if len(s.messages) == 0 {
		return 0
	}
	return s.messages[len(s.messages)-1].ID
}

// LoadMessageStore builds a store of the given capacity and fills it from backend.
// A missing, unreadable, or unparseable snapshot yields an empty store; loading never fails.
// A nil backend means history is not persisted.
func LoadMessageStore(ctx context.Context, backend storage.SnapshotStore, capacity int) *MessageStore {
	store := NewMessageStore(capacity)
	if backend == nil {
		return store
	}

	logger := logx.Component("MessageStore")

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	data, err := backend.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Info().Msg("No persisted history found. Starting with an empty store.")
		} else {
			logger.Error().Err(err).Msg("Failed to read persisted history. Starting with an empty store.")
		}
		return store
	}

	var persisted []Message
	if err := json.Unmarshal(data, &persisted); err != nil {
		logger.Error().Err(err).Int("bytes", len(data)).Msg("Persisted history is corrupt. Starting with an empty store.")
		return store
	}

	for _, msg := range persisted {
		if msg.IsPrivate {
			continue
		}
		store.Append(msg)
	}

	logger.Info().
		Int("loaded", store.Len()).
		Int("capacity", store.Capacity()).
		Msg("Message history rehydrated.")

	return store
}
