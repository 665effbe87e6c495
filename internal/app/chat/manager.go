/*
Package chat contains the core logic for realtime group messaging.

This file defines the Manager, the session manager for the whole chat. It owns the
connection identities, the Presence Registry, the Typing Tracker, the MessageStore,
and the Router, and it is the only component that mutates them or triggers a
broadcast. Each operation runs as one critical section under a single mutex, so
no two operations interleave and every state change is followed by its broadcasts
before the next operation starts.
*/
package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomcast/internal/app/storage"
	"roomcast/internal/app/user"
	"roomcast/internal/pkg/errs"
	"roomcast/internal/pkg/logx"
	"roomcast/internal/pkg/randx"
)

// ErrUnknownSender is returned when a connection that has not joined tries to send.
var ErrUnknownSender = errs.NewError(errs.ErrUnknownSender)

// ErrManagerClosed is returned by Connect after Shutdown.
var ErrManagerClosed = errors.New("chat: manager is shut down")

// Manager struct is responsible for coordinating all sessions of the chat.
type Manager struct {
	// mu serializes every operation on the state below.
	mu sync.Mutex

	presence *Presence
	typing   *TypingTracker
	history  *MessageStore
	router   *Router

	// persister writes history snapshots in the background; nil when history is not persisted.
	persister *Persister

	// lastID is the most recently issued message id.
	lastID int64

	// now is the clock used for message timestamps and ids.
	now func() time.Time

	closed bool

	// structured logger with Manager context.
	logger zerolog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock used for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager constructs a Manager around an already rehydrated history.
// When backend is non-nil every broadcast message schedules a background write of the history to it.
func NewManager(history *MessageStore, backend storage.SnapshotStore, opts ...Option) *Manager {
	if history == nil {
		history = NewMessageStore(DefaultHistoryLimit)
	}

	m := &Manager{
		presence: NewPresence(),
		typing:   NewTypingTracker(),
		history:  history,
		router:   NewRouter(),
		lastID:   history.LastID(),
		now:      time.Now,
		logger:   logx.Component("Manager"),
	}

	for _, opt := range opts {
		opt(m)
	}

	if backend != nil {
		m.persister = NewPersister(backend)
	}

	m.logger.Info().
		Int("history_len", history.Len()).
		Int("history_cap", history.Capacity()).
		Bool("persistent", backend != nil).
		Msg("Manager started.")

	return m
}

// nextID issues a message id: the current Unix millisecond, bumped past the previous id when needed.
func (m *Manager) nextID(at time.Time) int64 {
	id := at.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return id
}

// emit builds an event and hands it to the Router. Callers must hold m.mu.
func (m *Manager) emit(eventType EventType, payload any, target Target) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("event_type", string(eventType)).
			Msg("Failed to build event.")
		return
	}
	m.router.Deliver(evt, target)
}

// Connect assigns a fresh identity to a new transport connection and registers it
// for deliveries. The connection receives a connected event carrying its identity.
func (m *Manager) Connect(rc Recipient) (string, error) {
	id := randx.ConnectionID()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrManagerClosed
	}

	m.router.Add(id, rc)
	m.emit(TypeConnected, ConnectedPayload{ID: id}, Only(id))

	m.logger.Debug().
		Str("conn_id", id).
		Int("connections", m.router.Len()).
		Msg("Connection attached.")

	return id, nil
}

// Join registers a User for identity and returns the updated user list. A join from an
// identity that already joined, or that is not connected, changes nothing and reports false.
// On success everyone receives the user list and everyone but the joiner receives user-joined.
func (m *Manager) Join(identity, displayName string) ([]user.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.router.Has(identity) {
		m.logger.Debug().Str("conn_id", identity).Msg("Ignoring join from a connection that is not attached.")
		return m.presence.Snapshot(), false
	}

	u := user.New(identity, displayName)
	if !m.presence.Add(u) {
		m.logger.Debug().Str("conn_id", identity).Msg("Ignoring duplicate join.")
		return m.presence.Snapshot(), false
	}

	users := m.presence.Snapshot()

	m.emit(TypeUserList, users, All())
	m.emit(TypeUserJoined, UserEventPayload(u), AllExcept(identity))

	m.logger.Info().
		Str("conn_id", identity).
		Str("display_name", u.DisplayName).
		Int("total_users", len(users)).
		Msg("User joined.")

	return users, true
}

// SendBroadcastMessage records body as a new message from identity, schedules the history
// write, and delivers the message to every connection including the sender.
func (m *Manager) SendBroadcastMessage(identity, body string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sender, ok := m.presence.Get(identity)
	if !ok {
		return Message{}, ErrUnknownSender
	}

	at := m.now().UTC()
	msg := Message{
		ID:        m.nextID(at),
		SenderID:  identity,
		Sender:    sender.DisplayName,
		Body:      body,
		Timestamp: at,
	}

	m.history.Append(msg)
	if m.persister != nil {
		m.persister.Schedule(m.history.Snapshot())
	}

	m.emit(TypeMessage, msg, All())

	return msg, nil
}

// SendPrivateMessage delivers body to targetIdentity and echoes it back to the sender.
// The target is not checked: sending to an identity that is gone delivers nothing to it.
// Private messages are never added to the history.
func (m *Manager) SendPrivateMessage(identity, targetIdentity, body string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sender, ok := m.presence.Get(identity)
	if !ok {
		return Message{}, ErrUnknownSender
	}

	at := m.now().UTC()
	msg := Message{
		ID:        m.nextID(at),
		SenderID:  identity,
		Sender:    sender.DisplayName,
		Body:      body,
		Timestamp: at,
		IsPrivate: true,
		TargetID:  targetIdentity,
	}

	m.emit(TypeMessage, msg, Only(targetIdentity))
	if targetIdentity != identity {
		m.emit(TypeMessage, msg, Only(identity))
	}

	m.logger.Debug().
		Str("conn_id", identity).
		Str("target_id", targetIdentity).
		Int64("message_id", msg.ID).
		Msg("Private message delivered.")

	return msg, nil
}

// SetTyping updates the typing state of identity and broadcasts the full typing list.
// It does nothing for an identity that has not joined.
func (m *Manager) SetTyping(identity string, isTyping bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.presence.Get(identity)
	if !ok {
		return
	}

	m.typing.Set(identity, u.DisplayName, isTyping)
	m.emit(TypeTypingList, m.typing.Names(), All())
}

// Disconnect detaches identity and removes its User and typing entry in one step, then
// broadcasts user-left, the user list, and the typing list. It is idempotent; for an
// identity that never joined it only detaches the connection.
func (m *Manager) Disconnect(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	detached := m.router.Remove(identity)
	departed, joined := m.presence.Remove(identity)
	m.typing.Clear(identity)

	if detached {
		m.logger.Debug().
			Str("conn_id", identity).
			Int("connections", m.router.Len()).
			Msg("Connection detached.")
	}

	if !joined {
		return
	}

	m.emit(TypeUserLeft, UserEventPayload(departed), All())
	m.emit(TypeUserList, m.presence.Snapshot(), All())
	m.emit(TypeTypingList, m.typing.Names(), All())

	m.logger.Info().
		Str("conn_id", identity).
		Str("display_name", departed.DisplayName).
		Int("total_users", m.presence.Len()).
		Msg("User left.")
}

// SendError delivers an error event to identity only.
func (m *Manager) SendError(identity string, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.emit(TypeError, ErrorPayload{Code: customErr.Code, Message: customErr.Message}, Only(identity))
}

// History returns the stored broadcast messages, oldest first.
func (m *Manager) History() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.history.Snapshot()
}

// OnlineUsers returns the joined users in join order.
func (m *Manager) OnlineUsers() []user.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.presence.Snapshot()
}

// TypingUsers returns the display names of users currently typing.
func (m *Manager) TypingUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.typing.Names()
}

// Shutdown releases every connection, clears presence, and flushes the history.
// Connect fails afterwards; every other operation becomes a no-op.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down Manager...")

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.router.RemoveAll()
	m.presence = NewPresence()
	m.typing = NewTypingTracker()
	m.mu.Unlock()

	if m.persister != nil {
		m.persister.Close()
	}

	m.logger.Info().Msg("Manager shutdown complete.")
}
