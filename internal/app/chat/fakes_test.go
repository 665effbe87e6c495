package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"roomcast/internal/app/storage"
	"roomcast/internal/app/user"
)

// recorder is an in-memory Recipient that keeps every frame it is given.
type recorder struct {
	mu       sync.Mutex
	events   []Event
	full     bool
	released bool
	closed   bool
}

func (r *recorder) Enqueue(frame []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full || r.released {
		return false
	}

	var evt Event
	if err := json.Unmarshal(frame, &evt); err != nil {
		panic(err)
	}
	r.events = append(r.events, evt)
	return true
}

func (r *recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
}

func (r *recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recorder) setFull(full bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.full = full
}

func (r *recorder) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *recorder) isReleased() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// all returns every recorded event.
func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// types returns the recorded event types in order, skipping connected.
func (r *recorder) types() []EventType {
	var out []EventType
	for _, evt := range r.all() {
		if evt.Type != TypeConnected {
			out = append(out, evt.Type)
		}
	}
	return out
}

// ofType returns the recorded events of one type in order.
func (r *recorder) ofType(eventType EventType) []Event {
	var out []Event
	for _, evt := range r.all() {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func decodePayload[T any](t *testing.T, evt Event) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(evt.Payload, &out))
	return out
}

func lastUserList(t *testing.T, r *recorder) []user.User {
	t.Helper()
	lists := r.ofType(TypeUserList)
	require.NotEmpty(t, lists, "expected at least one user-list event")
	return decodePayload[[]user.User](t, lists[len(lists)-1])
}

func lastTypingList(t *testing.T, r *recorder) []string {
	t.Helper()
	lists := r.ofType(TypeTypingList)
	require.NotEmpty(t, lists, "expected at least one typing-list event")
	return decodePayload[[]string](t, lists[len(lists)-1])
}

func messages(t *testing.T, r *recorder) []Message {
	t.Helper()
	var out []Message
	for _, evt := range r.ofType(TypeMessage) {
		out = append(out, decodePayload[Message](t, evt))
	}
	return out
}

// connect attaches a new recorder and returns its identity.
func connect(t *testing.T, m *Manager) (string, *recorder) {
	t.Helper()
	rc := &recorder{}
	id, err := m.Connect(rc)
	require.NoError(t, err)
	return id, rc
}

// memBackend is an in-memory storage.SnapshotStore.
type memBackend struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	saveErr error
	loadErr error
}

func (b *memBackend) Load(context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loadErr != nil {
		return nil, b.loadErr
	}
	if b.data == nil {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b.data...), nil
}

func (b *memBackend) Save(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.saves++
	if b.saveErr != nil {
		return b.saveErr
	}
	b.data = append([]byte(nil), data...)
	return nil
}

func (b *memBackend) Close() error { return nil }

func (b *memBackend) stored(t *testing.T) []Message {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return nil
	}
	var out []Message
	require.NoError(t, json.Unmarshal(b.data, &out))
	return out
}

func (b *memBackend) saveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}
