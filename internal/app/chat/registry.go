/*
Package chat contains the core logic for realtime group messaging.

This file defines the Presence Registry and the Typing Tracker. Both are plain state
holders with no locking of their own: every access goes through the Manager, which
serializes operations under its mutex. Iteration order is insertion order, so user
and typing lists come out in the order people arrived.
*/
package chat

import (
	"slices"

	"roomcast/internal/app/user"
)

// orderedMap is a map that remembers insertion order.
type orderedMap[V any] struct {
	order   []string
	entries map[string]V
}

func newOrderedMap[V any]() *orderedMap[V] {
	return &orderedMap[V]{entries: make(map[string]V)}
}

func (m *orderedMap[V]) get(key string) (V, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// set stores v under key, keeping the original position of an existing key.
func (m *orderedMap[V]) set(key string, v V) {
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = v
}

func (m *orderedMap[V]) delete(key string) (V, bool) {
	v, ok := m.entries[key]
	if !ok {
		return v, false
	}
	delete(m.entries, key)
	if i := slices.Index(m.order, key); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return v, true
}

func (m *orderedMap[V]) values() []V {
	out := make([]V, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.entries[key])
	}
	return out
}

func (m *orderedMap[V]) len() int {
	return len(m.entries)
}

// Presence maps connection identity to the joined User.
type Presence struct {
	users *orderedMap[user.User]
}

// NewPresence returns an empty registry.
func NewPresence() *Presence {
	return &Presence{users: newOrderedMap[user.User]()}
}

// Add registers u. It returns false, leaving the registry unchanged, if u.ID is already present.
func (p *Presence) Add(u user.User) bool {
	if _, exists := p.users.get(u.ID); exists {
		return false
	}
	p.users.set(u.ID, u)
	return true
}

// Get returns the User registered for id.
func (p *Presence) Get(id string) (user.User, bool) {
	return p.users.get(id)
}

// Remove unregisters id and returns the removed User.
func (p *Presence) Remove(id string) (user.User, bool) {
	return p.users.delete(id)
}

// Snapshot returns the registered users in join order.
func (p *Presence) Snapshot() []user.User {
	return p.users.values()
}

// Len returns the number of registered users.
func (p *Presence) Len() int {
	return p.users.len()
}

// TypingTracker maps connection identity to the display name of a user who is typing.
type TypingTracker struct {
	typing *orderedMap[string]
}

// NewTypingTracker returns an empty tracker.
func NewTypingTracker() *TypingTracker {
	return &TypingTracker{typing: newOrderedMap[string]()}
}

// Set marks id as typing (under displayName) or clears it.
func (t *TypingTracker) Set(id, displayName string, isTyping bool) {
	if isTyping {
		t.typing.set(id, displayName)
		return
	}
	t.typing.delete(id)
}

// Clear removes any typing entry for id.
func (t *TypingTracker) Clear(id string) {
	t.typing.delete(id)
}

// IsTyping reports whether id currently has an entry.
func (t *TypingTracker) IsTyping(id string) bool {
	_, ok := t.typing.get(id)
	return ok
}

// Names returns the display names of everyone typing, in the order they started.
func (t *TypingTracker) Names() []string {
	return t.typing.values()
}
