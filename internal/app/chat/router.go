/*
Package chat contains the core logic for realtime group messaging.

This file defines the Router, which fans an Event out to every connection, to every
connection but one, or to a single connection. Delivery never blocks: each recipient
has a bounded queue, and a recipient whose queue is full is closed asynchronously
instead of stalling everyone else.
*/
package chat

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"roomcast/internal/pkg/logx"
)

// Recipient is the transport side of one connection as seen by the Router.
type Recipient interface {
	// Enqueue queues a frame for delivery without blocking. It returns false if the frame was not queued.
	Enqueue(frame []byte) bool

	// Release signals that no more frames will be enqueued; the transport may flush and close.
	Release()

	// Close tears the connection down. It may be called from any goroutine.
	Close()
}

// TargetKind selects the recipients of a delivery.
type TargetKind int

const (
	// TargetAll delivers to every connection.
	TargetAll TargetKind = iota

	// TargetAllExcept delivers to every connection except Target.ID.
	TargetAllExcept

	// TargetOnly delivers to Target.ID alone.
	TargetOnly
)

// Target describes who receives a delivery.
type Target struct {
	Kind TargetKind
	ID   string
}

// All targets every connection.
func All() Target { return Target{Kind: TargetAll} }

// AllExcept targets every connection but id.
func AllExcept(id string) Target { return Target{Kind: TargetAllExcept, ID: id} }

// Only targets the single connection id.
func Only(id string) Target { return Target{Kind: TargetOnly, ID: id} }

// Router tracks the live recipients and delivers events to them.
// It is not safe for concurrent use; the Manager calls it under its own lock,
// which is what keeps per-recipient event order equal to call order.
type Router struct {
	// recipients maps connection identity to its transport.
	recipients map[string]Recipient

	// evicting holds identities whose queue overflowed and that are being closed.
	evicting map[string]struct{}

	logger zerolog.Logger
}

// NewRouter returns a Router with no recipients.
func NewRouter() *Router {
	return &Router{
		recipients: make(map[string]Recipient),
		evicting:   make(map[string]struct{}),
		logger:     logx.Component("Router"),
	}
}

// Add registers rc under id.
func (r *Router) Add(id string, rc Recipient) {
	r.recipients[id] = rc
}

// Has reports whether id is a live recipient.
func (r *Router) Has(id string) bool {
	_, ok := r.recipients[id]
	return ok
}

// Remove unregisters id and releases its transport. It returns false if id was unknown.
func (r *Router) Remove(id string) bool {
	rc, ok := r.recipients[id]
	if !ok {
		return false
	}
	delete(r.recipients, id)
	delete(r.evicting, id)
	rc.Release()
	return true
}

// RemoveAll unregisters and releases every recipient.
func (r *Router) RemoveAll() {
	for id := range r.recipients {
		r.Remove(id)
	}
}

// Len returns the number of live recipients.
func (r *Router) Len() int {
	return len(r.recipients)
}

// Deliver sends evt to target. Per-recipient failures are logged and isolated.
func (r *Router) Deliver(evt Event, target Target) {
	frame, err := json.Marshal(evt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("event_type", string(evt.Type)).
			Msg("Error marshaling event for delivery.")
		return
	}

	switch target.Kind {
	case TargetOnly:
		if rc, ok := r.recipients[target.ID]; ok {
			r.send(target.ID, rc, frame, evt.Type)
		}

	case TargetAllExcept:
		for id, rc := range r.recipients {
			if id != target.ID {
				r.send(id, rc, frame, evt.Type)
			}
		}

	default:
		for id, rc := range r.recipients {
			r.send(id, rc, frame, evt.Type)
		}
	}
}

func (r *Router) send(id string, rc Recipient, frame []byte, eventType EventType) {
	if _, ok := r.evicting[id]; ok {
		return
	}

	if rc.Enqueue(frame) {
		return
	}

	r.logger.Warn().
		Str("conn_id", id).
		Str("event_type", string(eventType)).
		Msg("Recipient queue full or closed, closing connection.")

	r.evicting[id] = struct{}{}
	go rc.Close()
}
