/*
Package chat contains the core logic for realtime group messaging.

This file defines the Persister, a single background goroutine that owns every write
of the history snapshot. The Manager hands it the latest snapshot and returns
immediately; pending snapshots coalesce so only the newest one is written, and an
older snapshot can never overwrite a newer one.
*/
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomcast/internal/app/storage"
	"roomcast/internal/pkg/errs"
	"roomcast/internal/pkg/logx"
)

// saveTimeout bounds a single write to the backend.
const saveTimeout = 10 * time.Second

// Persister writes history snapshots to a storage.SnapshotStore in the background.
type Persister struct {
	backend storage.SnapshotStore

	// mu protects pending, hasPending, and closed.
	mu         sync.Mutex
	pending    []Message
	hasPending bool
	closed     bool

	// wake has capacity one; a send means "there may be something to write".
	wake chan struct{}

	// quit is closed by Close to stop the run loop after a final flush.
	quit chan struct{}

	// wg is used to wait for the run goroutine to finish during Close.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewPersister starts the write loop for backend.
func NewPersister(backend storage.SnapshotStore) *Persister {
	p := &Persister{
		backend: backend,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		logger:  logx.Component("Persister"),
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Schedule records snapshot as the next state to write and returns without waiting.
// The caller must not modify snapshot afterwards. Calls after Close are ignored.
func (p *Persister) Schedule(snapshot []Message) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.pending = snapshot
	p.hasPending = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Persister) run() {
	defer p.wg.Done()

	p.logger.Info().Msg("Persist loop started.")

	for {
		select {
		case <-p.wake:
			p.flush()

		case <-p.quit:
			p.flush()
			p.logger.Info().Msg("Persist loop stopped.")
			return
		}
	}
}

// flush writes the pending snapshot, if any. Failures are logged and dropped;
// the in-memory history stays authoritative and the next Schedule retries with newer data.
func (p *Persister) flush() {
	p.mu.Lock()
	if !p.hasPending {
		p.mu.Unlock()
		return
	}
	snapshot := p.pending
	p.pending = nil
	p.hasPending = false
	p.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to encode history snapshot.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	start := time.Now()
	if err := p.backend.Save(ctx, data); err != nil {
		p.logger.Error().
			Err(err).
			Int("code", errs.ErrHistoryPersistFailed).
			Int("messages", len(snapshot)).
			Msg("Failed to persist message history.")
		return
	}

	p.logger.Debug().
		Int("messages", len(snapshot)).
		Int("bytes", len(data)).
		Dur("latency", time.Since(start)).
		Msg("Message history persisted.")
}

// Close stops the write loop after flushing any pending snapshot. It is safe to call more than once.
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()
}
