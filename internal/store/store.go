// Package store holds the process-wide merged view of current prices with
// change notification.
//
// The store is created once at startup and outlives any individual
// subscriber. All mutation funnels through Update; updates to different
// assets do not block each other, and a reader never observes a half-written
// record.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/buffer"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
)

// Callback receives the full current snapshot after every accepted update.
// Subscribers never need to reconstruct state from deltas.
type Callback func(model.Snapshot)

// entry is the per-asset slot. Each entry has its own lock so concurrent
// updates to different assets proceed independently.
type entry struct {
	mu  sync.RWMutex
	rec model.PriceRecord
	set bool
}

// Store is the merged price state, updated by both the poll aggregator and
// the stream multiplexer.
type Store struct {
	mu      sync.RWMutex // guards the entries map shape, not record values
	entries map[string]*entry

	subMu sync.RWMutex
	subs  map[uuid.UUID]Callback

	// journal receives every accepted update, for the history writer.
	// Nil when history is disabled.
	journal *buffer.Growable[model.PriceUpdate]
}

// Option configures a Store.
type Option func(*Store)

// WithJournal attaches a buffer that receives every accepted update.
func WithJournal(buf *buffer.Growable[model.PriceUpdate]) Option {
	return func(s *Store) { s.journal = buf }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		subs:    make(map[uuid.UUID]Callback),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update applies rec for the asset id if it is not older than the stored
// record. Stale updates (a poll that resolved after a newer stream tick)
// are discarded silently. Returns whether the update was accepted.
func (s *Store) Update(id string, rec model.PriceRecord) bool {
	e := s.slot(id)

	e.mu.Lock()
	if e.set && !rec.NewerThan(e.rec) {
		e.mu.Unlock()
		return false
	}
	e.rec = rec
	e.set = true
	e.mu.Unlock()

	if s.journal != nil {
		s.journal.Send(model.PriceUpdate{AssetID: id, Record: rec})
	}

	s.notify()
	return true
}

// Get returns the current record for one asset.
func (s *Store) Get(id string) (model.PriceRecord, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return model.PriceRecord{}, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.set {
		return model.PriceRecord{}, false
	}
	return e.rec, true
}

// Snapshot returns an instantaneous copy of all current records. Safe to
// call from any number of concurrent readers.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	entries := make([]*entry, 0, len(s.entries))
	for id, e := range s.entries {
		ids = append(ids, id)
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	snap := make(model.Snapshot, len(ids))
	for i, e := range entries {
		e.mu.RLock()
		if e.set {
			snap[ids[i]] = e.rec
		}
		e.mu.RUnlock()
	}
	return snap
}

// Len returns the number of assets with a record.
func (s *Store) Len() int {
	return len(s.Snapshot())
}

// Subscribe registers a callback invoked on every accepted update. The
// returned function detaches the subscription; it is safe to call more
// than once.
func (s *Store) Subscribe(fn Callback) (unsubscribe func()) {
	id := uuid.New()

	s.subMu.Lock()
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// slot returns the entry for id, creating it when first seen.
func (s *Store) slot(id string) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e
	}
	e = &entry{}
	s.entries[id] = e
	return e
}

// notify delivers the current snapshot to every subscriber.
func (s *Store) notify() {
	s.subMu.RLock()
	if len(s.subs) == 0 {
		s.subMu.RUnlock()
		return
	}
	fns := make([]Callback, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
