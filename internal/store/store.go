// Package store owns the in-process copy of every collection and serializes
// all writes to it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/msomdec/clinic-booking/internal/domain"
)

var ErrClosed = errors.New("store closed")

// Listener is told about every committed snapshot. The snapshot is shared
// and must not be modified.
type Listener func(snap *domain.Snapshot)

// SeedFunc builds the initial snapshot for an empty gateway.
type SeedFunc func() (*domain.Snapshot, error)

// Store is the entity store. Committed snapshots are never modified in
// place: Update works on a clone and swaps it in after the gateway accepts
// it, so a failed mutation leaves the store exactly as it was.
type Store struct {
	mu        sync.Mutex
	gw        domain.Gateway
	snap      *domain.Snapshot
	listeners []Listener
	closed    bool
}

// Open loads the current snapshot from gw. An empty gateway is seeded with
// seed (or an empty snapshot when seed is nil) and saved immediately.
func Open(ctx context.Context, gw domain.Gateway, seed SeedFunc) (*Store, error) {
	snap, err := gw.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNoSnapshot):
		snap = &domain.Snapshot{NextIDs: make(map[string]int64)}
		if seed != nil {
			if snap, err = seed(); err != nil {
				return nil, fmt.Errorf("build seed: %w", err)
			}
		}
		if err := gw.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("save seed: %w", err)
		}
		slog.Info("store seeded",
			"users", len(snap.Users), "doctors", len(snap.Doctors), "appointments", len(snap.Appointments))
	case err != nil:
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return &Store{gw: gw, snap: snap}, nil
}

// OnCommit registers l and calls it once with the current snapshot.
func (s *Store) OnCommit(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
	notify(l, s.snap)
}

// View runs fn against the committed snapshot. fn must not modify it or keep
// references to its slices.
func (s *Store) View(fn func(snap *domain.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snap)
}

// Update runs fn against a private copy of the state. If fn succeeds the copy
// is persisted, committed, and handed to every listener, all while holding
// the write lock, so checks made inside fn cannot be invalidated by another
// writer.
func (s *Store) Update(ctx context.Context, fn func(snap *domain.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	next := s.snap.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.gw.Save(ctx, next); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	s.snap = next

	slog.Debug("store commit",
		"users", len(next.Users), "doctors", len(next.Doctors), "appointments", len(next.Appointments))
	for _, l := range s.listeners {
		notify(l, next)
	}
	return nil
}

// Close closes the gateway. Later updates fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.gw.Close()
}

// notify shields the writer from a misbehaving listener.
func notify(l Listener, snap *domain.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("commit listener panicked", "panic", r)
		}
	}()
	l(snap)
}
