// Package state manages the loaded worlds. Each group's world is loaded
// lazily from the store, guarded by its own mutex, and written back after
// every mutating operation.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/nathoo/dpcq/engine/dungeon"
	"github.com/nathoo/dpcq/engine/save"
	"github.com/nathoo/dpcq/engine/world"
	"github.com/nathoo/dpcq/store"
)

// Entry is one group's live state. Dungeons are never persisted.
type Entry struct {
	mu       sync.Mutex
	World    *world.World
	Dungeons *dungeon.Manager
}

// Registry holds the loaded entries.
type Registry struct {
	store store.Store
	log   *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewRegistry creates a registry over a store.
func NewRegistry(st store.Store, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{store: st, log: log, entries: map[string]*Entry{}}
}

// PersistError reports a world whose mutation could not be saved. The
// in-memory copy is discarded and reloaded from the last good save.
type PersistError struct {
	GroupID string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist world %s: %v", e.GroupID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (r *Registry) entry(groupID string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[groupID]
	if !ok {
		e = &Entry{}
		r.entries[groupID] = e
	}
	return e
}

// load fills e from the store. Caller holds e.mu.
func (r *Registry) load(ctx context.Context, groupID string, e *Entry) error {
	if e.Dungeons == nil {
		e.Dungeons = dungeon.NewManager()
	}
	if e.World != nil {
		return nil
	}
	data, err := r.store.Get(ctx, groupID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		e.World = world.New(groupID)
		return nil
	case err != nil:
		return fmt.Errorf("load world %s: %w", groupID, err)
	}
	w, err := save.Load(groupID, data)
	if err != nil {
		return err
	}
	e.World = w
	r.log.Debug("world loaded", "group", groupID, "players", len(w.Players))
	return nil
}

// With runs fn while holding the group's lock. When fn reports a change
// the world is saved before the lock is released.
func (r *Registry) With(ctx context.Context, groupID string, fn func(e *Entry) (changed bool)) error {
	e := r.entry(groupID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := r.load(ctx, groupID, e); err != nil {
		return err
	}
	if !fn(e) {
		return nil
	}
	if err := r.persist(ctx, groupID, e.World); err != nil {
		e.World = nil
		r.log.Error("world rolled back", "group", groupID, "err", err)
		return &PersistError{GroupID: groupID, Err: err}
	}
	return nil
}

func (r *Registry) persist(ctx context.Context, groupID string, w *world.World) error {
	data, err := save.Save(w)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, groupID, data)
}

// Wipe deletes a group's saved world and starts it afresh.
func (r *Registry) Wipe(ctx context.Context, groupID string) error {
	e := r.entry(groupID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := r.store.Delete(ctx, groupID); err != nil {
		return fmt.Errorf("wipe world %s: %w", groupID, err)
	}
	e.World = world.New(groupID)
	e.Dungeons = dungeon.NewManager()
	return nil
}

// Reload drops the in-memory world so the next access reads the store.
func (r *Registry) Reload(groupID string) {
	e := r.entry(groupID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.World = nil
	e.Dungeons = dungeon.NewManager()
}

// Groups lists every group known to the store or loaded in memory.
func (r *Registry) Groups(ctx context.Context) ([]string, error) {
	ids, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	r.mu.Lock()
	for id := range r.entries {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids, nil
}
